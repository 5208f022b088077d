package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
var (
	// ErrInvalidLead indicates the lead data failed validation.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidLead = errors.New("invalid lead")

	// ErrLeadConflict indicates a lead with the same email already exists.
	// API layer should map this to HTTP 409 Conflict.
	ErrLeadConflict = errors.New("lead with this email already exists")

	// ErrLeadNotFound indicates that the lead does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrLeadNotFound = errors.New("lead not found")
)

// LeadServiceError wraps errors from the lead service with context.
type LeadServiceError struct {
	// Operation is the operation that failed (e.g., "create_lead", "request_enrichment")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for LeadServiceError.
func (e *LeadServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lead service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("lead service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LeadServiceError) Unwrap() error {
	return e.Err
}

// NewLeadServiceError maps store and domain errors to service sentinels
// and wraps everything else in a LeadServiceError. Validation errors keep
// their detail so the API can report which field was wrong.
func NewLeadServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrLeadNotFound), errors.Is(err, ErrLeadConflict), errors.Is(err, ErrInvalidLead):
		return err
	case errors.Is(err, store.ErrLeadNotFound):
		return ErrLeadNotFound
	case errors.Is(err, store.ErrEmailExists):
		return ErrLeadConflict
	case errors.Is(err, domain.ErrValidation):
		return fmt.Errorf("%w: %w", ErrInvalidLead, err)
	}

	return &LeadServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/leadflow/internal/api/shared"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/service"
	"github.com/phrazzld/leadflow/internal/store"
)

// ErrInvalidID is returned when a path parameter is not a valid UUID.
var ErrInvalidID = errors.New("invalid ID")

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrLeadNotFound),
		errors.Is(err, store.ErrLeadNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrLeadConflict),
		errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidLead),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// fieldMessages maps domain validation errors to messages that are safe to
// return to clients.
var fieldMessages = []struct {
	err error
	msg string
}{
	{domain.ErrEmptyFirstName, "Invalid first_name: required field"},
	{domain.ErrEmptyLastName, "Invalid last_name: required field"},
	{domain.ErrEmptyLeadEmail, "Invalid email: required field"},
	{domain.ErrInvalidLeadEmail, "Invalid email: invalid email format"},
}

// GetSafeErrorMessage returns a user-friendly error message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrLeadNotFound),
		errors.Is(err, store.ErrLeadNotFound):
		return "Lead not found"

	case errors.Is(err, service.ErrLeadConflict),
		errors.Is(err, store.ErrEmailExists):
		return "A lead with this email already exists"

	case errors.Is(err, ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidLead):
		for _, fm := range fieldMessages {
			if errors.Is(err, fm.err) {
				return fm.msg
			}
		}
		return "Invalid lead data"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. defaultMsg
// replaces the generic message of unexpected (500) errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}

	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// SanitizeValidationError turns a validator error into a user-friendly
// message without exposing struct names.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'CreateLeadRequest.Email' Error:Field validation for 'Email' failed on the 'email' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}

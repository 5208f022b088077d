package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
)

// LeadStore defines the interface for lead persistence.
// Every method is atomic for a single record.
type LeadStore interface {
	// Create saves a new lead.
	// Returns ErrEmailExists if a lead with the same normalized email exists.
	// Returns validation errors from the domain Lead if data is invalid.
	Create(ctx context.Context, lead *domain.Lead) error

	// GetByID retrieves a lead by its unique ID.
	// Returns ErrLeadNotFound if the lead does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)

	// List returns all leads, newest first. Never returns a nil slice.
	List(ctx context.Context) ([]*domain.Lead, error)

	// Save persists the enrichment fields of an existing lead.
	// Writing the same values twice leaves the record unchanged.
	// Returns ErrLeadNotFound if no lead matched.
	Save(ctx context.Context, lead *domain.Lead) error

	// ListEmails returns the normalized email of every stored lead.
	ListEmails(ctx context.Context) ([]string, error)
}

// LeadCache is a short-lived snapshot cache in front of LeadStore reads.
type LeadCache interface {
	// Get returns the cached lead and true, or false on a miss.
	Get(ctx context.Context, id uuid.UUID) (*domain.Lead, bool, error)

	// Set stores a snapshot of the lead and resets its TTL.
	Set(ctx context.Context, lead *domain.Lead) error

	// Invalidate removes the cached snapshot. Missing entries are not an error.
	Invalidate(ctx context.Context, id uuid.UUID) error
}

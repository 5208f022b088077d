package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LeadSource identifies how a lead entered the system.
type LeadSource string

// Possible lead sources
const (
	LeadSourceManual   LeadSource = "manual"
	LeadSourceExternal LeadSource = "external"
)

// Validation errors for Lead
var (
	ErrEmptyLeadID       = fmt.Errorf("%w: lead ID cannot be empty", ErrValidation)
	ErrEmptyFirstName    = fmt.Errorf("%w: first name cannot be empty", ErrValidation)
	ErrEmptyLastName     = fmt.Errorf("%w: last name cannot be empty", ErrValidation)
	ErrEmptyLeadEmail    = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrInvalidLeadEmail  = fmt.Errorf("%w: %w", ErrValidation, ErrInvalidEmail)
	ErrInvalidLeadSource = fmt.Errorf("%w: invalid lead source", ErrValidation)
	ErrPartialEnrichment = fmt.Errorf("%w: summary and next action must be set together", ErrValidation)
	ErrEmptyEnrichment   = fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
)

var emailValidator = validator.New()

// Lead is a contact record tracked by the system. Summary and NextAction
// stay nil until an enrichment cycle succeeds, and are always set together.
type Lead struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone,omitempty"`
	Source     LeadSource `json:"source"`
	Summary    *string    `json:"summary"`
	NextAction *string    `json:"next_action"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Enrichment is the AI-generated output attached to a lead.
type Enrichment struct {
	Summary    string `json:"summary"`
	NextAction string `json:"next_action"`
}

// NewLeadParams holds the caller-supplied fields of a new lead.
type NewLeadParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Source    LeadSource
}

// NormalizeEmail returns the canonical form used for storage and
// uniqueness comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewLead creates a new Lead with a fresh ID and creation timestamp.
// Names are trimmed, the email is normalized and an empty phone is stored
// as absent. Returns an error wrapping ErrValidation if any field is invalid.
func NewLead(params NewLeadParams) (*Lead, error) {
	lead := &Lead{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(params.FirstName),
		LastName:  strings.TrimSpace(params.LastName),
		Email:     NormalizeEmail(params.Email),
		Source:    params.Source,
		CreatedAt: time.Now().UTC(),
	}

	if phone := strings.TrimSpace(params.Phone); phone != "" {
		lead.Phone = &phone
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

// Validate checks if the Lead has valid data.
func (l *Lead) Validate() error {
	if l.ID == uuid.Nil {
		return ErrEmptyLeadID
	}

	if strings.TrimSpace(l.FirstName) == "" {
		return ErrEmptyFirstName
	}

	if strings.TrimSpace(l.LastName) == "" {
		return ErrEmptyLastName
	}

	if l.Email == "" {
		return ErrEmptyLeadEmail
	}

	if err := emailValidator.Var(l.Email, "email"); err != nil {
		return ErrInvalidLeadEmail
	}

	if !isValidLeadSource(l.Source) {
		return ErrInvalidLeadSource
	}

	if (l.Summary == nil) != (l.NextAction == nil) {
		return ErrPartialEnrichment
	}

	return nil
}

// IsEnriched reports whether both enrichment fields are present.
func (l *Lead) IsEnriched() bool {
	return l.Summary != nil && l.NextAction != nil &&
		*l.Summary != "" && *l.NextAction != ""
}

// ApplyEnrichment overwrites both enrichment fields at once.
func (l *Lead) ApplyEnrichment(e Enrichment) error {
	if e.Summary == "" || e.NextAction == "" {
		return ErrEmptyEnrichment
	}

	summary, nextAction := e.Summary, e.NextAction
	l.Summary = &summary
	l.NextAction = &nextAction
	return nil
}

// Enrichment returns the current enrichment, or false if the lead has none.
func (l *Lead) Enrichment() (Enrichment, bool) {
	if !l.IsEnriched() {
		return Enrichment{}, false
	}
	return Enrichment{Summary: *l.Summary, NextAction: *l.NextAction}, true
}

// isValidLeadSource checks if the given source is a valid LeadSource.
func isValidLeadSource(source LeadSource) bool {
	switch source {
	case LeadSourceManual, LeadSourceExternal:
		return true
	default:
		return false
	}
}

package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLead(t *testing.T) {
	t.Parallel()

	t.Run("normalizes and fills defaults", func(t *testing.T) {
		t.Parallel()

		lead, err := NewLead(NewLeadParams{
			FirstName: "  Ada ",
			LastName:  "Lovelace",
			Email:     "  Ada@Example.COM ",
			Source:    LeadSourceManual,
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, lead.ID)
		assert.Equal(t, "Ada", lead.FirstName)
		assert.Equal(t, "ada@example.com", lead.Email)
		assert.Nil(t, lead.Phone)
		assert.Nil(t, lead.Summary)
		assert.Nil(t, lead.NextAction)
		assert.False(t, lead.CreatedAt.IsZero())
		assert.False(t, lead.IsEnriched())
	})

	t.Run("keeps phone when provided", func(t *testing.T) {
		t.Parallel()

		lead, err := NewLead(NewLeadParams{
			FirstName: "Grace",
			LastName:  "Hopper",
			Email:     "grace@example.com",
			Phone:     "555-0100",
			Source:    LeadSourceExternal,
		})

		require.NoError(t, err)
		require.NotNil(t, lead.Phone)
		assert.Equal(t, "555-0100", *lead.Phone)
		assert.Equal(t, LeadSourceExternal, lead.Source)
	})

	tests := []struct {
		name    string
		params  NewLeadParams
		wantErr error
	}{
		{
			name:    "blank first name",
			params:  NewLeadParams{FirstName: " ", LastName: "B", Email: "a@x.com", Source: LeadSourceManual},
			wantErr: ErrEmptyFirstName,
		},
		{
			name:    "blank last name",
			params:  NewLeadParams{FirstName: "A", LastName: "", Email: "a@x.com", Source: LeadSourceManual},
			wantErr: ErrEmptyLastName,
		},
		{
			name:    "missing email",
			params:  NewLeadParams{FirstName: "A", LastName: "B", Source: LeadSourceManual},
			wantErr: ErrEmptyLeadEmail,
		},
		{
			name:    "malformed email",
			params:  NewLeadParams{FirstName: "A", LastName: "B", Email: "not-an-email", Source: LeadSourceManual},
			wantErr: ErrInvalidLeadEmail,
		},
		{
			name:    "unknown source",
			params:  NewLeadParams{FirstName: "A", LastName: "B", Email: "a@x.com", Source: "partner"},
			wantErr: ErrInvalidLeadSource,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lead, err := NewLead(tc.params)

			assert.Nil(t, lead)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, errors.Is(err, ErrValidation), "should be a validation error")
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a@x.com", NormalizeEmail("A@X.com"))
	assert.Equal(t, "a@x.com", NormalizeEmail(" a@x.com\t"))
	assert.Equal(t, NormalizeEmail("A@X.COM"), NormalizeEmail("a@x.com"))
}

func TestLead_ApplyEnrichment(t *testing.T) {
	t.Parallel()

	lead, err := NewLead(NewLeadParams{
		FirstName: "A", LastName: "B", Email: "a@x.com", Source: LeadSourceManual,
	})
	require.NoError(t, err)

	_, ok := lead.Enrichment()
	assert.False(t, ok)

	err = lead.ApplyEnrichment(Enrichment{Summary: "s1", NextAction: "n1"})
	require.NoError(t, err)
	assert.True(t, lead.IsEnriched())
	assert.NoError(t, lead.Validate())

	// A second enrichment overwrites both fields
	err = lead.ApplyEnrichment(Enrichment{Summary: "s2", NextAction: "n2"})
	require.NoError(t, err)
	got, ok := lead.Enrichment()
	assert.True(t, ok)
	assert.Equal(t, Enrichment{Summary: "s2", NextAction: "n2"}, got)

	// Partial results are rejected and leave the lead untouched
	err = lead.ApplyEnrichment(Enrichment{Summary: "only summary"})
	assert.ErrorIs(t, err, ErrEmptyEnrichment)
	assert.Equal(t, "s2", *lead.Summary)
}

func TestLead_ValidateRejectsPartialEnrichment(t *testing.T) {
	t.Parallel()

	summary := "summary"
	lead := &Lead{
		ID:        uuid.New(),
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Source:    LeadSourceExternal,
		Summary:   &summary,
	}

	assert.ErrorIs(t, lead.Validate(), ErrPartialEnrichment)
}

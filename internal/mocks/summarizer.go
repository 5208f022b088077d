package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
)

// MockSummarizer implements generation.Summarizer for testing
type MockSummarizer struct {
	// SummarizeFn allows test cases to mock the Summarize behavior
	SummarizeFn func(ctx context.Context, lead *domain.Lead) (domain.Enrichment, error)

	// Default response values, used when SummarizeFn is nil
	Enrichment domain.Enrichment
	Err        error

	mu      sync.Mutex
	calls   int
	leadIDs []uuid.UUID
}

// Summarize implements the generation.Summarizer interface
func (m *MockSummarizer) Summarize(ctx context.Context, lead *domain.Lead) (domain.Enrichment, error) {
	m.mu.Lock()
	m.calls++
	m.leadIDs = append(m.leadIDs, lead.ID)
	m.mu.Unlock()

	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, lead)
	}
	return m.Enrichment, m.Err
}

// Calls returns how many times Summarize was called.
func (m *MockSummarizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LeadIDs returns the IDs of the leads passed to Summarize, in call order.
func (m *MockSummarizer) LeadIDs() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.leadIDs...)
}

package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/store"
)

// MockLeadCache is an in-memory store.LeadCache without expiry.
type MockLeadCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]domain.Lead

	GetFn        func(ctx context.Context, id uuid.UUID) (*domain.Lead, bool, error)
	SetFn        func(ctx context.Context, lead *domain.Lead) error
	InvalidateFn func(ctx context.Context, id uuid.UUID) error

	invalidations int
}

var _ store.LeadCache = (*MockLeadCache)(nil)

// NewMockLeadCache creates an empty MockLeadCache.
func NewMockLeadCache() *MockLeadCache {
	return &MockLeadCache{entries: make(map[uuid.UUID]domain.Lead)}
}

// Get implements store.LeadCache.
func (m *MockLeadCache) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	c := copyLead(lead)
	return &c, true, nil
}

// Set implements store.LeadCache.
func (m *MockLeadCache) Set(ctx context.Context, lead *domain.Lead) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, lead)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[lead.ID] = copyLead(*lead)
	return nil
}

// Invalidate implements store.LeadCache.
func (m *MockLeadCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.invalidations++
	m.mu.Unlock()

	if m.InvalidateFn != nil {
		return m.InvalidateFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Has reports whether id is currently cached.
func (m *MockLeadCache) Has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// Invalidations returns how many times Invalidate was called.
func (m *MockLeadCache) Invalidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidations
}

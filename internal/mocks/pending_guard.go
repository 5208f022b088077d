package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockPendingGuard is an in-memory stand-in for the Redis pending marker.
type MockPendingGuard struct {
	mu      sync.Mutex
	pending map[uuid.UUID]uuid.UUID

	AcquireFn func(ctx context.Context, leadID, owner uuid.UUID, force bool) (bool, error)
	ReleaseFn func(ctx context.Context, leadID, owner uuid.UUID) error

	releases int
}

// NewMockPendingGuard creates a guard with no markers set.
func NewMockPendingGuard() *MockPendingGuard {
	return &MockPendingGuard{pending: make(map[uuid.UUID]uuid.UUID)}
}

// Acquire sets the marker for owner. Without force it fails when one
// already exists.
func (m *MockPendingGuard) Acquire(ctx context.Context, leadID, owner uuid.UUID, force bool) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(ctx, leadID, owner, force)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.pending[leadID]; held && !force {
		return false, nil
	}
	m.pending[leadID] = owner
	return true, nil
}

// Release clears the marker if owner still holds it.
func (m *MockPendingGuard) Release(ctx context.Context, leadID, owner uuid.UUID) error {
	m.mu.Lock()
	m.releases++
	m.mu.Unlock()

	if m.ReleaseFn != nil {
		return m.ReleaseFn(ctx, leadID, owner)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending[leadID] == owner {
		delete(m.pending, leadID)
	}
	return nil
}

// IsPending reports whether a marker is set for leadID.
func (m *MockPendingGuard) IsPending(leadID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.pending[leadID]
	return held
}

// Owner returns the job ID holding the marker for leadID.
func (m *MockPendingGuard) Owner(leadID uuid.UUID) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, held := m.pending[leadID]
	return owner, held
}

// Releases returns how many times Release was called.
func (m *MockPendingGuard) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/store"
)

// MockLeadStore is an in-memory store.LeadStore that enforces the same
// case-insensitive email uniqueness as the database.
type MockLeadStore struct {
	mu     sync.Mutex
	leads  map[uuid.UUID]domain.Lead
	emails map[string]uuid.UUID

	CreateFn     func(ctx context.Context, lead *domain.Lead) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	ListFn       func(ctx context.Context) ([]*domain.Lead, error)
	SaveFn       func(ctx context.Context, lead *domain.Lead) error
	ListEmailsFn func(ctx context.Context) ([]string, error)

	// Call counters for verification
	CreateCalls  int
	GetByIDCalls int
	SaveCalls    int
}

var _ store.LeadStore = (*MockLeadStore)(nil)

// NewMockLeadStore creates an empty MockLeadStore.
func NewMockLeadStore() *MockLeadStore {
	return &MockLeadStore{
		leads:  make(map[uuid.UUID]domain.Lead),
		emails: make(map[string]uuid.UUID),
	}
}

// Create implements store.LeadStore.
func (m *MockLeadStore) Create(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, lead)
	}

	if err := lead.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := domain.NormalizeEmail(lead.Email)
	if _, exists := m.emails[email]; exists {
		return store.ErrEmailExists
	}
	m.leads[lead.ID] = copyLead(*lead)
	m.emails[email] = lead.ID
	return nil
}

// GetByID implements store.LeadStore.
func (m *MockLeadStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	m.mu.Lock()
	m.GetByIDCalls++
	m.mu.Unlock()

	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return nil, store.ErrLeadNotFound
	}
	c := copyLead(lead)
	return &c, nil
}

// List implements store.LeadStore.
func (m *MockLeadStore) List(ctx context.Context) ([]*domain.Lead, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		c := copyLead(lead)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Save implements store.LeadStore.
func (m *MockLeadStore) Save(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(ctx, lead)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leads[lead.ID]
	if !ok {
		return store.ErrLeadNotFound
	}
	existing.Summary = copyString(lead.Summary)
	existing.NextAction = copyString(lead.NextAction)
	m.leads[lead.ID] = existing
	return nil
}

// ListEmails implements store.LeadStore.
func (m *MockLeadStore) ListEmails(ctx context.Context) ([]string, error) {
	if m.ListEmailsFn != nil {
		return m.ListEmailsFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.emails))
	for email := range m.emails {
		out = append(out, email)
	}
	return out, nil
}

// Count returns the number of stored leads.
func (m *MockLeadStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leads)
}

// Saves returns how many times Save was called.
func (m *MockLeadStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SaveCalls
}

func copyLead(l domain.Lead) domain.Lead {
	l.Phone = copyString(l.Phone)
	l.Summary = copyString(l.Summary)
	l.NextAction = copyString(l.NextAction)
	return l
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

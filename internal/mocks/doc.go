// Package mocks provides centralized mock implementations for testing.
//
// The in-memory mocks (MockLeadStore, MockLeadCache, MockPendingGuard)
// behave like the real implementations so tests can assert on resulting
// state, and every method can be overridden through its Fn field.
// MockSummarizer and TestifyMockLeadSource are pure test doubles.
//
// Usage:
//
//	leads := mocks.NewMockLeadStore()
//	leads.SaveFn = func(ctx context.Context, lead *domain.Lead) error {
//	    return errors.New("disk full")
//	}
package mocks

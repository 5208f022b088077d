package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface in memory for testing.
// Any Fn field left nil falls back to the in-memory behavior.
type MockTaskStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*TaskRecord

	SaveFn           func(ctx context.Context, task Task) error
	MarkProcessingFn func(ctx context.Context, taskID uuid.UUID, attempt int) error
	UpdateStatusFn   func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		records: make(map[uuid.UUID]*TaskRecord),
	}
}

// Put stores a record directly, e.g. to simulate rows left by a previous run.
func (s *MockTaskStore) Put(record TaskRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r := record
	s.records[record.ID] = &r
}

// Get returns a copy of the stored record.
func (s *MockTaskStore) Get(id uuid.UUID) (TaskRecord, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return TaskRecord{}, false
	}
	return *r, true
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, task)
	}

	now := time.Now().UTC()
	s.Put(TaskRecord{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}

// MarkProcessing records an attempt in the mock store
func (s *MockTaskStore) MarkProcessing(ctx context.Context, taskID uuid.UUID, attempt int) error {
	if s.MarkProcessingFn != nil {
		return s.MarkProcessingFn(ctx, taskID, attempt)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if r, ok := s.records[taskID]; ok {
		r.Status = TaskStatusProcessing
		r.Attempts = attempt
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if r, ok := s.records[taskID]; ok {
		r.Status = status
		r.ErrorMessage = errorMsg
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]TaskRecord, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]TaskRecord, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *MockTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []TaskRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var out []TaskRecord
	for _, r := range s.records {
		if r.Status != status {
			continue
		}
		if olderThan > 0 && !r.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

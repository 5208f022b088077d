package task

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	TaskStatus  TaskStatus
	ExecuteFn   func(ctx context.Context) error

	calls atomic.Int32
}

// NewMockTask creates a new MockTask with the given type and payload
func NewMockTask(taskType string, payload []byte) *MockTask {
	return &MockTask{
		TaskID:      uuid.New(),
		TaskType:    taskType,
		TaskPayload: payload,
		TaskStatus:  TaskStatusPending,
		ExecuteFn:   func(ctx context.Context) error { return nil },
	}
}

// ID returns the task's unique identifier
func (t *MockTask) ID() uuid.UUID {
	return t.TaskID
}

// Type returns the task type identifier
func (t *MockTask) Type() string {
	return t.TaskType
}

// Payload returns the task data as a byte slice
func (t *MockTask) Payload() []byte {
	return t.TaskPayload
}

// Status returns the current task status
func (t *MockTask) Status() TaskStatus {
	return t.TaskStatus
}

// Execute runs the task logic
func (t *MockTask) Execute(ctx context.Context) error {
	t.calls.Add(1)
	return t.ExecuteFn(ctx)
}

// Calls returns how many times Execute has run.
func (t *MockTask) Calls() int {
	return int(t.calls.Load())
}

// MockTaskFactory restores MockTasks from records, for recovery tests.
type MockTaskFactory struct {
	Type      string
	ExecuteFn func(ctx context.Context) error

	restored atomic.Pointer[MockTask]
}

// TaskType implements TaskFactory.
func (f *MockTaskFactory) TaskType() string {
	return f.Type
}

// Restore implements TaskFactory.
func (f *MockTaskFactory) Restore(record TaskRecord) (Task, error) {
	t := &MockTask{
		TaskID:      record.ID,
		TaskType:    record.Type,
		TaskPayload: record.Payload,
		TaskStatus:  record.Status,
		ExecuteFn:   f.ExecuteFn,
	}
	f.restored.Store(t)
	return t, nil
}

// Last returns the most recently restored task.
func (f *MockTaskFactory) Last() *MockTask {
	return f.restored.Load()
}

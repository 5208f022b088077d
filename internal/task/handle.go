package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle tracks a submitted task until it reaches a terminal state.
// It is safe for concurrent use.
type Handle struct {
	taskID uuid.UUID
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	err      error
	attempts int
}

func newHandle(taskID uuid.UUID) *Handle {
	return &Handle{
		taskID: taskID,
		done:   make(chan struct{}),
	}
}

// TaskID returns the ID of the tracked task.
func (h *Handle) TaskID() uuid.UUID {
	return h.taskID
}

// Done returns a channel that is closed once the task has completed,
// exhausted its retries or been abandoned by shutdown.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes or ctx ends. It returns the task's
// terminal error, or ctx.Err() if ctx ended first.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal error. It is nil while the task is still
// running and after a successful completion.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Attempts returns how many times the task has been started so far.
func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

func (h *Handle) setAttempts(n int) {
	h.mu.Lock()
	h.attempts = n
	h.mu.Unlock()
}

func (h *Handle) resolve(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	})
}

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/platform/logger"
)

// ErrQueueExhausted is the terminal error of a task that failed on every
// attempt its retry policy allowed.
var ErrQueueExhausted = errors.New("task retries exhausted")

// RetryPolicy bounds how often a failing task is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of executions, including the first
	MaxAttempts int

	// Backoff is the fixed delay between a failed attempt and the next one
	Backoff time.Duration
}

// DefaultRetryPolicy returns three attempts with a fixed five second backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     5 * time.Second,
	}
}

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// Retry controls how failed attempts are retried
	Retry RetryPolicy

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            DefaultWorkerPoolConfig().WorkerCount,
		QueueSize:              100,
		Retry:                  DefaultRetryPolicy(),
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing. Tasks are persisted
// before they are queued, executed by a WorkerPool, retried according
// to the RetryPolicy and recovered from the store after a restart.
// Delivery is at-least-once.
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu        sync.Mutex
	factories map[string]TaskFactory
	handles   map[uuid.UUID]*Handle
	attempts  map[uuid.UUID]int
	inFlight  map[uuid.UUID]struct{}

	// bg tracks the stuck task monitor and pending retry timers
	bg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval <= 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = 1
	}

	logger = logger.With("component", "task_runner")

	r := &TaskRunner{
		store:     store,
		queue:     NewTaskQueue(config.QueueSize, logger),
		config:    config,
		logger:    logger,
		factories: make(map[string]TaskFactory),
		handles:   make(map[uuid.UUID]*Handle),
		attempts:  make(map[uuid.UUID]int),
		inFlight:  make(map[uuid.UUID]struct{}),
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
	poolConfig := DefaultWorkerPoolConfig()
	if config.WorkerCount > 0 {
		poolConfig.WorkerCount = config.WorkerCount
	}
	r.pool = NewWorkerPool(r.queue, poolConfig, r.processTask, logger)

	return r
}

// SetErrorHandler sets the function called when a task fails for good.
// It must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// RegisterFactory makes tasks of factory.TaskType() recoverable.
func (r *TaskRunner) RegisterFactory(factory TaskFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.TaskType()] = factory
}

// Submit persists the task, queues it and returns a Handle that resolves
// when the task completes or exhausts its retries.
func (r *TaskRunner) Submit(ctx context.Context, task Task) (*Handle, error) {
	if r.queue.IsClosed() {
		return nil, ErrQueueClosed
	}

	if err := r.store.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	h := r.track(task.ID(), 0)

	if err := r.queue.Enqueue(task); err != nil {
		r.forget(task.ID())
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark rejected task as failed",
				"task_id", task.ID(),
				"error", updateErr)
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return h, nil
}

// Start recovers unfinished tasks and begins processing.
func (r *TaskRunner) Start() error {
	if err := r.Recover(context.Background()); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.bg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop cancels in-flight work, drops pending retry timers and closes the
// queue. Handles that have not resolved yet resolve with ErrQueueClosed;
// their rows stay in the store and are recovered by the next Start.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.pool.Stop()
		r.bg.Wait()
		r.queue.Close()

		r.mu.Lock()
		abandoned := make([]*Handle, 0, len(r.handles))
		for id, h := range r.handles {
			abandoned = append(abandoned, h)
			delete(r.handles, id)
		}
		r.mu.Unlock()

		for _, h := range abandoned {
			h.resolve(ErrQueueClosed)
		}
	})
}

// Recover re-queues tasks left pending or processing by a previous run.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Processing rows were interrupted by a crash, regardless of age
	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, record := range pending {
		r.requeue(ctx, record)
	}
	for _, record := range processing {
		r.requeue(ctx, record)
	}

	return nil
}

// requeue restores a persisted task and puts it back on the queue, or
// fails it when its attempts are already used up.
func (r *TaskRunner) requeue(ctx context.Context, record TaskRecord) {
	log := r.logger.With("task_id", record.ID, "task_type", record.Type)

	task, err := r.restore(record)
	if err != nil {
		log.Error("failed to restore task", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark unrestorable task as failed", "error", updateErr)
		}
		return
	}

	if record.Attempts >= r.config.Retry.MaxAttempts {
		exhausted := fmt.Errorf("%w after %d attempts: %s", ErrQueueExhausted, record.Attempts, record.ErrorMessage)
		log.Error("recovered task has no attempts left", "attempts", record.Attempts)
		if updateErr := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusFailed, exhausted.Error()); updateErr != nil {
			log.Error("failed to mark exhausted task as failed", "error", updateErr)
		}
		r.errHandler(task, exhausted)
		r.finish(record.ID, exhausted)
		return
	}

	if record.Status == TaskStatusProcessing {
		if err := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusPending, "reset after recovery"); err != nil {
			log.Error("failed to reset processing task status", "error", err)
			return
		}
	}

	r.track(record.ID, record.Attempts)

	if err := r.queue.Enqueue(task); err != nil {
		// The row stays pending and is picked up again on the next start
		r.forget(record.ID)
		log.Error("failed to requeue recovered task", "error", err)
		return
	}

	log.Info("requeued recovered task", "attempts", record.Attempts)
}

func (r *TaskRunner) restore(record TaskRecord) (Task, error) {
	r.mu.Lock()
	factory, ok := r.factories[record.Type]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no factory registered for task type %q", record.Type)
	}
	return factory.Restore(record)
}

// processTask runs one attempt of a task and decides what happens next.
func (r *TaskRunner) processTask(ctx context.Context, task Task) {
	id := task.ID()
	attempt := r.beginAttempt(id)
	defer r.endAttempt(id)

	log := r.logger.With(
		"task_id", id,
		"task_type", task.Type(),
		"attempt", attempt,
		"max_attempts", r.config.Retry.MaxAttempts,
	)
	// Status writes must land even while shutdown cancels ctx
	storeCtx := context.WithoutCancel(ctx)

	if err := r.store.MarkProcessing(storeCtx, id, attempt); err != nil {
		log.Error("failed to update task status to processing", "error", err)
	}

	log.Info("processing task")

	err := r.execute(logger.WithLogger(ctx, log), task)
	if err == nil {
		if updateErr := r.store.UpdateTaskStatus(storeCtx, id, TaskStatusCompleted, ""); updateErr != nil {
			log.Error("failed to update task status to completed", "error", updateErr)
		}
		log.Info("task completed successfully")
		r.finish(id, nil)
		return
	}

	if ctx.Err() != nil {
		// The row stays processing and is recovered on the next start
		log.Warn("task attempt interrupted by shutdown", "error", err)
		return
	}

	if attempt < r.config.Retry.MaxAttempts {
		log.Warn("task attempt failed, scheduling retry",
			"error", err,
			"backoff", r.config.Retry.Backoff)
		if updateErr := r.store.UpdateTaskStatus(storeCtx, id, TaskStatusPending, err.Error()); updateErr != nil {
			log.Error("failed to update task status to pending", "error", updateErr)
		}
		r.scheduleRetry(task, log)
		return
	}

	exhausted := fmt.Errorf("%w after %d attempts: %w", ErrQueueExhausted, attempt, err)
	log.Error("task failed permanently", "error", err)
	if updateErr := r.store.UpdateTaskStatus(storeCtx, id, TaskStatusFailed, err.Error()); updateErr != nil {
		log.Error("failed to update task status to failed", "error", updateErr)
	}
	r.errHandler(task, exhausted)
	r.finish(id, exhausted)
}

func (r *TaskRunner) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return task.Execute(ctx)
}

// scheduleRetry re-enqueues task after the fixed backoff unless the
// runner stops first.
func (r *TaskRunner) scheduleRetry(task Task, log *slog.Logger) {
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()

		timer := time.NewTimer(r.config.Retry.Backoff)
		defer timer.Stop()

		select {
		case <-r.pool.Context().Done():
			return
		case <-timer.C:
		}

		err := r.queue.Enqueue(task)
		if err == nil || errors.Is(err, ErrQueueClosed) {
			return
		}

		log.Error("failed to requeue task for retry", "error", err)
		if updateErr := r.store.UpdateTaskStatus(context.Background(), task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		r.finish(task.ID(), err)
	}()
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and requeues them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.bg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.pool.Context().Done():
			return

		case <-ticker.C:
			r.requeueStuckTasks(context.Background())
		}
	}
}

func (r *TaskRunner) requeueStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}

	for _, record := range stuck {
		if r.isInFlight(record.ID) {
			continue
		}
		r.logger.Info("found stuck task", "task_id", record.ID, "task_type", record.Type)
		r.requeue(ctx, record)
	}
}

// track returns the handle for id, creating it if needed, and seeds the
// attempt counter from a persisted value.
func (r *TaskRunner) track(id uuid.UUID, attempts int) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok {
		h = newHandle(id)
		r.handles[id] = h
	}
	if attempts > r.attempts[id] {
		r.attempts[id] = attempts
		h.setAttempts(attempts)
	}
	return h
}

func (r *TaskRunner) forget(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
	delete(r.attempts, id)
}

func (r *TaskRunner) beginAttempt(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts[id]++
	attempt := r.attempts[id]
	r.inFlight[id] = struct{}{}
	if h, ok := r.handles[id]; ok {
		h.setAttempts(attempt)
	}
	return attempt
}

func (r *TaskRunner) endAttempt(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

func (r *TaskRunner) isInFlight(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[id]
	return ok
}

// finish resolves and forgets the handle for id.
func (r *TaskRunner) finish(id uuid.UUID, err error) {
	r.mu.Lock()
	h := r.handles[id]
	delete(r.handles, id)
	delete(r.attempts, id)
	r.mu.Unlock()

	if h != nil {
		h.resolve(err)
	}
}

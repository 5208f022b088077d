package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/mocks"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrichmentFixture struct {
	leads      *mocks.MockLeadStore
	summarizer *mocks.MockSummarizer
	cache      *mocks.MockLeadCache
	pending    *mocks.MockPendingGuard
	factory    *LeadEnrichmentTaskFactory
	lead       *domain.Lead
}

func newEnrichmentFixture(t *testing.T) *enrichmentFixture {
	t.Helper()

	f := &enrichmentFixture{
		leads: mocks.NewMockLeadStore(),
		summarizer: &mocks.MockSummarizer{
			Enrichment: domain.Enrichment{Summary: "Warm lead", NextAction: "Call on Monday"},
		},
		cache:   mocks.NewMockLeadCache(),
		pending: mocks.NewMockPendingGuard(),
	}

	lead, err := domain.NewLead(domain.NewLeadParams{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Source: domain.LeadSourceManual,
	})
	require.NoError(t, err)
	require.NoError(t, f.leads.Create(context.Background(), lead))
	f.lead = lead

	factory, err := NewLeadEnrichmentTaskFactory(f.leads, f.summarizer, f.cache, f.pending, setupTestLogger())
	require.NoError(t, err)
	f.factory = factory

	return f
}

func TestNewLeadEnrichmentTaskFactory_Validation(t *testing.T) {
	t.Parallel()

	leads := mocks.NewMockLeadStore()
	summarizer := &mocks.MockSummarizer{}
	cache := mocks.NewMockLeadCache()
	pending := mocks.NewMockPendingGuard()
	log := setupTestLogger()

	_, err := NewLeadEnrichmentTaskFactory(nil, summarizer, cache, pending, log)
	assert.ErrorIs(t, err, ErrNilLeadRepository)
	_, err = NewLeadEnrichmentTaskFactory(leads, nil, cache, pending, log)
	assert.ErrorIs(t, err, ErrNilSummarizer)
	_, err = NewLeadEnrichmentTaskFactory(leads, summarizer, nil, pending, log)
	assert.ErrorIs(t, err, ErrNilLeadCache)
	_, err = NewLeadEnrichmentTaskFactory(leads, summarizer, cache, nil, log)
	assert.ErrorIs(t, err, ErrNilPendingMarker)
	_, err = NewLeadEnrichmentTaskFactory(leads, summarizer, cache, pending, nil)
	assert.ErrorIs(t, err, ErrNilLogger)

	factory, err := NewLeadEnrichmentTaskFactory(leads, summarizer, cache, pending, log)
	require.NoError(t, err)
	_, err = factory.CreateTask(uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyLeadID)
}

func TestLeadEnrichmentTask_Payload(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	task, err := f.factory.CreateTask(f.lead.ID)
	require.NoError(t, err)

	assert.Equal(t, TaskTypeLeadEnrichment, task.Type())
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.JSONEq(t, `{"lead_id":"`+f.lead.ID.String()+`"}`, string(task.Payload()))

	restored, err := f.factory.Restore(TaskRecord{ID: task.ID(), Type: task.Type(), Payload: task.Payload()})
	require.NoError(t, err)
	assert.Equal(t, task.ID(), restored.ID())
	assert.Equal(t, f.lead.ID, restored.(*LeadEnrichmentTask).LeadID())

	_, err = f.factory.Restore(TaskRecord{ID: uuid.New(), Payload: []byte("not json")})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestLeadEnrichmentTask_Execute(t *testing.T) {
	t.Parallel()

	t.Run("success writes once and invalidates the cache", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		require.NoError(t, f.cache.Set(context.Background(), f.lead))
		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)
		_, _ = f.pending.Acquire(context.Background(), f.lead.ID, task.ID(), false)

		require.NoError(t, task.Execute(context.Background()))

		stored, err := f.leads.GetByID(context.Background(), f.lead.ID)
		require.NoError(t, err)
		require.True(t, stored.IsEnriched())
		assert.Equal(t, "Warm lead", *stored.Summary)
		assert.Equal(t, "Call on Monday", *stored.NextAction)

		assert.Equal(t, 1, f.leads.Saves())
		assert.Equal(t, 1, f.cache.Invalidations())
		assert.False(t, f.cache.Has(f.lead.ID))
		assert.False(t, f.pending.IsPending(f.lead.ID))
		assert.Equal(t, TaskStatusCompleted, task.Status())
	})

	t.Run("reads the store even when the cache holds a snapshot", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		f.cache.GetFn = func(context.Context, uuid.UUID) (*domain.Lead, bool, error) {
			t.Fatal("worker must not read the cache")
			return nil, false, nil
		}

		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)
		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, 1, f.leads.GetByIDCalls)
	})

	t.Run("missing lead is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		log, buf := logger.NewTestLogger(t)
		missing := uuid.New()
		task, err := f.factory.CreateTask(missing)
		require.NoError(t, err)
		_, _ = f.pending.Acquire(context.Background(), missing, task.ID(), false)

		err = task.Execute(logger.WithLogger(context.Background(), log))

		require.NoError(t, err)
		assert.Equal(t, 0, f.summarizer.Calls())
		assert.Equal(t, 0, f.leads.Saves())
		assert.False(t, f.pending.IsPending(missing))
		assert.True(t, buf.HasEntry("lead no longer exists, skipping enrichment",
			map[string]any{"lead_id": missing.String()}))
	})

	t.Run("summarizer failure is returned for retry", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		aiErr := errors.New("ai service error")
		f.summarizer.Err = aiErr
		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)
		_, _ = f.pending.Acquire(context.Background(), f.lead.ID, task.ID(), false)

		err = task.Execute(context.Background())

		assert.ErrorIs(t, err, aiErr)
		assert.Equal(t, 0, f.leads.Saves())
		assert.Equal(t, 0, f.cache.Invalidations())
		assert.True(t, f.pending.IsPending(f.lead.ID), "marker stays while retries remain")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("save failure is returned for retry", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		saveErr := errors.New("connection reset")
		f.leads.SaveFn = func(context.Context, *domain.Lead) error { return saveErr }

		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(context.Background()), saveErr)
		assert.Equal(t, 0, f.cache.Invalidations())
	})

	t.Run("cache invalidation failure does not fail the job", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		f.cache.InvalidateFn = func(context.Context, uuid.UUID) error { return errors.New("redis down") }

		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		stored, _ := f.leads.GetByID(context.Background(), f.lead.ID)
		assert.True(t, stored.IsEnriched())
	})

	t.Run("lead deleted before save is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		f.leads.SaveFn = func(context.Context, *domain.Lead) error { return store.ErrLeadNotFound }

		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)

		assert.NoError(t, task.Execute(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		f := newEnrichmentFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		task, err := f.factory.CreateTask(f.lead.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
		assert.Equal(t, 0, f.summarizer.Calls())
	})
}

func TestLeadEnrichment_ExhaustsAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)
	f.summarizer.Err = errors.New("ai service error")

	runner := NewTaskRunner(NewMockTaskStore(), testRunnerConfig(), setupTestLogger())
	runner.SetErrorHandler(f.factory.HandleFailure)
	runner.RegisterFactory(f.factory)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task, err := f.factory.CreateTask(f.lead.ID)
	require.NoError(t, err)
	acquired, err := f.pending.Acquire(context.Background(), f.lead.ID, task.ID(), false)
	require.NoError(t, err)
	require.True(t, acquired)

	h, err := runner.Submit(context.Background(), task)
	require.NoError(t, err)

	err = waitHandle(t, h)

	assert.ErrorIs(t, err, ErrQueueExhausted)
	assert.Equal(t, 3, f.summarizer.Calls())
	assert.Equal(t, 0, f.leads.Saves())
	assert.False(t, f.pending.IsPending(f.lead.ID), "exhaustion releases the marker")

	stored, _ := f.leads.GetByID(context.Background(), f.lead.ID)
	assert.False(t, stored.IsEnriched())
}

func TestLeadEnrichmentTaskFactory_HandleFailureLogs(t *testing.T) {
	t.Parallel()

	leads := mocks.NewMockLeadStore()
	pending := mocks.NewMockPendingGuard()
	log, buf := logger.NewTestLogger(t)
	factory, err := NewLeadEnrichmentTaskFactory(leads, &mocks.MockSummarizer{}, mocks.NewMockLeadCache(), pending, log)
	require.NoError(t, err)

	leadID := uuid.New()
	task, err := factory.CreateTask(leadID)
	require.NoError(t, err)
	_, _ = pending.Acquire(context.Background(), leadID, task.ID(), false)

	factory.HandleFailure(task, ErrQueueExhausted)

	assert.False(t, pending.IsPending(leadID))
	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0]["msg"], "QueueExhausted")
	assert.Equal(t, leadID.String(), entries[0]["lead_id"])

	// Non-enrichment tasks are only logged
	factory.HandleFailure(NewMockTask("mock", nil), errors.New("boom"))
	assert.Equal(t, 1, pending.Releases())
}

func TestLeadEnrichmentTaskFactory_HandleFailureKeepsForcedMarker(t *testing.T) {
	t.Parallel()

	f := newEnrichmentFixture(t)

	superseded, err := f.factory.CreateTask(f.lead.ID)
	require.NoError(t, err)
	_, _ = f.pending.Acquire(context.Background(), f.lead.ID, superseded.ID(), false)

	forced, err := f.factory.CreateTask(f.lead.ID)
	require.NoError(t, err)
	acquired, err := f.pending.Acquire(context.Background(), f.lead.ID, forced.ID(), true)
	require.NoError(t, err)
	require.True(t, acquired)

	f.factory.HandleFailure(superseded, ErrQueueExhausted)

	owner, held := f.pending.Owner(f.lead.ID)
	require.True(t, held, "exhausting a superseded job leaves the marker")
	assert.Equal(t, forced.ID(), owner)

	require.NoError(t, forced.Execute(context.Background()))
	assert.False(t, f.pending.IsPending(f.lead.ID))
}

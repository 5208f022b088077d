package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// LeadEnrichmentTaskFactory creates LeadEnrichmentTask instances
type LeadEnrichmentTaskFactory struct {
	leads      LeadRepository
	summarizer Summarizer
	cache      CacheInvalidator
	pending    PendingMarker
	logger     *slog.Logger
}

// NewLeadEnrichmentTaskFactory creates a new factory for LeadEnrichmentTasks
func NewLeadEnrichmentTaskFactory(
	leads LeadRepository,
	summarizer Summarizer,
	cache CacheInvalidator,
	pending PendingMarker,
	logger *slog.Logger,
) (*LeadEnrichmentTaskFactory, error) {
	switch {
	case leads == nil:
		return nil, ErrNilLeadRepository
	case summarizer == nil:
		return nil, ErrNilSummarizer
	case cache == nil:
		return nil, ErrNilLeadCache
	case pending == nil:
		return nil, ErrNilPendingMarker
	case logger == nil:
		return nil, ErrNilLogger
	}

	return &LeadEnrichmentTaskFactory{
		leads:      leads,
		summarizer: summarizer,
		cache:      cache,
		pending:    pending,
		logger:     logger.With("component", "lead_enrichment_task"),
	}, nil
}

// CreateTask creates a new LeadEnrichmentTask for the specified lead
func (f *LeadEnrichmentTaskFactory) CreateTask(leadID uuid.UUID) (*LeadEnrichmentTask, error) {
	return f.build(uuid.New(), leadID)
}

// TaskType implements TaskFactory.
func (f *LeadEnrichmentTaskFactory) TaskType() string {
	return TaskTypeLeadEnrichment
}

// Restore implements TaskFactory by decoding the lead ID from the payload.
func (f *LeadEnrichmentTaskFactory) Restore(record TaskRecord) (Task, error) {
	var payload leadEnrichmentPayload
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return f.build(record.ID, payload.LeadID)
}

// HandleFailure is the runner's error handler for enrichment tasks. It
// records the exhaustion and clears the lead's pending marker so a later
// request can queue a new job.
func (f *LeadEnrichmentTaskFactory) HandleFailure(task Task, err error) {
	t, ok := task.(*LeadEnrichmentTask)
	if !ok {
		f.logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		return
	}

	f.logger.Error("QueueExhausted: lead enrichment abandoned",
		"task_id", t.ID(),
		"lead_id", t.leadID,
		"error", err)

	if releaseErr := f.pending.Release(context.Background(), t.leadID, t.ID()); releaseErr != nil {
		f.logger.Warn("failed to release pending enrichment marker",
			"lead_id", t.leadID,
			"error", releaseErr)
	}
}

func (f *LeadEnrichmentTaskFactory) build(id, leadID uuid.UUID) (*LeadEnrichmentTask, error) {
	if leadID == uuid.Nil {
		return nil, ErrEmptyLeadID
	}

	return &LeadEnrichmentTask{
		id:         id,
		leadID:     leadID,
		leads:      f.leads,
		summarizer: f.summarizer,
		cache:      f.cache,
		pending:    f.pending,
		logger:     f.logger.With("task_type", TaskTypeLeadEnrichment),
		status:     TaskStatusPending,
	}, nil
}

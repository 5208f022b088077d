package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
)

// Common errors
var (
	ErrNilLeadRepository = errors.New("lead repository cannot be nil")
	ErrNilSummarizer     = errors.New("summarizer cannot be nil")
	ErrNilLeadCache      = errors.New("lead cache cannot be nil")
	ErrNilPendingMarker  = errors.New("pending marker cannot be nil")
	ErrNilLogger         = errors.New("logger cannot be nil")
	ErrEmptyLeadID       = errors.New("lead ID cannot be empty")
	ErrInvalidPayload    = errors.New("invalid task payload")
)

// LeadRepository is the part of the lead store the worker needs.
type LeadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	Save(ctx context.Context, lead *domain.Lead) error
}

// Summarizer produces an enrichment for a lead.
type Summarizer interface {
	Summarize(ctx context.Context, lead *domain.Lead) (domain.Enrichment, error)
}

// CacheInvalidator drops a cached lead snapshot.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// PendingMarker clears the "enrichment queued" flag of a lead. The flag
// is only cleared while owner still holds it.
type PendingMarker interface {
	Release(ctx context.Context, leadID, owner uuid.UUID) error
}

// leadEnrichmentPayload represents the serialized data stored in the task
type leadEnrichmentPayload struct {
	LeadID uuid.UUID `json:"lead_id"`
}

// LeadEnrichmentTask implements the Task interface for generating a
// summary and next action for one lead.
type LeadEnrichmentTask struct {
	id         uuid.UUID
	leadID     uuid.UUID
	leads      LeadRepository
	summarizer Summarizer
	cache      CacheInvalidator
	pending    PendingMarker
	logger     *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

// ID returns the task's unique identifier
func (t *LeadEnrichmentTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *LeadEnrichmentTask) Type() string {
	return TaskTypeLeadEnrichment
}

// LeadID returns the lead this task enriches.
func (t *LeadEnrichmentTask) LeadID() uuid.UUID {
	return t.leadID
}

// Payload returns the task data as a byte slice
func (t *LeadEnrichmentTask) Payload() []byte {
	data, err := json.Marshal(leadEnrichmentPayload{LeadID: t.leadID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *LeadEnrichmentTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *LeadEnrichmentTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Execute runs one enrichment attempt. The lead is always read from the
// store, never from the cache. A lead that no longer exists ends the task
// without error. Summarizer and save failures are returned so the runner
// retries them.
func (t *LeadEnrichmentTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.logger).With("lead_id", t.leadID)
	t.setStatus(TaskStatusProcessing)

	if err := ctx.Err(); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	lead, err := t.leads.GetByID(ctx, t.leadID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("lead no longer exists, skipping enrichment")
			t.releasePending(ctx, log)
			t.setStatus(TaskStatusCompleted)
			return nil
		}
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to load lead: %w", err)
	}

	enrichment, err := t.summarizer.Summarize(ctx, lead)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		log.Warn("summarizer call failed", "error", err)
		return fmt.Errorf("failed to summarize lead: %w", err)
	}

	if err := lead.ApplyEnrichment(enrichment); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to apply enrichment: %w", err)
	}

	if err := t.leads.Save(ctx, lead); err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("lead deleted before enrichment was saved")
			t.releasePending(ctx, log)
			t.setStatus(TaskStatusCompleted)
			return nil
		}
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to save enrichment: %w", err)
	}

	// A failed invalidation leaves a stale snapshot for at most one cache TTL
	if err := t.cache.Invalidate(ctx, t.leadID); err != nil {
		log.Warn("failed to invalidate cached lead", "error", err)
	}

	t.releasePending(ctx, log)
	t.setStatus(TaskStatusCompleted)
	log.Info("lead enriched")
	return nil
}

func (t *LeadEnrichmentTask) releasePending(ctx context.Context, log *slog.Logger) {
	if err := t.pending.Release(ctx, t.leadID, t.ID()); err != nil {
		log.Warn("failed to release pending enrichment marker", "error", err)
	}
}

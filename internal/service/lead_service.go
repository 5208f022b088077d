package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
	"github.com/phrazzld/leadflow/internal/task"
)

// EnrichmentStatus is the outcome of an enrichment request.
type EnrichmentStatus string

// Possible enrichment request outcomes
const (
	EnrichmentQueued           EnrichmentStatus = "queued"
	EnrichmentAlreadyGenerated EnrichmentStatus = "already_generated"
)

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit persists and enqueues a task, returning a handle to await it
	Submit(ctx context.Context, t task.Task) (*task.Handle, error)
}

// EnrichmentTaskFactory creates LeadEnrichmentTask instances
type EnrichmentTaskFactory interface {
	CreateTask(leadID uuid.UUID) (*task.LeadEnrichmentTask, error)
}

// PendingGuard marks a lead as having an enrichment job queued.
type PendingGuard interface {
	// Acquire sets the marker for the job owner. It returns false if one
	// is already set and force is false; with force an existing marker
	// is overwritten.
	Acquire(ctx context.Context, leadID, owner uuid.UUID, force bool) (bool, error)

	// Release clears the marker if owner still holds it.
	Release(ctx context.Context, leadID, owner uuid.UUID) error
}

// CreateLeadParams holds the caller-supplied fields of a manual lead.
type CreateLeadParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// EnrichmentRequest describes what RequestEnrichment did.
type EnrichmentRequest struct {
	Status EnrichmentStatus

	// Summary and NextAction are set when Status is EnrichmentAlreadyGenerated.
	Summary    string
	NextAction string

	// Handle tracks the submitted job. It is nil when no new job was queued.
	Handle *task.Handle
}

// LeadService provides lead-related operations
type LeadService interface {
	// CreateLead validates and stores a new lead with source "manual"
	CreateLead(ctx context.Context, params CreateLeadParams) (*domain.Lead, error)

	// ListLeads returns every lead, newest first
	ListLeads(ctx context.Context) ([]*domain.Lead, error)

	// GetLead returns a lead, reading through the cache
	GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error)

	// RequestEnrichment queues an enrichment job unless the lead is already
	// enriched and force is false
	RequestEnrichment(ctx context.Context, id uuid.UUID, force bool) (*EnrichmentRequest, error)
}

// leadServiceImpl implements the LeadService interface
type leadServiceImpl struct {
	leads   store.LeadStore
	cache   store.LeadCache
	pending PendingGuard
	factory EnrichmentTaskFactory
	runner  TaskRunner
	logger  *slog.Logger
}

// NewLeadService creates a new LeadService.
// It returns an error if any of the required dependencies are nil.
func NewLeadService(
	leads store.LeadStore,
	cache store.LeadCache,
	pending PendingGuard,
	factory EnrichmentTaskFactory,
	runner TaskRunner,
	logger *slog.Logger,
) (LeadService, error) {
	deps := []struct {
		name    string
		missing bool
	}{
		{"leads", leads == nil},
		{"cache", cache == nil},
		{"pending", pending == nil},
		{"factory", factory == nil},
		{"runner", runner == nil},
	}
	for _, d := range deps {
		if d.missing {
			return nil, &LeadServiceError{
				Operation: "create_service",
				Message:   d.name + " cannot be nil",
			}
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &leadServiceImpl{
		leads:   leads,
		cache:   cache,
		pending: pending,
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "lead_service"),
	}, nil
}

// CreateLead implements LeadService.
func (s *leadServiceImpl) CreateLead(ctx context.Context, params CreateLeadParams) (*domain.Lead, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lead, err := domain.NewLead(domain.NewLeadParams{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Source:    domain.LeadSourceManual,
	})
	if err != nil {
		log.Debug("rejected invalid lead", "error", err)
		return nil, NewLeadServiceError("create_lead", "invalid lead data", err)
	}

	if err := s.leads.Create(ctx, lead); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Info("lead email already registered", "lead_id", lead.ID)
		} else {
			log.Error("failed to create lead", "error", err, "lead_id", lead.ID)
		}
		return nil, NewLeadServiceError("create_lead", "failed to save lead", err)
	}

	log.Info("lead created", "lead_id", lead.ID, "source", lead.Source)
	return lead, nil
}

// ListLeads implements LeadService.
func (s *leadServiceImpl) ListLeads(ctx context.Context) ([]*domain.Lead, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list leads", "error", err)
		return nil, NewLeadServiceError("list_leads", "failed to list leads", err)
	}
	return leads, nil
}

// GetLead implements LeadService. Cache failures are logged and the store
// answers instead.
func (s *leadServiceImpl) GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cached, hit, err := s.cache.Get(ctx, id)
	switch {
	case err != nil:
		log.Warn("lead cache read failed", "error", err, "lead_id", id)
	case hit:
		log.Debug("lead cache hit", "lead_id", id)
		return cached, nil
	}

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrLeadNotFound) {
			log.Error("failed to retrieve lead", "error", err, "lead_id", id)
		}
		return nil, NewLeadServiceError("get_lead", "failed to retrieve lead", err)
	}

	if err := s.cache.Set(ctx, lead); err != nil {
		log.Warn("lead cache write failed", "error", err, "lead_id", id)
	}

	return lead, nil
}

// RequestEnrichment implements LeadService. It never waits for the AI
// call; the returned handle resolves when the job finishes.
func (s *leadServiceImpl) RequestEnrichment(
	ctx context.Context,
	id uuid.UUID,
	force bool,
) (*EnrichmentRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("lead_id", id, "force", force)

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrLeadNotFound) {
			log.Error("failed to load lead for enrichment", "error", err)
		}
		return nil, NewLeadServiceError("request_enrichment", "failed to load lead", err)
	}

	if enrichment, ok := lead.Enrichment(); ok && !force {
		log.Debug("enrichment already generated")
		return &EnrichmentRequest{
			Status:     EnrichmentAlreadyGenerated,
			Summary:    enrichment.Summary,
			NextAction: enrichment.NextAction,
		}, nil
	}

	t, err := s.factory.CreateTask(id)
	if err != nil {
		return nil, NewLeadServiceError("request_enrichment", "failed to create enrichment task", err)
	}

	acquired, err := s.pending.Acquire(ctx, id, t.ID(), force)
	if err != nil {
		log.Error("failed to set pending marker", "error", err)
		return nil, NewLeadServiceError("request_enrichment", "failed to set pending marker", err)
	}
	if !acquired {
		log.Info("enrichment already queued")
		return &EnrichmentRequest{Status: EnrichmentQueued}, nil
	}

	handle, err := s.runner.Submit(ctx, t)
	if err != nil {
		log.Error("failed to submit enrichment task", "error", err, "task_id", t.ID())
		s.releaseMarker(ctx, log, id, t.ID())
		return nil, NewLeadServiceError("request_enrichment", "failed to queue enrichment", err)
	}

	log.Info("enrichment queued", "task_id", t.ID())
	return &EnrichmentRequest{Status: EnrichmentQueued, Handle: handle}, nil
}

func (s *leadServiceImpl) releaseMarker(ctx context.Context, log *slog.Logger, id, owner uuid.UUID) {
	if err := s.pending.Release(context.WithoutCancel(ctx), id, owner); err != nil {
		log.Warn("failed to release pending marker", "error", err)
	}
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
)

// LeadRepository is the part of the record store the syncer writes through.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	ListEmails(ctx context.Context) ([]string, error)
}

// SyncResult counts what one run did with each candidate.
type SyncResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Invalid int `json:"invalid"`
	Failed  int `json:"failed"`
}

// Syncer imports external candidates into the record store.
type Syncer struct {
	source Source
	leads  LeadRepository
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(source Source, leads LeadRepository, logger *slog.Logger) (*Syncer, error) {
	if source == nil {
		return nil, errors.New("source cannot be nil")
	}
	if leads == nil {
		return nil, errors.New("lead repository cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		source: source,
		leads:  leads,
		logger: logger.With(slog.String("component", "lead_sync")),
	}, nil
}

// Run performs one sync pass. A malformed or empty batch is logged and
// produces a zero result without touching the store. Per-candidate
// failures are counted and do not stop the run.
func (s *Syncer) Run(ctx context.Context) (SyncResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	start := time.Now()

	var result SyncResult

	candidates, err := s.source.FetchCandidates(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedBatch) {
			log.Warn("no usable results from external source", slog.String("error", err.Error()))
			return result, nil
		}
		return result, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	if len(candidates) == 0 {
		log.Warn("no results from external source")
		return result, nil
	}

	emails, err := s.leads.ListEmails(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load existing emails: %w", err)
	}

	seen := make(map[string]struct{}, len(emails)+len(candidates))
	for _, e := range emails {
		seen[domain.NormalizeEmail(e)] = struct{}{}
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		email := domain.NormalizeEmail(c.Email)
		if _, dup := seen[email]; dup && email != "" {
			result.Skipped++
			continue
		}

		lead, err := domain.NewLead(domain.NewLeadParams{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     email,
			Phone:     c.Phone,
			Source:    domain.LeadSourceExternal,
		})
		if err != nil {
			log.Debug("skipping invalid candidate", slog.String("error", err.Error()))
			result.Invalid++
			continue
		}

		if err := s.leads.Create(ctx, lead); err != nil {
			if store.IsDuplicateError(err) {
				seen[email] = struct{}{}
				result.Skipped++
				continue
			}
			log.Error("failed to create external lead",
				slog.String("lead_id", lead.ID.String()),
				slog.String("error", err.Error()))
			result.Failed++
			continue
		}

		seen[email] = struct{}{}
		result.Added++
	}

	log.Info("external sync finished",
		slog.Int("added", result.Added),
		slog.Int("skipped", result.Skipped),
		slog.Int("invalid", result.Invalid),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

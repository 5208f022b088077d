package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a lead snapshot lives without being refreshed.
const DefaultCacheTTL = 60 * time.Second

const leadKeyPrefix = "lead:"

// LeadCache implements store.LeadCache with JSON snapshots stored under
// lead:<id>.
type LeadCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.LeadCache = (*LeadCache)(nil)

// NewLeadCache creates a cache over client. A non-positive ttl falls back
// to DefaultCacheTTL.
func NewLeadCache(client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *LeadCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "lead_cache")),
	}
}

// LeadKey returns the cache key for a lead.
func LeadKey(id uuid.UUID) string {
	return leadKeyPrefix + id.String()
}

// Get implements store.LeadCache.Get. A missing key is a miss, not an error.
func (c *LeadCache) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, bool, error) {
	data, err := c.client.Get(ctx, LeadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached lead: %w", err)
	}

	var lead domain.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		// A corrupt snapshot is dropped so the next read repopulates it
		logger.FromContextOrDefault(ctx, c.logger).Warn("discarding undecodable cache entry",
			slog.String("lead_id", id.String()),
			slog.String("error", err.Error()))
		_ = c.client.Del(ctx, LeadKey(id)).Err()
		return nil, false, nil
	}

	return &lead, true, nil
}

// Set implements store.LeadCache.Set.
func (c *LeadCache) Set(ctx context.Context, lead *domain.Lead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead snapshot: %w", err)
	}

	if err := c.client.Set(ctx, LeadKey(lead.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache lead: %w", err)
	}
	return nil
}

// Invalidate implements store.LeadCache.Invalidate.
func (c *LeadCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, LeadKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached lead: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPendingTTL bounds how long a marker survives a crashed process.
const DefaultPendingTTL = 5 * time.Minute

const pendingKeyPrefix = "lead:pending:"

// releaseScript deletes the marker only while it still names the caller.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PendingGuard records that an enrichment job is queued for a lead.
// The marker holds the ID of the job that owns it. It is set when a job
// is submitted and released when that job reaches a terminal state.
type PendingGuard struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewPendingGuard creates a guard over client. A non-positive ttl falls
// back to DefaultPendingTTL.
func NewPendingGuard(client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *PendingGuard {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingGuard{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "pending_guard")),
	}
}

// PendingKey returns the marker key for a lead.
func PendingKey(id uuid.UUID) string {
	return pendingKeyPrefix + id.String()
}

// Acquire sets the marker for leadID on behalf of owner. It returns
// false when a marker already exists and force is not set. With force
// the marker is overwritten, handed to owner and its TTL restarted.
func (g *PendingGuard) Acquire(ctx context.Context, leadID, owner uuid.UUID, force bool) (bool, error) {
	key := PendingKey(leadID)
	value := owner.String()

	if force {
		if err := g.client.Set(ctx, key, value, g.ttl).Err(); err != nil {
			return false, fmt.Errorf("failed to set pending marker: %w", err)
		}
		return true, nil
	}

	ok, err := g.client.SetNX(ctx, key, value, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set pending marker: %w", err)
	}

	if !ok {
		logger.FromContextOrDefault(ctx, g.logger).Debug("enrichment already pending",
			slog.String("lead_id", leadID.String()))
	}
	return ok, nil
}

// Release clears the marker if owner still holds it. A missing marker,
// or one taken over by a forced job, is left alone and is not an error.
func (g *PendingGuard) Release(ctx context.Context, leadID, owner uuid.UUID) error {
	n, err := releaseScript.Run(ctx, g.client, []string{PendingKey(leadID)}, owner.String()).Int64()
	if err != nil {
		return fmt.Errorf("failed to release pending marker: %w", err)
	}

	if n == 0 {
		logger.FromContextOrDefault(ctx, g.logger).Debug("pending marker not held by owner",
			slog.String("lead_id", leadID.String()),
			slog.String("owner", owner.String()))
	}
	return nil
}

// IsPending reports whether a marker is currently set.
func (g *PendingGuard) IsPending(ctx context.Context, leadID uuid.UUID) (bool, error) {
	n, err := g.client.Exists(ctx, PendingKey(leadID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pending marker: %w", err)
	}
	return n > 0, nil
}

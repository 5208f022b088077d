package generation

import (
	"context"

	"github.com/phrazzld/leadflow/internal/domain"
)

// Summarizer produces a summary and a recommended next action for a lead.
// Implementations make exactly one call to the external service per
// invocation and never retry internally; retries belong to the task queue.
// Every returned error satisfies errors.Is(err, ErrAIService).
type Summarizer interface {
	Summarize(ctx context.Context, lead *domain.Lead) (domain.Enrichment, error)
}

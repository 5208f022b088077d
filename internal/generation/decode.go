package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/leadflow/internal/domain"
)

// enrichmentSchema mirrors the JSON object the model is asked to return.
// Pointers distinguish a missing field from an empty one.
type enrichmentSchema struct {
	Summary    *string `json:"summary"`
	NextAction *string `json:"next_action"`
}

// DecodeEnrichment parses model output into an Enrichment. The text must
// be a single JSON object with exactly the string fields "summary" and
// "next_action", both non-empty. Anything else, including markdown code
// fences around the object, is rejected with ErrInvalidResponse.
func DecodeEnrichment(text string) (domain.Enrichment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Enrichment{}, ErrEmptyResponse
	}

	if strings.HasPrefix(trimmed, "```") {
		return domain.Enrichment{}, fmt.Errorf("%w: output wrapped in a code fence", ErrInvalidResponse)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var schema enrichmentSchema
	if err := dec.Decode(&schema); err != nil {
		return domain.Enrichment{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.Enrichment{}, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidResponse)
	}

	if schema.Summary == nil {
		return domain.Enrichment{}, fmt.Errorf("%w: missing field \"summary\"", ErrInvalidResponse)
	}
	if schema.NextAction == nil {
		return domain.Enrichment{}, fmt.Errorf("%w: missing field \"next_action\"", ErrInvalidResponse)
	}

	enrichment := domain.Enrichment{
		Summary:    strings.TrimSpace(*schema.Summary),
		NextAction: strings.TrimSpace(*schema.NextAction),
	}

	if enrichment.Summary == "" || enrichment.NextAction == "" {
		return domain.Enrichment{}, fmt.Errorf("%w: summary and next_action must be non-empty", ErrInvalidResponse)
	}

	return enrichment, nil
}

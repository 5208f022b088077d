package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrAIService is the root of every failure reported by a Summarizer.
	// Callers match it with errors.Is and treat it as retryable.
	ErrAIService = errors.New("AI service error")

	// ErrInvalidResponse is returned when the model output does not match
	// the expected enrichment shape
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrAIService)

	// ErrEmptyResponse is returned when the model produced no usable text
	ErrEmptyResponse = fmt.Errorf("%w: empty response from language model", ErrAIService)

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", ErrAIService)

	// ErrTimeout is returned when the call exceeded its deadline
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrAIService)

	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid generation configuration")
)

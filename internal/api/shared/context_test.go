package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	traceID := GetTraceID(traced)
	assert.Len(t, traceID, 2*TraceIDLength)

	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	// Parent context is untouched
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		seen[generateTraceID()] = struct{}{}
	}
	assert.Len(t, seen, 500)
}

func TestGenerateFallbackTraceID(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 42, time.UTC)

	id := generateFallbackTraceID(now)
	assert.Len(t, id, 2*TraceIDLength)
	assert.Equal(t, id, generateFallbackTraceID(now))
	assert.NotEqual(t, id, generateFallbackTraceID(now.Add(time.Nanosecond)))
}

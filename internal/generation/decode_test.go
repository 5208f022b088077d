package generation

import (
	"errors"
	"testing"

	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnrichment_Valid(t *testing.T) {
	t.Parallel()

	got, err := DecodeEnrichment(`
		{"summary": "Warm lead from the website.", "next_action": "Call on Monday."}
	`)

	require.NoError(t, err)
	assert.Equal(t, domain.Enrichment{
		Summary:    "Warm lead from the website.",
		NextAction: "Call on Monday.",
	}, got)
}

func TestDecodeEnrichment_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: "   "},
		{name: "not json", text: "Here is your summary"},
		{name: "code fence", text: "```json\n{\"summary\":\"a\",\"next_action\":\"b\"}\n```"},
		{name: "array", text: `[{"summary":"a","next_action":"b"}]`},
		{name: "null", text: `null`},
		{name: "missing summary", text: `{"next_action":"b"}`},
		{name: "missing next action", text: `{"summary":"a"}`},
		{name: "unknown field", text: `{"summary":"a","next_action":"b","score":5}`},
		{name: "non-string summary", text: `{"summary":42,"next_action":"b"}`},
		{name: "null next action", text: `{"summary":"a","next_action":null}`},
		{name: "blank summary", text: `{"summary":"  ","next_action":"b"}`},
		{name: "trailing object", text: `{"summary":"a","next_action":"b"}{"summary":"c"}`},
		{name: "trailing text", text: `{"summary":"a","next_action":"b"} thanks!`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeEnrichment(tc.text)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAIService), "decode failures must be AI service errors")
			assert.Equal(t, domain.Enrichment{}, got)
		})
	}
}

func TestErrorsWrapAIService(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrInvalidResponse, ErrEmptyResponse, ErrContentBlocked, ErrTimeout} {
		assert.ErrorIs(t, err, ErrAIService)
	}
	assert.NotErrorIs(t, ErrInvalidConfig, ErrAIService)
}

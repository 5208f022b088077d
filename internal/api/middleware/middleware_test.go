package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/leadflow/internal/api/shared"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{name: "valid key", header: testKey, wantStatus: http.StatusNoContent, wantCalled: true},
		{name: "missing key", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", header: "fedcba9876543210", wantStatus: http.StatusUnauthorized},
		{name: "prefix of key", header: testKey[:8], wantStatus: http.StatusUnauthorized},
	}

	mw := NewAPIKeyMiddleware(testKey)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodGet, "/leads", nil)
			if tc.header != "" {
				req.Header.Set(APIKeyHeader, tc.header)
			}
			rr := httptest.NewRecorder()

			mw.Authenticate(okHandler(&called)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCalled, called)

			if rr.Code == http.StatusUnauthorized {
				var body shared.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, "Invalid or missing API key", body.Error)
			}
		})
	}
}

func TestAPIKeyMiddleware_HeaderCaseInsensitive(t *testing.T) {
	var called bool
	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set("X-API-KEY", testKey)
	rr := httptest.NewRecorder()

	NewAPIKeyMiddleware(testKey).Authenticate(okHandler(&called)).ServeHTTP(rr, req)

	assert.True(t, called)
}

func TestTraceMiddleware(t *testing.T) {
	var buf strings.Builder
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var traceID string
	handler := NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leads", nil))

	require.Len(t, traceID, 2*shared.TraceIDLength)
	out := buf.String()
	assert.Contains(t, out, "request started")
	assert.Contains(t, out, "inside handler")
	assert.Equal(t, 2, strings.Count(out, "trace_id="+traceID))
}

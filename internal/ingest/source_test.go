package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/leadflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource(url string, timeout time.Duration) *RandomUserSource {
	return NewRandomUserSource(config.SyncConfig{
		SourceURL:    url,
		BatchSize:    3,
		FetchTimeout: timeout,
	}, discardLogger())
}

func TestRandomUserSource_FetchCandidates(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("results")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"results": [
				{"name": {"first": "Ada", "last": "Lovelace"}, "email": "Ada@Example.com", "phone": "555-0100"},
				{"name": {"first": "Grace", "last": "Hopper"}, "email": "grace@example.com", "phone": "", "cell": "555-0199"}
			],
			"info": {"seed": "abc", "results": 2}
		}`)
	}))
	defer srv.Close()

	candidates, err := newTestSource(srv.URL, time.Second).FetchCandidates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "3", gotQuery)
	require.Len(t, candidates, 2)
	assert.Equal(t, Candidate{FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com", Phone: "555-0100"}, candidates[0])
	assert.Equal(t, "555-0199", candidates[1].Phone)
}

func TestRandomUserSource_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>oops</html>"},
		{name: "missing results", body: `{"error": "Uh oh, something has gone wrong"}`},
		{name: "results not an array", body: `{"results": "nope"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := newTestSource(srv.URL, time.Second).FetchCandidates(context.Background())
			assert.ErrorIs(t, err, ErrMalformedBatch)
		})
	}
}

func TestRandomUserSource_EmptyResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results": []}`)
	}))
	defer srv.Close()

	candidates, err := newTestSource(srv.URL, time.Second).FetchCandidates(context.Background())

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRandomUserSource_HTTPErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestSource(srv.URL, time.Second).FetchCandidates(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformedBatch)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		start := time.Now()
		_, err := newTestSource(srv.URL, 50*time.Millisecond).FetchCandidates(context.Background())

		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

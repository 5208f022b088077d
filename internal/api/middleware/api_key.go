package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/phrazzld/leadflow/internal/api/shared"
)

// APIKeyHeader is the request header carrying the shared API key.
const APIKeyHeader = "x-api-key"

var (
	// ErrMissingAPIKey is logged when a request carries no API key.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrInvalidAPIKey is logged when the supplied key does not match.
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// APIKeyMiddleware rejects requests whose x-api-key header does not match
// the configured key.
type APIKeyMiddleware struct {
	key []byte
}

// NewAPIKeyMiddleware creates an APIKeyMiddleware for the given key.
func NewAPIKeyMiddleware(key string) *APIKeyMiddleware {
	return &APIKeyMiddleware{key: []byte(key)}
}

// Authenticate is the http middleware enforcing the API key.
func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		supplied := r.Header.Get(APIKeyHeader)
		if supplied == "" {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Invalid or missing API key", ErrMissingAPIKey, shared.WithElevatedLogLevel())
			return
		}

		// Length mismatch returns early from ConstantTimeCompare; that only
		// reveals the key length.
		if subtle.ConstantTimeCompare([]byte(supplied), m.key) != 1 {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Invalid or missing API key", ErrInvalidAPIKey, shared.WithElevatedLogLevel())
			return
		}

		next.ServeHTTP(w, r)
	})
}

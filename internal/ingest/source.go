package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/phrazzld/leadflow/internal/config"
	"github.com/phrazzld/leadflow/internal/platform/logger"
)

// ErrMalformedBatch is returned when the external response cannot be read
// as a batch of candidates.
var ErrMalformedBatch = errors.New("malformed external batch")

// maxResponseBytes caps how much of an external response is read.
const maxResponseBytes = 4 << 20

// Candidate is a contact proposed by an external source.
type Candidate struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Source fetches a batch of candidate leads.
type Source interface {
	FetchCandidates(ctx context.Context) ([]Candidate, error)
}

// randomUserResponse is the subset of the randomuser.me payload we read.
// Results is a pointer so a missing array is distinguishable from an empty one.
type randomUserResponse struct {
	Results *[]randomUser `json:"results"`
}

type randomUser struct {
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Cell  string `json:"cell"`
}

// RandomUserSource reads candidates from a randomuser.me compatible API.
type RandomUserSource struct {
	baseURL   string
	batchSize int
	http      *http.Client
	logger    *slog.Logger
}

var _ Source = (*RandomUserSource)(nil)

// NewRandomUserSource creates a source from the sync configuration.
func NewRandomUserSource(cfg config.SyncConfig, logger *slog.Logger) *RandomUserSource {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RandomUserSource{
		baseURL:   cfg.SourceURL,
		batchSize: cfg.BatchSize,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With(slog.String("component", "random_user_source")),
	}
}

// FetchCandidates implements Source.
func (s *RandomUserSource) FetchCandidates(ctx context.Context) ([]Candidate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	endpoint, err := s.endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch external leads: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("external source returned status %d", resp.StatusCode)
	}

	var payload randomUserResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	if payload.Results == nil {
		return nil, fmt.Errorf("%w: missing results array", ErrMalformedBatch)
	}

	candidates := make([]Candidate, 0, len(*payload.Results))
	for _, u := range *payload.Results {
		phone := u.Phone
		if phone == "" {
			phone = u.Cell
		}
		candidates = append(candidates, Candidate{
			FirstName: u.Name.First,
			LastName:  u.Name.Last,
			Email:     u.Email,
			Phone:     phone,
		})
	}

	log.Debug("fetched external candidates", slog.Int("count", len(candidates)))
	return candidates, nil
}

func (s *RandomUserSource) endpoint() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	q := u.Query()
	if s.batchSize > 0 {
		q.Set("results", strconv.Itoa(s.batchSize))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

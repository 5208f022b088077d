package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/leadflow/internal/config"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/generation"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"google.golang.org/genai"
)

// DefaultRequestTimeout applies when the configuration leaves the timeout unset.
const DefaultRequestTimeout = 30 * time.Second

// contentGenerator is the subset of *genai.Models the summarizer needs.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Summarizer implements generation.Summarizer using the Gemini API.
type Summarizer struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	prompt  *template.Template
	logger  *slog.Logger
}

var _ generation.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a Gemini-backed summarizer from configuration.
func NewSummarizer(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Summarizer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newSummarizer(client.Models, cfg, logger)
}

func newSummarizer(models contentGenerator, cfg config.LLMConfig, logger *slog.Logger) (*Summarizer, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	prompt, err := loadPromptTemplate()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Summarizer{
		models:  models,
		model:   cfg.ModelName,
		timeout: timeout,
		prompt:  prompt,
		logger:  logger.With(slog.String("component", "gemini_summarizer")),
	}, nil
}

// Summarize implements generation.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, lead *domain.Lead) (domain.Enrichment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("lead_id", lead.ID.String()),
		slog.String("model", s.model))

	prompt, err := renderPrompt(s.prompt, lead)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("%w: %w", generation.ErrAIService, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	temperature := float32(0.2)
	start := time.Now()

	resp, err := s.models.GenerateContent(callCtx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			log.Warn("Gemini API call timed out", slog.Duration("timeout", s.timeout))
			return domain.Enrichment{}, fmt.Errorf("%w after %s: %w", generation.ErrTimeout, s.timeout, err)
		}
		log.Error("Gemini API call error", slog.String("error", err.Error()))
		return domain.Enrichment{}, fmt.Errorf("%w: %w", generation.ErrAIService, err)
	}

	text, err := responseText(resp)
	if err != nil {
		log.Warn("unusable Gemini response", slog.String("error", err.Error()))
		return domain.Enrichment{}, err
	}

	enrichment, err := generation.DecodeEnrichment(text)
	if err != nil {
		log.Warn("failed to decode Gemini response",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(text)))
		return domain.Enrichment{}, err
	}

	log.Info("Gemini API call successful", slog.Duration("duration", time.Since(start)))
	return enrichment, nil
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrEmptyResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no candidates", generation.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in candidate", generation.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: candidate has no text", generation.ErrEmptyResponse)
	}
	return b.String(), nil
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/leadflow/internal/api/shared"
	"github.com/phrazzld/leadflow/internal/domain"
	"github.com/phrazzld/leadflow/internal/platform/logger"
	"github.com/phrazzld/leadflow/internal/service"
)

// CreateLeadRequest is the request body for creating a manual lead.
type CreateLeadRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// LeadResponse is the JSON representation of a lead.
type LeadResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	Source     string    `json:"source"`
	Summary    *string   `json:"summary"`
	NextAction *string   `json:"next_action"`
	CreatedAt  time.Time `json:"created_at"`
}

// SummarizeResponse is returned by the summarize endpoint. Summary and
// NextAction are only present when the lead was already enriched.
type SummarizeResponse struct {
	Status     string `json:"status"`
	Summary    string `json:"summary,omitempty"`
	NextAction string `json:"next_action,omitempty"`
}

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	leadService service.LeadService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService service.LeadService, logger *slog.Logger) *LeadHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &LeadHandler{
		leadService: leadService,
		validator:   validator.New(),
		logger:      logger.With("component", "lead_handler"),
	}
}

// CreateLead handles POST /create-lead and POST /api/leads
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	lead, err := h.leadService.CreateLead(r.Context(), service.CreateLeadParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create lead")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, leadToResponse(lead))
}

// ListLeads handles GET /leads
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadService.ListLeads(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list leads")
		return
	}

	resp := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, leadToResponse(lead))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetLead handles GET /leads/{id}
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lead, err := h.leadService.GetLead(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get lead")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, leadToResponse(lead))
}

// SummarizeLead handles POST /leads/{id}/summarize. The job runs in the
// background, so a newly queued request answers 202 Accepted.
func (h *LeadHandler) SummarizeLead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	force := queryFlag(r, "force")

	result, err := h.leadService.RequestEnrichment(r.Context(), id, force)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to request summary")
		return
	}

	if result.Status == service.EnrichmentAlreadyGenerated {
		shared.RespondWithJSON(w, r, http.StatusOK, SummarizeResponse{
			Status:     string(result.Status),
			Summary:    result.Summary,
			NextAction: result.NextAction,
		})
		return
	}

	log.Debug("enrichment queued",
		"lead_id", id,
		"force", force,
		"new_job", result.Handle != nil)

	shared.RespondWithJSON(w, r, http.StatusAccepted, SummarizeResponse{Status: string(result.Status)})
}

// leadToResponse converts a domain.Lead to a LeadResponse.
func leadToResponse(lead *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:         lead.ID.String(),
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Source:     string(lead.Source),
		Summary:    lead.Summary,
		NextAction: lead.NextAction,
		CreatedAt:  lead.CreatedAt,
	}
}

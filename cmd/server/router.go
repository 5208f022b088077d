package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/leadflow/internal/api"
	apiMiddleware "github.com/phrazzld/leadflow/internal/api/middleware"
)

// setupRouter creates the HTTP router with all middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)

	if len(app.config.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.config.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", apiMiddleware.APIKeyHeader},
			MaxAge:         300,
		}))
	}

	leadHandler := api.NewLeadHandler(app.leadService, app.logger)
	apiKey := apiMiddleware.NewAPIKeyMiddleware(app.config.Server.APIKey)

	r.Group(func(r chi.Router) {
		r.Use(apiKey.Authenticate)

		r.Post("/create-lead", leadHandler.CreateLead)
		r.Get("/leads", leadHandler.ListLeads)
		r.Get("/leads/{id}", leadHandler.GetLead)
		r.Post("/leads/{id}/summarize", leadHandler.SummarizeLead)

		r.Route("/api/leads", func(r chi.Router) {
			r.Post("/", leadHandler.CreateLead)
			r.Get("/", leadHandler.ListLeads)
			r.Get("/{id}", leadHandler.GetLead)
			r.Post("/{id}/summarize", leadHandler.SummarizeLead)
		})
	})

	// Health check is public
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

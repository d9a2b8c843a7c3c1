package http

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the service router with middleware and all routes.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(SecurityHeaders)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", h.IngestEvent)
		r.Get("/events/{id}", h.GetEvent)

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Get("/runs", h.ListRuns)
			r.Get("/costs", h.CostSummary)
			r.Get("/dead-letters", h.ListDeadLetters)
		})

		r.Post("/dead-letters/{id}/resolve", h.ResolveDeadLetter)
	})

	return r
}

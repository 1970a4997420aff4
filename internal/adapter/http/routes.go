package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/capabilities", h.ListCapabilities)
		r.Post("/retrieve", h.Retrieve)
		r.Post("/turns", h.RunTurn)
		r.Post("/feedback", h.RecordFeedback)
		r.Get("/sessions/{session_id}/trace", h.GetTrace)
	})
}

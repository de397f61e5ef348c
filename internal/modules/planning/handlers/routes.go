package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the goal planning routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate) // Full analysis, enveloped
		r.Get("/profiles", h.HandleGetProfiles) // Risk-profile table
		r.Post("/chart", h.HandleChart)         // PNG trajectory or rolling-return chart
	})
}

// RegisterLegacyRoutes registers the un-prefixed analysis endpoint
func (h *Handler) RegisterLegacyRoutes(r chi.Router) {
	r.Post("/calculate-goal", h.HandleCalculateGoal)
}

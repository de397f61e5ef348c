package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/assets", h.HandleListAssets)
		r.Post("/assets/{name}/prices", h.HandleImportPrices)
		r.Post("/fx/{currency}", h.HandleImportRates)
	})
}

package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers security price routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/securities", func(r chi.Router) {
		r.Get("/resolve", h.HandleResolveSymbol)
		r.Get("/{symbol}/latest", h.HandleGetLatestPrice)
		r.Get("/{symbol}/prices", h.HandleGetPriceRange)
	})
}

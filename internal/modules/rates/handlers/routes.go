package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers exchange rate routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/rates", func(r chi.Router) {
		r.Get("/", h.HandleListRates)
		r.Post("/convert", h.HandleConvert)
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/{from}/{to}", h.HandleGetRate)
	})
}

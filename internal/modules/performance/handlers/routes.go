package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers dashboard routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/{userID}", h.HandleGetDashboard)
		r.Get("/{userID}/holdings", h.HandleGetHoldings)
		r.Post("/{userID}/invalidate", h.HandleInvalidate)
	})
}

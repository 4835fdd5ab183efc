// Package handlers provides HTTP handlers for dashboard aggregates.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mgrivas/folio/internal/domain"
	"github.com/mgrivas/folio/internal/modules/performance"
	"github.com/rs/zerolog"
)

// Handler handles dashboard HTTP requests
type Handler struct {
	service *performance.Service
	log     zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

// HandleGetDashboard handles GET /api/dashboard/{userID}
func (h *Handler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	dash, cached, err := h.service.GetDashboard(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoRateAvailable) {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error": map[string]interface{}{
					"message": "a required exchange rate is unavailable",
					"code":    "RATE_UNAVAILABLE",
				},
			})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Dashboard computation failed")
		http.Error(w, "dashboard computation failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": dash,
		"metadata": map[string]interface{}{
			"cached":    cached,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHoldings handles GET /api/dashboard/{userID}/holdings
// It returns a flat per-holding view without currency conversion.
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	list, err := h.service.GetHoldingsOverview(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Holdings overview failed")
		http.Error(w, "holdings overview failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"count":     len(list),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleInvalidate handles POST /api/dashboard/{userID}/invalidate
// Exposed so the CRUD layer can drop cached views after a mutation.
func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.service.InvalidateUser(userID); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Cache invalidation failed")
		http.Error(w, "cache invalidation failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user_id":     userID,
			"invalidated": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

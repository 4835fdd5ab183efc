// Package handlers provides HTTP handlers for exchange rate operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mgrivas/folio/internal/config"
	"github.com/mgrivas/folio/internal/domain"
	"github.com/mgrivas/folio/internal/modules/rates"
	"github.com/rs/zerolog"
)

// Handler handles exchange rate HTTP requests
type Handler struct {
	resolver *rates.Resolver
	pairs    []config.CurrencyPair
	log      zerolog.Logger
}

// NewHandler creates a new rates handler
func NewHandler(resolver *rates.Resolver, pairs []config.CurrencyPair, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		pairs:    pairs,
		log:      log.With().Str("handler", "rates").Logger(),
	}
}

// ConvertRequest represents a request to convert currency
type ConvertRequest struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
}

// HandleGetRate handles GET /api/rates/{from}/{to}
func (h *Handler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	fromCurrency := strings.ToUpper(chi.URLParam(r, "from"))
	toCurrency := strings.ToUpper(chi.URLParam(r, "to"))

	if len(fromCurrency) != 3 || len(toCurrency) != 3 {
		http.Error(w, "currencies must be 3-letter codes", http.StatusBadRequest)
		return
	}

	resolved, err := h.resolver.GetRate(fromCurrency, toCurrency)
	if err != nil {
		h.log.Error().Err(err).Str("from", fromCurrency).Str("to", toCurrency).Msg("Rate lookup failed")
		http.Error(w, "rate lookup failed", http.StatusInternalServerError)
		return
	}

	if resolved == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"message": "no rate available for " + fromCurrency + "/" + toCurrency,
				"code":    "RATE_UNAVAILABLE",
			},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"from_currency": resolved.FromCurrency,
			"to_currency":   resolved.ToCurrency,
			"rate":          resolved.Rate,
			"source":        resolved.Source,
			"last_updated":  resolved.LastUpdated.Format(time.RFC3339),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListRates handles GET /api/rates
func (h *Handler) HandleListRates(w http.ResponseWriter, r *http.Request) {
	stored, err := h.resolver.ListRates()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list rates")
		http.Error(w, "failed to list rates", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, 0, len(stored))
	for _, er := range stored {
		items = append(items, map[string]interface{}{
			"from_currency": er.FromCurrency,
			"to_currency":   er.ToCurrency,
			"rate":          er.Rate,
			"last_updated":  er.LastUpdated.Format(time.RFC3339),
			"age_hours":     er.Age(time.Now()).Hours(),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"rates": items,
			"count": len(items),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleConvert handles POST /api/rates/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.FromCurrency = strings.ToUpper(req.FromCurrency)
	req.ToCurrency = strings.ToUpper(req.ToCurrency)

	if req.FromCurrency == "" || req.ToCurrency == "" {
		http.Error(w, "from_currency and to_currency are required", http.StatusBadRequest)
		return
	}

	converted, err := h.resolver.Convert(req.Amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		if errors.Is(err, domain.ErrNoRateAvailable) {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error": map[string]interface{}{
					"message": "no rate available for " + req.FromCurrency + "/" + req.ToCurrency,
					"code":    "RATE_UNAVAILABLE",
				},
			})
			return
		}
		h.log.Error().Err(err).Msg("Conversion failed")
		http.Error(w, "conversion failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"from_currency": req.FromCurrency,
			"to_currency":   req.ToCurrency,
			"from_amount":   req.Amount,
			"to_amount":     converted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRefresh handles POST /api/rates/refresh
// Runs the same batch the scheduled refresher runs, on demand.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.UpdateAll(h.pairs); err != nil {
		h.log.Error().Err(err).Msg("Manual rate refresh failed")
		h.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": map[string]interface{}{
				"message": "all tracked pairs failed to refresh",
				"code":    "REFRESH_FAILED",
			},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"pairs_requested": len(h.pairs),
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

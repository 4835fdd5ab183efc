// Package handlers provides HTTP handlers for security price lookups.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mgrivas/folio/internal/modules/securities"
	"github.com/rs/zerolog"
)

// Handler handles security price HTTP requests
type Handler struct {
	repo     *securities.Repository
	resolver *securities.PriceResolver
	log      zerolog.Logger
}

// NewHandler creates a new securities handler
func NewHandler(repo *securities.Repository, resolver *securities.PriceResolver, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		resolver: resolver,
		log:      log.With().Str("handler", "securities").Logger(),
	}
}

// HandleResolveSymbol handles GET /api/securities/resolve?name=...&currency=...
func (h *Handler) HandleResolveSymbol(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	currency := r.URL.Query().Get("currency")

	if name == "" || currency == "" {
		http.Error(w, "name and currency are required", http.StatusBadRequest)
		return
	}

	symbol, ok := securities.MapSymbol(name, currency)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"name":     name,
			"currency": strings.ToUpper(currency),
			"symbol":   symbol,
			"mappable": ok,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetLatestPrice handles GET /api/securities/{symbol}/latest
func (h *Handler) HandleGetLatestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	price, err := h.repo.GetLatest(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to read latest price")
		http.Error(w, "failed to read latest price", http.StatusInternalServerError)
		return
	}

	if price == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"message": "no stored price for " + symbol,
				"code":    "PRICE_NOT_FOUND",
			},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": price,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPriceRange handles GET /api/securities/{symbol}/prices?start=YYYY-MM-DD&end=YYYY-MM-DD
// Missing history inside the window is fetched from the provider on demand.
func (h *Handler) HandleGetPriceRange(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	currency := strings.ToUpper(r.URL.Query().Get("currency"))

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if end == "" {
		end = time.Now().Format("2006-01-02")
	}
	if start == "" {
		start = time.Now().AddDate(0, -1, 0).Format("2006-01-02")
	}

	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		http.Error(w, "dates must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse("2006-01-02", end)
	if err != nil {
		http.Error(w, "dates must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	prices, err := h.resolver.GetSeriesBySymbol(symbol, currency, startTime, endTime)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to read price range")
		http.Error(w, "failed to read price range", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"start":  start,
			"end":    end,
			"prices": prices,
			"count":  len(prices),
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

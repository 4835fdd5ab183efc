package rates

import (
	"fmt"
	"time"

	"github.com/mgrivas/folio/internal/config"
	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
)

// PrimaryProvider is the rates-by-base-currency API (tried first, always).
type PrimaryProvider interface {
	GetRate(fromCurrency, toCurrency string) (float64, error)
}

// SecondaryProvider quotes a synthetic currency-pair symbol (tried second).
type SecondaryProvider interface {
	GetPairRate(fromCurrency, toCurrency string) (float64, error)
}

// Store is the persistence contract the resolver needs.
type Store interface {
	Get(fromCurrency, toCurrency string) (*ExchangeRate, error)
	Upsert(fromCurrency, toCurrency string, rate float64) error
	List() ([]ExchangeRate, error)
}

// Resolver resolves currency pair rates: cache first, then primary
// provider, then secondary, upserting the store on success. Fallback
// order is fixed; the primary is always attempted before the secondary.
type Resolver struct {
	primary   PrimaryProvider
	secondary SecondaryProvider
	store     Store
	log       zerolog.Logger
}

// NewResolver creates a new exchange rate resolver.
func NewResolver(primary PrimaryProvider, secondary SecondaryProvider, store Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		store:     store,
		log:       log.With().Str("service", "rates").Logger(),
	}
}

// GetRate resolves the rate for an ordered pair.
// Returns (nil, nil) when no provider and no fresh cache entry could
// produce a rate; nothing is written in that case.
func (r *Resolver) GetRate(fromCurrency, toCurrency string) (*ResolvedRate, error) {
	if fromCurrency == toCurrency {
		return &ResolvedRate{
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
			Rate:         1.0,
			Source:       SourceIdentity,
		}, nil
	}

	cached, err := r.store.Get(fromCurrency, toCurrency)
	if err != nil {
		// A broken cache read degrades to a provider fetch
		r.log.Warn().Err(err).
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Msg("Rate store read failed, falling back to providers")
	}

	if cached != nil && cached.Age(time.Now()) <= FreshnessWindow {
		r.log.Debug().
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Float64("rate", cached.Rate).
			Msg("Cache hit")
		return &ResolvedRate{
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
			Rate:         cached.Rate,
			Source:       SourceCache,
			LastUpdated:  cached.LastUpdated,
		}, nil
	}

	return r.refresh(fromCurrency, toCurrency)
}

// refresh runs the provider fallback chain and upserts the store on success.
func (r *Resolver) refresh(fromCurrency, toCurrency string) (*ResolvedRate, error) {
	rate, source := 0.0, ""

	primaryRate, err := r.primary.GetRate(fromCurrency, toCurrency)
	if err == nil && primaryRate > 0 {
		rate, source = primaryRate, SourcePrimary
	} else {
		r.log.Warn().Err(err).
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Str("provider", SourcePrimary).
			Msg("Primary rate fetch failed, trying secondary")

		secondaryRate, err := r.secondary.GetPairRate(fromCurrency, toCurrency)
		if err == nil && secondaryRate > 0 {
			rate, source = secondaryRate, SourceSecondary
		} else {
			r.log.Warn().Err(err).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Str("provider", SourceSecondary).
				Msg("Secondary rate fetch failed")
		}
	}

	if rate <= 0 {
		// Both providers exhausted: explicit unavailable, no row written
		r.log.Error().
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Msg("No provider could resolve rate")
		return nil, nil
	}

	if err := r.store.Upsert(fromCurrency, toCurrency, rate); err != nil {
		// The caller still gets the rate; only the cache write is lost
		r.log.Error().Err(err).
			Str("from", fromCurrency).
			Str("to", toCurrency).
			Msg("Failed to persist refreshed rate")
	}

	now := time.Now().UTC()
	r.log.Info().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Str("source", source).
		Msg("Refreshed rate")

	return &ResolvedRate{
		FromCurrency: fromCurrency,
		ToCurrency:   toCurrency,
		Rate:         rate,
		Source:       source,
		LastUpdated:  now,
	}, nil
}

// UpdateAll refreshes every configured pair straight from the providers,
// bypassing the freshness window, so scheduled and manual refreshes always
// pull new data. Individual pair failures are logged and skipped; the batch
// errors only when every pair fails.
func (r *Resolver) UpdateAll(pairs []config.CurrencyPair) error {
	errorCount := 0
	successCount := 0

	for _, pair := range pairs {
		resolved, err := r.refresh(pair.From, pair.To)
		if err != nil {
			r.log.Error().Err(err).Str("pair", pair.String()).Msg("Failed to resolve pair")
			errorCount++
			continue
		}
		if resolved == nil {
			r.log.Warn().Str("pair", pair.String()).Msg("Pair unavailable from all providers")
			errorCount++
			continue
		}
		successCount++
	}

	r.log.Info().
		Int("success", successCount).
		Int("errors", errorCount).
		Msg("Rate update completed")

	if successCount == 0 && len(pairs) > 0 {
		return fmt.Errorf("all %d rate updates failed", len(pairs))
	}

	return nil // Partial success OK
}

// Convert converts an amount between currencies. Unlike price lookups,
// a conversion cannot silently degrade: an unavailable rate is a hard error.
func (r *Resolver) Convert(amount float64, fromCurrency, toCurrency string) (float64, error) {
	resolved, err := r.GetRate(fromCurrency, toCurrency)
	if err != nil {
		return 0, fmt.Errorf("convert %s->%s: %w", fromCurrency, toCurrency, err)
	}
	if resolved == nil {
		return 0, fmt.Errorf("convert %s->%s: %w", fromCurrency, toCurrency, domain.ErrNoRateAvailable)
	}

	return amount * resolved.Rate, nil
}

// ListRates returns all stored rates, for the API surface.
func (r *Resolver) ListRates() ([]ExchangeRate, error) {
	return r.store.List()
}

package securities

import (
	"fmt"
	"time"

	"github.com/mgrivas/folio/internal/clients/yahoo"
	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
)

// QuoteProvider fetches prices from the market data provider
type QuoteProvider interface {
	GetQuote(symbol string) (*yahoo.Quote, error)
	GetDailySeries(symbol string, start, end time.Time) ([]yahoo.Bar, error)
}

// PriceStore persists and reads daily price rows
type PriceStore interface {
	Upsert(p *SecurityPrice) error
	GetBySymbolAndDate(symbol, priceDate string) (*SecurityPrice, error)
	GetLatest(symbol string) (*SecurityPrice, error)
	GetRange(symbol, startDate, endDate string) ([]*SecurityPrice, error)
}

// PriceResolver resolves current prices for holdings, reusing stored
// rows when they are fresh and falling back to the last stored value
// when the provider is unreachable.
type PriceResolver struct {
	provider QuoteProvider
	store    PriceStore
	log      zerolog.Logger
	now      func() time.Time
}

// NewPriceResolver creates a new price resolver
func NewPriceResolver(provider QuoteProvider, store PriceStore, log zerolog.Logger) *PriceResolver {
	return &PriceResolver{
		provider: provider,
		store:    store,
		log:      log.With().Str("service", "price_resolver").Logger(),
		now:      time.Now,
	}
}

// GetCurrentPrice resolves the current price for a holding.
//
// Holdings in categories without market prices resolve to no price
// without touching the store or the provider, as do holdings whose name
// yields no provider symbol. A today's row written within the last
// PriceFreshness is reused as-is. Otherwise the provider is queried and
// the result upserted. When the provider fails, the newest stored row of
// any age is served marked stale; with no stored row at all the holding
// resolves to no price.
//
// A nil result with a nil error means "no price", which is a normal
// outcome, not a failure.
func (s *PriceResolver) GetCurrentPrice(holding *domain.Holding) (*ResolvedPrice, error) {
	if !holding.Category.IsTradable() {
		return nil, nil
	}

	symbol, ok := MapSymbol(holding.Name, holding.Currency)
	if !ok {
		s.log.Debug().
			Str("holding", holding.Name).
			Str("currency", holding.Currency).
			Msg("No provider symbol for holding")
		return nil, nil
	}

	now := s.now()
	today := now.Format("2006-01-02")

	stored, err := s.store.GetBySymbolAndDate(symbol, today)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Price store read failed, querying provider")
	} else if stored != nil && stored.Age(now) <= PriceFreshness {
		return &ResolvedPrice{
			Symbol:    stored.Symbol,
			Price:     stored.Close,
			Currency:  stored.Currency,
			PriceDate: stored.PriceDate,
		}, nil
	}

	quote, err := s.provider.GetQuote(symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider fetch failed, trying last stored price")
		return s.lastKnown(symbol)
	}

	price := s.storeQuote(symbol, today, quote)
	return price, nil
}

// storeQuote converts a provider quote into a stored row and upserts it.
// Persistence failures are logged but do not discard the fetched price.
func (s *PriceResolver) storeQuote(symbol, today string, quote *yahoo.Quote) *ResolvedPrice {
	row := &SecurityPrice{
		Symbol:       symbol,
		PriceDate:    today,
		Close:        quote.MarketPrice,
		Currency:     quote.Currency,
		ExchangeName: quote.ExchangeName,
	}

	if quote.Bar != nil {
		row.PriceDate = quote.Bar.Date.Format("2006-01-02")
		row.Open = quote.Bar.Open
		row.High = quote.Bar.High
		row.Low = quote.Bar.Low
		row.Volume = quote.Bar.Volume
		if quote.MarketPrice == 0 {
			row.Close = quote.Bar.Close
		}
	}

	if err := s.store.Upsert(row); err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist fetched price")
	}

	return &ResolvedPrice{
		Symbol:    row.Symbol,
		Price:     row.Close,
		Currency:  row.Currency,
		PriceDate: row.PriceDate,
	}
}

// lastKnown serves the newest stored price of any age, marked stale.
func (s *PriceResolver) lastKnown(symbol string) (*ResolvedPrice, error) {
	stored, err := s.store.GetLatest(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to read last stored price for %s: %w", symbol, err)
	}
	if stored == nil {
		return nil, nil
	}

	s.log.Info().
		Str("symbol", symbol).
		Str("price_date", stored.PriceDate).
		Msg("Serving last stored price")

	return &ResolvedPrice{
		Symbol:    stored.Symbol,
		Price:     stored.Close,
		Currency:  stored.Currency,
		PriceDate: stored.PriceDate,
		Stale:     true,
	}, nil
}

// GetPriceSeries returns daily price rows for a holding between two
// dates inclusive.
func (s *PriceResolver) GetPriceSeries(holding *domain.Holding, start, end time.Time) ([]*SecurityPrice, error) {
	if !holding.Category.IsTradable() {
		return nil, nil
	}

	symbol, ok := MapSymbol(holding.Name, holding.Currency)
	if !ok {
		return nil, nil
	}

	return s.GetSeriesBySymbol(symbol, holding.Currency, start, end)
}

// GetSeriesBySymbol returns daily price rows for a symbol between two
// dates inclusive. Stored history that already reaches the range's
// effective upper bound, with its newest row still fresh, is served
// as-is. Otherwise the provider is queried for the window and fetched
// bars upserted before reading back, so a provider failure still
// returns whatever history is stored. currency may be empty when the
// caller does not know it; fetched rows are then stored without one.
func (s *PriceResolver) GetSeriesBySymbol(symbol, currency string, start, end time.Time) ([]*SecurityPrice, error) {
	startDate := start.Format("2006-01-02")
	endDate := end.Format("2006-01-02")

	stored, err := s.store.GetRange(symbol, startDate, endDate)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Price store read failed, querying provider")
	} else if s.rangeCovered(stored, end) {
		return stored, nil
	}

	bars, err := s.provider.GetDailySeries(symbol, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Series fetch failed, serving stored history")
	} else {
		for i := range bars {
			bar := &bars[i]
			row := &SecurityPrice{
				Symbol:    symbol,
				PriceDate: bar.Date.Format("2006-01-02"),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
				Currency:  currency,
			}
			if err := s.store.Upsert(row); err != nil {
				s.log.Error().Err(err).Str("symbol", symbol).Str("date", row.PriceDate).Msg("Failed to persist series row")
			}
		}
	}

	return s.store.GetRange(symbol, startDate, endDate)
}

// rangeCovered reports whether stored rows already answer a range query:
// the newest row must reach the range's upper bound (capped at today)
// and, when that row is today's, still be within PriceFreshness. Rows
// for past days are final closes and never go stale.
func (s *PriceResolver) rangeCovered(stored []*SecurityPrice, end time.Time) bool {
	if len(stored) == 0 {
		return false
	}

	now := s.now()
	effectiveEnd := end
	if effectiveEnd.After(now) {
		effectiveEnd = now
	}

	newest := stored[len(stored)-1]
	if newest.PriceDate < effectiveEnd.Format("2006-01-02") {
		return false
	}
	if newest.PriceDate == now.Format("2006-01-02") && newest.Age(now) > PriceFreshness {
		return false
	}

	return true
}

package performance

import (
	"fmt"
	"time"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/mgrivas/folio/internal/modules/securities"
	"github.com/rs/zerolog"
)

// HoldingSource reads accounts and holdings for a user
type HoldingSource interface {
	GetAccounts(userID int64) ([]*domain.Account, error)
	GetHoldingsByAccount(accountID int64) ([]*domain.Holding, error)
	GetHoldingsByUser(userID int64) ([]*domain.Holding, error)
}

// PriceSource resolves current prices for holdings
type PriceSource interface {
	GetCurrentPrice(h *domain.Holding) (*securities.ResolvedPrice, error)
}

// Converter converts amounts between currencies
type Converter interface {
	Convert(amount float64, fromCurrency, toCurrency string) (float64, error)
}

// ViewCache stores and invalidates serialized dashboard aggregates
type ViewCache interface {
	Store(scope string, value interface{}) error
	Load(scope string, out interface{}) (bool, error)
	Invalidate(scopePrefix string) error
}

// AccountPerformance is one account's holdings with totals in the base
// currency.
type AccountPerformance struct {
	AccountID     int64                `json:"account_id"`
	Name          string               `json:"name"`
	Holdings      []HoldingPerformance `json:"holdings"`
	TotalInvested float64              `json:"total_invested"`
	CurrentValue  float64              `json:"current_value"`
	GainLoss      float64              `json:"gain_loss"`
	GainLossPct   float64              `json:"gain_loss_pct"`
}

// Dashboard is the full valuation aggregate for a user. Per-holding
// amounts stay in the holding's currency; account and grand totals are
// in the base currency.
type Dashboard struct {
	UserID        int64                `json:"user_id"`
	BaseCurrency  string               `json:"base_currency"`
	Accounts      []AccountPerformance `json:"accounts"`
	TotalInvested float64              `json:"total_invested"`
	CurrentValue  float64              `json:"current_value"`
	GainLoss      float64              `json:"gain_loss"`
	GainLossPct   float64              `json:"gain_loss_pct"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// Service computes dashboards and keeps the view cache coherent
type Service struct {
	holdings     HoldingSource
	prices       PriceSource
	converter    Converter
	cache        ViewCache
	baseCurrency string
	log          zerolog.Logger
}

// NewService creates a new performance service
func NewService(holdings HoldingSource, prices PriceSource, converter Converter, cache ViewCache, baseCurrency string, log zerolog.Logger) *Service {
	return &Service{
		holdings:     holdings,
		prices:       prices,
		converter:    converter,
		cache:        cache,
		baseCurrency: baseCurrency,
		log:          log.With().Str("service", "performance").Logger(),
	}
}

func dashboardScope(userID int64) string {
	return fmt.Sprintf("dashboard:user:%d", userID)
}

// GetDashboard returns the valuation aggregate for a user, served from
// the view cache when a fresh entry exists. The second return value
// reports a cache hit.
func (s *Service) GetDashboard(userID int64) (*Dashboard, bool, error) {
	scope := dashboardScope(userID)

	var cached Dashboard
	found, err := s.cache.Load(scope, &cached)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("View cache read failed, recomputing")
	} else if found {
		return &cached, true, nil
	}

	dash, err := s.compute(userID)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Store(scope, dash); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to cache dashboard")
	}

	return dash, false, nil
}

func (s *Service) compute(userID int64) (*Dashboard, error) {
	accounts, err := s.holdings.GetAccounts(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	dash := &Dashboard{
		UserID:       userID,
		BaseCurrency: s.baseCurrency,
		Accounts:     make([]AccountPerformance, 0, len(accounts)),
		GeneratedAt:  time.Now(),
	}

	var grand Totals
	for _, account := range accounts {
		perf, totals, err := s.computeAccount(account)
		if err != nil {
			return nil, err
		}

		dash.Accounts = append(dash.Accounts, *perf)
		grand.Add(totals.Invested(), totals.Value())
	}

	dash.TotalInvested = grand.Invested()
	dash.CurrentValue = grand.Value()
	dash.GainLoss = grand.GainLoss()
	dash.GainLossPct = grand.GainLossPct()

	return dash, nil
}

func (s *Service) computeAccount(account *domain.Account) (*AccountPerformance, *Totals, error) {
	list, err := s.holdings.GetHoldingsByAccount(account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load holdings for account %d: %w", account.ID, err)
	}

	perf := &AccountPerformance{
		AccountID: account.ID,
		Name:      account.Name,
		Holdings:  make([]HoldingPerformance, 0, len(list)),
	}

	var totals Totals
	for _, h := range list {
		hp, err := s.valueHolding(h)
		if err != nil {
			return nil, nil, err
		}

		perf.Holdings = append(perf.Holdings, *hp)

		invested, err := s.converter.Convert(hp.TotalInvested, h.Currency, s.baseCurrency)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert %s amounts for holding %q: %w", h.Currency, h.Name, err)
		}
		value, err := s.converter.Convert(hp.CurrentValue, h.Currency, s.baseCurrency)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert %s amounts for holding %q: %w", h.Currency, h.Name, err)
		}

		totals.Add(invested, value)
	}

	perf.TotalInvested = totals.Invested()
	perf.CurrentValue = totals.Value()
	perf.GainLoss = totals.GainLoss()
	perf.GainLossPct = totals.GainLossPct()

	return perf, &totals, nil
}

// valueHolding resolves a price and computes the holding's metrics.
// Price resolution errors degrade to valuing at cost: the dashboard
// stays renderable when the price store is having a bad day.
func (s *Service) valueHolding(h *domain.Holding) (*HoldingPerformance, error) {
	resolved, err := s.prices.GetCurrentPrice(h)
	if err != nil {
		s.log.Warn().Err(err).Str("holding", h.Name).Msg("Price resolution failed, valuing at cost")
		resolved = nil
	}

	var unitPrice *float64
	stale := false
	if resolved != nil {
		unitPrice = &resolved.Price
		stale = resolved.Stale
	}

	hp := CalculateHolding(h, unitPrice, stale)
	return &hp, nil
}

// GetHoldingsOverview returns every holding across a user's accounts as
// one flat valued list, in the stable account-then-name order the
// repository guarantees. Amounts stay in each holding's own currency, so
// no conversion can fail here.
func (s *Service) GetHoldingsOverview(userID int64) ([]HoldingPerformance, error) {
	list, err := s.holdings.GetHoldingsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings for user %d: %w", userID, err)
	}

	out := make([]HoldingPerformance, 0, len(list))
	for _, h := range list {
		hp, err := s.valueHolding(h)
		if err != nil {
			return nil, err
		}
		out = append(out, *hp)
	}

	return out, nil
}

// InvalidateUser drops a user's cached dashboard views. Called from
// mutation paths before they return, so the next read recomputes.
func (s *Service) InvalidateUser(userID int64) error {
	return s.cache.Invalidate(dashboardScope(userID))
}

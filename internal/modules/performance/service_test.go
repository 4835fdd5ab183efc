package performance

import (
	"testing"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/mgrivas/folio/internal/modules/securities"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHoldings struct {
	accounts map[int64][]*domain.Account
	holdings map[int64][]*domain.Holding
}

func (m *mockHoldings) GetAccounts(userID int64) ([]*domain.Account, error) {
	return m.accounts[userID], nil
}

func (m *mockHoldings) GetHoldingsByAccount(accountID int64) ([]*domain.Holding, error) {
	return m.holdings[accountID], nil
}

func (m *mockHoldings) GetHoldingsByUser(userID int64) ([]*domain.Holding, error) {
	var out []*domain.Holding
	for _, acc := range m.accounts[userID] {
		out = append(out, m.holdings[acc.ID]...)
	}
	return out, nil
}

type mockPrices struct {
	prices map[string]*securities.ResolvedPrice // keyed by holding name
	calls  int
}

func (m *mockPrices) GetCurrentPrice(h *domain.Holding) (*securities.ResolvedPrice, error) {
	m.calls++
	return m.prices[h.Name], nil
}

type mockConverter struct {
	rates map[string]float64 // "FROM:TO" -> rate
}

func (m *mockConverter) Convert(amount float64, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return amount, nil
	}
	rate, ok := m.rates[fromCurrency+":"+toCurrency]
	if !ok {
		return 0, domain.ErrNoRateAvailable
	}
	return amount * rate, nil
}

type mockCache struct {
	entries      map[string]*Dashboard
	stores       int
	invalidated  []string
	loadDisabled bool
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*Dashboard)}
}

func (m *mockCache) Store(scope string, value interface{}) error {
	m.stores++
	if d, ok := value.(*Dashboard); ok {
		cp := *d
		m.entries[scope] = &cp
	}
	return nil
}

func (m *mockCache) Load(scope string, out interface{}) (bool, error) {
	if m.loadDisabled {
		return false, nil
	}
	d, ok := m.entries[scope]
	if !ok {
		return false, nil
	}
	*out.(*Dashboard) = *d
	return true, nil
}

func (m *mockCache) Invalidate(scopePrefix string) error {
	m.invalidated = append(m.invalidated, scopePrefix)
	for scope := range m.entries {
		if len(scope) >= len(scopePrefix) && scope[:len(scopePrefix)] == scopePrefix {
			delete(m.entries, scope)
		}
	}
	return nil
}

func fixtureService() (*Service, *mockPrices, *mockCache) {
	holdings := &mockHoldings{
		accounts: map[int64][]*domain.Account{
			7: {
				{ID: 1, UserID: 7, Name: "Broker", SortOrder: 1},
				{ID: 2, UserID: 7, Name: "Savings", SortOrder: 2},
			},
		},
		holdings: map[int64][]*domain.Holding{
			1: {
				{ID: 10, AccountID: 1, Name: "VFV - S&P 500 ETF", Category: domain.CategoryETF, Quantity: 10, PurchaseValue: 5, Currency: "BRL"},
			},
			2: {
				{ID: 11, AccountID: 2, Name: "Emergency fund", Category: domain.CategorySavings, Quantity: 1, PurchaseValue: 1000, Currency: "BRL"},
			},
		},
	}
	prices := &mockPrices{prices: map[string]*securities.ResolvedPrice{
		"VFV - S&P 500 ETF": {Symbol: "VFV.TO", Price: 7, Currency: "BRL"},
	}}
	cache := newMockCache()

	svc := NewService(holdings, prices, &mockConverter{}, cache, "BRL", zerolog.Nop())
	return svc, prices, cache
}

func TestGetDashboard(t *testing.T) {
	svc, _, _ := fixtureService()

	dash, cached, err := svc.GetDashboard(7)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, dash.Accounts, 2)

	broker := dash.Accounts[0]
	assert.Equal(t, "Broker", broker.Name)
	require.Len(t, broker.Holdings, 1)
	assert.Equal(t, 50.0, broker.Holdings[0].TotalInvested)
	assert.Equal(t, 70.0, broker.Holdings[0].CurrentValue)
	assert.Equal(t, 20.0, broker.Holdings[0].GainLoss)
	assert.Equal(t, 40.0, broker.Holdings[0].GainLossPct)

	// Savings has no market price and is valued at cost.
	savings := dash.Accounts[1]
	assert.Equal(t, 1000.0, savings.CurrentValue)
	assert.Equal(t, 0.0, savings.GainLoss)
	assert.False(t, savings.Holdings[0].HasPrice)

	assert.Equal(t, 1050.0, dash.TotalInvested)
	assert.Equal(t, 1070.0, dash.CurrentValue)
	assert.Equal(t, 20.0, dash.GainLoss)
	assert.Equal(t, 1.90, dash.GainLossPct)
	assert.Equal(t, "BRL", dash.BaseCurrency)
}

func TestGetDashboardCacheHit(t *testing.T) {
	svc, prices, cache := fixtureService()

	_, cached, err := svc.GetDashboard(7)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, cache.stores)
	callsAfterFirst := prices.calls

	dash, cached, err := svc.GetDashboard(7)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, callsAfterFirst, prices.calls, "cache hit must not resolve prices again")
	assert.Equal(t, 1070.0, dash.CurrentValue)
}

func TestInvalidateUserForcesRecompute(t *testing.T) {
	svc, prices, cache := fixtureService()

	_, _, err := svc.GetDashboard(7)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateUser(7))
	assert.Equal(t, []string{"dashboard:user:7"}, cache.invalidated)

	callsBefore := prices.calls
	_, cached, err := svc.GetDashboard(7)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Greater(t, prices.calls, callsBefore)
}

func TestGetDashboardConvertsToBase(t *testing.T) {
	holdings := &mockHoldings{
		accounts: map[int64][]*domain.Account{
			7: {{ID: 1, UserID: 7, Name: "US Broker", SortOrder: 1}},
		},
		holdings: map[int64][]*domain.Holding{
			1: {{ID: 10, AccountID: 1, Name: "AAPL", Category: domain.CategoryStock, Quantity: 2, PurchaseValue: 100, Currency: "USD"}},
		},
	}
	prices := &mockPrices{prices: map[string]*securities.ResolvedPrice{
		"AAPL": {Symbol: "AAPL", Price: 150, Currency: "USD"},
	}}
	converter := &mockConverter{rates: map[string]float64{"USD:BRL": 5.0}}

	svc := NewService(holdings, prices, converter, newMockCache(), "BRL", zerolog.Nop())

	dash, _, err := svc.GetDashboard(7)
	require.NoError(t, err)

	// Holding amounts stay in USD; totals are converted. 2 × 100 USD
	// invested, 2 × 150 USD current, at 5 BRL per USD.
	assert.Equal(t, 200.0, dash.Accounts[0].Holdings[0].TotalInvested)
	assert.Equal(t, 1000.0, dash.TotalInvested)
	assert.Equal(t, 1500.0, dash.CurrentValue)
	assert.Equal(t, 500.0, dash.GainLoss)
	assert.Equal(t, 50.0, dash.GainLossPct)
}

func TestGetDashboardMissingRateFails(t *testing.T) {
	holdings := &mockHoldings{
		accounts: map[int64][]*domain.Account{
			7: {{ID: 1, UserID: 7, Name: "US Broker", SortOrder: 1}},
		},
		holdings: map[int64][]*domain.Holding{
			1: {{ID: 10, AccountID: 1, Name: "AAPL", Category: domain.CategoryStock, Quantity: 2, PurchaseValue: 100, Currency: "USD"}},
		},
	}

	svc := NewService(holdings, &mockPrices{}, &mockConverter{}, newMockCache(), "BRL", zerolog.Nop())

	_, _, err := svc.GetDashboard(7)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoRateAvailable)
}

func TestGetDashboardEmptyUser(t *testing.T) {
	svc := NewService(&mockHoldings{}, &mockPrices{}, &mockConverter{}, newMockCache(), "BRL", zerolog.Nop())

	dash, cached, err := svc.GetDashboard(42)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, dash.Accounts)
	assert.Equal(t, 0.0, dash.TotalInvested)
	assert.Equal(t, 0.0, dash.GainLossPct)
}

func TestGetHoldingsOverview(t *testing.T) {
	svc, _, _ := fixtureService()

	list, err := svc.GetHoldingsOverview(7)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "VFV - S&P 500 ETF", list[0].Name)
	assert.Equal(t, 50.0, list[0].TotalInvested)
	assert.Equal(t, 70.0, list[0].CurrentValue)
	assert.True(t, list[0].HasPrice)

	// Savings has no market price and is valued at cost.
	assert.Equal(t, "Emergency fund", list[1].Name)
	assert.Equal(t, 1000.0, list[1].CurrentValue)
	assert.False(t, list[1].HasPrice)
}

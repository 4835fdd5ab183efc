// Package performance computes gain/loss aggregates over holdings.
// Money math runs on decimals; floats only appear at the API edge.
package performance

import (
	"github.com/mgrivas/folio/internal/domain"
	"github.com/shopspring/decimal"
)

// HoldingPerformance is the valuation of a single holding, in the
// holding's own currency.
type HoldingPerformance struct {
	HoldingID     int64   `json:"holding_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Currency      string  `json:"currency"`
	Quantity      float64 `json:"quantity"`
	TotalInvested float64 `json:"total_invested"`
	CurrentValue  float64 `json:"current_value"`
	GainLoss      float64 `json:"gain_loss"`
	GainLossPct   float64 `json:"gain_loss_pct"`
	HasPrice      bool    `json:"has_price"`
	PriceStale    bool    `json:"price_stale"`
}

// CalculateHolding values one holding. unitPrice is the resolved market
// price per unit, or nil when no price could be determined; without a
// price the holding is valued at cost, which makes its gain zero rather
// than a fictitious total loss.
func CalculateHolding(h *domain.Holding, unitPrice *float64, priceStale bool) HoldingPerformance {
	quantity := decimal.NewFromFloat(h.Quantity)
	invested := quantity.Mul(decimal.NewFromFloat(h.PurchaseValue))

	var value decimal.Decimal
	hasPrice := unitPrice != nil
	if hasPrice {
		value = quantity.Mul(decimal.NewFromFloat(*unitPrice))
	} else {
		value = invested
		priceStale = false
	}

	gain := value.Sub(invested)
	pct := decimal.Zero
	if !invested.IsZero() {
		pct = gain.Div(invested).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return HoldingPerformance{
		HoldingID:     h.ID,
		Name:          h.Name,
		Category:      string(h.Category),
		Currency:      h.Currency,
		Quantity:      h.Quantity,
		TotalInvested: invested.Round(2).InexactFloat64(),
		CurrentValue:  value.Round(2).InexactFloat64(),
		GainLoss:      gain.Round(2).InexactFloat64(),
		GainLossPct:   pct.InexactFloat64(),
		HasPrice:      hasPrice,
		PriceStale:    priceStale,
	}
}

// Totals accumulates base-currency amounts across holdings
type Totals struct {
	invested decimal.Decimal
	value    decimal.Decimal
}

// Add accumulates one holding's converted amounts
func (t *Totals) Add(invested, value float64) {
	t.invested = t.invested.Add(decimal.NewFromFloat(invested))
	t.value = t.value.Add(decimal.NewFromFloat(value))
}

// Invested returns the accumulated invested amount rounded to cents
func (t *Totals) Invested() float64 {
	return t.invested.Round(2).InexactFloat64()
}

// Value returns the accumulated current value rounded to cents
func (t *Totals) Value() float64 {
	return t.value.Round(2).InexactFloat64()
}

// GainLoss returns value minus invested, rounded to cents
func (t *Totals) GainLoss() float64 {
	return t.value.Sub(t.invested).Round(2).InexactFloat64()
}

// GainLossPct returns the percentage gain, 0 when nothing is invested
func (t *Totals) GainLossPct() float64 {
	if t.invested.IsZero() {
		return 0
	}
	return t.value.Sub(t.invested).Div(t.invested).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

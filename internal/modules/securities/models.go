package securities

import "time"

// PriceFreshness is how long a same-day stored price is trusted before a
// provider refetch is attempted.
const PriceFreshness = 4 * time.Hour

// SecurityPrice is one daily price row for a security
type SecurityPrice struct {
	Symbol       string   `json:"symbol"`
	PriceDate    string   `json:"price_date"` // YYYY-MM-DD
	Open         *float64 `json:"open,omitempty"`
	High         *float64 `json:"high,omitempty"`
	Low          *float64 `json:"low,omitempty"`
	Close        float64  `json:"close"`
	Volume       *int64   `json:"volume,omitempty"`
	Currency     string   `json:"currency"`
	ExchangeName string   `json:"exchange_name"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

// Age returns how long ago the row was last written
func (p *SecurityPrice) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(p.UpdatedAt, 0))
}

// ResolvedPrice is the outcome of resolving a current price for a
// holding. A nil *ResolvedPrice means no price could be determined.
type ResolvedPrice struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	PriceDate string  `json:"price_date"`
	Stale     bool    `json:"stale"` // true when served from an older stored row after a fetch failure
}

package rates

import "time"

// FreshnessWindow is the maximum age of a stored rate before resolution
// goes back to the providers. Rates move daily; a day-old quote is fine
// for valuing a personal portfolio.
const FreshnessWindow = 24 * time.Hour

// Rate sources, recorded on resolved rates for logging and API responses.
const (
	SourceIdentity  = "identity"
	SourceCache     = "cache"
	SourcePrimary   = "exchangerate-api"
	SourceSecondary = "yahoo"
)

// ExchangeRate is a stored currency pair rate. Pairs are ordered:
// USD->BRL and BRL->USD are independent rows, never derived from each other.
type ExchangeRate struct {
	FromCurrency string
	ToCurrency   string
	Rate         float64
	LastUpdated  time.Time
}

// Age returns how long ago the rate was last refreshed.
func (r ExchangeRate) Age(now time.Time) time.Duration {
	return now.Sub(r.LastUpdated)
}

// ResolvedRate is the outcome of a successful rate resolution.
// An unavailable rate is represented by a nil *ResolvedRate, not an error.
type ResolvedRate struct {
	FromCurrency string
	ToCurrency   string
	Rate         float64
	Source       string
	LastUpdated  time.Time
}

// Package exchangerate provides the primary currency rate provider client.
// It speaks the "rates by base currency" API shape: one GET per base
// currency returning the full rate table. Caching lives in the resolver,
// not here.
package exchangerate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production endpoint. Tests inject an httptest URL.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Client for a rates-by-base-currency API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new rates client. baseURL may be empty to use the default.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
	}
}

// RateTable is a provider response: every quoted rate for one base currency.
type RateTable struct {
	Date  string
	Base  string
	Rates map[string]float64
}

// GetRates fetches the full rate table for a base currency.
// Network and status failures wrap domain.ErrProviderUnavailable;
// undecodable bodies wrap domain.ErrMalformedPayload.
func (c *Client) GetRates(baseCurrency string) (*RateTable, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, baseCurrency)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for base %s", domain.ErrProviderUnavailable, resp.StatusCode, baseCurrency)
	}

	var result struct {
		Date  string             `json:"date"`
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	if len(result.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table for base %s", domain.ErrMalformedPayload, baseCurrency)
	}

	return &RateTable{
		Date:  result.Date,
		Base:  result.Base,
		Rates: result.Rates,
	}, nil
}

// GetRate fetches a single pair rate out of the base-currency table.
func (c *Client) GetRate(fromCurrency, toCurrency string) (float64, error) {
	table, err := c.GetRates(fromCurrency)
	if err != nil {
		return 0, err
	}

	rate, exists := table.Rates[toCurrency]
	if !exists {
		return 0, fmt.Errorf("%w: rate %s->%s not in table", domain.ErrMalformedPayload, fromCurrency, toCurrency)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: non-positive rate %f for %s->%s", domain.ErrMalformedPayload, rate, fromCurrency, toCurrency)
	}

	c.log.Info().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Fetched rate")

	return rate, nil
}

// Package yahoo provides the quote/chart market data client. It serves
// two roles: security prices for the price resolver and synthetic
// currency-pair quotes as the secondary rate provider.
package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production chart endpoint. Tests inject an httptest URL.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is a chart API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new chart client. baseURL may be empty to use the default.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// PairSymbol builds the synthetic chart symbol for a currency pair,
// e.g. ("USD", "BRL") -> "USDBRL=X".
func PairSymbol(fromCurrency, toCurrency string) string {
	return fromCurrency + toCurrency + "=X"
}

// chartResponse mirrors the chart endpoint payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current-day quote for a symbol.
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "1d")

	bars, meta, err := c.fetchChart(symbol, params)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Symbol:       symbol,
		Currency:     meta.Currency,
		ExchangeName: meta.ExchangeName,
		MarketPrice:  meta.RegularMarketPrice,
	}
	if len(bars) > 0 {
		quote.Bar = &bars[len(bars)-1]
	}

	if quote.MarketPrice <= 0 && quote.Bar == nil {
		return nil, fmt.Errorf("%w: no price data for %s", domain.ErrMalformedPayload, symbol)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.MarketPrice).
		Str("currency", quote.Currency).
		Msg("Fetched quote")

	return quote, nil
}

// GetDailySeries fetches daily bars for [start, end] inclusive.
func (c *Client) GetDailySeries(symbol string, start, end time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive on the provider side, push it past end-of-day
	params.Add("period2", strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10))

	bars, _, err := c.fetchChart(symbol, params)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("symbol", symbol).
		Int("count", len(bars)).
		Msg("Fetched daily series")

	return bars, nil
}

// GetPairRate fetches the current rate for a currency pair via its
// synthetic symbol. Used as the secondary rate provider.
func (c *Client) GetPairRate(fromCurrency, toCurrency string) (float64, error) {
	quote, err := c.GetQuote(PairSymbol(fromCurrency, toCurrency))
	if err != nil {
		return 0, err
	}

	rate := quote.MarketPrice
	if rate <= 0 && quote.Bar != nil {
		rate = quote.Bar.Close
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: non-positive pair rate for %s%s", domain.ErrMalformedPayload, fromCurrency, toCurrency)
	}

	return rate, nil
}

type chartMeta struct {
	Currency           string
	ExchangeName       string
	RegularMarketPrice float64
}

func (c *Client) fetchChart(symbol string, params url.Values) ([]Bar, *chartMeta, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Headers to mimic a browser; the endpoint rejects default Go clients
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: request failed: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Warn().
			Str("symbol", symbol).
			Int("status", resp.StatusCode).
			Bytes("body", body).
			Msg("Chart API returned non-OK status")
		return nil, nil, fmt.Errorf("%w: status %d for %s", domain.ErrProviderUnavailable, resp.StatusCode, symbol)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	if result.Chart.Error != nil {
		return nil, nil, fmt.Errorf("%w: chart error: %v", domain.ErrProviderUnavailable, result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: empty result for %s", domain.ErrMalformedPayload, symbol)
	}

	chartData := result.Chart.Result[0]
	meta := &chartMeta{
		Currency:           chartData.Meta.Currency,
		ExchangeName:       chartData.Meta.ExchangeName,
		RegularMarketPrice: chartData.Meta.RegularMarketPrice,
	}

	if len(chartData.Indicators.Quote) == 0 {
		return nil, meta, nil
	}

	quote := chartData.Indicators.Quote[0]
	bars := make([]Bar, 0, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			// The provider pads series with null bars on non-trading days
			continue
		}

		bar := Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}

		bars = append(bars, bar)
	}

	return bars, meta, nil
}

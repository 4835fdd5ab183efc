package yahoo

import "time"

// Bar is one daily OHLCV bar from the chart endpoint.
// Open/high/low/volume can be null in provider payloads; close is required.
type Bar struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  float64
	Volume *int64
}

// Quote is the current-day view of a symbol: the newest bar of the chart
// series plus the chart metadata.
type Quote struct {
	Symbol       string
	Currency     string
	ExchangeName string
	MarketPrice  float64 // meta.regularMarketPrice
	Bar          *Bar    // newest bar, nil when the series is empty
}

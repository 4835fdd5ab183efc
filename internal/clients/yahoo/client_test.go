package yahoo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartPayload = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "BRL",
        "symbol": "PETR4.SA",
        "exchangeName": "SAO",
        "regularMarketPrice": 38.52
      },
      "timestamp": [1756339200],
      "indicators": {
        "quote": [{
          "open": [38.10],
          "high": [38.90],
          "low": [37.95],
          "close": [38.52],
          "volume": [31200000]
        }]
      }
    }],
    "error": null
  }
}`

func TestPairSymbol(t *testing.T) {
	assert.Equal(t, "USDBRL=X", PairSymbol("USD", "BRL"))
	assert.Equal(t, "BRLUSD=X", PairSymbol("BRL", "USD"))
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PETR4.SA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartPayload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	quote, err := client.GetQuote("PETR4.SA")
	require.NoError(t, err)

	assert.Equal(t, "BRL", quote.Currency)
	assert.Equal(t, "SAO", quote.ExchangeName)
	assert.Equal(t, 38.52, quote.MarketPrice)
	require.NotNil(t, quote.Bar)
	assert.Equal(t, 38.52, quote.Bar.Close)
	require.NotNil(t, quote.Bar.Volume)
	assert.Equal(t, int64(31200000), *quote.Bar.Volume)
}

func TestGetQuoteSkipsNullBars(t *testing.T) {
	payload := `{
	  "chart": {
	    "result": [{
	      "meta": {"currency": "USD", "symbol": "AAPL", "exchangeName": "NMS", "regularMarketPrice": 231.1},
	      "timestamp": [1756252800, 1756339200],
	      "indicators": {"quote": [{"open": [null, 230.0], "high": [null, 232.0], "low": [null, 229.5], "close": [null, 231.1], "volume": [null, 40000000]}]}
	    }],
	    "error": null
	  }
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	quote, err := client.GetQuote("AAPL")
	require.NoError(t, err)
	require.NotNil(t, quote.Bar)
	assert.Equal(t, 231.1, quote.Bar.Close)
}

func TestGetDailySeriesRange(t *testing.T) {
	var gotPeriod1, gotPeriod2 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPeriod1 = r.URL.Query().Get("period1")
		gotPeriod2 = r.URL.Query().Get("period2")
		fmt.Fprint(w, chartPayload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	bars, err := client.GetDailySeries("PETR4.SA", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.NotEmpty(t, gotPeriod1)
	assert.NotEmpty(t, gotPeriod2)
}

func TestGetPairRate(t *testing.T) {
	payload := `{
	  "chart": {
	    "result": [{
	      "meta": {"currency": "BRL", "symbol": "USDBRL=X", "exchangeName": "CCY", "regularMarketPrice": 5.47},
	      "timestamp": [],
	      "indicators": {"quote": [{}]}
	    }],
	    "error": null
	  }
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USDBRL=X", r.URL.Path)
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	rate, err := client.GetPairRate("USD", "BRL")
	require.NoError(t, err)
	assert.Equal(t, 5.47, rate)
}

func TestGetQuoteProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGetQuoteChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetQuote("NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGetQuoteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>rate limited</html>`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

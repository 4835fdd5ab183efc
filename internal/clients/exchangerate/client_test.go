package exchangerate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USD", r.URL.Path)
		w.Write([]byte(`{"date":"2026-08-28","base":"USD","rates":{"BRL":5.43,"EUR":0.92}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	rate, err := client.GetRate("USD", "BRL")
	require.NoError(t, err)
	assert.Equal(t, 5.43, rate)
}

func TestGetRateMissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"date":"2026-08-28","base":"USD","rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetRate("USD", "BRL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestGetRatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetRates("USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGetRatesUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zerolog.Nop())

	_, err := client.GetRates("USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGetRatesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetRates("USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestGetRatesEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"date":"2026-08-28","base":"USD","rates":{}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	_, err := client.GetRates("USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

package domain

import "errors"

// Error values for market data resolution. Provider and parse failures are
// absorbed at resolver boundaries and degrade to the next fallback step;
// only currency conversion surfaces ErrNoRateAvailable to its caller.
var (
	// ErrProviderUnavailable marks network failures and non-2xx provider responses.
	ErrProviderUnavailable = errors.New("market data provider unavailable")

	// ErrMalformedPayload marks provider responses that could not be parsed.
	ErrMalformedPayload = errors.New("malformed provider payload")

	// ErrNoRateAvailable means every provider and the cache were exhausted
	// for a currency pair. Conversions fail hard on it.
	ErrNoRateAvailable = errors.New("no exchange rate available")
)

package rates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository persists exchange rates in the market database.
// One row per ordered pair; rows are upserted on refresh and never
// deleted in normal operation.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new exchange rate repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "rates").Logger(),
	}
}

// Upsert inserts or replaces the rate for an ordered pair,
// stamping last_updated with the current time.
func (r *Repository) Upsert(fromCurrency, toCurrency string, rate float64) error {
	query := `
		INSERT OR REPLACE INTO exchange_rates (from_currency, to_currency, rate, last_updated)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, fromCurrency, toCurrency, rate, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert exchange rate: %w", err)
	}

	r.log.Debug().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Upserted exchange rate")

	return nil
}

// Get fetches the stored rate for an ordered pair.
// Returns nil if no rate is stored (not an error).
func (r *Repository) Get(fromCurrency, toCurrency string) (*ExchangeRate, error) {
	query := `
		SELECT from_currency, to_currency, rate, last_updated
		FROM exchange_rates
		WHERE from_currency = ? AND to_currency = ?
	`

	var er ExchangeRate
	var updatedUnix int64

	err := r.db.QueryRow(query, fromCurrency, toCurrency).Scan(
		&er.FromCurrency,
		&er.ToCurrency,
		&er.Rate,
		&updatedUnix,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	er.LastUpdated = time.Unix(updatedUnix, 0).UTC()
	return &er, nil
}

// List returns all stored rates ordered by pair.
func (r *Repository) List() ([]ExchangeRate, error) {
	query := `
		SELECT from_currency, to_currency, rate, last_updated
		FROM exchange_rates
		ORDER BY from_currency, to_currency
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	var result []ExchangeRate
	for rows.Next() {
		var er ExchangeRate
		var updatedUnix int64
		if err := rows.Scan(&er.FromCurrency, &er.ToCurrency, &er.Rate, &updatedUnix); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		er.LastUpdated = time.Unix(updatedUnix, 0).UTC()
		result = append(result, er)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rates: %w", err)
	}

	return result, nil
}

package securities

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles security price persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new securities repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "securities").Logger(),
	}
}

// Upsert inserts or updates a price row keyed by (symbol, price_date).
// A replaced row keeps its original created_at.
func (r *Repository) Upsert(p *SecurityPrice) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO security_prices (symbol, price_date, open, high, low, close, volume, currency, exchange_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, price_date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			currency = excluded.currency,
			exchange_name = excluded.exchange_name,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		p.Symbol, p.PriceDate, p.Open, p.High, p.Low, p.Close, p.Volume,
		p.Currency, p.ExchangeName, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert price for %s on %s: %w", p.Symbol, p.PriceDate, err)
	}

	return nil
}

// GetBySymbolAndDate returns the price row for a symbol on a given day,
// or nil if none exists.
func (r *Repository) GetBySymbolAndDate(symbol, priceDate string) (*SecurityPrice, error) {
	query := `
		SELECT symbol, price_date, open, high, low, close, volume, currency, exchange_name, created_at, updated_at
		FROM security_prices
		WHERE symbol = ? AND price_date = ?
	`

	return r.scanOne(r.db.QueryRow(query, symbol, priceDate))
}

// GetLatest returns the most recent price row for a symbol regardless of
// age, or nil if the symbol has never been priced.
func (r *Repository) GetLatest(symbol string) (*SecurityPrice, error) {
	query := `
		SELECT symbol, price_date, open, high, low, close, volume, currency, exchange_name, created_at, updated_at
		FROM security_prices
		WHERE symbol = ?
		ORDER BY price_date DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, symbol))
}

// GetRange returns price rows for a symbol between two dates inclusive,
// oldest first.
func (r *Repository) GetRange(symbol, startDate, endDate string) ([]*SecurityPrice, error) {
	query := `
		SELECT symbol, price_date, open, high, low, close, volume, currency, exchange_name, created_at, updated_at
		FROM security_prices
		WHERE symbol = ? AND price_date >= ? AND price_date <= ?
		ORDER BY price_date ASC
	`

	rows, err := r.db.Query(query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query price range for %s: %w", symbol, err)
	}
	defer rows.Close()

	var prices []*SecurityPrice
	for rows.Next() {
		var p SecurityPrice
		if err := rows.Scan(&p.Symbol, &p.PriceDate, &p.Open, &p.High, &p.Low, &p.Close,
			&p.Volume, &p.Currency, &p.ExchangeName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		prices = append(prices, &p)
	}

	return prices, rows.Err()
}

func (r *Repository) scanOne(row *sql.Row) (*SecurityPrice, error) {
	var p SecurityPrice
	err := row.Scan(&p.Symbol, &p.PriceDate, &p.Open, &p.High, &p.Low, &p.Close,
		&p.Volume, &p.Currency, &p.ExchangeName, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price row: %w", err)
	}
	return &p, nil
}

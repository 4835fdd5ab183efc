// Package holdings reads accounts and holdings for valuation. Writes
// happen elsewhere; this layer only needs a consistent read view.
package holdings

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mgrivas/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Repository reads accounts and holdings from the market database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holdings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "holdings").Logger(),
	}
}

// GetAccounts returns a user's accounts ordered by sort_order, then
// name. The ordering is part of the contract: dashboard renders must be
// byte-for-byte repeatable.
func (r *Repository) GetAccounts(userID int64) ([]*domain.Account, error) {
	query := `
		SELECT id, user_id, name, sort_order
		FROM accounts
		WHERE user_id = ?
		ORDER BY sort_order ASC, name ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}

// GetHoldingsByAccount returns an account's holdings ordered by name.
func (r *Repository) GetHoldingsByAccount(accountID int64) ([]*domain.Holding, error) {
	query := `
		SELECT id, account_id, name, category, quantity, purchase_value, currency, purchase_date
		FROM holdings
		WHERE account_id = ?
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var out []*domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}

	return out, rows.Err()
}

// GetHoldingsByUser returns every holding across a user's accounts,
// ordered by account then name.
func (r *Repository) GetHoldingsByUser(userID int64) ([]*domain.Holding, error) {
	query := `
		SELECT h.id, h.account_id, h.name, h.category, h.quantity, h.purchase_value, h.currency, h.purchase_date
		FROM holdings h
		JOIN accounts a ON a.id = h.account_id
		WHERE a.user_id = ?
		ORDER BY a.sort_order ASC, a.name ASC, h.name ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []*domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}

	return out, rows.Err()
}

func scanHolding(rows *sql.Rows) (*domain.Holding, error) {
	var h domain.Holding
	var category, purchaseDate string

	if err := rows.Scan(&h.ID, &h.AccountID, &h.Name, &category, &h.Quantity,
		&h.PurchaseValue, &h.Currency, &purchaseDate); err != nil {
		return nil, fmt.Errorf("failed to scan holding row: %w", err)
	}

	h.Category = domain.Category(category)
	if parsed, err := time.Parse("2006-01-02", purchaseDate); err == nil {
		h.PurchaseDate = parsed
	}
	return &h, nil
}

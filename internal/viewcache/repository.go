// Package viewcache stores serialized dashboard aggregates keyed by
// scope. Entries expire after a TTL and are dropped synchronously when
// the underlying data changes.
package viewcache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL is how long a cached aggregate stays servable. Expired entries
// are treated as absent on read and swept by the cleanup job.
const TTL = 1 * time.Hour

// Repository persists cached view aggregates
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new view cache repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "viewcache").Logger(),
	}
}

// Store serializes a value and upserts it under the scope with a fresh
// expiry.
func (r *Repository) Store(scope string, value interface{}) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize view for scope %s: %w", scope, err)
	}

	query := `
		INSERT INTO dashboard_views (scope, data, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at
	`

	_, err = r.db.Exec(query, scope, blob, time.Now().Add(TTL).Unix())
	if err != nil {
		return fmt.Errorf("failed to store view for scope %s: %w", scope, err)
	}

	return nil
}

// Load deserializes the cached value for a scope into out. It returns
// false when no entry exists or the entry has expired; expired rows are
// left for the cleanup job.
func (r *Repository) Load(scope string, out interface{}) (bool, error) {
	query := `SELECT data FROM dashboard_views WHERE scope = ? AND expires_at > ?`

	var blob []byte
	err := r.db.QueryRow(query, scope, time.Now().Unix()).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load view for scope %s: %w", scope, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		// A blob we can no longer decode is as good as absent.
		r.log.Warn().Err(err).Str("scope", scope).Msg("Dropping undecodable cached view")
		if _, delErr := r.db.Exec("DELETE FROM dashboard_views WHERE scope = ?", scope); delErr != nil {
			r.log.Error().Err(delErr).Str("scope", scope).Msg("Failed to drop undecodable cached view")
		}
		return false, nil
	}

	return true, nil
}

// Invalidate removes every cached entry whose scope starts with the
// given prefix. Called inline from mutation paths so the next read
// recomputes.
func (r *Repository) Invalidate(scopePrefix string) error {
	result, err := r.db.Exec("DELETE FROM dashboard_views WHERE scope LIKE ? || '%'", scopePrefix)
	if err != nil {
		return fmt.Errorf("failed to invalidate scope %s: %w", scopePrefix, err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		r.log.Debug().Str("scope_prefix", scopePrefix).Int64("entries", n).Msg("Invalidated cached views")
	}

	return nil
}

// DeleteExpired removes entries past their expiry and returns how many
// were dropped.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM dashboard_views WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired views: %w", err)
	}

	return result.RowsAffected()
}

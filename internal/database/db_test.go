package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMigrateMarket(t *testing.T) {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "market.db"),
		Profile: ProfileStandard,
		Name:    "market",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())

	// Migrations are idempotent
	require.NoError(t, db.Migrate())

	// The schema tables exist
	var count int
	err = db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('exchange_rates','security_prices','accounts','holdings')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestNewAndMigrateViewcache(t *testing.T) {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "viewcache.db"),
		Profile: ProfileCache,
		Name:    "viewcache",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())

	var name string
	err = db.Conn().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='dashboard_views'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "dashboard_views", name)
}

func TestMigrateUnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "other.db"),
		Name: "other",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
}

func TestHealthCheck(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "market.db"),
		Name: "market",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.QuickCheck(context.Background()))
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "market.db"),
		Name: "market",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO exchange_rates (from_currency, to_currency, rate, last_updated) VALUES ('USD','BRL',5.0,0)",
		); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM exchange_rates").Scan(&count))
	assert.Equal(t, 0, count)
}

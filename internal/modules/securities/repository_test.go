package securities

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE security_prices (
    symbol        TEXT NOT NULL,
    price_date    TEXT NOT NULL,
    open          REAL,
    high          REAL,
    low           REAL,
    close         REAL NOT NULL,
    volume        INTEGER,
    currency      TEXT NOT NULL,
    exchange_name TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL,
    PRIMARY KEY (symbol, price_date)
);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }

func TestUpsertAndGetByDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	err := repo.Upsert(&SecurityPrice{
		Symbol:       "VFV.TO",
		PriceDate:    "2026-08-28",
		Open:         floatPtr(143.10),
		High:         floatPtr(144.95),
		Low:          floatPtr(142.80),
		Close:        144.20,
		Volume:       int64Ptr(210500),
		Currency:     "CAD",
		ExchangeName: "TOR",
	})
	require.NoError(t, err)

	p, err := repo.GetBySymbolAndDate("VFV.TO", "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "VFV.TO", p.Symbol)
	assert.Equal(t, 144.20, p.Close)
	assert.Equal(t, "CAD", p.Currency)
	require.NotNil(t, p.Open)
	assert.Equal(t, 143.10, *p.Open)
	assert.WithinDuration(t, time.Now(), time.Unix(p.UpdatedAt, 0), 5*time.Second)
}

func TestUpsertKeepsCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	row := &SecurityPrice{Symbol: "AAPL", PriceDate: "2026-08-28", Close: 231.50, Currency: "USD"}
	require.NoError(t, repo.Upsert(row))

	first, err := repo.GetBySymbolAndDate("AAPL", "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Backdate created_at so a preserved value is distinguishable.
	_, err = db.Exec("UPDATE security_prices SET created_at = created_at - 3600 WHERE symbol = 'AAPL'")
	require.NoError(t, err)

	row.Close = 232.10
	require.NoError(t, repo.Upsert(row))

	second, err := repo.GetBySymbolAndDate("AAPL", "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 232.10, second.Close)
	assert.Equal(t, first.CreatedAt-3600, second.CreatedAt)
	assert.GreaterOrEqual(t, second.UpdatedAt, second.CreatedAt)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM security_prices").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNullableColumns(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(&SecurityPrice{
		Symbol:    "PETR4.SA",
		PriceDate: "2026-08-28",
		Close:     38.42,
		Currency:  "BRL",
	}))

	p, err := repo.GetBySymbolAndDate("PETR4.SA", "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Nil(t, p.Open)
	assert.Nil(t, p.High)
	assert.Nil(t, p.Low)
	assert.Nil(t, p.Volume)
	assert.Equal(t, 38.42, p.Close)
}

func TestGetLatest(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(&SecurityPrice{Symbol: "AAPL", PriceDate: "2026-08-26", Close: 229.00, Currency: "USD"}))
	require.NoError(t, repo.Upsert(&SecurityPrice{Symbol: "AAPL", PriceDate: "2026-08-28", Close: 231.50, Currency: "USD"}))
	require.NoError(t, repo.Upsert(&SecurityPrice{Symbol: "AAPL", PriceDate: "2026-08-27", Close: 230.10, Currency: "USD"}))

	p, err := repo.GetLatest("AAPL")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "2026-08-28", p.PriceDate)
	assert.Equal(t, 231.50, p.Close)
}

func TestGetLatestUnknownSymbol(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	p, err := repo.GetLatest("NOPE")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetRange(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	for _, d := range []string{"2026-08-24", "2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"} {
		require.NoError(t, repo.Upsert(&SecurityPrice{Symbol: "VFV.TO", PriceDate: d, Close: 140.0, Currency: "CAD"}))
	}
	require.NoError(t, repo.Upsert(&SecurityPrice{Symbol: "AAPL", PriceDate: "2026-08-26", Close: 229.0, Currency: "USD"}))

	prices, err := repo.GetRange("VFV.TO", "2026-08-25", "2026-08-27")
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, "2026-08-25", prices[0].PriceDate)
	assert.Equal(t, "2026-08-26", prices[1].PriceDate)
	assert.Equal(t, "2026-08-27", prices[2].PriceDate)
	for _, p := range prices {
		assert.Equal(t, "VFV.TO", p.Symbol)
	}
}

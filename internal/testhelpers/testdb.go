//go:build integration
// +build integration

package testhelpers

import (
	"bin-option/internal/db"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestDB пул к отдельной базе из TEST_DATABASE_URL
type TestDB struct {
	Pool *pgxpool.Pool
	url  string
}

func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	return &TestDB{Pool: pool, url: url}
}

func (d *TestDB) RunMigrations(t *testing.T) {
	t.Helper()

	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, db.RunMigrations(d.url, path, log))
}

func (d *TestDB) CleanupDB(t *testing.T) {
	t.Helper()

	_, err := d.Pool.Exec(context.Background(), `
		TRUNCATE forecast_errors, forecast_results, rates_for_forecast,
		         forecast_models, rates_for_training, training_datasets
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func (d *TestDB) SeedHistory(t *testing.T, id uuid.UUID, expire time.Time) {
	t.Helper()

	_, err := d.Pool.Exec(context.Background(),
		`INSERT INTO rates_for_forecast (id, pair, histories, expire) VALUES ($1, 'USDJPY', '[150.1, 150.2]', $2)`,
		id, expire.UTC())
	require.NoError(t, err)
}

func (d *TestDB) Count(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, d.Pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func (d *TestDB) TeardownTestDB() {
	d.Pool.Close()
}

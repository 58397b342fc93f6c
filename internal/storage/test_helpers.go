package storage

import (
	"context"
	"testing"
	"time"

	"github.com/wallet-profiles/internal/config"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testPostgres connects to the Postgres configured in the environment and
// applies migrations. The test is skipped when no database is reachable.
func testPostgres(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("Skipping test - config not loadable: %v", err)
	}

	db, err := NewPostgresDB(testContext(t), &cfg.Database.Postgres)
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	if err := RunMigrations(cfg.Database.Postgres.URL(), "../../migrations/postgres"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

// testClickHouse connects to the ClickHouse configured in the environment
// and applies migrations. The test is skipped when ClickHouse is disabled or
// unreachable.
func testClickHouse(t *testing.T) *ClickHouseDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("Skipping test - config not loadable: %v", err)
	}
	if !cfg.Database.ClickHouse.Enabled() {
		t.Skip("Skipping test - CLICKHOUSE_HOST not set")
	}

	db, err := NewClickHouseDB(testContext(t), &cfg.Database.ClickHouse)
	if err != nil {
		t.Skipf("Skipping test - ClickHouse not available: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunClickHouseMigrations(testContext(t), db, "../../migrations/clickhouse", nil); err != nil {
		t.Fatalf("RunClickHouseMigrations() error = %v", err)
	}
	return db
}

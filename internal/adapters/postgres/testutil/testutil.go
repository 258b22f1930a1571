// Package testutil opens a Postgres pool with both strategy schemas applied.
package testutil

import (
	"context"
	_ "embed"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/postgres"
)

//go:embed schema.sql
var schemaSQL string

var applyOnce sync.Mutex

// OpenMigratedPool skips the test unless DATABASE_URL is set.
// The schema is applied idempotently; rows from earlier runs are left in place,
// so tests must scope their assertions to ids they created.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return OpenMigratedPoolSize(t, 4)
}

func OpenMigratedPoolSize(t *testing.T, size int32) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: size})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	applyOnce.Lock()
	defer applyOnce.Unlock()
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/infra/db"
)

// PostgresEnv names the DSN of a disposable database for integration tests.
const PostgresEnv = "APP_TEST_POSTGRES_DSN"

// MustPostgres migrates the database named by PostgresEnv and returns a pool
// closed at cleanup. The test is skipped when the variable is unset.
func MustPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.Connect(context.Background(), dsn, 8)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// MustJobOrder inserts a job order and removes it with its rolls and
// receipts at cleanup.
func MustJobOrder(t *testing.T, pool *pgxpool.Pool, requiresPrinting bool) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	if err := pool.QueryRow(ctx, `
		INSERT INTO job_orders (order_id, item, target_qty, requires_printing)
		VALUES (0, 'test', 1000, $1)
		RETURNING id`, requiresPrinting).Scan(&id); err != nil {
		t.Fatalf("insert job order: %v", err)
	}
	t.Cleanup(func() {
		for _, q := range []string{
			`DELETE FROM receiving_transactions WHERE job_order_id = $1`,
			`DELETE FROM data_quality_warnings WHERE job_order_id = $1`,
			`DELETE FROM rolls WHERE job_order_id = $1`,
			`DELETE FROM job_orders WHERE id = $1`,
		} {
			if _, err := pool.Exec(ctx, q, id); err != nil {
				t.Errorf("cleanup job order %d: %v", id, err)
			}
		}
	})
	return id
}

package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgutil "github.com/med2305/mlops/pkg/postgres"
)

// Postgres is a throwaway database with the audit log and bundle store
// schema applied.
type Postgres struct {
	DSN  string
	Pool *pgxpool.Pool
}

// NewPostgres starts a PostgreSQL container and migrates it with the
// golang-migrate files in migrationsDir. The test is skipped in -short mode
// and everything is torn down through t.Cleanup.
func NewPostgres(t *testing.T, migrationsDir string) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fraud"),
		postgres.WithUsername("fraud"),
		postgres.WithPassword("fraud"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { terminate(t, container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	abs, err := filepath.Abs(migrationsDir)
	if err != nil {
		t.Fatalf("failed to resolve migrations dir: %v", err)
	}
	if err := pgutil.RunMigrations(dsn, "file://"+filepath.ToSlash(abs)); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	pool, err := pgutil.NewPool(ctx, pgutil.Config{URL: dsn})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, Pool: pool}
}

func terminate(t *testing.T, c testcontainers.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate container: %v", err)
	}
}

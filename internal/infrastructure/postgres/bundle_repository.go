package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	pgutil "github.com/med2305/mlops/pkg/postgres"
)

// BundleRepository implements port.BundleStore. The most recently saved
// bundle is the single active row.
type BundleRepository struct {
	pool *pgxpool.Pool
}

// NewBundleRepository creates a new PostgreSQL-backed bundle store.
func NewBundleRepository(pool *pgxpool.Pool) *BundleRepository {
	return &BundleRepository{pool: pool}
}

// Save stores the archive and makes it the active bundle.
func (r *BundleRepository) Save(ctx context.Context, archive port.BundleArchive) error {
	return pgutil.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE model_bundles SET active = FALSE WHERE active`); err != nil {
			return fmt.Errorf("failed to deactivate previous bundle: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO model_bundles (id, files, active, created_at)
			VALUES ($1, $2, TRUE, $3)
			ON CONFLICT (id) DO UPDATE SET
				files = EXCLUDED.files,
				active = TRUE
		`, archive.ID, archive.Files, archive.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save bundle: %w", err)
		}
		return nil
	})
}

// Latest returns the active bundle archive.
func (r *BundleRepository) Latest(ctx context.Context) (port.BundleArchive, error) {
	var archive port.BundleArchive
	err := r.pool.QueryRow(ctx, `
		SELECT id, files, created_at
		FROM model_bundles
		WHERE active
	`).Scan(&archive.ID, &archive.Files, &archive.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.BundleArchive{}, model.ErrBundleNotFound
	}
	if err != nil {
		return port.BundleArchive{}, fmt.Errorf("failed to load latest bundle: %w", err)
	}
	return archive, nil
}

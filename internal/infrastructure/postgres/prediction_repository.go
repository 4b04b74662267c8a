package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/valueobject"
	pgutil "github.com/med2305/mlops/pkg/postgres"
)

const insertPrediction = `
	INSERT INTO predictions (
		id, bundle_id, batch_id, fields, amount,
		fraud_probability, is_fraud, confidence, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
`

// PredictionRepository implements port.PredictionRepository using PostgreSQL.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new PostgreSQL-backed prediction audit log.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Save persists a single scored transaction.
func (r *PredictionRepository) Save(ctx context.Context, st *model.ScoredTransaction) error {
	args, err := insertArgs(st)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, insertPrediction, args...); err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// SaveBatch persists every scored transaction of a batch in one transaction.
func (r *PredictionRepository) SaveBatch(ctx context.Context, batch []*model.ScoredTransaction) error {
	if len(batch) == 0 {
		return nil
	}
	rows := make([][]any, len(batch))
	for i, st := range batch {
		args, err := insertArgs(st)
		if err != nil {
			return err
		}
		rows[i] = args
	}
	err := pgutil.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return pgutil.ExecBatch(ctx, tx, insertPrediction, rows)
	})
	if err != nil {
		return fmt.Errorf("failed to save prediction batch: %w", err)
	}
	return nil
}

// FindByID retrieves a scored transaction by its identifier.
func (r *PredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	query := `
		SELECT id, bundle_id, batch_id, fields, amount,
			fraud_probability, is_fraud, confidence, created_at
		FROM predictions
		WHERE id = $1
	`

	var (
		predID        uuid.UUID
		bundleID      uuid.UUID
		batchID       *uuid.UUID
		fieldsRaw     []byte
		amount        decimal.Decimal
		probability   float64
		isFraud       bool
		confidenceStr string
		createdAt     time.Time
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&predID, &bundleID, &batchID, &fieldsRaw, &amount,
		&probability, &isFraud, &confidenceStr, &createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	var fields model.RawRecord
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode prediction fields: %w", err)
	}

	confidence, err := valueobject.ConfidenceFromString(confidenceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse confidence: %w", err)
	}

	batch := uuid.Nil
	if batchID != nil {
		batch = *batchID
	}

	return model.ReconstructScoredTransaction(
		predID, bundleID, batch,
		fields, amount,
		model.Prediction{Probability: probability, IsFraud: isFraud, Confidence: confidence},
		createdAt,
	), nil
}

func insertArgs(st *model.ScoredTransaction) ([]any, error) {
	fields, err := json.Marshal(st.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	var batchID *uuid.UUID
	if id := st.BatchID(); id != uuid.Nil {
		batchID = &id
	}

	p := st.Prediction()
	return []any{
		st.ID(),
		st.BundleID(),
		batchID,
		fields,
		st.Amount(),
		p.Probability,
		p.IsFraud,
		p.Confidence.String(),
		st.CreatedAt(),
	}, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/domain/service"
)

// PredictTransaction is the use case for scoring a single transaction.
// The repository, publisher and metrics are optional.
type PredictTransaction struct {
	bundles   BundleProvider
	scorer    *service.Scorer
	repo      port.PredictionRepository
	publisher port.EventPublisher
	metrics   port.ScoringMetrics
	logger    *slog.Logger
}

// NewPredictTransaction creates a new PredictTransaction use case.
func NewPredictTransaction(
	bundles BundleProvider,
	scorer *service.Scorer,
	repo port.PredictionRepository,
	publisher port.EventPublisher,
	metrics port.ScoringMetrics,
	logger *slog.Logger,
) *PredictTransaction {
	return &PredictTransaction{
		bundles:   bundles,
		scorer:    scorer,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute scores the record against the current bundle, audits the result
// and publishes a fraud event when the record is flagged. Audit and publish
// failures are logged; the prediction is still returned.
func (uc *PredictTransaction) Execute(ctx context.Context, record model.RawRecord) (dto.PredictionResponse, error) {
	ctx, span := tracer.Start(ctx, "PredictTransaction")
	defer span.End()

	bundle := uc.bundles.Current()
	if bundle == nil {
		span.SetStatus(codes.Error, model.ErrModelNotReady.Error())
		return dto.PredictionResponse{}, model.ErrModelNotReady
	}
	span.SetAttributes(attribute.String("bundle.id", bundle.ID().String()))

	start := time.Now()
	prediction, err := uc.scorer.ScoreRecord(bundle, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.PredictionResponse{}, err
	}
	if uc.metrics != nil {
		uc.metrics.ObservePrediction(prediction, time.Since(start))
	}
	span.SetAttributes(
		attribute.Float64("fraud.probability", prediction.Probability),
		attribute.Bool("fraud.flagged", prediction.IsFraud),
	)

	st, err := model.NewScoredTransaction(bundle.ID(), uuid.Nil, record, prediction)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to record prediction: %w", err)
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, st); err != nil {
			uc.logger.ErrorContext(ctx, "failed to audit prediction", "prediction_id", st.ID(), "error", err)
		}
	}
	publishEvents(ctx, uc.publisher, uc.logger, st.PullEvents()...)

	return dto.FromPrediction(st), nil
}

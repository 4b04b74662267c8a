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
	"github.com/med2305/mlops/internal/domain/event"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/pkg/events"
)

// BatchPredict is the use case for scoring several transactions in one call.
// A batch either scores completely or fails with the first failing record.
type BatchPredict struct {
	bundles    BundleProvider
	aggregator *service.BatchAggregator
	repo       port.PredictionRepository
	publisher  port.EventPublisher
	metrics    port.ScoringMetrics
	logger     *slog.Logger
	maxSize    int
}

// NewBatchPredict creates a new BatchPredict use case. maxSize <= 0 disables the size limit.
func NewBatchPredict(
	bundles BundleProvider,
	aggregator *service.BatchAggregator,
	maxSize int,
	repo port.PredictionRepository,
	publisher port.EventPublisher,
	metrics port.ScoringMetrics,
	logger *slog.Logger,
) *BatchPredict {
	return &BatchPredict{
		bundles:    bundles,
		aggregator: aggregator,
		maxSize:    maxSize,
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Execute scores every record against one bundle snapshot.
func (uc *BatchPredict) Execute(ctx context.Context, req dto.BatchPredictRequest) (dto.BatchPredictionResponse, error) {
	ctx, span := tracer.Start(ctx, "BatchPredict")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(req.Transactions)))

	if uc.maxSize > 0 && len(req.Transactions) > uc.maxSize {
		return dto.BatchPredictionResponse{}, &model.InvalidFieldError{
			Field:  "transactions",
			Reason: fmt.Sprintf("batch of %d exceeds the maximum of %d", len(req.Transactions), uc.maxSize),
		}
	}

	bundle := uc.bundles.Current()
	if bundle == nil {
		span.SetStatus(codes.Error, model.ErrModelNotReady.Error())
		return dto.BatchPredictionResponse{}, model.ErrModelNotReady
	}

	start := time.Now()
	result, err := uc.aggregator.ScoreAll(ctx, req.Transactions, bundle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch scoring failed")
		return dto.BatchPredictionResponse{}, err
	}
	if uc.metrics != nil {
		uc.metrics.ObserveBatch(result, time.Since(start))
	}

	batchID := uuid.New()
	scored := make([]*model.ScoredTransaction, len(result.Predictions))
	resp := dto.BatchPredictionResponse{
		Predictions:       make([]dto.PredictionResponse, len(result.Predictions)),
		TotalTransactions: result.Total,
		FraudCount:        result.FraudCount,
		FraudPercentage:   result.FraudPercentage,
		BatchID:           batchID,
	}
	var evts []events.DomainEvent
	for i, p := range result.Predictions {
		st, err := model.NewScoredTransaction(bundle.ID(), batchID, req.Transactions[i], p)
		if err != nil {
			return dto.BatchPredictionResponse{}, fmt.Errorf("failed to record prediction %d: %w", i, err)
		}
		scored[i] = st
		resp.Predictions[i] = dto.FromPrediction(st)
		evts = append(evts, st.PullEvents()...)
	}
	evts = append(evts, event.NewBatchScored(event.BatchScoredPayload{
		BatchID:         batchID,
		BundleID:        bundle.ID(),
		Total:           result.Total,
		FraudCount:      result.FraudCount,
		FraudPercentage: result.FraudPercentage,
	}))

	if uc.repo != nil && len(scored) > 0 {
		if err := uc.repo.SaveBatch(ctx, scored); err != nil {
			uc.logger.ErrorContext(ctx, "failed to audit batch", "batch_id", batchID, "error", err)
		}
	}
	publishEvents(ctx, uc.publisher, uc.logger, evts...)

	return resp, nil
}

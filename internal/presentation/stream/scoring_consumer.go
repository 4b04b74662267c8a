// Package stream scores raw transactions consumed from Kafka.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/model"
	pkgkafka "github.com/med2305/mlops/pkg/kafka"
)

// Predictor scores one raw transaction.
type Predictor interface {
	Execute(ctx context.Context, record model.RawRecord) (dto.PredictionResponse, error)
}

// ScoringConsumer turns each consumed message into a prediction. Scoring
// publishes the fraud events, so the consumer itself produces nothing.
type ScoringConsumer struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewScoringConsumer creates a new ScoringConsumer.
func NewScoringConsumer(predictor Predictor, logger *slog.Logger) *ScoringConsumer {
	return &ScoringConsumer{predictor: predictor, logger: logger}
}

// Handle is a pkgkafka.Handler. Messages that can never be scored are logged
// and dropped; other failures, such as no bundle being loaded yet, are
// returned so the consumer retries them.
func (c *ScoringConsumer) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var record model.RawRecord
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		c.logger.WarnContext(ctx, "dropping malformed transaction",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	resp, err := c.predictor.Execute(ctx, record)
	switch {
	case err == nil:
	case model.IsRequestError(err):
		c.logger.WarnContext(ctx, "dropping unscorable transaction",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
		return nil
	default:
		return err
	}

	c.logger.DebugContext(ctx, "transaction scored",
		slog.String("key", string(msg.Key)),
		slog.String("prediction_id", resp.PredictionID.String()),
		slog.Bool("is_fraud", resp.IsFraud),
		slog.Float64("fraud_probability", resp.FraudProbability),
	)
	return nil
}

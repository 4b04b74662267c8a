// Package metrics records scoring telemetry through OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/med2305/mlops/internal/domain/model"
)

// Recorder implements port.ScoringMetrics.
type Recorder struct {
	predictions  metric.Int64Counter
	latency      metric.Float64Histogram
	probability  metric.Float64Histogram
	batchSize    metric.Int64Histogram
	batchLatency metric.Float64Histogram
	bundleLoads  metric.Int64Counter
}

// NewRecorder creates the scoring instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var r Recorder
	var err error

	if r.predictions, err = meter.Int64Counter("fraud_predictions",
		metric.WithDescription("Predictions served, by decision and confidence.")); err != nil {
		return nil, fmt.Errorf("failed to create predictions counter: %w", err)
	}
	if r.latency, err = meter.Float64Histogram("fraud_prediction_duration_seconds",
		metric.WithDescription("Time to vectorize and score one record."),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}
	if r.probability, err = meter.Float64Histogram("fraud_probability",
		metric.WithDescription("Distribution of predicted fraud probabilities."),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1)); err != nil {
		return nil, fmt.Errorf("failed to create probability histogram: %w", err)
	}
	if r.batchSize, err = meter.Int64Histogram("fraud_batch_size",
		metric.WithDescription("Records per batch request."),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 250, 500, 1000)); err != nil {
		return nil, fmt.Errorf("failed to create batch size histogram: %w", err)
	}
	if r.batchLatency, err = meter.Float64Histogram("fraud_batch_duration_seconds",
		metric.WithDescription("Time to score a batch."),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create batch latency histogram: %w", err)
	}
	if r.bundleLoads, err = meter.Int64Counter("fraud_bundle_loads",
		metric.WithDescription("Bundle load attempts, by source and outcome.")); err != nil {
		return nil, fmt.Errorf("failed to create bundle load counter: %w", err)
	}
	return &r, nil
}

// ObservePrediction records one scored record.
func (r *Recorder) ObservePrediction(p model.Prediction, elapsed time.Duration) {
	ctx := context.Background()
	r.predictions.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("is_fraud", p.IsFraud),
		attribute.String("confidence", p.Confidence.String()),
	))
	r.latency.Record(ctx, elapsed.Seconds())
	r.probability.Record(ctx, p.Probability)
}

// ObserveBatch records a scored batch.
func (r *Recorder) ObserveBatch(result model.BatchResult, elapsed time.Duration) {
	ctx := context.Background()
	r.batchSize.Record(ctx, int64(result.Total))
	r.batchLatency.Record(ctx, elapsed.Seconds())
	for _, p := range result.Predictions {
		r.predictions.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("is_fraud", p.IsFraud),
			attribute.String("confidence", p.Confidence.String()),
		))
		r.probability.Record(ctx, p.Probability)
	}
}

// ObserveBundleLoad records one load attempt.
func (r *Recorder) ObserveBundleLoad(source string, err error) {
	ctx := context.Background()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.bundleLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

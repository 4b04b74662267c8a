package port

import (
	"context"
	"time"

	"github.com/med2305/mlops/internal/domain/model"
)

// Estimator is an unfitted classifier.
type Estimator interface {
	model.Classifier
	Fit(x [][]float64, y []int) error
}

// ArtifactSource is one candidate location a bundle can be loaded from.
type ArtifactSource interface {
	// Name identifies the source in logs and load errors.
	Name() string
	// Load fetches, decodes and validates a complete bundle.
	Load(ctx context.Context) (*model.Bundle, error)
}

// BundleLoader resolves the bundle to serve from its candidate sources.
type BundleLoader interface {
	Load(ctx context.Context) (model.LoadResult, error)
}

// BundleSink receives a freshly trained bundle.
type BundleSink interface {
	Name() string
	Publish(ctx context.Context, bundle *model.Bundle) error
}

// ScoringMetrics records serving telemetry.
type ScoringMetrics interface {
	ObservePrediction(p model.Prediction, elapsed time.Duration)
	ObserveBatch(result model.BatchResult, elapsed time.Duration)
	ObserveBundleLoad(source string, err error)
}

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Classifier is a fitted binary classifier.
type Classifier interface {
	// Kind names the algorithm, e.g. "logistic_regression".
	Kind() string
	// NFeatures is the input width the classifier was fitted on.
	NFeatures() int
	// PredictProba returns one row of per-class probabilities per input row.
	// Column FraudClass holds the fraud probability.
	PredictProba(x [][]float64) ([][]float64, error)
}

// BundleManifest describes how and when a bundle was produced.
type BundleManifest struct {
	CreatedAt    time.Time         `json:"created_at"`
	Evaluation   *EvaluationReport `json:"evaluation,omitempty"`
	ModelKind    string            `json:"model_kind"`
	LabelField   string            `json:"label_field"`
	TrainingRows int               `json:"training_rows"`
}

// Bundle is a schema registry and the classifier fitted against it, loaded
// and published together. A Bundle is never mutated after construction.
type Bundle struct {
	classifier Classifier
	registry   *SchemaRegistry
	manifest   BundleManifest
	id         uuid.UUID
}

// NewBundle cross-checks the registry against the classifier width.
func NewBundle(id uuid.UUID, registry *SchemaRegistry, classifier Classifier, manifest BundleManifest) (*Bundle, error) {
	if id == uuid.Nil {
		return nil, errors.New("bundle id is required")
	}
	if registry == nil {
		return nil, errors.New("schema registry is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if classifier.NFeatures() != registry.NFeatures() {
		return nil, &SchemaMismatchError{Component: "classifier", Expected: registry.NFeatures(), Got: classifier.NFeatures()}
	}
	if manifest.ModelKind == "" {
		manifest.ModelKind = classifier.Kind()
	}
	return &Bundle{
		id:         id,
		registry:   registry,
		classifier: classifier,
		manifest:   manifest,
	}, nil
}

// ID returns the bundle identifier.
func (b *Bundle) ID() uuid.UUID { return b.id }

// Registry returns the schema registry.
func (b *Bundle) Registry() *SchemaRegistry { return b.registry }

// Classifier returns the fitted classifier.
func (b *Bundle) Classifier() Classifier { return b.classifier }

// Manifest returns the bundle manifest.
func (b *Bundle) Manifest() BundleManifest { return b.manifest }

// LoadResult reports which source produced a bundle and which sources failed before it.
type LoadResult struct {
	Bundle   *Bundle
	Source   string
	Attempts []SourceAttempt
}

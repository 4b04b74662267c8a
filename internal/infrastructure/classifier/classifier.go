// Package classifier provides the binary classifiers fitted by the training
// pipeline and the JSON codec used to persist them inside a bundle.
package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindRandomForest       = "random_forest"
)

// ClassWeightBalanced weights each class by n_samples / (2 * n_class_samples).
const ClassWeightBalanced = "balanced"

// Config selects and parameterises an estimator.
type Config struct {
	Kind     string         `yaml:"kind" json:"kind"`
	Logistic LogisticConfig `yaml:"logistic_regression" json:"logistic_regression"`
	Forest   ForestConfig   `yaml:"random_forest" json:"random_forest"`
}

// DefaultConfig returns the default estimator configuration.
func DefaultConfig() Config {
	return Config{
		Kind:     KindLogisticRegression,
		Logistic: DefaultLogisticConfig(),
		Forest:   DefaultForestConfig(),
	}
}

// New returns an unfitted estimator for cfg.Kind.
func New(cfg Config) (port.Estimator, error) {
	switch cfg.Kind {
	case KindLogisticRegression, "":
		return NewLogisticRegression(cfg.Logistic), nil
	case KindRandomForest:
		return NewRandomForest(cfg.Forest), nil
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", cfg.Kind)
	}
}

// envelope is the persisted form of a fitted classifier.
type envelope struct {
	Kind      string          `json:"kind"`
	Params    json.RawMessage `json:"params"`
	NFeatures int             `json:"n_features"`
}

type paramsMarshaler interface {
	marshalParams() (json.RawMessage, error)
}

// decoder rebuilds a fitted classifier of one kind from its params.
type decoder func(nFeatures int, params json.RawMessage) (model.Classifier, error)

var decoders = map[string]decoder{
	KindLogisticRegression: decodeLogisticRegression,
	KindRandomForest:       decodeRandomForest,
}

// Marshal encodes a fitted classifier produced by this package.
func Marshal(c model.Classifier) ([]byte, error) {
	pm, ok := c.(paramsMarshaler)
	if !ok {
		return nil, fmt.Errorf("classifier %s cannot be serialized", c.Kind())
	}
	params, err := pm.marshalParams()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s params: %w", c.Kind(), err)
	}
	data, err := json.Marshal(envelope{Kind: c.Kind(), NFeatures: c.NFeatures(), Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classifier envelope: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a classifier written by Marshal.
func Unmarshal(data []byte) (model.Classifier, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode classifier envelope: %w", err)
	}
	dec, ok := decoders[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown classifier kind %q", env.Kind)
	}
	if env.NFeatures <= 0 {
		return nil, fmt.Errorf("classifier %s has invalid n_features %d", env.Kind, env.NFeatures)
	}
	c, err := dec(env.NFeatures, env.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", env.Kind, err)
	}
	return c, nil
}

// classWeights returns the per-class sample weights for y.
func classWeights(y []int, mode string) [2]float64 {
	if mode != ClassWeightBalanced {
		return [2]float64{1, 1}
	}
	var counts [2]int
	for _, label := range y {
		counts[label]++
	}
	var w [2]float64
	for c := range w {
		if counts[c] == 0 {
			w[c] = 1
			continue
		}
		w[c] = float64(len(y)) / (2 * float64(counts[c]))
	}
	return w
}

func validateTrainingData(x [][]float64, y []int) (int, error) {
	if len(x) == 0 {
		return 0, model.ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("x has %d rows but y has %d labels", len(x), len(y))
	}
	p := len(x[0])
	if p == 0 {
		return 0, fmt.Errorf("x has no columns")
	}
	for i, row := range x {
		if len(row) != p {
			return 0, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), p)
		}
		if y[i] != 0 && y[i] != 1 {
			return 0, fmt.Errorf("label %d at row %d is not binary", y[i], i)
		}
	}
	return p, nil
}

func checkWidth(x [][]float64, n int) error {
	for i, row := range x {
		if len(row) != n {
			return &model.SchemaMismatchError{Component: fmt.Sprintf("input row %d", i), Expected: n, Got: len(row)}
		}
	}
	return nil
}

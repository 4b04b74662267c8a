package service

import (
	"fmt"
	"math"

	"github.com/med2305/mlops/internal/domain/model"
)

// DefaultThreshold is the fraud probability above which a record is flagged.
const DefaultThreshold = 0.5

// Scorer turns feature vectors into predictions.
type Scorer struct {
	threshold float64
}

// NewScorer creates a Scorer with the given decision threshold.
func NewScorer(threshold float64) (*Scorer, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}
	return &Scorer{threshold: threshold}, nil
}

// Threshold returns the decision threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score runs clf on vec.
func (s *Scorer) Score(vec model.FeatureVector, clf model.Classifier) (model.Prediction, error) {
	if clf == nil {
		return model.Prediction{}, model.ErrModelNotReady
	}
	if vec.Len() != clf.NFeatures() {
		return model.Prediction{}, &model.SchemaMismatchError{Component: "feature vector", Expected: clf.NFeatures(), Got: vec.Len()}
	}

	probs, err := clf.PredictProba([][]float64{vec.Values()})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to predict: %w", err)
	}
	if len(probs) != 1 || len(probs[0]) <= model.FraudClass {
		return model.Prediction{}, fmt.Errorf("classifier %s returned malformed probabilities", clf.Kind())
	}

	p := probs[0][model.FraudClass]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return model.Prediction{}, fmt.Errorf("classifier %s returned probability %v outside [0, 1]", clf.Kind(), p)
	}
	return model.NewPrediction(p, s.threshold), nil
}

// ScoreRecord reconstructs record against the bundle's registry and scores it.
func (s *Scorer) ScoreRecord(bundle *model.Bundle, record model.RawRecord) (model.Prediction, error) {
	if bundle == nil {
		return model.Prediction{}, model.ErrModelNotReady
	}
	vec, err := Reconstruct(record, bundle.Registry())
	if err != nil {
		return model.Prediction{}, err
	}
	return s.Score(vec, bundle.Classifier())
}

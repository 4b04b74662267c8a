package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/med2305/mlops/internal/domain/model"
)

// LogisticConfig holds logistic regression hyperparameters.
type LogisticConfig struct {
	ClassWeight  string  `yaml:"class_weight" json:"class_weight"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	L2           float64 `yaml:"l2" json:"l2"`
	Epochs       int     `yaml:"epochs" json:"epochs"`
}

// DefaultLogisticConfig returns the default logistic regression hyperparameters.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		ClassWeight:  ClassWeightBalanced,
		LearningRate: 0.1,
		L2:           0.001,
		Epochs:       500,
	}
}

// LogisticRegression is a binary logistic regression fitted by full-batch
// gradient descent on the weighted log loss.
type LogisticRegression struct {
	weights []float64
	cfg     LogisticConfig
	bias    float64
}

// NewLogisticRegression returns an unfitted model.
func NewLogisticRegression(cfg LogisticConfig) *LogisticRegression {
	return &LogisticRegression{cfg: cfg}
}

func (m *LogisticRegression) Kind() string   { return KindLogisticRegression }
func (m *LogisticRegression) NFeatures() int { return len(m.weights) }

// Fit trains the model. Weights start at zero so fitting is deterministic.
func (m *LogisticRegression) Fit(x [][]float64, y []int) error {
	p, err := validateTrainingData(x, y)
	if err != nil {
		return err
	}
	if m.cfg.Epochs <= 0 || m.cfg.LearningRate <= 0 {
		return fmt.Errorf("logistic regression needs positive epochs and learning rate, got %d and %v", m.cfg.Epochs, m.cfg.LearningRate)
	}

	cw := classWeights(y, m.cfg.ClassWeight)
	sampleW := make([]float64, len(y))
	var totalW float64
	for i, label := range y {
		sampleW[i] = cw[label]
		totalW += sampleW[i]
	}

	w := make([]float64, p)
	b := 0.0
	grad := make([]float64, p)

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, row := range x {
			d := sampleW[i] * (sigmoid(dot(w, row)+b) - float64(y[i]))
			for j, xij := range row {
				grad[j] += d * xij
			}
			gb += d
		}
		for j := range w {
			w[j] -= m.cfg.LearningRate * (grad[j]/totalW + m.cfg.L2*w[j])
		}
		b -= m.cfg.LearningRate * gb / totalW
	}

	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("logistic regression diverged")
		}
	}

	m.weights = w
	m.bias = b
	return nil
}

// PredictProba returns [P(legit), P(fraud)] per row.
func (m *LogisticRegression) PredictProba(x [][]float64) ([][]float64, error) {
	if m.weights == nil {
		return nil, errors.New("logistic regression is not fitted")
	}
	if err := checkWidth(x, len(m.weights)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		p := sigmoid(dot(m.weights, row) + m.bias)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

type logisticParams struct {
	Weights []float64      `json:"weights"`
	Config  LogisticConfig `json:"config"`
	Bias    float64        `json:"bias"`
}

func (m *LogisticRegression) marshalParams() (json.RawMessage, error) {
	if m.weights == nil {
		return nil, errors.New("logistic regression is not fitted")
	}
	return json.Marshal(logisticParams{Weights: m.weights, Bias: m.bias, Config: m.cfg})
}

func decodeLogisticRegression(nFeatures int, raw json.RawMessage) (model.Classifier, error) {
	var p logisticParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if len(p.Weights) != nFeatures {
		return nil, fmt.Errorf("has %d weights for %d features", len(p.Weights), nFeatures)
	}
	for _, v := range append(append([]float64{}, p.Weights...), p.Bias) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("non-finite parameter")
		}
	}
	return &LogisticRegression{weights: p.Weights, bias: p.Bias, cfg: p.Config}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

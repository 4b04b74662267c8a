package model

import (
	"math"

	"github.com/med2305/mlops/internal/domain/valueobject"
)

// FraudClass is the column of a classifier's probability output holding the fraud class.
const FraudClass = 1

// Prediction is the scored outcome for one record.
type Prediction struct {
	Confidence  valueobject.Confidence
	Probability float64
	IsFraud     bool
}

// NewPrediction derives the decision and confidence bucket from a probability.
func NewPrediction(probability, threshold float64) Prediction {
	return Prediction{
		Probability: probability,
		IsFraud:     probability > threshold,
		Confidence:  valueobject.ConfidenceFromProbability(probability),
	}
}

// BatchResult summarises predictions for a batch, in input order.
type BatchResult struct {
	Predictions     []Prediction
	Total           int
	FraudCount      int
	FraudPercentage float64
}

// NewBatchResult computes the summary for preds.
func NewBatchResult(preds []Prediction) BatchResult {
	fraud := 0
	for _, p := range preds {
		if p.IsFraud {
			fraud++
		}
	}
	pct := 0.0
	if len(preds) > 0 {
		pct = RoundTo(100*float64(fraud)/float64(len(preds)), 2)
	}
	return BatchResult{
		Predictions:     preds,
		Total:           len(preds),
		FraudCount:      fraud,
		FraudPercentage: pct,
	}
}

// RoundTo rounds x to the given number of decimal places.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

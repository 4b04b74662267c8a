package service_test

import (
	"fmt"
	"math"

	"github.com/med2305/mlops/internal/domain/model"
)

var transactionFields = []string{"amount", "merchant_category", "time_of_day", "location", "transaction_type", "is_fraud"}

func txn(amount float64, merchant, tod, location, txType string, fraud int) model.RawRecord {
	return model.RawRecord{
		"amount":            model.Number(amount),
		"merchant_category": model.Category(merchant),
		"time_of_day":       model.Category(tod),
		"location":          model.Category(location),
		"transaction_type":  model.Category(txType),
		"is_fraud":          model.Number(float64(fraud)),
	}
}

func trainingDataset() model.Dataset {
	return model.Dataset{
		Fields: transactionFields,
		Records: []model.RawRecord{
			txn(45.50, "grocery", "morning", "physical", "purchase", 0),
			txn(1200.00, "electronics", "night", "online", "purchase", 1),
			txn(12.99, "restaurant", "evening", "physical", "purchase", 0),
			txn(300.00, "electronics", "afternoon", "online", "withdrawal", 0),
			txn(9.75, "grocery", "morning", "physical", "purchase", 0),
			txn(2500.00, "travel", "night", "online", "transfer", 1),
			txn(60.00, "gas", "afternoon", "physical", "purchase", 0),
			txn(875.25, "electronics", "night", "online", "transfer", 1),
		},
	}
}

// stubClassifier is a hand-written classifier double.
type stubClassifier struct {
	predictFunc func(x [][]float64) ([][]float64, error)
	n           int
}

func (s *stubClassifier) Kind() string   { return "stub" }
func (s *stubClassifier) NFeatures() int { return s.n }
func (s *stubClassifier) PredictProba(x [][]float64) ([][]float64, error) {
	if s.predictFunc != nil {
		return s.predictFunc(x)
	}
	return nil, fmt.Errorf("not implemented")
}

// constantClassifier always returns p as the fraud probability.
func constantClassifier(n int, p float64) *stubClassifier {
	return &stubClassifier{
		n: n,
		predictFunc: func(x [][]float64) ([][]float64, error) {
			out := make([][]float64, len(x))
			for i := range x {
				out[i] = []float64{1 - p, p}
			}
			return out, nil
		},
	}
}

// firstColumnClassifier maps the first feature through a logistic curve so
// that predictions depend on the input.
func firstColumnClassifier(n int) *stubClassifier {
	return &stubClassifier{
		n: n,
		predictFunc: func(x [][]float64) ([][]float64, error) {
			out := make([][]float64, len(x))
			for i, row := range x {
				p := 1 / (1 + math.Exp(-row[0]))
				out[i] = []float64{1 - p, p}
			}
			return out, nil
		},
	}
}

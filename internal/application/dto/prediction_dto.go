package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/domain/model"
)

// PredictionResponse is the scored outcome of one transaction.
type PredictionResponse struct {
	Confidence       string    `json:"confidence"`
	FraudProbability float64   `json:"fraud_probability"`
	IsFraud          bool      `json:"is_fraud"`
	PredictionID     uuid.UUID `json:"prediction_id"`
}

// BatchPredictRequest is the input DTO for scoring several transactions.
type BatchPredictRequest struct {
	Transactions []model.RawRecord `json:"transactions"`
}

// BatchPredictionResponse summarises a scored batch, predictions in input order.
type BatchPredictionResponse struct {
	Predictions       []PredictionResponse `json:"predictions"`
	TotalTransactions int                  `json:"total_transactions"`
	FraudCount        int                  `json:"fraud_count"`
	FraudPercentage   float64              `json:"fraud_percentage"`
	BatchID           uuid.UUID            `json:"batch_id"`
}

// ModelInfoResponse describes the bundle currently serving.
type ModelInfoResponse struct {
	CreatedAt           time.Time               `json:"created_at"`
	Evaluation          *model.EvaluationReport `json:"evaluation,omitempty"`
	ModelType           string                  `json:"model_type"`
	FeatureNames        []string                `json:"feature_names"`
	NumericFeatures     []string                `json:"numeric_features"`
	CategoricalFeatures []string                `json:"categorical_features"`
	NFeatures           int                     `json:"n_features"`
	Threshold           float64                 `json:"threshold"`
	BundleID            uuid.UUID               `json:"bundle_id"`
}

// StoredPredictionResponse is an audited prediction read back from the log.
type StoredPredictionResponse struct {
	CreatedAt        time.Time         `json:"created_at"`
	Fields           map[string]string `json:"fields"`
	Amount           string            `json:"amount"`
	Confidence       string            `json:"confidence"`
	FraudProbability float64           `json:"fraud_probability"`
	IsFraud          bool              `json:"is_fraud"`
	ID               uuid.UUID         `json:"id"`
	BundleID         uuid.UUID         `json:"bundle_id"`
	BatchID          *uuid.UUID        `json:"batch_id,omitempty"`
}

// ReloadResponse reports the outcome of a bundle reload.
type ReloadResponse struct {
	Source           string    `json:"source"`
	BundleID         uuid.UUID `json:"bundle_id"`
	PreviousBundleID uuid.UUID `json:"previous_bundle_id"`
}

// FromPrediction maps a scored transaction to the response DTO.
func FromPrediction(st *model.ScoredTransaction) PredictionResponse {
	p := st.Prediction()
	return PredictionResponse{
		IsFraud:          p.IsFraud,
		FraudProbability: p.Probability,
		Confidence:       p.Confidence.String(),
		PredictionID:     st.ID(),
	}
}

// FromStored maps an audited transaction to the response DTO.
func FromStored(st *model.ScoredTransaction) StoredPredictionResponse {
	p := st.Prediction()
	resp := StoredPredictionResponse{
		ID:               st.ID(),
		BundleID:         st.BundleID(),
		Fields:           st.Fields().Labels(),
		Amount:           st.Amount().StringFixed(2),
		FraudProbability: p.Probability,
		IsFraud:          p.IsFraud,
		Confidence:       p.Confidence.String(),
		CreatedAt:        st.CreatedAt(),
	}
	if id := st.BatchID(); id != uuid.Nil {
		resp.BatchID = &id
	}
	return resp
}

// FromBundle maps the serving bundle to the model info DTO.
func FromBundle(b *model.Bundle, threshold float64) ModelInfoResponse {
	reg := b.Registry()
	m := b.Manifest()
	return ModelInfoResponse{
		ModelType:           b.Classifier().Kind(),
		NFeatures:           reg.NFeatures(),
		FeatureNames:        reg.FeatureOrder(),
		NumericFeatures:     reg.NumericFields(),
		CategoricalFeatures: reg.CategoricalFields(),
		BundleID:            b.ID(),
		Threshold:           threshold,
		CreatedAt:           m.CreatedAt,
		Evaluation:          m.Evaluation,
	}
}

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/med2305/mlops/internal/domain/event"
	"github.com/med2305/mlops/pkg/events"
)

// AmountField is the raw field carrying the transaction amount.
const AmountField = "amount"

// ScoredTransaction is the audit aggregate for one served prediction.
type ScoredTransaction struct {
	createdAt  time.Time
	fields     RawRecord
	amount     decimal.Decimal
	prediction Prediction
	events.EventCollector
	id       uuid.UUID
	bundleID uuid.UUID
	batchID  uuid.UUID
}

// NewScoredTransaction records a prediction made by bundleID for record.
// batchID is uuid.Nil for single predictions.
func NewScoredTransaction(bundleID, batchID uuid.UUID, record RawRecord, prediction Prediction) (*ScoredTransaction, error) {
	if bundleID == uuid.Nil {
		return nil, errors.New("bundle ID is required")
	}
	if prediction.Confidence.IsZero() {
		return nil, errors.New("prediction confidence is required")
	}

	amount := decimal.Zero
	if v, ok := record[AmountField]; ok {
		if f, isNum := v.Float(); isNum {
			amount = decimal.NewFromFloat(f).Round(2)
		}
	}

	fields := make(RawRecord, len(record))
	for k, v := range record {
		fields[k] = v
	}

	st := &ScoredTransaction{
		id:         uuid.New(),
		bundleID:   bundleID,
		batchID:    batchID,
		fields:     fields,
		amount:     amount,
		prediction: prediction,
		createdAt:  time.Now().UTC(),
	}

	if prediction.IsFraud {
		st.Record(event.NewFraudFlagged(event.FraudFlaggedPayload{
			PredictionID:     st.id,
			BundleID:         bundleID,
			Amount:           amount,
			FraudProbability: prediction.Probability,
			Confidence:       prediction.Confidence.String(),
			Fields:           fields.Labels(),
		}))
	}

	return st, nil
}

// ReconstructScoredTransaction rebuilds the aggregate from persistence without recording events.
func ReconstructScoredTransaction(
	id, bundleID, batchID uuid.UUID,
	record RawRecord,
	amount decimal.Decimal,
	prediction Prediction,
	createdAt time.Time,
) *ScoredTransaction {
	return &ScoredTransaction{
		id:         id,
		bundleID:   bundleID,
		batchID:    batchID,
		fields:     record,
		amount:     amount,
		prediction: prediction,
		createdAt:  createdAt,
	}
}

func (s *ScoredTransaction) ID() uuid.UUID           { return s.id }
func (s *ScoredTransaction) BundleID() uuid.UUID     { return s.bundleID }
func (s *ScoredTransaction) BatchID() uuid.UUID      { return s.batchID }
func (s *ScoredTransaction) Fields() RawRecord       { return s.fields }
func (s *ScoredTransaction) Amount() decimal.Decimal { return s.amount }
func (s *ScoredTransaction) Prediction() Prediction  { return s.prediction }
func (s *ScoredTransaction) CreatedAt() time.Time    { return s.createdAt }

// Labels renders every value of the record as text.
func (r RawRecord) Labels() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = v.Label()
	}
	return out
}

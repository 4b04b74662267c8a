package event

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/med2305/mlops/pkg/events"
)

const (
	// EventTypeFraudFlagged is emitted for every prediction whose decision is fraud.
	EventTypeFraudFlagged = "fraud.prediction.flagged"

	// EventTypeBatchScored is emitted once a batch has been scored in full.
	EventTypeBatchScored = "fraud.batch.scored"

	// EventTypeBundleActivated is emitted when a serving process swaps in a new bundle.
	EventTypeBundleActivated = "fraud.bundle.activated"
)

// FraudFlaggedPayload is the body of a FraudFlagged event.
type FraudFlaggedPayload struct {
	Fields           map[string]string `json:"fields"`
	Amount           decimal.Decimal   `json:"amount"`
	Confidence       string            `json:"confidence"`
	FraudProbability float64           `json:"fraud_probability"`
	PredictionID     uuid.UUID         `json:"prediction_id"`
	BundleID         uuid.UUID         `json:"bundle_id"`
}

// FraudFlagged is published when a transaction is predicted to be fraudulent.
type FraudFlagged struct {
	events.BaseEvent
	Data FraudFlaggedPayload
}

// NewFraudFlagged builds a FraudFlagged event keyed by the prediction ID.
func NewFraudFlagged(p FraudFlaggedPayload) FraudFlagged {
	return FraudFlagged{
		BaseEvent: events.NewBaseEvent(EventTypeFraudFlagged, p.PredictionID, "prediction", p),
		Data:      p,
	}
}

// BatchScoredPayload is the body of a BatchScored event.
type BatchScoredPayload struct {
	BatchID         uuid.UUID `json:"batch_id"`
	BundleID        uuid.UUID `json:"bundle_id"`
	Total           int       `json:"total_transactions"`
	FraudCount      int       `json:"fraud_count"`
	FraudPercentage float64   `json:"fraud_percentage"`
}

// BatchScored summarises one scored batch.
type BatchScored struct {
	events.BaseEvent
	Data BatchScoredPayload
}

// NewBatchScored builds a BatchScored event keyed by the batch ID.
func NewBatchScored(p BatchScoredPayload) BatchScored {
	return BatchScored{
		BaseEvent: events.NewBaseEvent(EventTypeBatchScored, p.BatchID, "batch", p),
		Data:      p,
	}
}

// BundleActivatedPayload identifies the bundle now serving.
type BundleActivatedPayload struct {
	BundleID  uuid.UUID `json:"bundle_id"`
	Source    string    `json:"source"`
	ModelKind string    `json:"model_kind"`
	NFeatures int       `json:"n_features"`
}

// BundleActivated is published after a successful load or reload.
type BundleActivated struct {
	events.BaseEvent
	Data BundleActivatedPayload
}

// NewBundleActivated builds a BundleActivated event keyed by the bundle ID.
func NewBundleActivated(p BundleActivatedPayload) BundleActivated {
	return BundleActivated{
		BaseEvent: events.NewBaseEvent(EventTypeBundleActivated, p.BundleID, "bundle", p),
		Data:      p,
	}
}

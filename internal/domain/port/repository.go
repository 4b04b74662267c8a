package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/pkg/events"
)

// PredictionRepository defines the persistence port for the prediction audit log.
type PredictionRepository interface {
	// Save persists a single scored transaction.
	Save(ctx context.Context, st *model.ScoredTransaction) error

	// SaveBatch persists every scored transaction of a batch atomically.
	SaveBatch(ctx context.Context, batch []*model.ScoredTransaction) error

	// FindByID retrieves a scored transaction by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// BundleArchive is the serialized form of a bundle: one blob per artifact file.
type BundleArchive struct {
	CreatedAt time.Time
	Files     map[string][]byte
	ID        uuid.UUID
}

// BundleStore persists bundle archives outside the filesystem.
type BundleStore interface {
	Save(ctx context.Context, archive BundleArchive) error
	Latest(ctx context.Context) (BundleArchive, error)
}

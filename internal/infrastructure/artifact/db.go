package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
)

// DefaultRetryElapsed bounds how long store operations are retried.
const DefaultRetryElapsed = 10 * time.Second

// StoreSource loads the latest bundle from a BundleStore.
type StoreSource struct {
	store      port.BundleStore
	maxElapsed time.Duration
}

// NewStoreSource creates a source backed by store.
func NewStoreSource(store port.BundleStore, maxElapsed time.Duration) *StoreSource {
	return &StoreSource{store: store, maxElapsed: maxElapsed}
}

func (s *StoreSource) Name() string { return "postgres" }

// Load fetches the latest archive, retrying transient failures. A missing
// bundle is not retried.
func (s *StoreSource) Load(ctx context.Context) (*model.Bundle, error) {
	var archive port.BundleArchive
	operation := func() error {
		var err error
		archive, err = s.store.Latest(ctx)
		if errors.Is(err, model.ErrBundleNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(operation, retryPolicy(ctx, s.maxElapsed)); err != nil {
		return nil, err
	}
	return Decode(archive)
}

// StoreSink publishes bundles to a BundleStore.
type StoreSink struct {
	store      port.BundleStore
	maxElapsed time.Duration
}

// NewStoreSink creates a sink backed by store.
func NewStoreSink(store port.BundleStore, maxElapsed time.Duration) *StoreSink {
	return &StoreSink{store: store, maxElapsed: maxElapsed}
}

func (s *StoreSink) Name() string { return "postgres" }

// Publish encodes the bundle and saves it as the latest archive.
func (s *StoreSink) Publish(ctx context.Context, b *model.Bundle) error {
	archive, err := Encode(b)
	if err != nil {
		return err
	}
	operation := func() error {
		return s.store.Save(ctx, archive)
	}
	return backoff.Retry(operation, retryPolicy(ctx, s.maxElapsed))
}

func retryPolicy(ctx context.Context, maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	if maxElapsed <= 0 {
		maxElapsed = DefaultRetryElapsed
	}
	b.MaxElapsedTime = maxElapsed
	return backoff.WithContext(b, ctx)
}

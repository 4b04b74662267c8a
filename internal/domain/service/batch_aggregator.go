package service

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/med2305/mlops/internal/domain/model"
)

// BatchAggregator scores records independently and summarises the batch.
type BatchAggregator struct {
	scorer  *Scorer
	workers int
}

// NewBatchAggregator creates a BatchAggregator. workers <= 0 uses GOMAXPROCS.
func NewBatchAggregator(scorer *Scorer, workers int) *BatchAggregator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &BatchAggregator{scorer: scorer, workers: workers}
}

// ScoreAll scores every record against bundle. Predictions keep input order.
// The batch fails as a whole if any record fails; the returned error is the
// lowest-indexed failure wrapped in a *model.RecordError.
func (a *BatchAggregator) ScoreAll(ctx context.Context, records []model.RawRecord, bundle *model.Bundle) (model.BatchResult, error) {
	if bundle == nil {
		return model.BatchResult{}, model.ErrModelNotReady
	}

	preds := make([]model.Prediction, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p, err := a.scorer.ScoreRecord(bundle, rec)
			if err != nil {
				errs[i] = &model.RecordError{Index: i, Err: err}
				return errs[i]
			}
			preds[i] = p
			return nil
		})
	}

	waitErr := g.Wait()
	for _, err := range errs {
		if err != nil {
			return model.BatchResult{}, err
		}
	}
	if waitErr != nil {
		return model.BatchResult{}, waitErr
	}
	if err := ctx.Err(); err != nil {
		return model.BatchResult{}, err
	}

	return model.NewBatchResult(preds), nil
}

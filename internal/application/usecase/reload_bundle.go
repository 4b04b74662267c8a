package usecase

import (
	"context"
	"log/slog"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/event"
	"github.com/med2305/mlops/internal/domain/port"
)

// ReloadBundle resolves a bundle from the candidate sources and makes it the
// serving bundle. When loading fails the previous bundle keeps serving.
type ReloadBundle struct {
	loader    port.BundleLoader
	holder    BundleHolder
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewReloadBundle creates a new ReloadBundle use case. publisher may be nil.
func NewReloadBundle(loader port.BundleLoader, holder BundleHolder, publisher port.EventPublisher, logger *slog.Logger) *ReloadBundle {
	return &ReloadBundle{
		loader:    loader,
		holder:    holder,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute loads and swaps in a bundle.
func (uc *ReloadBundle) Execute(ctx context.Context) (dto.ReloadResponse, error) {
	ctx, span := tracer.Start(ctx, "ReloadBundle")
	defer span.End()

	res, err := uc.loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		if current := uc.holder.Current(); current != nil {
			uc.logger.WarnContext(ctx, "bundle reload failed, keeping current bundle",
				"bundle_id", current.ID(), "error", err)
		}
		return dto.ReloadResponse{}, err
	}

	previous := uc.holder.Swap(res.Bundle)
	resp := dto.ReloadResponse{Source: res.Source, BundleID: res.Bundle.ID()}
	if previous != nil {
		resp.PreviousBundleID = previous.ID()
	}

	uc.logger.InfoContext(ctx, "bundle activated",
		"bundle_id", resp.BundleID,
		"previous_bundle_id", resp.PreviousBundleID,
		"source", res.Source,
		"failed_sources", len(res.Attempts),
	)

	if previous == nil || previous.ID() != res.Bundle.ID() {
		publishEvents(ctx, uc.publisher, uc.logger, event.NewBundleActivated(event.BundleActivatedPayload{
			BundleID:  res.Bundle.ID(),
			Source:    res.Source,
			ModelKind: res.Bundle.Classifier().Kind(),
			NFeatures: res.Bundle.Registry().NFeatures(),
		}))
	}

	return resp, nil
}

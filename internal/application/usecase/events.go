package usecase

import (
	"context"
	"log/slog"

	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/pkg/events"
)

// publishEvents publishes evts when a publisher is configured. Failures are
// logged and do not fail the request that produced the events.
func publishEvents(ctx context.Context, publisher port.EventPublisher, logger *slog.Logger, evts ...events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.ErrorContext(ctx, "failed to publish events", "count", len(evts), "error", err)
	}
}

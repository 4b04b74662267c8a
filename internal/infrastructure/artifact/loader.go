package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
)

// Loader tries candidate sources in order and returns the first valid bundle.
type Loader struct {
	logger  *slog.Logger
	metrics port.ScoringMetrics
	sources []port.ArtifactSource
	timeout time.Duration
}

// NewLoader creates a loader. A zero timeout disables the per-source deadline.
func NewLoader(sources []port.ArtifactSource, timeout time.Duration, metrics port.ScoringMetrics, logger *slog.Logger) *Loader {
	return &Loader{
		sources: sources,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Load returns the bundle of the first source that succeeds. When every
// source fails the error is an *model.ArtifactLoadError listing each attempt.
func (l *Loader) Load(ctx context.Context) (model.LoadResult, error) {
	var attempts []model.SourceAttempt
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, model.SourceAttempt{Source: src.Name(), Err: err})
			break
		}

		bundle, err := l.try(ctx, src)
		if l.metrics != nil {
			l.metrics.ObserveBundleLoad(src.Name(), err)
		}
		if err != nil {
			l.logger.Warn("bundle source failed", "source", src.Name(), "error", err)
			attempts = append(attempts, model.SourceAttempt{Source: src.Name(), Err: err})
			continue
		}

		l.logger.Info("bundle loaded",
			"source", src.Name(),
			"bundle_id", bundle.ID(),
			"model_kind", bundle.Classifier().Kind(),
			"n_features", bundle.Registry().NFeatures(),
		)
		return model.LoadResult{Bundle: bundle, Source: src.Name(), Attempts: attempts}, nil
	}
	return model.LoadResult{Attempts: attempts}, &model.ArtifactLoadError{Attempts: attempts}
}

func (l *Loader) try(ctx context.Context, src port.ArtifactSource) (*model.Bundle, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return src.Load(ctx)
}

// ParseSources builds sources from a comma separated list such as
// "dir:models/current,postgres". The postgres source requires a store.
func ParseSources(list string, store port.BundleStore, retry time.Duration) ([]port.ArtifactSource, error) {
	var sources []port.ArtifactSource
	for _, raw := range strings.Split(list, ",") {
		entry := strings.TrimSpace(raw)
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "dir:"):
			path := strings.TrimPrefix(entry, "dir:")
			if path == "" {
				return nil, fmt.Errorf("artifact source %q has no path", entry)
			}
			sources = append(sources, NewDirSource(path))
		case entry == "postgres":
			if store == nil {
				return nil, fmt.Errorf("artifact source %q requires DATABASE_URL", entry)
			}
			sources = append(sources, NewStoreSource(store, retry))
		default:
			return nil, fmt.Errorf("unknown artifact source %q", entry)
		}
	}
	return sources, nil
}

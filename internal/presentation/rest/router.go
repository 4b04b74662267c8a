package rest

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig wires the HTTP surface of the scoring service.
type RouterConfig struct {
	Scoring *ScoringHandler
	Health  *HealthHandler
	// Metrics serves /metrics when non-nil.
	Metrics      http.Handler
	RateLimitRPS float64
	Logger       *slog.Logger
}

// NewRouter builds the HTTP handler with its middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	cfg.Scoring.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var h http.Handler = mux
	h = RateLimit(cfg.RateLimitRPS, h)
	h = Logging(cfg.Logger, h)
	h = Recover(cfg.Logger, h)
	return otelhttp.NewHandler(h, "fraudd.http",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
	)
}

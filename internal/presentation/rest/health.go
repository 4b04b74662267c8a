package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/application/usecase"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides HTTP health check endpoints for the scoring service.
type HealthHandler struct {
	bundles   usecase.BundleProvider
	db        Pinger
	logger    *slog.Logger
	startTime time.Time
	service   string
}

// NewHealthHandler creates a new health check handler. db may be nil.
func NewHealthHandler(service string, bundles usecase.BundleProvider, db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service:   service,
		bundles:   bundles,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for /health and /healthz.
type HealthResponse struct {
	Status         string    `json:"status"`
	Service        string    `json:"service,omitempty"`
	Uptime         string    `json:"uptime,omitempty"`
	ModelLoaded    *bool     `json:"model_loaded,omitempty"`
	RegistryLoaded *bool     `json:"registry_loaded,omitempty"`
	BundleID       uuid.UUID `json:"bundle_id,omitzero"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Health reports whether a bundle is serving. It answers 503 until the first
// bundle has been loaded.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	bundle := h.bundles.Current()
	if bundle == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: "Model not loaded"})
		return
	}
	loaded := true
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		ModelLoaded:    &loaded,
		RegistryLoaded: &loaded,
		BundleID:       bundle.ID(),
	})
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"bundle": "ok"}
	ready := true

	if h.bundles.Current() == nil {
		checks["bundle"] = "not loaded"
		ready = false
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "readiness database ping failed", "error", err)
			checks["database"] = "unreachable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	resp := ReadinessResponse{Status: "ready", Service: h.service, Checks: checks}
	status := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

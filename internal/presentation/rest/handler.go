package rest

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// ScoringHandler serves the prediction endpoints.
type ScoringHandler struct {
	predict       *usecase.PredictTransaction
	batchPredict  *usecase.BatchPredict
	modelInfo     *usecase.GetModelInfo
	getPrediction *usecase.GetPrediction
	logger        *slog.Logger
}

// NewScoringHandler creates a new ScoringHandler.
func NewScoringHandler(
	predict *usecase.PredictTransaction,
	batchPredict *usecase.BatchPredict,
	modelInfo *usecase.GetModelInfo,
	getPrediction *usecase.GetPrediction,
	logger *slog.Logger,
) *ScoringHandler {
	return &ScoringHandler{
		predict:       predict,
		batchPredict:  batchPredict,
		modelInfo:     modelInfo,
		getPrediction: getPrediction,
		logger:        logger,
	}
}

// RegisterRoutes registers the scoring endpoints on mux.
func (h *ScoringHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("POST /predict", h.Predict)
	mux.HandleFunc("POST /batch-predict", h.BatchPredict)
	mux.HandleFunc("GET /model-info", h.ModelInfo)
	mux.HandleFunc("GET /predictions/{id}", h.GetPrediction)
}

// Root describes the service.
func (h *ScoringHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Fraud Detection API",
		"version": Version,
		"endpoints": map[string]string{
			"health":        "/health",
			"predict":       "/predict",
			"batch_predict": "/batch-predict",
			"model_info":    "/model-info",
			"predictions":   "/predictions/{id}",
			"metrics":       "/metrics",
		},
	})
}

// Predict scores one transaction.
func (h *ScoringHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var record model.RawRecord
	if err := readJSON(w, r, &record); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.predict.Execute(r.Context(), record)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BatchPredict scores {"transactions": [...]}.
func (h *ScoringHandler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchPredictRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.batchPredict.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ModelInfo describes the serving bundle.
func (h *ScoringHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := h.modelInfo.Execute()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPrediction returns an audited prediction.
func (h *ScoringHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "invalid prediction id"})
		return
	}
	resp, err := h.getPrediction.Execute(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

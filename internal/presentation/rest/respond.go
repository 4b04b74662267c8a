package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Detail string   `json:"detail"`
	Fields []string `json:"fields,omitempty"`
}

// errMalformedBody marks request bodies that are not valid JSON for the endpoint.
type errMalformedBody struct{ err error }

func (e errMalformedBody) Error() string { return "malformed request body: " + e.err.Error() }
func (e errMalformedBody) Unwrap() error { return e.err }

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var invalid *model.InvalidFieldError
		if errors.As(err, &invalid) {
			return err
		}
		return errMalformedBody{err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errMalformedBody{errors.New("body must contain a single JSON value")}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Internal errors are logged and
// their text is not returned to the caller.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		missing  *model.MissingFieldError
		invalid  *model.InvalidFieldError
		malform  errMalformedBody
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
	case errors.As(err, &malform):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error(), Fields: missing.Fields})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error(), Fields: []string{invalid.Field}})
	case errors.Is(err, model.ErrModelNotReady):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: "Model not loaded"})
	case errors.Is(err, model.ErrPredictionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "prediction not found"})
	case errors.Is(err, usecase.ErrAuditDisabled):
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Detail: err.Error()})
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "internal error"})
	}
}

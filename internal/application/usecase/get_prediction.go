package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/port"
)

// ErrAuditDisabled is returned when no prediction repository is configured.
var ErrAuditDisabled = errors.New("prediction audit log is not configured")

// GetPrediction reads an audited prediction back.
type GetPrediction struct {
	repo port.PredictionRepository
}

// NewGetPrediction creates a new GetPrediction use case. repo may be nil.
func NewGetPrediction(repo port.PredictionRepository) *GetPrediction {
	return &GetPrediction{repo: repo}
}

// Execute retrieves the prediction with the given ID.
func (uc *GetPrediction) Execute(ctx context.Context, id uuid.UUID) (dto.StoredPredictionResponse, error) {
	if uc.repo == nil {
		return dto.StoredPredictionResponse{}, ErrAuditDisabled
	}
	st, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return dto.StoredPredictionResponse{}, fmt.Errorf("failed to get prediction: %w", err)
	}
	return dto.FromStored(st), nil
}

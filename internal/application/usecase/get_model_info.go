package usecase

import (
	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/model"
)

// GetModelInfo describes the bundle currently serving.
type GetModelInfo struct {
	bundles   BundleProvider
	threshold float64
}

// NewGetModelInfo creates a new GetModelInfo use case.
func NewGetModelInfo(bundles BundleProvider, threshold float64) *GetModelInfo {
	return &GetModelInfo{bundles: bundles, threshold: threshold}
}

// Execute returns the serving bundle's schema and metadata.
func (uc *GetModelInfo) Execute() (dto.ModelInfoResponse, error) {
	bundle := uc.bundles.Current()
	if bundle == nil {
		return dto.ModelInfoResponse{}, model.ErrModelNotReady
	}
	return dto.FromBundle(bundle, uc.threshold), nil
}

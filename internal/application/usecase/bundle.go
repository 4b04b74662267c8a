package usecase

import (
	"go.opentelemetry.io/otel"

	"github.com/med2305/mlops/internal/domain/model"
)

var tracer = otel.Tracer("github.com/med2305/mlops/internal/application/usecase")

// BundleProvider returns the bundle currently serving, or nil before the
// first successful load. Callers use one snapshot for a whole request.
type BundleProvider interface {
	Current() *model.Bundle
}

// BundleHolder is a BundleProvider whose bundle can be replaced.
type BundleHolder interface {
	BundleProvider
	Swap(b *model.Bundle) *model.Bundle
}

package artifact

import (
	"sync/atomic"

	"github.com/med2305/mlops/internal/domain/model"
)

// Holder publishes the active bundle to concurrent readers. Readers take a
// snapshot with Current and keep using it even if a reload swaps it.
type Holder struct {
	current atomic.Pointer[model.Bundle]
}

// NewHolder returns a holder with no active bundle.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the active bundle, or nil before the first load.
func (h *Holder) Current() *model.Bundle {
	return h.current.Load()
}

// Swap installs b and returns the bundle it replaced.
func (h *Holder) Swap(b *model.Bundle) *model.Bundle {
	return h.current.Swap(b)
}

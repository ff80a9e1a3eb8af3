//go:build !linux

package hwrng

import (
	"context"

	"github.com/ehay64/softrng/pkg"
)

// DefaultPath is the standard hardware RNG character device on Linux.
const DefaultPath = "/dev/hwrng"

// HAL is a stub on platforms without /dev/hwrng. Init always fails with
// [pkg.ErrNotSupported]; every other method is a no-op.
type HAL struct {
	path string
}

// New creates a stub backend.
func New(path string) *HAL {
	if path == "" {
		path = DefaultPath
	}
	return &HAL{path: path}
}

// Init reports that this platform has no hardware RNG device.
func (h *HAL) Init(ctx context.Context) error {
	return pkg.ErrNotSupported
}

func (h *HAL) Close() error           { return nil }
func (h *HAL) Start()                 {}
func (h *HAL) Stop()                  {}
func (h *HAL) SetBiasCorrection(bool) {}
func (h *HAL) ValueReady() bool       { return false }
func (h *HAL) ReadValue() byte        { return 0 }
func (h *HAL) ClearValueReady()       {}
func (h *HAL) SetHandler(func())      {}
func (h *HAL) SetIRQPriority(uint8)   {}
func (h *HAL) EnableIRQ()             {}
func (h *HAL) DisableIRQ()            {}
func (h *HAL) IRQEnabled() bool       { return false }
func (h *HAL) ClearPendingIRQ()       {}
func (h *HAL) WaitEvent()             {}

package hal

import (
	"context"
)

// RNG defines the Hardware Abstraction Layer interface for a byte-at-a-time
// hardware noise source.
//
// The driver core drives the peripheral exclusively through this interface.
// See the package documentation for the hardware model and concurrency
// contract implementations must uphold.
type RNG interface {
	// Init initializes the noise-source hardware.
	// The context can be used to cancel initialization.
	Init(ctx context.Context) error

	// Close releases the hardware. Any running generation is halted and
	// the installed handler is uninstalled.
	Close() error

	// Task Triggers

	// Start triggers noise generation. Idempotent: a start while already
	// running is a no-op at the hardware level.
	Start()

	// Stop halts noise generation. Idempotent.
	Stop()

	// SetBiasCorrection enables or disables the hardware bias-correction
	// mode. Applied once at device initialization; backends without the
	// capability treat this as a no-op.
	SetBiasCorrection(enabled bool)

	// Value-Ready Event

	// ValueReady reports whether a generated byte is latched and unread.
	ValueReady() bool

	// ReadValue returns the contents of the generated-value register.
	// Only meaningful while ValueReady reports true.
	ReadValue() byte

	// ClearValueReady clears the value-ready flag. The value register is
	// unaffected.
	ClearValueReady()

	// Interrupt Line

	// SetHandler installs fn as the value-ready interrupt handler.
	// Pass nil to uninstall. Invocations of fn are serialized.
	SetHandler(fn func())

	// SetIRQPriority sets the interrupt priority for the value-ready line.
	// Backends without prioritized interrupts record and ignore it.
	SetIRQPriority(priority uint8)

	// EnableIRQ enables the value-ready interrupt line.
	EnableIRQ()

	// DisableIRQ disables the value-ready interrupt line. While disabled,
	// value-ready edges do not invoke the handler.
	DisableIRQ()

	// IRQEnabled reports whether the value-ready interrupt line is enabled.
	IRQEnabled() bool

	// ClearPendingIRQ discards any latched-but-undispatched interrupt so
	// that re-enabling the line does not replay stale events.
	ClearPendingIRQ()

	// WaitEvent blocks briefly until a hardware event may have occurred.
	// It is the low-power wait instruction of the busy-wait extraction
	// path and may return spuriously.
	WaitEvent()
}

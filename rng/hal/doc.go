// Package hal defines the Hardware Abstraction Layer interface for the
// softrng entropy driver.
//
// The HAL provides a platform-agnostic interface between the driver core and
// the underlying noise-source peripheral. Platform vendors implement this
// interface to enable the driver on their specific hardware.
//
// # Hardware Model
//
// The interface models the register surface of a byte-at-a-time hardware
// noise generator:
//
//   - Task triggers: Start and Stop begin and halt generation. Both are
//     idempotent at the hardware level; a Start while running is a no-op.
//   - VALRDY event: once started, the peripheral periodically latches one
//     generated byte into a value register and raises the value-ready flag.
//     The flag stays set until explicitly cleared; a new byte overwrites
//     the value register regardless.
//   - Interrupt line: while the line is enabled, each value-ready edge
//     invokes the installed handler. Handler invocations are serialized;
//     the driver relies on there never being two concurrent invocations.
//
// # Design Principles
//
// The HAL is designed to be:
//
//   - Minimal: Only expose operations essential for entropy harvesting
//   - Generic: No platform-specific assumptions or details
//   - Flexible: Adaptable to real registers, character devices, or
//     external dongles
//
// The driver core implements all pooling, watermark, and consumer logic,
// leaving the HAL to handle only low-level hardware interactions.
//
// # Concurrency Contract
//
// Register accessors (ValueReady, ReadValue, ClearValueReady) must be
// individually atomic with respect to the generating peripheral and may be
// called from the handler or, with the interrupt line disabled, from any
// goroutine. WaitEvent is the low-power wait used by the busy-wait
// extraction path; it must return promptly after any hardware event and
// may also return spuriously.
//
// # Implementations
//
// Three backends ship with the driver:
//
//   - [github.com/ehay64/softrng/rng/hal/sim] - simulated peripheral for
//     tests, examples, and hosted development
//   - [github.com/ehay64/softrng/rng/hal/hwrng] - Linux /dev/hwrng
//     character device
//   - [github.com/ehay64/softrng/rng/hal/truerng] - TrueRNG USB serial
//     dongle
package hal

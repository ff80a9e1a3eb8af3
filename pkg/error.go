package pkg

import "errors"

// Entropy driver errors.
var (
	// ErrNoBufferSpace indicates a pool could not store a byte because it is full.
	ErrNoBufferSpace = errors.New("no buffer space")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAlreadyRunning indicates the device or generator is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the device is not running.
	ErrNotRunning = errors.New("not running")

	// ErrClosed indicates the device was closed while an operation was in progress.
	ErrClosed = errors.New("device closed")

	// ErrNoDevice indicates the noise-source hardware is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrNotSupported indicates an unsupported operation on this platform.
	ErrNotSupported = errors.New("not supported")

	// ErrTimeout indicates a hardware operation timed out.
	ErrTimeout = errors.New("hardware timeout")

	// ErrIO indicates a low-level I/O failure in a HAL backend.
	ErrIO = errors.New("i/o error")
)

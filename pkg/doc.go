// Package pkg provides shared utilities for the softrng entropy driver.
//
// This package contains common functionality used across the driver core,
// the HAL backends, and the board support tables, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for driver and hardware errors
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDevice, "device opened", "isr_buf_len", 16)
//
// # Errors
//
// Common driver errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrClosed) {
//	    // Device was torn down while a read was blocked
//	}
package pkg

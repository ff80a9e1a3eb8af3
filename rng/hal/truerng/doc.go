// Package truerng provides a [hal.RNG] backend for TrueRNG-family USB
// entropy dongles, which present themselves as CDC serial ports.
//
// The dongle streams entropy whenever DTR is asserted, so the driver's
// task triggers map onto flow control: Start asserts DTR and flushes the
// stale input buffer, Stop deasserts DTR. The capture mode is selected
// with the vendor's baud-rate convention, and the device's whitened
// capture mode doubles as the driver's bias-correction toggle: enabled
// selects the whitened stream, disabled the raw one.
//
// As with the hwrng backend, a reader goroutine adapts the serial byte
// stream to the value-register model the driver core expects.
package truerng

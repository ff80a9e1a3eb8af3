// Package hwrng provides a [hal.RNG] backend for the Linux hardware RNG
// character device, /dev/hwrng.
//
// The kernel exposes whatever TRNG the platform carries through a single
// byte stream; this backend adapts that stream to the driver's
// byte-at-a-time register model. A started backend runs a reader
// goroutine that polls the device for readability, reads one byte,
// latches it into the simulated value register, and raises the value-ready
// event, so the driver core behaves exactly as it does over memory-mapped
// hardware.
//
// Bias correction is performed (or not) by the underlying TRNG itself;
// SetBiasCorrection is recorded and ignored.
//
// On non-Linux platforms Init returns [pkg.ErrNotSupported].
package hwrng

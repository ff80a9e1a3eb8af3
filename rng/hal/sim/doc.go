// Package sim provides a simulated noise-source peripheral implementing
// [hal.RNG] for testing, examples, and hosted development.
//
// The simulator models the timing profile of a real hardware noise
// generator: a comparatively expensive first byte after each start
// trigger, a cheaper steady-state latency for every byte that follows,
// and a bias-correction mode that roughly doubles both. Generated bytes
// come from a ChaCha20 keystream, so runs are reproducible when seeded.
//
// A started simulator runs a single generator goroutine that latches one
// byte at a time into the value register, raises the value-ready flag, and
// dispatches the installed interrupt handler while the interrupt line is
// enabled. Handler invocations are serialized, matching the single-CPU
// interrupt semantics the driver core relies on.
//
// # Example
//
//	h := sim.New(sim.Options{
//	    FirstByteLatency: 100 * time.Microsecond,
//	    ByteLatency:      20 * time.Microsecond,
//	})
//	dev, err := rng.Open(ctx, h, rng.DefaultConfig())
package sim

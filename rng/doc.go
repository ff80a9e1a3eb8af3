// Package rng implements a power-aware entropy harvesting driver for
// byte-at-a-time hardware noise sources.
//
// It is platform-agnostic and interacts with hardware via the [hal.RNG]
// interface defined in the [github.com/ehay64/softrng/rng/hal] package.
// The HAL models the register surface of a noise generator that, once
// started, produces one byte at a time at variable latency and raises a
// value-ready event for each; vendors provide concrete implementations
// without changing the driver core.
//
// # Water System
//
// Noise sources of this class pay a high latency for the first byte after
// a start trigger and a lower latency for every byte that follows, and
// they burn power for as long as they run. The driver amortizes the
// first-byte cost with a watermark scheme: generation idles until a pool's
// occupancy drops strictly below its threshold, then runs until every pool
// is full again. Occupancy is checked at the end of every consumption.
//
// A low threshold maximizes the amortization of the first-byte cost; a
// high threshold minimizes time spent waiting for entropy. The right
// setting depends on how the rest of the system uses the clocks that keep
// the generator running.
//
// # Two Tiers
//
// Each device owns two fixed-capacity ring pools:
//
//   - The ISR tier is drained only from interrupt/privileged context,
//     lock-free by construction: one producer (the handler), one consumer
//     context, atomic indices.
//   - The thread tier is drained by normal-context callers under a
//     mutual-exclusion gate and refilled by the handler, which wakes one
//     blocked extractor per byte batch.
//
// The interrupt handler biases fresh bytes toward the ISR tier, spilling
// to the thread tier once the ISR tier is full; generation stops only when
// both tiers are full within the same handler pass. The start conditions
// are deliberately independent per tier while the stop condition is
// joint; that asymmetry encodes the power/latency trade-off above.
//
// # Extraction Paths
//
// Three consumer protocols are exposed:
//
//   - [Device.GetEntropy]: blocking bulk read from normal context;
//     delivers exactly the requested bytes, eventually, with no timeout.
//   - [Device.GetEntropyISR]: immediate lock-free drain of the ISR tier;
//     may return short; safe from interrupt context.
//   - [Device.GetEntropyISR] with [BusyWait]: synchronous guaranteed
//     delivery that disables the interrupt line, bypasses both pools, and
//     spins on the hardware until done.
//
// # Example
//
//	h := sim.New(sim.Options{})
//	dev, err := rng.Open(ctx, h, rng.DefaultConfig())
//	if err != nil {
//	    // handle
//	}
//	defer dev.Close()
//
//	key := make([]byte, 32)
//	if err := dev.GetEntropy(key); err != nil {
//	    // handle
//	}
//
// A simulated noise source for testing is available in
// [github.com/ehay64/softrng/rng/hal/sim].
package rng

package rng

import (
	"context"
	"sync"

	"github.com/ehay64/softrng/pkg"
	"github.com/ehay64/softrng/rng/hal"
)

// Device is an open entropy device: a noise-source peripheral behind
// [hal.RNG], the two ring-pool tiers it fills, and the synchronization
// state shared by its consumers.
//
// A Device is created with [Open] and torn down with [Device.Close]; the
// pools, the extraction gate, and the wake signal live exactly as long as
// the Device. All methods are safe for concurrent use within the
// concurrency contracts documented on each extraction path.
type Device struct {
	hal hal.RNG
	cfg Config
	gen generator

	isr *ringPool // drained from interrupt/privileged context only
	thr *ringPool // drained under gate from normal context

	// gate serializes normal-context extractors of the thread tier.
	gate sync.Mutex

	// wake carries one token per thread-tier byte batch; a blocked
	// extractor consumes it to retry a shortfall. Capacity 1 makes it a
	// binary semaphore: redundant signals collapse, none are lost.
	wake chan struct{}

	// done is closed by Close to release blocked extractors.
	done      chan struct{}
	closeOnce sync.Once

	stats Stats
}

// Open initializes the noise-source hardware and returns a running device.
//
// The configuration is applied in full before generation starts: both
// pools are built with their capacities and thresholds, bias correction is
// written to hardware, the value-ready flag is cleared, the interrupt
// handler is installed at the configured priority, the interrupt line is
// enabled, and generation is triggered so the pools begin to fill.
func Open(ctx context.Context, h hal.RNG, cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := h.Init(ctx); err != nil {
		return nil, err
	}

	d := &Device{
		hal:  h,
		cfg:  cfg,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	d.gen.hal = h
	d.gen.stats = &d.stats

	// Pool capacity reserves one slot to tell full from empty.
	d.isr = newRingPool(cfg.ISRBufLen+1, cfg.ISRThreshold, d.gen.start)
	d.thr = newRingPool(cfg.ThrBufLen+1, cfg.ThrThreshold, d.gen.start)

	h.SetBiasCorrection(cfg.BiasCorrection)
	h.ClearValueReady()
	h.SetIRQPriority(cfg.IRQPriority)
	h.SetHandler(d.handleValueReady)
	h.EnableIRQ()
	d.gen.start()

	pkg.LogInfo(pkg.ComponentDevice, "entropy device opened",
		"isr_buf_len", cfg.ISRBufLen,
		"thr_buf_len", cfg.ThrBufLen,
		"isr_threshold", cfg.ISRThreshold,
		"thr_threshold", cfg.ThrThreshold,
		"bias_correction", cfg.BiasCorrection)

	return d, nil
}

// Close stops generation, disables the interrupt line, uninstalls the
// handler, and releases the hardware. Extractors blocked in GetEntropy
// return pkg.ErrClosed. Close is idempotent.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		d.gen.stop()
		d.hal.DisableIRQ()
		d.hal.SetHandler(nil)
		err = d.hal.Close()
		pkg.LogInfo(pkg.ComponentDevice, "entropy device closed")
	})
	return err
}

// Config returns the configuration the device was opened with.
func (d *Device) Config() Config {
	return d.cfg
}

// closed reports whether Close has been called.
func (d *Device) closed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// sampleByte reads one generated byte from the noise source if one is
// ready, clearing the value-ready flag. It never blocks and is callable
// from the interrupt handler; a false return marks the not-ready transient
// handled by retrying on the next value-ready edge.
//
// HAL register accessors are individually atomic, and the two contexts
// that sample (the handler and the busy-wait path) are mutually excluded
// by the busy-wait path disabling the interrupt line first.
func (d *Device) sampleByte() (byte, bool) {
	if !d.hal.ValueReady() {
		return 0, false
	}
	b := d.hal.ReadValue()
	d.hal.ClearValueReady()
	d.stats.sampled.Add(1)
	return b, true
}

// handleValueReady services one value-ready edge.
//
// The byte feeds the ISR tier while that tier has room, biasing the
// freshest bytes toward the lowest-latency consumer path. Once the ISR
// tier is full the byte spills to the thread tier: stored there when the
// ISR tier dropped it, otherwise the thread tier is only probed for room.
// A byte landing in the thread tier wakes one blocked extractor.
// Generation stops only when the spill finds both tiers full in this same
// pass; a single full tier with the other still accepting keeps the
// generator running.
func (d *Device) handleValueReady() {
	b, ok := d.sampleByte()
	if !ok {
		return // spurious edge
	}

	res := d.isr.put(b)
	if res == putStored {
		return
	}

	thrFull := false
	if res == putDropped {
		d.stats.isrDropped.Add(1)
		switch d.thr.put(b) {
		case putDropped:
			d.stats.thrDropped.Add(1)
			thrFull = true
		case putFilled:
			d.signalWake()
			thrFull = true
		case putStored:
			d.signalWake()
		}
	} else {
		thrFull = d.thr.full()
	}

	if thrFull {
		d.gen.stop()
	}
}

// signalWake posts one wake token unless one is already pending.
func (d *Device) signalWake() {
	select {
	case d.wake <- struct{}{}:
		d.stats.wakes.Add(1)
	default:
	}
}

// generator issues the hardware start/stop task triggers and keeps the
// occupancy-driven accounting. Start may be invoked redundantly by either
// tier's watermark crossing; the triggers are idempotent at the hardware
// level so no state is tracked here.
type generator struct {
	hal   hal.RNG
	stats *Stats
}

func (g *generator) start() {
	g.stats.starts.Add(1)
	g.hal.Start()
}

func (g *generator) stop() {
	g.stats.stops.Add(1)
	g.hal.Stop()
	pkg.LogDebug(pkg.ComponentGenerator, "generation stopped, both tiers full")
}

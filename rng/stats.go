package rng

import "sync/atomic"

// Stats holds driver accounting counters. All fields are updated with
// atomic operations from interrupt-handler and consumer contexts alike.
type Stats struct {
	sampled       atomic.Uint64 // bytes read from the value register
	isrDropped    atomic.Uint64 // bytes dropped by the ISR tier
	thrDropped    atomic.Uint64 // bytes dropped by the thread tier
	starts        atomic.Uint64 // generator start triggers issued
	stops         atomic.Uint64 // generator stop triggers issued
	wakes         atomic.Uint64 // wake tokens posted to blocked extractors
	busyWaitBytes atomic.Uint64 // bytes delivered by the busy-wait path
}

// StatsSnapshot is a point-in-time copy of the driver counters, suitable
// for logging or periodic inspection.
type StatsSnapshot struct {
	Sampled       uint64
	ISRDropped    uint64
	ThrDropped    uint64
	Starts        uint64
	Stops         uint64
	Wakes         uint64
	BusyWaitBytes uint64
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() StatsSnapshot {
	return StatsSnapshot{
		Sampled:       d.stats.sampled.Load(),
		ISRDropped:    d.stats.isrDropped.Load(),
		ThrDropped:    d.stats.thrDropped.Load(),
		Starts:        d.stats.starts.Load(),
		Stops:         d.stats.stops.Load(),
		Wakes:         d.stats.wakes.Load(),
		BusyWaitBytes: d.stats.busyWaitBytes.Load(),
	}
}

package rng

import (
	"github.com/ehay64/softrng/pkg"
)

// Flags control GetEntropyISR behavior.
type Flags uint32

// GetEntropyISR flags.
const (
	// BusyWait requests guaranteed delivery by monopolizing the noise
	// source: the interrupt line is disabled and bytes are sampled
	// directly from hardware, bypassing both pools.
	BusyWait Flags = 1 << 0
)

// maxReadChunk bounds a single thread-tier drain, matching the
// register-width transfer limit of the modeled hardware.
const maxReadChunk = 255

// GetEntropy fills buf completely with entropy bytes, blocking as needed.
//
// Bytes are drained from the thread tier in chunks of up to 255 under the
// extraction gate; concurrent callers serialize, each receiving a
// contiguous, non-overlapping run of the produced stream in production
// order. When the tier cannot satisfy a chunk the caller sleeps on the
// wake signal until the interrupt handler adds bytes, then retries the
// shortfall. The wait is unbounded: assuming the hardware keeps producing,
// exactly len(buf) bytes are eventually delivered.
//
// Must not be called from interrupt context. Returns pkg.ErrClosed if the
// device is closed before the request completes.
func (d *Device) GetEntropy(buf []byte) error {
	if d.closed() {
		return pkg.ErrClosed
	}

	for len(buf) > 0 {
		chunk := len(buf)
		if chunk > maxReadChunk {
			chunk = maxReadChunk
		}

		d.gate.Lock()
		n := d.thr.read(buf[:chunk])
		d.gate.Unlock()

		buf = buf[n:]
		if n == chunk {
			continue
		}

		// Shortfall: sleep until the next interrupt adds bytes.
		select {
		case <-d.wake:
		case <-d.done:
			return pkg.ErrClosed
		}
	}
	return nil
}

// GetEntropyISR reads entropy from interrupt or privileged context and
// returns the number of bytes delivered.
//
// Without BusyWait it drains the ISR tier immediately: no blocking, no
// locking, possibly fewer bytes than requested. This is safe from
// interrupt context precisely because only interrupt/privileged-context
// callers ever drain the ISR tier; draining it concurrently from normal
// context is undefined.
//
// With BusyWait it guarantees len(buf) bytes via direct hardware sampling;
// see busyWaitRead for the cost.
func (d *Device) GetEntropyISR(buf []byte, flags Flags) int {
	if flags&BusyWait == 0 {
		return d.isr.read(buf)
	}
	return d.busyWaitRead(buf)
}

// busyWaitRead synchronously harvests len(buf) bytes straight from the
// value register, bypassing both pools.
//
// The device interrupt line is disabled for the duration so the handler
// cannot consume the sampled bytes, and its prior enabled state is
// restored on every exit path. Generation is forced on and the CPU spins
// in the HAL's low-power wait until every byte is collected. This
// monopolizes the hardware and the calling context; it exists for callers
// that cannot tolerate the pool indirection, such as early boot before
// interrupts are viable.
func (d *Device) busyWaitRead(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}

	wasEnabled := d.hal.IRQEnabled()
	d.hal.DisableIRQ()
	defer func() {
		if wasEnabled {
			d.hal.EnableIRQ()
		}
	}()

	d.hal.ClearValueReady()
	d.gen.start()

	for filled := 0; filled < len(buf); {
		for !d.hal.ValueReady() {
			d.hal.WaitEvent()
		}

		b, ok := d.sampleByte()
		d.hal.ClearPendingIRQ()
		if !ok {
			continue
		}

		buf[filled] = b
		filled++
	}

	d.stats.busyWaitBytes.Add(uint64(len(buf)))
	return len(buf)
}

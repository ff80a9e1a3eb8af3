package rng

import (
	"sync/atomic"
)

// putResult reports the outcome of a single-byte append to a ring pool.
type putResult uint8

// Put outcomes.
const (
	putDropped putResult = iota // Pool full, byte not stored
	putStored                   // Byte stored, room remains
	putFilled                   // Byte stored, pool now full
)

// ringPool is a fixed-capacity single-producer/single-consumer byte ring
// with a low-watermark callback.
//
// One slot is kept unused to disambiguate full from empty: the pool is
// empty iff first == last and full iff advancing last by one slot would
// meet first, so usable occupancy is len(buf)-1 bytes.
//
// Exactly one goroutine may call put and exactly one context at a time may
// call read. The interrupt handler is the sole producer for both tiers;
// the ISR tier is drained only from handler-side contexts, and the thread
// tier is drained under the device extraction gate. Index updates use
// acquire/release atomics so the producer's byte store is visible before
// the consumer observes the advanced index, and vice versa for freed slots.
type ringPool struct {
	buf       []byte
	threshold uint32
	first     atomic.Uint32 // next slot to read
	last      atomic.Uint32 // next free slot to write

	// onLow fires after a read leaves occupancy strictly below threshold.
	// Used to resume hardware generation; must be safe to invoke while
	// generation is already running.
	onLow func()
}

// newRingPool creates a pool with the given total capacity in slots and
// low-watermark threshold. Capacity must be at least 2 (one usable byte)
// and threshold must be below capacity; the caller validates both.
func newRingPool(capacity, threshold int, onLow func()) *ringPool {
	return &ringPool{
		buf:       make([]byte, capacity),
		threshold: uint32(threshold),
		onLow:     onLow,
	}
}

// size returns the total slot count, one more than usable occupancy.
func (p *ringPool) size() uint32 {
	return uint32(len(p.buf))
}

// occupancy returns the number of unread bytes currently stored.
func (p *ringPool) occupancy() uint32 {
	first := p.first.Load()
	last := p.last.Load()
	if first <= last {
		return last - first
	}
	return p.size() - first + last
}

// full reports whether the pool cannot store another byte.
func (p *ringPool) full() bool {
	return p.occupancy() == p.size()-1
}

// empty reports whether the pool holds no unread bytes.
func (p *ringPool) empty() bool {
	return p.first.Load() == p.last.Load()
}

// put appends one byte.
//
// If the pool is full the byte is dropped and the pool is left unchanged.
// Otherwise the byte is stored and the result additionally reports whether
// the pool filled up, so the producer learns in one call both that this
// byte fit and whether the next one will.
func (p *ringPool) put(b byte) putResult {
	last := p.last.Load()
	next := last + 1
	if next == p.size() {
		next = 0
	}
	if next == p.first.Load() {
		return putDropped
	}

	p.buf[last] = b
	p.last.Store(next)

	next++
	if next == p.size() {
		next = 0
	}
	if next == p.first.Load() {
		return putFilled
	}
	return putStored
}

// read copies up to len(out) bytes into out in FIFO order and returns the
// number copied. The copy is performed in at most two contiguous segments
// to handle wrap-around. read never blocks; a request exceeding current
// occupancy returns the bytes available and the caller decides whether to
// wait and re-invoke for the remainder.
//
// When the post-read occupancy is strictly below the pool threshold the
// low-watermark callback fires, at most once per call.
func (p *ringPool) read(out []byte) int {
	if len(out) == 0 {
		return 0
	}

	first := p.first.Load()
	last := p.last.Load()

	var avail uint32
	if first <= last {
		avail = last - first
	} else {
		avail = p.size() - first + last
	}

	n := uint32(len(out))
	if n > avail {
		n = avail
	}

	if n > 0 {
		if run := p.size() - first; run >= n {
			copy(out, p.buf[first:first+n])
		} else {
			copy(out, p.buf[first:])
			copy(out[run:], p.buf[:n-run])
		}
		first += n
		if first >= p.size() {
			first -= p.size()
		}
		p.first.Store(first)
	}

	if avail-n < p.threshold && p.onLow != nil {
		p.onLow()
	}

	return int(n)
}

package sim

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20"

	"github.com/ehay64/softrng/pkg"
)

// Default timing profile, patterned on small embedded noise generators
// where the first byte after a start trigger costs roughly twice the
// steady-state rate.
const (
	DefaultFirstByteLatency = 248 * time.Microsecond
	DefaultByteLatency      = 120 * time.Microsecond
)

// waitEventPoll bounds a single WaitEvent sleep so spinning callers
// observe new bytes promptly even if an event signal was consumed early.
const waitEventPoll = 20 * time.Microsecond

// Options configures the simulated peripheral.
type Options struct {
	// Seed keys the ChaCha20 noise stream. A zero Seed is replaced with
	// random key material at Init, making each run unique.
	Seed [32]byte

	// FirstByteLatency is the delay before the first byte after a start
	// trigger. Zero selects DefaultFirstByteLatency.
	FirstByteLatency time.Duration

	// ByteLatency is the steady-state delay between bytes.
	// Zero selects DefaultByteLatency.
	ByteLatency time.Duration
}

// HAL is a simulated noise-source peripheral. It implements [hal.RNG].
type HAL struct {
	opts Options

	mutex    sync.Mutex
	stream   *chacha20.Cipher
	initDone bool
	closed   bool

	// Register state
	value   byte
	valrdy  bool
	bias    bool
	running bool

	// Interrupt line state
	handler    func()
	irqEnabled bool
	irqPending bool
	priority   uint8

	// dispatchMutex serializes handler invocations across generator runs.
	dispatchMutex sync.Mutex

	// eventCh carries hardware-event signals for WaitEvent.
	eventCh chan struct{}

	// stopCh terminates the current generator run.
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a simulated peripheral. Call Init before use.
func New(opts Options) *HAL {
	if opts.FirstByteLatency == 0 {
		opts.FirstByteLatency = DefaultFirstByteLatency
	}
	if opts.ByteLatency == 0 {
		opts.ByteLatency = DefaultByteLatency
	}
	return &HAL{
		opts:    opts,
		eventCh: make(chan struct{}, 1),
	}
}

// Init keys the noise stream and readies the register file.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}

	seed := h.opts.Seed
	if seed == ([32]byte{}) {
		if _, err := rand.Read(seed[:]); err != nil {
			return fmt.Errorf("seed noise stream: %w", err)
		}
	}

	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return fmt.Errorf("init noise stream: %w", err)
	}

	h.stream = stream
	h.initDone = true

	pkg.LogDebug(pkg.ComponentHAL, "sim peripheral initialized",
		"first_byte_latency", h.opts.FirstByteLatency,
		"byte_latency", h.opts.ByteLatency)
	return nil
}

// Close halts generation and releases the simulator.
func (h *HAL) Close() error {
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return nil
	}
	h.closed = true
	h.stopLocked()
	h.handler = nil
	h.mutex.Unlock()

	h.wg.Wait()
	return nil
}

// Start triggers noise generation. A start while running is a no-op.
func (h *HAL) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initDone || h.closed || h.running {
		return
	}

	h.running = true
	h.stopCh = make(chan struct{})
	h.wg.Add(1)
	go h.generate(h.stopCh)
}

// Stop halts noise generation. A stop while idle is a no-op.
func (h *HAL) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.stopLocked()
}

func (h *HAL) stopLocked() {
	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)
}

// Running reports whether the generator is currently producing bytes.
func (h *HAL) Running() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.running
}

// SetBiasCorrection toggles the simulated bias-correction mode, which
// doubles the per-byte generation latency while enabled.
func (h *HAL) SetBiasCorrection(enabled bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.bias = enabled
}

// ValueReady reports whether a generated byte is latched and unread.
func (h *HAL) ValueReady() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.valrdy
}

// ReadValue returns the generated-value register.
func (h *HAL) ReadValue() byte {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.value
}

// ClearValueReady clears the value-ready flag.
func (h *HAL) ClearValueReady() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.valrdy = false
}

// SetHandler installs the value-ready interrupt handler.
func (h *HAL) SetHandler(fn func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.handler = fn
}

// SetIRQPriority records the configured interrupt priority. The simulator
// has a single interrupt source, so priority never affects dispatch order.
func (h *HAL) SetIRQPriority(priority uint8) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.priority = priority
}

// IRQPriority returns the recorded interrupt priority.
func (h *HAL) IRQPriority() uint8 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.priority
}

// EnableIRQ enables the value-ready interrupt line. A pending latched
// interrupt dispatches on the next value-ready edge.
func (h *HAL) EnableIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqEnabled = true
}

// DisableIRQ disables the value-ready interrupt line. Edges raised while
// the line is disabled are latched as pending.
func (h *HAL) DisableIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqEnabled = false
}

// IRQEnabled reports whether the value-ready interrupt line is enabled.
func (h *HAL) IRQEnabled() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.irqEnabled
}

// ClearPendingIRQ discards a latched-but-undispatched interrupt.
func (h *HAL) ClearPendingIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqPending = false
}

// WaitEvent blocks until a hardware event is signaled or a short poll
// interval elapses. Spurious returns are permitted by the HAL contract.
func (h *HAL) WaitEvent() {
	timer := time.NewTimer(waitEventPoll)
	defer timer.Stop()
	select {
	case <-h.eventCh:
	case <-timer.C:
	}
}

// generate is the peripheral's generator run. It produces one keystream
// byte per latency interval, latching it into the value register, raising
// the value-ready event, and dispatching the interrupt handler while the
// line is enabled.
func (h *HAL) generate(stop chan struct{}) {
	defer h.wg.Done()

	delay := h.latency(true)
	for {
		timer := time.NewTimer(delay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		h.emitByte()
		delay = h.latency(false)
	}
}

// latency returns the generation delay for the next byte.
func (h *HAL) latency(first bool) time.Duration {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	d := h.opts.ByteLatency
	if first {
		d = h.opts.FirstByteLatency
	}
	if h.bias {
		d *= 2
	}
	return d
}

// emitByte latches the next keystream byte and raises the value-ready
// event, dispatching the handler if the interrupt line permits.
func (h *HAL) emitByte() {
	var b [1]byte
	h.mutex.Lock()
	h.stream.XORKeyStream(b[:], b[:])
	h.value = b[0]
	h.valrdy = true

	var fn func()
	if h.irqEnabled && h.handler != nil {
		fn = h.handler
		// A previously latched edge coalesces into this dispatch.
		h.irqPending = false
	} else {
		h.irqPending = true
	}
	h.mutex.Unlock()

	// Signal WaitEvent spinners.
	select {
	case h.eventCh <- struct{}{}:
	default:
	}

	if fn != nil {
		h.dispatchMutex.Lock()
		fn()
		h.dispatchMutex.Unlock()
	}
}

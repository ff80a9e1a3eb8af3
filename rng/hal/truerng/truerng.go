package truerng

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ehay64/softrng/pkg"
)

// Capture-mode baud rates (TrueRNGpro convention: the selected rate picks
// the stream, not the transfer speed).
const (
	baudWhitened = 300  // whitened/conditioned stream
	baudRaw      = 1200 // raw ADC stream
)

// readTimeout bounds one serial read so a stopped reader goroutine
// notices its stop signal promptly.
const readTimeout = 100 * time.Millisecond

// waitEventPoll bounds a single WaitEvent sleep.
const waitEventPoll = 50 * time.Microsecond

// HAL adapts a TrueRNG serial dongle to the noise-source register model.
// It implements [hal.RNG].
type HAL struct {
	portName string

	mutex    sync.Mutex
	port     serial.Port
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

	dispatchMutex sync.Mutex

	eventCh chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a backend for the dongle at portName, e.g. "/dev/ttyACM0"
// or "COM4". Call Init before use.
func New(portName string) *HAL {
	return &HAL{
		portName: portName,
		bias:     true,
		eventCh:  make(chan struct{}, 1),
	}
}

// Init opens the serial port in the capture mode matching the current
// bias-correction setting.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}

	port, err := serial.Open(h.portName, &serial.Mode{BaudRate: h.captureBaud()})
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return fmt.Errorf("%w: %s", pkg.ErrNoDevice, h.portName)
		}
		return fmt.Errorf("open %s: %w", h.portName, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}
	// Entropy flows only while DTR is asserted; idle until Start.
	if err := port.SetDTR(false); err != nil {
		port.Close()
		return fmt.Errorf("deassert DTR: %w", err)
	}

	h.port = port
	h.initDone = true

	pkg.LogDebug(pkg.ComponentHAL, "truerng dongle opened",
		"port", h.portName, "whitened", h.bias)
	return nil
}

// Close halts the reader and closes the port.
func (h *HAL) Close() error {
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return nil
	}
	h.closed = true
	h.stopLocked()
	h.handler = nil
	port := h.port
	h.port = nil
	h.mutex.Unlock()

	h.wg.Wait()
	if port != nil {
		return port.Close()
	}
	return nil
}

// Start asserts DTR, discards the stale input buffer, and begins reading.
// Idempotent.
func (h *HAL) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initDone || h.closed || h.running {
		return
	}

	if err := h.port.SetDTR(true); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "truerng assert DTR failed", "error", err)
		return
	}
	if err := h.port.ResetInputBuffer(); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "truerng flush failed", "error", err)
	}

	h.running = true
	h.stopCh = make(chan struct{})
	h.wg.Add(1)
	go h.harvest(h.stopCh, h.port)
}

// Stop deasserts DTR and halts the reader. Idempotent.
func (h *HAL) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.running {
		return
	}
	if err := h.port.SetDTR(false); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "truerng deassert DTR failed", "error", err)
	}
	h.stopLocked()
}

func (h *HAL) stopLocked() {
	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)
}

// SetBiasCorrection selects the whitened (enabled) or raw (disabled)
// capture stream. Effective at Init; applied live when the port is open.
func (h *HAL) SetBiasCorrection(enabled bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.bias = enabled
	if h.port == nil {
		return
	}
	if err := h.port.SetMode(&serial.Mode{BaudRate: h.captureBaud()}); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "truerng mode change failed", "error", err)
	}
}

// captureBaud returns the mode-select baud rate for the current stream.
func (h *HAL) captureBaud() int {
	if h.bias {
		return baudWhitened
	}
	return baudRaw
}

// ValueReady reports whether a harvested byte is latched and unread.
func (h *HAL) ValueReady() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.valrdy
}

// ReadValue returns the latched byte.
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

// SetIRQPriority records the configured priority; USB scheduling owns the
// real latency.
func (h *HAL) SetIRQPriority(priority uint8) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.priority = priority
}

// EnableIRQ enables handler dispatch.
func (h *HAL) EnableIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqEnabled = true
}

// DisableIRQ disables handler dispatch; edges latch as pending.
func (h *HAL) DisableIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqEnabled = false
}

// IRQEnabled reports whether handler dispatch is enabled.
func (h *HAL) IRQEnabled() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.irqEnabled
}

// ClearPendingIRQ discards a latched-but-undispatched edge.
func (h *HAL) ClearPendingIRQ() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.irqPending = false
}

// WaitEvent blocks until a hardware event is signaled or a short poll
// interval elapses.
func (h *HAL) WaitEvent() {
	timer := time.NewTimer(waitEventPoll)
	defer timer.Stop()
	select {
	case <-h.eventCh:
	case <-timer.C:
	}
}

// harvest reads the port one byte at a time, adapting the serial stream to
// byte-at-a-time value-register latching.
func (h *HAL) harvest(stop chan struct{}, port serial.Port) {
	defer h.wg.Done()

	var b [1]byte
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(b[:])
		if err != nil {
			pkg.LogWarn(pkg.ComponentHAL, "truerng read failed", "error", err)
			return
		}
		if n == 0 {
			continue // read timeout, re-check stop
		}

		h.emitByte(b[0])
	}
}

// emitByte latches one harvested byte and raises the value-ready event.
func (h *HAL) emitByte(b byte) {
	h.mutex.Lock()
	h.value = b
	h.valrdy = true

	var fn func()
	if h.irqEnabled && h.handler != nil {
		fn = h.handler
		h.irqPending = false
	} else {
		h.irqPending = true
	}
	h.mutex.Unlock()

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

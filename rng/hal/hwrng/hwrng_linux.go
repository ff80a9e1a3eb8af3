//go:build linux

package hwrng

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ehay64/softrng/pkg"
)

// DefaultPath is the standard hardware RNG character device.
const DefaultPath = "/dev/hwrng"

// pollTimeout bounds one readability poll so a stopped reader goroutine
// notices its stop signal promptly.
const pollTimeout = 100 // milliseconds

// waitEventPoll bounds a single WaitEvent sleep.
const waitEventPoll = 50 * time.Microsecond

// HAL adapts /dev/hwrng to the noise-source register model.
// It implements [hal.RNG].
type HAL struct {
	path string

	mutex    sync.Mutex
	fd       int
	initDone bool
	closed   bool

	// Register state
	value   byte
	valrdy  bool
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

// New creates a backend reading from path. An empty path selects
// DefaultPath. Call Init before use.
func New(path string) *HAL {
	if path == "" {
		path = DefaultPath
	}
	return &HAL{
		path:    path,
		fd:      -1,
		eventCh: make(chan struct{}, 1),
	}
}

// Init opens the hardware RNG device.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}

	fd, err := unix.Open(h.path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if err == unix.ENOENT || err == unix.ENODEV {
			return fmt.Errorf("%w: %s", pkg.ErrNoDevice, h.path)
		}
		return fmt.Errorf("open %s: %w", h.path, err)
	}

	h.fd = fd
	h.initDone = true

	pkg.LogDebug(pkg.ComponentHAL, "hwrng device opened", "path", h.path)
	return nil
}

// Close halts the reader and closes the device.
func (h *HAL) Close() error {
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return nil
	}
	h.closed = true
	h.stopLocked()
	h.handler = nil
	fd := h.fd
	h.fd = -1
	h.mutex.Unlock()

	h.wg.Wait()
	if fd >= 0 {
		return unix.Close(fd)
	}
	return nil
}

// Start begins harvesting bytes from the device. Idempotent.
func (h *HAL) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initDone || h.closed || h.running {
		return
	}

	h.running = true
	h.stopCh = make(chan struct{})
	h.wg.Add(1)
	go h.harvest(h.stopCh, h.fd)
}

// Stop halts harvesting. Idempotent.
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

// SetBiasCorrection is recorded and ignored; conditioning is the
// underlying TRNG's concern.
func (h *HAL) SetBiasCorrection(enabled bool) {
	if enabled {
		pkg.LogDebug(pkg.ComponentHAL, "bias correction delegated to TRNG hardware")
	}
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

// SetIRQPriority records the configured priority; the kernel owns the
// real interrupt.
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

// harvest reads the device one byte at a time, emulating the
// byte-at-a-time latching of a memory-mapped noise source.
func (h *HAL) harvest(stop chan struct{}, fd int) {
	defer h.wg.Done()

	var b [1]byte
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		select {
		case <-stop:
			return
		default:
		}

		fds[0].Revents = 0
		n, err := unix.Poll(fds, pollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			pkg.LogWarn(pkg.ComponentHAL, "hwrng poll failed", "error", err)
			return
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		nr, err := unix.Read(fd, b[:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			pkg.LogWarn(pkg.ComponentHAL, "hwrng read failed", "error", err)
			return
		}
		if nr == 0 {
			continue
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

package rng

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ehay64/softrng/pkg"
)

// mockHAL implements hal.RNG for testing with manually stepped interrupts.
type mockHAL struct {
	mutex sync.Mutex

	initCalled  bool
	closeCalled bool

	// Register state
	value   byte
	valrdy  bool
	bias    bool
	running bool

	// Interrupt line state
	handler     func()
	irqEnabled  bool
	priority    uint8
	irqDisables int
	pendClears  int

	starts int
	stops  int

	// autoSeq, when non-nil, latches the next byte of the sequence on
	// each WaitEvent call so busy-wait loops make progress.
	autoSeq []byte
	autoPos int
}

func newMockHAL() *mockHAL {
	return &mockHAL{}
}

func (m *mockHAL) Init(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.initCalled = true
	return nil
}

func (m *mockHAL) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockHAL) Start() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.starts++
	m.running = true
}

func (m *mockHAL) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.stops++
	m.running = false
}

func (m *mockHAL) SetBiasCorrection(enabled bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.bias = enabled
}

func (m *mockHAL) ValueReady() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.valrdy
}

func (m *mockHAL) ReadValue() byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.value
}

func (m *mockHAL) ClearValueReady() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.valrdy = false
}

func (m *mockHAL) SetHandler(fn func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.handler = fn
}

func (m *mockHAL) SetIRQPriority(priority uint8) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.priority = priority
}

func (m *mockHAL) EnableIRQ() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.irqEnabled = true
}

func (m *mockHAL) DisableIRQ() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.irqEnabled = false
	m.irqDisables++
}

func (m *mockHAL) IRQEnabled() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.irqEnabled
}

func (m *mockHAL) ClearPendingIRQ() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.pendClears++
}

func (m *mockHAL) WaitEvent() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.autoSeq != nil && !m.valrdy && m.autoPos < len(m.autoSeq) {
		m.value = m.autoSeq[m.autoPos]
		m.autoPos++
		m.valrdy = true
	}
}

// raise latches one byte and fires a value-ready edge, invoking the
// handler if the interrupt line is enabled. Calls are the test's stand-in
// for hardware interrupts and must come from one goroutine at a time.
func (m *mockHAL) raise(b byte) {
	m.mutex.Lock()
	m.value = b
	m.valrdy = true
	fn := m.handler
	enabled := m.irqEnabled
	m.mutex.Unlock()

	if enabled && fn != nil {
		fn()
	}
}

func (m *mockHAL) snapshot() mockHAL {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return mockHAL{
		initCalled:  m.initCalled,
		closeCalled: m.closeCalled,
		valrdy:      m.valrdy,
		bias:        m.bias,
		running:     m.running,
		irqEnabled:  m.irqEnabled,
		priority:    m.priority,
		starts:      m.starts,
		stops:       m.stops,
	}
}

// testConfig returns a config with tiny pools and disarmed watermarks so
// tests can count generator triggers exactly.
func testConfig(isrLen, thrLen int) Config {
	return Config{
		ISRBufLen:      isrLen,
		ThrBufLen:      thrLen,
		ISRThreshold:   0,
		ThrThreshold:   0,
		BiasCorrection: true,
		IRQPriority:    3,
	}
}

func openTestDevice(t *testing.T, m *mockHAL, cfg Config) *Device {
	t.Helper()
	d, err := Open(context.Background(), m, cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenInitSequence(t *testing.T) {
	m := newMockHAL()
	m.valrdy = true // stale ready flag from before init

	openTestDevice(t, m, testConfig(4, 8))

	s := m.snapshot()
	if !s.initCalled {
		t.Error("Open did not call HAL Init")
	}
	if !s.bias {
		t.Error("bias correction not applied")
	}
	if s.valrdy {
		t.Error("stale value-ready flag not cleared")
	}
	if s.priority != 3 {
		t.Errorf("IRQ priority = %d, want 3", s.priority)
	}
	if !s.irqEnabled {
		t.Error("interrupt line not enabled")
	}
	if s.starts != 1 {
		t.Errorf("generator starts = %d, want 1", s.starts)
	}
	m.mutex.Lock()
	installed := m.handler != nil
	m.mutex.Unlock()
	if !installed {
		t.Error("interrupt handler not installed")
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(4, 8)
	cfg.ISRBufLen = 0

	if _, err := Open(context.Background(), newMockHAL(), cfg); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Open(invalid) error = %v, want ErrInvalidParameter", err)
	}
}

func TestHandlerSpuriousEntry(t *testing.T) {
	m := newMockHAL()
	d := openTestDevice(t, m, testConfig(4, 8))

	// Edge with no byte latched: the handler must return without effect.
	m.mutex.Lock()
	m.valrdy = false
	fn := m.handler
	m.mutex.Unlock()
	fn()

	if got := d.Stats().Sampled; got != 0 {
		t.Errorf("spurious edge sampled %d bytes", got)
	}
}

func TestHandlerBiasesISRTier(t *testing.T) {
	m := newMockHAL()
	d := openTestDevice(t, m, testConfig(2, 4))

	// While the ISR tier has room, bytes stay there and the thread tier
	// sees nothing.
	m.raise(0x01)
	if occ := d.isr.occupancy(); occ != 1 {
		t.Errorf("ISR tier occupancy = %d, want 1", occ)
	}
	if occ := d.thr.occupancy(); occ != 0 {
		t.Errorf("thread tier occupancy = %d, want 0", occ)
	}

	// Second byte fills the ISR tier; still nothing spills.
	m.raise(0x02)
	if !d.isr.full() {
		t.Error("ISR tier not full after second byte")
	}
	if occ := d.thr.occupancy(); occ != 0 {
		t.Errorf("thread tier occupancy = %d, want 0", occ)
	}

	// With the ISR tier full, subsequent bytes land in the thread tier.
	m.raise(0x03)
	m.raise(0x04)
	if occ := d.thr.occupancy(); occ != 2 {
		t.Errorf("thread tier occupancy = %d, want 2", occ)
	}

	// ISR-tier drain returns the first bytes in production order.
	buf := make([]byte, 2)
	if n := d.GetEntropyISR(buf, 0); n != 2 {
		t.Fatalf("GetEntropyISR() = %d, want 2", n)
	}
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("ISR tier bytes = %x, want 0102", buf)
	}
}

func TestGeneratorStopsOnlyWhenBothTiersFull(t *testing.T) {
	m := newMockHAL()
	d := openTestDevice(t, m, testConfig(2, 2))

	// Fill the ISR tier (2 usable): no stop while the thread tier is empty.
	m.raise(0x01)
	m.raise(0x02)
	if s := m.snapshot(); s.stops != 0 {
		t.Fatalf("stops = %d after ISR tier filled, want 0", s.stops)
	}

	// First spill byte: thread tier holds 1 of 2, still accepting.
	m.raise(0x03)
	if s := m.snapshot(); s.stops != 0 {
		t.Fatalf("stops = %d with thread tier accepting, want 0", s.stops)
	}

	// Second spill byte fills the thread tier: both tiers full, one stop.
	m.raise(0x04)
	if s := m.snapshot(); s.stops != 1 {
		t.Fatalf("stops = %d after both tiers full, want 1", s.stops)
	}
	if d.Stats().ISRDropped != 2 {
		t.Errorf("ISR drops = %d, want 2", d.Stats().ISRDropped)
	}

	// A further byte with both tiers saturated drops and re-issues stop;
	// the trigger is idempotent at the hardware level.
	m.raise(0x05)
	if d.Stats().ThrDropped != 1 {
		t.Errorf("thread drops = %d, want 1", d.Stats().ThrDropped)
	}
}

func TestWatermarkRestartsGeneration(t *testing.T) {
	m := newMockHAL()
	cfg := testConfig(2, 4)
	cfg.ThrThreshold = 2
	d := openTestDevice(t, m, cfg)

	// Fill ISR tier then put 3 bytes into the 4-byte thread tier.
	for b := byte(1); b <= 5; b++ {
		m.raise(b)
	}
	startsBefore := m.snapshot().starts

	// Draining to occupancy 2 does not cross the strict threshold.
	buf := make([]byte, 1)
	if err := d.GetEntropy(buf); err != nil {
		t.Fatal(err)
	}
	if got := m.snapshot().starts; got != startsBefore {
		t.Errorf("starts = %d after drain to threshold, want %d", got, startsBefore)
	}

	// One more byte leaves occupancy 1 < 2: exactly one new start.
	if err := d.GetEntropy(buf); err != nil {
		t.Fatal(err)
	}
	if got := m.snapshot().starts; got != startsBefore+1 {
		t.Errorf("starts = %d after crossing, want %d", got, startsBefore+1)
	}
}

func TestCloseIsIdempotentAndTearsDown(t *testing.T) {
	m := newMockHAL()
	d := openTestDevice(t, m, testConfig(2, 4))

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}

	s := m.snapshot()
	if !s.closeCalled {
		t.Error("HAL not closed")
	}
	if s.irqEnabled {
		t.Error("interrupt line still enabled after Close")
	}
	if s.running {
		t.Error("generation still running after Close")
	}
	m.mutex.Lock()
	installed := m.handler != nil
	m.mutex.Unlock()
	if installed {
		t.Error("interrupt handler still installed after Close")
	}
}

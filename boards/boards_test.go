package boards

import (
	"errors"
	"testing"

	"github.com/ehay64/softrng/pkg"
)

// recordingMux implements PinMux and records every assignment.
type recordingMux struct {
	assigned map[uint16]uint32
	failPin  uint16
	failErr  error
}

func newRecordingMux() *recordingMux {
	return &recordingMux{assigned: make(map[uint16]uint32)}
}

func (m *recordingMux) SetFunction(pin uint16, function uint32) error {
	if m.failErr != nil && pin == m.failPin {
		return m.failErr
	}
	m.assigned[pin] = function
	return nil
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"nucleo_f091rc", "stm32mp157c_dk2"} {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", name, err)
		}
		if b.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, b.Name)
		}
		if len(b.Pins) == 0 {
			t.Errorf("Lookup(%q) returned empty pin table", name)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("imaginary_board"); !errors.Is(err, pkg.ErrNotSupported) {
		t.Errorf("Lookup(unknown) error = %v, want ErrNotSupported", err)
	}
}

func TestApply(t *testing.T) {
	b, err := Lookup("stm32mp157c_dk2")
	if err != nil {
		t.Fatal(err)
	}

	mux := newRecordingMux()
	if err := b.Apply(mux); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(mux.assigned) != len(b.Pins) {
		t.Errorf("Apply() assigned %d pins, want %d", len(mux.assigned), len(b.Pins))
	}
	for _, pc := range b.Pins {
		if got, ok := mux.assigned[pc.Pin]; !ok || got != pc.Function {
			t.Errorf("pin 0x%03x assigned %#x, want %#x", pc.Pin, got, pc.Function)
		}
	}
}

func TestApplyStopsOnError(t *testing.T) {
	b, err := Lookup("nucleo_f091rc")
	if err != nil {
		t.Fatal(err)
	}

	mux := newRecordingMux()
	mux.failPin = b.Pins[2].Pin
	mux.failErr = pkg.ErrIO

	if err := b.Apply(mux); !errors.Is(err, pkg.ErrIO) {
		t.Fatalf("Apply() error = %v, want ErrIO", err)
	}
	if len(mux.assigned) != 2 {
		t.Errorf("Apply() assigned %d pins before failing, want 2", len(mux.assigned))
	}
}

package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsDistinct(t *testing.T) {
	errs := []error{
		ErrNoBufferSpace,
		ErrInvalidParameter,
		ErrAlreadyRunning,
		ErrNotRunning,
		ErrClosed,
		ErrNoDevice,
		ErrNotSupported,
		ErrTimeout,
		ErrIO,
	}

	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}

func TestSentinelErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("open noise source: %w", ErrNoDevice)
	if !errors.Is(wrapped, ErrNoDevice) {
		t.Errorf("errors.Is failed to match wrapped ErrNoDevice")
	}
	if errors.Is(wrapped, ErrIO) {
		t.Errorf("wrapped ErrNoDevice matched ErrIO")
	}
}

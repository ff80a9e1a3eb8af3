package rng

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ehay64/softrng/pkg"
)

// Config holds the init-time configuration surface of the entropy device.
// All values are fixed once the device is opened; there is no runtime
// mutation.
type Config struct {
	// ISRBufLen is the usable byte capacity of the ISR-tier pool.
	ISRBufLen int `yaml:"isr_buf_len"`

	// ThrBufLen is the usable byte capacity of the thread-tier pool.
	ThrBufLen int `yaml:"thr_buf_len"`

	// ISRThreshold is the ISR-tier occupancy below which generation resumes.
	ISRThreshold int `yaml:"isr_threshold"`

	// ThrThreshold is the thread-tier occupancy below which generation resumes.
	ThrThreshold int `yaml:"thr_threshold"`

	// BiasCorrection enables the hardware bias-correction mode.
	// Slows generation but removes bit bias on sources that support it.
	BiasCorrection bool `yaml:"bias_correction"`

	// IRQPriority is the value-ready interrupt priority handed to the HAL.
	IRQPriority uint8 `yaml:"irq_priority"`
}

// DefaultConfig returns the configuration used when no config file is
// provided. The small ISR tier keeps interrupt-context reads cheap; the
// larger thread tier amortizes generator startup cost for bulk readers.
func DefaultConfig() Config {
	return Config{
		ISRBufLen:      16,
		ThrBufLen:      64,
		ISRThreshold:   4,
		ThrThreshold:   8,
		BiasCorrection: true,
		IRQPriority:    2,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.ISRBufLen < 1 {
		return fmt.Errorf("%w: isr_buf_len %d, need at least 1",
			pkg.ErrInvalidParameter, c.ISRBufLen)
	}
	if c.ThrBufLen < 1 {
		return fmt.Errorf("%w: thr_buf_len %d, need at least 1",
			pkg.ErrInvalidParameter, c.ThrBufLen)
	}
	// Pool capacity is usable length + 1; thresholds must stay below it.
	if c.ISRThreshold < 0 || c.ISRThreshold > c.ISRBufLen {
		return fmt.Errorf("%w: isr_threshold %d with isr_buf_len %d",
			pkg.ErrInvalidParameter, c.ISRThreshold, c.ISRBufLen)
	}
	if c.ThrThreshold < 0 || c.ThrThreshold > c.ThrBufLen {
		return fmt.Errorf("%w: thr_threshold %d with thr_buf_len %d",
			pkg.ErrInvalidParameter, c.ThrThreshold, c.ThrBufLen)
	}
	return nil
}

// LoadConfig reads a YAML config file, overlaying its values onto the
// defaults. Missing keys keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

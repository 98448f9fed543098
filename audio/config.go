package audio

import (
	"time"

	"github.com/gopxl/beep"
)

// Config configures the output device.
type Config struct {
	// SampleRate of the mixer. Sounds recorded at another rate are
	// resampled. Default: 48000.
	SampleRate beep.SampleRate
	// BufferDuration is the speaker buffer length. Longer buffers survive
	// stalls better at the cost of latency. Default: 100ms.
	BufferDuration time.Duration
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{SampleRate: 48000, BufferDuration: 100 * time.Millisecond}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.BufferDuration <= 0 {
		c.BufferDuration = d.BufferDuration
	}
	return c
}

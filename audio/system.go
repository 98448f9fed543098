// Package audio plays WAV sounds through a single mixer. A System owns the
// mixer and, once opened, the speaker. Sounds are either decoded up front
// into memory (StaticSound) or decoded while they play (StreamingSound).
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// ErrClosed is returned when playing on a closed System.
var ErrClosed = errors.New("audio: system closed")

// System mixes every playing sound. Until Open is called nothing reaches a
// device and the mix can be pulled with Stream instead.
type System struct {
	cfg    Config
	logger *slog.Logger

	// mu guards opened and closed, and the mixer while no device is open.
	// With a device open the mixer is guarded by the speaker lock instead.
	mu     sync.Mutex
	opened bool
	closed bool
	mixer  *beep.Mixer
}

// NewSystem creates a system. A nil logger uses slog.Default.
func NewSystem(cfg Config, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{cfg: cfg.withDefaults(), logger: logger, mixer: &beep.Mixer{}}
}

// SampleRate returns the mixer's sample rate.
func (s *System) SampleRate() beep.SampleRate { return s.cfg.SampleRate }

// Open starts the speaker. Opening twice is a no-op.
func (s *System) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.opened {
		return nil
	}
	sr := s.cfg.SampleRate
	if err := speaker.Init(sr, sr.N(s.cfg.BufferDuration)); err != nil {
		s.logger.Error("audio device unavailable", "error", err)
		return fmt.Errorf("open audio device: %w", err)
	}
	speaker.Play(s.mixer)
	s.opened = true
	s.logger.Info("audio opened", "sampleRate", int(sr), "buffer", s.cfg.BufferDuration)
	return nil
}

// Close silences every sound and releases the speaker.
func (s *System) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.opened {
		speaker.Clear()
		speaker.Close()
		s.opened = false
	} else {
		s.mixer.Clear()
	}
	s.logger.Info("audio closed")
}

// Playing returns the number of streams in the mix.
func (s *System) Playing() int {
	n := 0
	s.do(func() { n = s.mixer.Len() })
	return n
}

// Stream pulls mixed samples when no device is open. It is how tests and
// offline renderers read the mix.
func (s *System) Stream(samples [][2]float64) (int, bool) {
	var (
		n  int
		ok bool
	)
	s.do(func() { n, ok = s.mixer.Stream(samples) })
	return n, ok
}

// do runs fn with exclusive access to the mixer and everything in it.
func (s *System) do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn()
}

// add puts a stream into the mix.
func (s *System) add(st beep.Streamer) error {
	var err error
	s.do(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		s.mixer.Add(st)
	})
	return err
}

// fit resamples st from rate to the system rate when they differ.
func (s *System) fit(rate beep.SampleRate, st beep.Streamer) beep.Streamer {
	if rate == s.cfg.SampleRate {
		return st
	}
	return beep.Resample(4, rate, s.cfg.SampleRate, st)
}

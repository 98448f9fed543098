package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const testRate = beep.SampleRate(8000)

// writeTone writes a WAV of n stereo samples at a constant level.
func writeTone(t *testing.T, dir, name string, n int, level float64) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tone := beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{level, level}
		}
		return len(samples), true
	}))
	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, tone, format); err != nil {
		t.Fatal(err)
	}
}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	sys := NewSystem(Config{SampleRate: testRate}, nil)
	t.Cleanup(sys.Close)
	return sys
}

// pull reads n samples of the mix and returns the peak absolute level.
func pull(sys *System, n int) float64 {
	buf := make([][2]float64, n)
	sys.Stream(buf)
	peak := 0.0
	for _, s := range buf {
		peak = max(peak, math.Abs(s[0]), math.Abs(s[1]))
	}
	return peak
}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", c.SampleRate)
	}
	if c.BufferDuration != 100*time.Millisecond {
		t.Errorf("BufferDuration = %v, want 100ms", c.BufferDuration)
	}
}

func TestStaticSoundPlaysIntoMix(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 800, 0.5)
	sys := newTestSystem(t)

	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatalf("LoadStatic: %v", err)
	}
	if got := s.Duration(); got != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", got)
	}
	if got := s.State(); got != Stopped {
		t.Errorf("State before Play = %v, want stopped", got)
	}
	if err := s.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := s.State(); got != Playing {
		t.Errorf("State = %v, want playing", got)
	}
	if peak := pull(sys, 100); !approx(peak, 0.5) {
		t.Errorf("peak = %v, want 0.5", peak)
	}
	if got := s.Position(); got != 100 {
		t.Errorf("Position = %d, want 100", got)
	}
}

func TestStaticSoundVolume(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 800, 0.5)
	sys := newTestSystem(t)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Play(0.5); err != nil {
		t.Fatal(err)
	}
	if peak := pull(sys, 100); !approx(peak, 0.25) {
		t.Errorf("peak at half volume = %v, want 0.25", peak)
	}
	s.Stop()

	if err := s.Play(0); err != nil {
		t.Fatal(err)
	}
	if peak := pull(sys, 100); peak != 0 {
		t.Errorf("peak at zero volume = %v, want 0", peak)
	}
}

func TestStaticSoundPauseResumeStop(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 800, 0.5)
	sys := newTestSystem(t)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Play(1); err != nil {
		t.Fatal(err)
	}

	s.Pause()
	if got := s.State(); got != Paused {
		t.Errorf("State = %v, want paused", got)
	}
	if peak := pull(sys, 100); peak != 0 {
		t.Errorf("peak while paused = %v, want 0", peak)
	}
	if got := s.Position(); got != 0 {
		t.Errorf("Position while paused = %d, want 0", got)
	}

	s.Resume()
	if peak := pull(sys, 100); !approx(peak, 0.5) {
		t.Errorf("peak after resume = %v, want 0.5", peak)
	}

	s.Stop()
	if got := s.State(); got != Stopped {
		t.Errorf("State = %v, want stopped", got)
	}
	if peak := pull(sys, 100); peak != 0 {
		t.Errorf("peak after stop = %v, want 0", peak)
	}
}

func TestStaticSoundEndsOnItsOwn(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 80, 0.5)
	sys := newTestSystem(t)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Play(1); err != nil {
		t.Fatal(err)
	}
	pull(sys, 200)
	if got := s.State(); got != Stopped {
		t.Errorf("State after the end = %v, want stopped", got)
	}
}

func TestStaticSoundLoops(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 80, 0.5)
	sys := newTestSystem(t)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}
	s.SetLoop(true)
	if err := s.Play(1); err != nil {
		t.Fatal(err)
	}
	pull(sys, 200)
	if got := s.State(); got != Playing {
		t.Errorf("State of looping sound = %v, want playing", got)
	}
	if peak := pull(sys, 50); !approx(peak, 0.5) {
		t.Errorf("peak on a later loop = %v, want 0.5", peak)
	}
}

func TestStreamingSound(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "music.wav", 800, 0.5)
	sys := newTestSystem(t)

	s := NewStreaming(sys, os.DirFS(dir), "music.wav")
	if err := s.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if peak := pull(sys, 100); !approx(peak, 0.5) {
		t.Errorf("peak = %v, want 0.5", peak)
	}
	if got := s.Position(); got != 100 {
		t.Errorf("Position = %d, want 100", got)
	}

	// Play again restarts from the beginning.
	if err := s.Play(1); err != nil {
		t.Fatal(err)
	}
	if got := s.Position(); got != 0 {
		t.Errorf("Position after restart = %d, want 0", got)
	}
	// The stopped playback leaves the mix on the next pull.
	pull(sys, 10)
	if got := sys.Playing(); got != 1 {
		t.Errorf("Playing = %d, want 1", got)
	}

	s.Stop()
	if got := s.State(); got != Stopped {
		t.Errorf("State = %v, want stopped", got)
	}
}

func TestStreamingSoundMissingFile(t *testing.T) {
	sys := newTestSystem(t)
	s := NewStreaming(sys, os.DirFS(t.TempDir()), "nope.wav")
	if err := s.Play(1); err == nil {
		t.Error("Play of a missing file succeeded")
	}
	if got := s.State(); got != Stopped {
		t.Errorf("State = %v, want stopped", got)
	}
}

func TestPlayAfterClose(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 80, 0.5)
	sys := NewSystem(Config{SampleRate: testRate}, nil)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}
	sys.Close()
	if err := s.Play(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Close = %v, want ErrClosed", err)
	}
	if err := sys.Open(); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after Close = %v, want ErrClosed", err)
	}
}

func TestResampleToSystemRate(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, dir, "tone.wav", 800, 0.5)
	sys := NewSystem(Config{SampleRate: testRate * 2}, nil)
	t.Cleanup(sys.Close)
	s, err := LoadStatic(sys, os.DirFS(dir), "tone.wav")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Play(1); err != nil {
		t.Fatal(err)
	}
	pull(sys, 100)
	if peak := pull(sys, 100); !approx(peak, 0.5) {
		t.Errorf("peak after resampling = %v, want 0.5", peak)
	}
}

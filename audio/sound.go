package audio

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
)

// State is the playback state of a sound.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Sound is something a System can play.
type Sound interface {
	// Play starts the sound at volume, where 1 is unchanged and 0 silent.
	Play(volume float64) error
	Pause()
	Resume()
	Stop()
	State() State
	// Position is the sample offset of the most recent playback.
	Position() int
}

// voice is one playing instance of a sound.
type voice struct {
	ctrl  *beep.Ctrl
	vol   *effects.Volume
	pos   beep.StreamSeeker
	ended atomic.Bool
}

func newVoice(src beep.Streamer, pos beep.StreamSeeker, volume float64) *voice {
	v := &voice{pos: pos}
	v.vol = &effects.Volume{Streamer: src, Base: 2}
	setGain(v.vol, volume)
	v.ctrl = &beep.Ctrl{Streamer: beep.Seq(v.vol, beep.Callback(func() { v.ended.Store(true) }))}
	return v
}

// setGain maps a linear volume onto an effects.Volume.
func setGain(v *effects.Volume, volume float64) {
	if volume <= 0 {
		v.Volume, v.Silent = 0, true
		return
	}
	v.Volume, v.Silent = math.Log2(volume), false
}

// The methods below run inside System.do.

func (v *voice) state() State {
	switch {
	case v.ended.Load():
		return Stopped
	case v.ctrl.Paused:
		return Paused
	}
	return Playing
}

func (v *voice) stop() {
	v.ctrl.Streamer = nil
	v.ended.Store(true)
}

func (v *voice) position() int {
	if v.pos == nil {
		return 0
	}
	return v.pos.Position()
}

// StaticSound is decoded into memory once and can be played any number of
// times, overlapping. Pause, Resume and Stop act on every playback.
type StaticSound struct {
	sys  *System
	name string
	buf  *beep.Buffer

	mu     sync.Mutex
	voices []*voice
	loop   bool
}

// LoadStatic decodes the WAV file name from fsys.
func LoadStatic(sys *System, fsys fs.FS, name string) (*StaticSound, error) {
	f, err := fsys.Open(name)
	if err != nil {
		sys.logger.Error("sound load failed", "sound", name, "error", err)
		return nil, fmt.Errorf("load sound %s: %w", name, err)
	}
	defer f.Close()
	return DecodeStatic(sys, f, name)
}

// DecodeStatic decodes WAV data from r.
func DecodeStatic(sys *System, r io.Reader, name string) (*StaticSound, error) {
	st, format, err := wav.Decode(r)
	if err != nil {
		sys.logger.Error("sound decode failed", "sound", name, "error", err)
		return nil, fmt.Errorf("decode sound %s: %w", name, err)
	}
	defer st.Close()
	buf := beep.NewBuffer(format)
	buf.Append(st)
	sys.logger.Debug("static sound loaded", "sound", name, "samples", buf.Len())
	return &StaticSound{sys: sys, name: name, buf: buf}, nil
}

// Name returns the name the sound was loaded under.
func (s *StaticSound) Name() string { return s.name }

// Duration returns the length of one playback.
func (s *StaticSound) Duration() time.Duration {
	return s.buf.Format().SampleRate.D(s.buf.Len())
}

// SetLoop makes later playbacks repeat until stopped.
func (s *StaticSound) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// Play starts a new playback alongside any running ones.
func (s *StaticSound) Play(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeker := s.buf.Streamer(0, s.buf.Len())
	var src beep.Streamer = seeker
	if s.loop {
		src = beep.Loop(-1, seeker)
	}
	v := newVoice(s.sys.fit(s.buf.Format().SampleRate, src), seeker, volume)

	live := s.voices[:0]
	for _, old := range s.voices {
		if !old.ended.Load() {
			live = append(live, old)
		}
	}
	clear(s.voices[len(live):])
	s.voices = append(live, v)
	return s.sys.add(v.ctrl)
}

func (s *StaticSound) each(fn func(v *voice)) {
	s.mu.Lock()
	voices := append([]*voice(nil), s.voices...)
	s.mu.Unlock()
	s.sys.do(func() {
		for _, v := range voices {
			fn(v)
		}
	})
}

// Pause pauses every playback.
func (s *StaticSound) Pause() { s.each(func(v *voice) { v.ctrl.Paused = true }) }

// Resume continues every paused playback.
func (s *StaticSound) Resume() { s.each(func(v *voice) { v.ctrl.Paused = false }) }

// Stop ends every playback.
func (s *StaticSound) Stop() { s.each((*voice).stop) }

func (s *StaticSound) last() *voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.voices) == 0 {
		return nil
	}
	return s.voices[len(s.voices)-1]
}

// State reports the state of the most recent playback.
func (s *StaticSound) State() State {
	v := s.last()
	if v == nil {
		return Stopped
	}
	st := Stopped
	s.sys.do(func() { st = v.state() })
	return st
}

// Position returns the sample offset of the most recent playback.
func (s *StaticSound) Position() int {
	v := s.last()
	if v == nil {
		return 0
	}
	pos := 0
	s.sys.do(func() { pos = v.position() })
	return pos
}

// StreamingSound decodes its WAV file while it plays, so only a small
// window of it is ever in memory. Only one playback runs at a time; Play
// restarts it from the beginning.
type StreamingSound struct {
	sys  *System
	fsys fs.FS
	name string

	mu     sync.Mutex
	v      *voice
	stream beep.StreamSeekCloser
	loop   bool
}

// NewStreaming prepares name from fsys for streaming. The file is opened on
// every Play.
func NewStreaming(sys *System, fsys fs.FS, name string) *StreamingSound {
	return &StreamingSound{sys: sys, fsys: fsys, name: name}
}

// Name returns the file the sound streams from.
func (s *StreamingSound) Name() string { return s.name }

// SetLoop makes later playbacks repeat until stopped.
func (s *StreamingSound) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// Play stops any running playback and starts again from the beginning.
func (s *StreamingSound) Play(volume float64) error {
	s.Stop()

	f, err := s.fsys.Open(s.name)
	if err != nil {
		s.sys.logger.Error("sound open failed", "sound", s.name, "error", err)
		return fmt.Errorf("open sound %s: %w", s.name, err)
	}
	st, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		s.sys.logger.Error("sound decode failed", "sound", s.name, "error", err)
		return fmt.Errorf("decode sound %s: %w", s.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var src beep.Streamer = st
	if s.loop {
		src = beep.Loop(-1, st)
	}
	s.v = newVoice(s.sys.fit(format.SampleRate, src), st, volume)
	s.stream = st
	if err := s.sys.add(s.v.ctrl); err != nil {
		st.Close()
		s.v, s.stream = nil, nil
		return err
	}
	s.sys.logger.Debug("streaming sound started", "sound", s.name)
	return nil
}

func (s *StreamingSound) current() *voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Pause pauses the playback.
func (s *StreamingSound) Pause() {
	if v := s.current(); v != nil {
		s.sys.do(func() { v.ctrl.Paused = true })
	}
}

// Resume continues a paused playback.
func (s *StreamingSound) Resume() {
	if v := s.current(); v != nil {
		s.sys.do(func() { v.ctrl.Paused = false })
	}
}

// Stop ends the playback and closes the file.
func (s *StreamingSound) Stop() {
	s.mu.Lock()
	v, st := s.v, s.stream
	s.v, s.stream = nil, nil
	s.mu.Unlock()
	if v == nil {
		return
	}
	s.sys.do(v.stop)
	if err := st.Close(); err != nil {
		s.sys.logger.Warn("closing sound stream", "sound", s.name, "error", err)
	}
}

// State reports whether the sound is playing, paused or stopped.
func (s *StreamingSound) State() State {
	v := s.current()
	if v == nil {
		return Stopped
	}
	st := Stopped
	s.sys.do(func() { st = v.state() })
	return st
}

// Position returns the sample offset into the file.
func (s *StreamingSound) Position() int {
	v := s.current()
	if v == nil {
		return 0
	}
	pos := 0
	s.sys.do(func() { pos = v.position() })
	return pos
}

package toxicity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ErrIntervalRunning is returned by Interval.Start while the interval is
// still animating.
var ErrIntervalRunning = errors.New("toxicity: interval already running")

// IntervalState is the life cycle position of an Interval.
type IntervalState int32

const (
	IntervalPending IntervalState = iota
	IntervalRunning
	IntervalDone
)

func (s IntervalState) String() string {
	switch s {
	case IntervalPending:
		return "pending"
	case IntervalRunning:
		return "running"
	case IntervalDone:
		return "done"
	}
	return fmt.Sprintf("IntervalState(%d)", int32(s))
}

// Interval eases one or more values towards their targets over a fixed
// duration. The values are read when the interval starts and written through
// a setter each time its manager advances. An Interval is reusable: starting
// it again after it finished replays it from the values current at that time.
type Interval struct {
	name     string
	duration time.Duration
	easing   ease.TweenFunc
	from     func() ([]float64, error)
	to       []float64
	set      func(v []float64)

	mu        sync.Mutex
	state     IntervalState
	tweens    []*gween.Tween
	startedAt time.Duration
	elapsed   time.Duration
	done      chan struct{}
	onEnd     []func()
}

func newInterval(name string, d time.Duration, fn ease.TweenFunc, from func() ([]float64, error), to []float64, set func([]float64)) *Interval {
	if fn == nil {
		fn = ease.Linear
	}
	if d < 0 {
		d = 0
	}
	return &Interval{
		name:     name,
		duration: d,
		easing:   fn,
		from:     from,
		to:       to,
		set:      set,
		done:     make(chan struct{}),
	}
}

// NewValueInterval eases a single value from `from` to `to`, passing every
// intermediate value to set.
func NewValueInterval(name string, from, to float64, d time.Duration, fn ease.TweenFunc, set func(v float64)) *Interval {
	return newInterval(name, d, fn,
		func() ([]float64, error) { return []float64{from}, nil },
		[]float64{to},
		func(v []float64) { set(v[0]) })
}

// NewPosInterval moves n from wherever it is when the interval starts to
// the local position to.
func NewPosInterval(n *Node, to Point, d time.Duration, fn ease.TweenFunc) *Interval {
	return newInterval("pos:"+nodeName(n), d, fn,
		func() ([]float64, error) {
			if n == nil {
				return nil, errors.New("toxicity: position interval without node")
			}
			p := n.Position()
			return []float64{p.X, p.Y}, nil
		},
		[]float64{to.X, to.Y},
		func(v []float64) { n.SetXY(v[0], v[1]) })
}

// NewAngleInterval turns n to the local angle to, in degrees.
func NewAngleInterval(n *Node, to float64, d time.Duration, fn ease.TweenFunc) *Interval {
	return newInterval("angle:"+nodeName(n), d, fn,
		func() ([]float64, error) {
			if n == nil {
				return nil, errors.New("toxicity: angle interval without node")
			}
			return []float64{n.Angle()}, nil
		},
		[]float64{to},
		func(v []float64) { n.SetAngle(v[0]) })
}

// Name identifies the interval in logs.
func (i *Interval) Name() string { return i.name }

// Duration returns how long the interval animates.
func (i *Interval) Duration() time.Duration { return i.duration }

// State returns the interval's current state.
func (i *Interval) State() IntervalState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Done reports whether the interval has run to completion.
func (i *Interval) Done() bool {
	return i.State() == IntervalDone
}

// OnEnd registers fn to run once the interval finishes. Callbacks run on the
// goroutine that advanced the manager, in registration order.
func (i *Interval) OnEnd(fn func()) *Interval {
	i.mu.Lock()
	i.onEnd = append(i.onEnd, fn)
	i.mu.Unlock()
	return i
}

// Start reads the starting values and hands the interval to m. It fails
// when the interval is already running or its values cannot be read; in the
// latter case the interval stays pending.
func (i *Interval) Start(m *IntervalManager) error {
	i.mu.Lock()
	if i.state == IntervalRunning {
		i.mu.Unlock()
		return ErrIntervalRunning
	}
	from, err := i.from()
	if err == nil && len(from) != len(i.to) {
		err = fmt.Errorf("toxicity: interval %q has %d start values for %d targets", i.name, len(from), len(i.to))
	}
	if err != nil {
		i.state = IntervalPending
		i.mu.Unlock()
		m.logger.Debug("could not start interval", "interval", i.name, "error", err)
		return err
	}

	secs := float32(i.duration.Seconds())
	i.tweens = i.tweens[:0]
	for k := range from {
		i.tweens = append(i.tweens, gween.New(float32(from[k]), float32(i.to[k]), secs, i.easing))
	}
	if i.state == IntervalDone {
		i.done = make(chan struct{})
	}
	i.state = IntervalRunning
	i.startedAt = m.clock.Now()
	i.elapsed = 0
	i.mu.Unlock()

	m.add(i)
	m.logger.Debug("interval started", "interval", i.name, "duration", i.duration)
	return nil
}

// Wait blocks until the interval finishes or ctx is done. Waiting on a
// pending interval blocks until it is started and finishes.
func (i *Interval) Wait(ctx context.Context) error {
	i.mu.Lock()
	done := i.done
	i.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step writes the values for time now and reports whether the interval
// finished.
func (i *Interval) step(now time.Duration) bool {
	i.mu.Lock()
	if i.state != IntervalRunning {
		i.mu.Unlock()
		return i.state == IntervalDone
	}
	elapsed := min(max(now-i.startedAt, 0), i.duration)
	finished := elapsed >= i.duration

	vals := make([]float64, len(i.tweens))
	if finished {
		copy(vals, i.to)
	} else {
		dt := float32((elapsed - i.elapsed).Seconds())
		for k, tw := range i.tweens {
			v, _ := tw.Update(dt)
			vals[k] = float64(v)
		}
	}
	i.elapsed = elapsed

	var (
		callbacks []func()
		done      chan struct{}
	)
	if finished {
		i.state = IntervalDone
		callbacks = i.onEnd
		done = i.done
	}
	i.mu.Unlock()

	i.set(vals)
	for _, fn := range callbacks {
		fn()
	}
	// Waiters wake only after the final values and callbacks are in.
	if done != nil {
		close(done)
	}
	return finished
}

// IntervalManager advances a set of running intervals against a clock. The
// window advances its manager once per frame; a standalone manager can be
// driven by Run on its own goroutine.
type IntervalManager struct {
	clock  Clock
	logger *slog.Logger

	mu     sync.Mutex
	active []*Interval
}

// NewIntervalManager creates a manager timed by clock. A nil clock uses
// the monotonic system clock and a nil logger uses slog.Default.
func NewIntervalManager(clock Clock, logger *slog.Logger) *IntervalManager {
	if clock == nil {
		clock = newMonotonicClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalManager{clock: clock, logger: logger}
}

// Animate creates and starts a position interval for n.
func (m *IntervalManager) Animate(n *Node, to Point, d time.Duration, fn ease.TweenFunc) (*Interval, error) {
	i := NewPosInterval(n, to, d, fn)
	if err := i.Start(m); err != nil {
		return nil, err
	}
	return i, nil
}

// Len returns the number of running intervals.
func (m *IntervalManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *IntervalManager) add(i *Interval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.active {
		if a == i {
			return
		}
	}
	m.active = append(m.active, i)
}

// Step advances every running interval to the clock's current time.
func (m *IntervalManager) Step() {
	m.advance(m.clock.Now())
}

// advance steps every interval to now and drops the finished ones. It
// returns how many are still running.
func (m *IntervalManager) advance(now time.Duration) int {
	m.mu.Lock()
	snapshot := make([]*Interval, len(m.active))
	copy(snapshot, m.active)
	m.mu.Unlock()

	var finished []*Interval
	for _, i := range snapshot {
		if i.step(now) {
			finished = append(finished, i)
		}
	}
	if len(finished) == 0 {
		return len(snapshot)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.active[:0]
	for _, a := range m.active {
		if !a.Done() {
			kept = append(kept, a)
		}
	}
	clear(m.active[len(kept):])
	m.active = kept
	return len(m.active)
}

// Run advances the manager every period until ctx is done, then returns
// ctx.Err().
func (m *IntervalManager) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			m.Step()
		}
	}
}

package toxicity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

func newTestManager() (*IntervalManager, *ManualClock) {
	clk := &ManualClock{}
	return NewIntervalManager(clk, quietLogger()), clk
}

func TestValueInterval(t *testing.T) {
	m, clk := newTestManager()
	var got []float64
	iv := NewValueInterval("v", 0, 10, time.Second, ease.Linear, func(v float64) { got = append(got, v) })
	if iv.State() != IntervalPending {
		t.Errorf("State = %v, want pending", iv.State())
	}
	if err := iv.Start(m); err != nil {
		t.Fatal(err)
	}
	if iv.State() != IntervalRunning || m.Len() != 1 {
		t.Errorf("State = %v, Len = %d after Start", iv.State(), m.Len())
	}

	clk.Advance(500 * time.Millisecond)
	m.Step()
	clk.Advance(500 * time.Millisecond)
	m.Step()

	if len(got) != 2 || !approxEqual(got[0], 5) || got[1] != 10 {
		t.Errorf("values = %v, want [5 10]", got)
	}
	if !iv.Done() || m.Len() != 0 {
		t.Errorf("Done = %v, Len = %d at the end", iv.Done(), m.Len())
	}
}

func TestIntervalOvershootLandsOnTarget(t *testing.T) {
	m, clk := newTestManager()
	var last float64
	iv := NewValueInterval("v", 0, 3, time.Second, ease.OutBounce, func(v float64) { last = v })
	_ = iv.Start(m)
	clk.Advance(5 * time.Second)
	m.Step()
	if last != 3 || !iv.Done() {
		t.Errorf("last = %v done = %v, want 3 true", last, iv.Done())
	}
}

func TestIntervalOnEndAndWait(t *testing.T) {
	m, clk := newTestManager()
	var ended int
	iv := NewValueInterval("v", 0, 1, 100*time.Millisecond, nil, func(float64) {}).
		OnEnd(func() { ended++ })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := iv.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait on pending = %v, want DeadlineExceeded", err)
	}

	_ = iv.Start(m)
	waited := make(chan error, 1)
	go func() { waited <- iv.Wait(context.Background()) }()

	clk.Advance(100 * time.Millisecond)
	m.Step()
	select {
	case err := <-waited:
		if err != nil {
			t.Errorf("Wait = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return")
	}
	m.Step()
	if ended != 1 {
		t.Errorf("OnEnd calls = %d, want 1", ended)
	}
}

func TestIntervalRestart(t *testing.T) {
	m, clk := newTestManager()
	var last float64
	iv := NewValueInterval("v", 0, 10, time.Second, nil, func(v float64) { last = v })
	_ = iv.Start(m)
	if err := iv.Start(m); !errors.Is(err, ErrIntervalRunning) {
		t.Errorf("second Start = %v, want ErrIntervalRunning", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	clk.Advance(time.Second)
	m.Step()

	if err := iv.Start(m); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if iv.Done() {
		t.Error("restarted interval reports done")
	}
	clk.Advance(250 * time.Millisecond)
	m.Step()
	if !approxEqual(last, 2.5) {
		t.Errorf("value after restart = %v, want 2.5", last)
	}
}

func TestZeroDurationInterval(t *testing.T) {
	m, _ := newTestManager()
	var last float64
	iv := NewValueInterval("v", 0, 7, -time.Second, nil, func(v float64) { last = v })
	if iv.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", iv.Duration())
	}
	_ = iv.Start(m)
	m.Step()
	if last != 7 || !iv.Done() {
		t.Errorf("last = %v done = %v", last, iv.Done())
	}
}

func TestPosIntervalKeepsZ(t *testing.T) {
	m, clk := newTestManager()
	n := NewContainer("n")
	n.SetPosition(Pt3(0, 0, 4))
	iv, err := m.Animate(n, Pt(100, 50), time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Name() != "pos:n" {
		t.Errorf("Name = %q", iv.Name())
	}
	clk.Advance(500 * time.Millisecond)
	m.Step()
	assertPoint(t, "halfway", n.Position(), Pt3(50, 25, 4))
	clk.Advance(time.Second)
	m.Step()
	assertPoint(t, "end", n.Position(), Pt3(100, 50, 4))
}

func TestAngleInterval(t *testing.T) {
	m, clk := newTestManager()
	n := NewContainer("n")
	n.SetAngle(90)
	_ = NewAngleInterval(n, 180, time.Second, nil).Start(m)
	clk.Advance(500 * time.Millisecond)
	m.Step()
	if !approxEqual(n.Angle(), 135) {
		t.Errorf("Angle = %v, want 135", n.Angle())
	}
}

func TestIntervalWithoutNode(t *testing.T) {
	m, _ := newTestManager()
	if _, err := m.Animate(nil, Pt(1, 1), time.Second, nil); err == nil {
		t.Error("Animate(nil) succeeded")
	}
	iv := NewAngleInterval(nil, 1, time.Second, nil)
	if err := iv.Start(m); err == nil {
		t.Error("Start without node succeeded")
	}
	if iv.State() != IntervalPending || m.Len() != 0 {
		t.Errorf("failed start left state %v, Len %d", iv.State(), m.Len())
	}
}

func TestWindowAdvancesIntervals(t *testing.T) {
	w, clk := newTestWindow(t)
	n := NewContainer("n")
	_ = w.Root().AddChild(n)
	if _, err := w.Intervals().Animate(n, Pt(10, 0), 100*time.Millisecond, nil); err != nil {
		t.Fatal(err)
	}
	clk.Advance(100 * time.Millisecond)
	w.StepFrame()
	assertPoint(t, "position", n.Position(), Pt(10, 0))
	if w.Intervals().Len() != 0 {
		t.Errorf("Len = %d, want 0", w.Intervals().Len())
	}
}

func TestIntervalManagerRun(t *testing.T) {
	m, clk := newTestManager()
	var last float64
	iv := NewValueInterval("v", 0, 1, 10*time.Millisecond, nil, func(v float64) { last = v })
	_ = iv.Start(m)
	clk.Advance(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.Run(ctx, time.Millisecond) }()

	if err := iv.Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if last != 1 {
		t.Errorf("last = %v, want 1", last)
	}
}

func TestIntervalStateString(t *testing.T) {
	if IntervalRunning.String() != "running" || IntervalState(9).String() != "IntervalState(9)" {
		t.Error("IntervalState.String")
	}
}

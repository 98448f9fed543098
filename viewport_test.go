package toxicity

import (
	"testing"
	"time"
)

func TestViewportMapping(t *testing.T) {
	// A 100x50 view shown in a 200x100 region at (10, 20): twice the size.
	v := NewViewport(Rect{0, 0, 100, 50}, Rect{10, 20, 200, 100})

	assertPoint(t, "WorldToScreen", v.WorldToScreen(Pt3(50, 25, 3)), Pt3(110, 70, 3))
	assertPoint(t, "ScreenToWorld", v.ScreenToWorld(Pt(110, 70)), Pt(50, 25))
	assertPoint(t, "round trip", v.ScreenToWorld(v.WorldToScreen(Pt(7, 9))), Pt(7, 9))

	if !v.ContainsScreenPoint(Pt(10, 20)) || v.ContainsScreenPoint(Pt(5, 5)) {
		t.Error("ContainsScreenPoint")
	}
}

func TestViewportEmptyView(t *testing.T) {
	v := NewViewport(Rect{}, Rect{0, 0, 100, 100})
	assertPoint(t, "ScreenToWorld", v.ScreenToWorld(Pt(5, 5)), Pt(5, 5))
}

func TestWindowViewports(t *testing.T) {
	w, _ := newTestWindow(t)
	left := NewViewport(Rect{0, 0, 100, 100}, Rect{0, 0, 100, 100})
	right := NewViewport(Rect{1000, 0, 100, 100}, Rect{100, 0, 100, 100})

	if !w.AddViewport(left) || !w.AddViewport(right) {
		t.Fatal("AddViewport failed")
	}
	if w.AddViewport(left) {
		t.Error("AddViewport accepted a duplicate")
	}
	if got := len(w.Viewports()); got != 2 {
		t.Errorf("len(Viewports) = %d, want 2", got)
	}

	if got := w.ViewportAt(Pt(150, 50)); got != right {
		t.Error("ViewportAt right region")
	}
	assertPoint(t, "ScreenToWorld through right", w.ScreenToWorld(Pt(150, 50)), Pt(1050, 50))

	// On the shared edge the later viewport wins.
	if got := w.ViewportAt(Pt(100, 50)); got != right {
		t.Error("ViewportAt shared edge")
	}
	right.SetEnabled(false)
	if got := w.ViewportAt(Pt(100, 50)); got != left {
		t.Error("ViewportAt ignores disabled viewports")
	}
	if got := w.ViewportAt(Pt(500, 500)); got != nil {
		t.Error("ViewportAt outside every region")
	}
	assertPoint(t, "ScreenToWorld outside", w.ScreenToWorld(Pt(500, 500)), Pt(500, 500))

	if !w.RemoveViewport(right) || w.RemoveViewport(right) {
		t.Error("RemoveViewport")
	}
}

func TestButtonClickThroughViewport(t *testing.T) {
	w, _ := newTestWindow(t)
	w.AddViewport(NewViewport(Rect{1000, 1000, 320, 240}, Rect{0, 0, 640, 480}))
	_, log := newTestButton(t, w, 1010, 1010)

	// World (1020, 1020) is screen (40, 40) at twice the scale.
	click(w, 40, 40)
	if len(log.details) != 1 {
		t.Errorf("click through viewport reports = %d, want 1", len(log.details))
	}
}

// --- Camera ---

func TestCenterOn(t *testing.T) {
	v := NewViewport(Rect{0, 0, 100, 50}, Rect{0, 0, 100, 50})
	v.CenterOn(Pt(200, 100))
	if got := v.View(); got != (Rect{150, 75, 100, 50}) {
		t.Errorf("View = %v, want {150 75 100 50}", got)
	}
	assertPoint(t, "Center", v.Center(), Pt(200, 100))
}

func TestViewportBounds(t *testing.T) {
	v := NewViewport(Rect{0, 0, 100, 50}, Rect{0, 0, 100, 50})
	v.SetBounds(Rect{0, 0, 300, 200})

	v.CenterOn(Pt(0, 0))
	if got := v.View(); got.X != 0 || got.Y != 0 {
		t.Errorf("View at top-left = %v", got)
	}
	v.CenterOn(Pt(1000, 1000))
	if got := v.View(); got.X != 200 || got.Y != 150 {
		t.Errorf("View at bottom-right = %v", got)
	}

	// A view wider than the bounds is centred on them.
	v.SetBounds(Rect{0, 0, 60, 200})
	if got := v.View(); got.X != -20 {
		t.Errorf("View.X in narrow bounds = %v, want -20", got.X)
	}

	v.ClearBounds()
	v.CenterOn(Pt(1000, 1000))
	assertPoint(t, "Center unbounded", v.Center(), Pt(1000, 1000))
}

func TestZoom(t *testing.T) {
	v := NewViewport(Rect{0, 0, 100, 50}, Rect{0, 0, 100, 50})
	v.Zoom(2)
	if got := v.View(); got != (Rect{25, 12.5, 50, 25}) {
		t.Errorf("View after Zoom(2) = %v", got)
	}
	v.Zoom(0)
	if got := v.View(); got.Width != 50 {
		t.Errorf("Zoom(0) changed the view: %v", got)
	}
}

func TestFollow(t *testing.T) {
	w, _ := newTestWindow(t)
	v := NewViewport(Rect{0, 0, 100, 100}, Rect{0, 0, 100, 100})
	w.AddViewport(v)
	hero := NewContainer("hero")
	hero.SetPosition(Pt(250, 50))
	_ = w.Root().AddChild(hero)

	v.Follow(hero, Pt(0, 0), 0.5)
	if v.Following() != hero {
		t.Fatal("Following")
	}
	w.StepFrame()
	// Half of the way from (50, 50) to (250, 50).
	assertPoint(t, "Center after one frame", v.Center(), Pt(150, 50))
	w.StepFrame()
	assertPoint(t, "Center after two frames", v.Center(), Pt(200, 50))

	v.Follow(hero, Pt(10, 0), 1)
	w.StepFrame()
	assertPoint(t, "Center snapped", v.Center(), Pt(260, 50))

	v.Unfollow()
	hero.SetPosition(Pt(0, 0))
	w.StepFrame()
	assertPoint(t, "Center after Unfollow", v.Center(), Pt(260, 50))
}

func TestScrollTo(t *testing.T) {
	w, clk := newTestWindow(t)
	v := NewViewport(Rect{0, 0, 100, 100}, Rect{0, 0, 100, 100})
	v.Follow(NewContainer("x"), Pt(0, 0), 1)

	iv, err := v.ScrollTo(w.Intervals(), Pt(150, 50), time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Following() != nil {
		t.Error("ScrollTo kept following")
	}
	clk.Advance(500 * time.Millisecond)
	w.StepFrame()
	assertPoint(t, "Center halfway", v.Center(), Pt(100, 50))

	clk.Advance(500 * time.Millisecond)
	w.StepFrame()
	assertPoint(t, "Center at end", v.Center(), Pt(150, 50))
	if !iv.Done() {
		t.Error("scroll not done")
	}

	if _, err := v.ScrollTo(nil, Pt(0, 0), time.Second, nil); err == nil {
		t.Error("ScrollTo without manager succeeded")
	}
}

package toxicity

import (
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestFPSCounter(t *testing.T) {
	c := newFPSCounter()
	c.tick(0)
	for i := 1; i <= 4; i++ {
		c.tick(time.Duration(i) * 100 * time.Millisecond)
	}
	if got := c.rate(); got != 0 {
		t.Errorf("rate before a full sample = %v, want 0", got)
	}
	c.tick(500 * time.Millisecond)
	if got := c.rate(); !approxEqual(got, 10) {
		t.Errorf("rate = %v, want 10", got)
	}
}

func TestWindowFPS(t *testing.T) {
	w, clk := newTestWindow(t)
	w.SetShowFPS(true)
	screen := ebiten.NewImage(64, 64)
	defer screen.Deallocate()

	w.Draw(screen)
	for range 10 {
		clk.Advance(50 * time.Millisecond)
		w.Draw(screen)
	}
	if got := w.FPS(); !approxEqual(got, 20) {
		t.Errorf("FPS = %v, want 20", got)
	}
}

package toxicity

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsSampleWindow is how often the frame rate is recomputed.
const fpsSampleWindow = 500 * time.Millisecond

// fpsCounter measures drawn frames per second against the window clock.
type fpsCounter struct {
	mu     sync.Mutex
	start  time.Duration
	frames int
	fps    float64
	began  bool
}

func newFPSCounter() *fpsCounter {
	return &fpsCounter{}
}

// tick records one drawn frame at time now.
func (c *fpsCounter) tick(now time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.began {
		c.start, c.began = now, true
		return
	}
	c.frames++
	if elapsed := now - c.start; elapsed >= fpsSampleWindow {
		c.fps = float64(c.frames) / elapsed.Seconds()
		c.frames = 0
		c.start = now
	}
}

func (c *fpsCounter) rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// draw prints the frame and tick rates in the top left corner.
func (c *fpsCounter) draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", c.rate(), ebiten.ActualTPS()))
}

// FPS returns the measured frames per second, refreshed twice a second.
func (w *Window) FPS() float64 {
	return w.fps.rate()
}

// SetShowFPS toggles the frame rate overlay.
func (w *Window) SetShowFPS(show bool) {
	w.showFPS.Store(show)
}

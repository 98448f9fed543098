package toxicity

import (
	"image"
	"slices"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Viewport maps a region of the world (the view) onto a region of the
// window (the screen). The view is stretched to fill the screen region.
type Viewport struct {
	mu      sync.RWMutex
	view    Rect
	screen  Rect
	enabled bool

	follow       *Node
	followOffset Point
	followLerp   float64
	bounds       Rect
	bounded      bool
}

// NewViewport returns an enabled viewport showing view inside screen.
func NewViewport(view, screen Rect) *Viewport {
	return &Viewport{view: view, screen: screen, enabled: true}
}

// identityViewport shows the world one to one over the whole target.
func identityViewport(target *ebiten.Image) *Viewport {
	b := target.Bounds()
	r := Rect{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())}
	return NewViewport(r, r)
}

// View returns the world region shown.
func (v *Viewport) View() Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.view
}

// SetView changes the world region shown.
func (v *Viewport) SetView(r Rect) {
	v.mu.Lock()
	v.view = r
	v.mu.Unlock()
}

// Screen returns the window region drawn into.
func (v *Viewport) Screen() Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.screen
}

// SetScreen changes the window region drawn into.
func (v *Viewport) SetScreen(r Rect) {
	v.mu.Lock()
	v.screen = r
	v.mu.Unlock()
}

// Enabled reports whether the window renders through this viewport.
func (v *Viewport) Enabled() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.enabled
}

// SetEnabled turns rendering through this viewport on or off.
func (v *Viewport) SetEnabled(b bool) {
	v.mu.Lock()
	v.enabled = b
	v.mu.Unlock()
}

// scale returns the screen size per world unit on each axis. An empty view
// maps one to one.
func (v *Viewport) scale() (sx, sy float64) {
	sx, sy = 1, 1
	if v.view.Width != 0 {
		sx = v.screen.Width / v.view.Width
	}
	if v.view.Height != 0 {
		sy = v.screen.Height / v.view.Height
	}
	return sx, sy
}

// matrix returns the world-to-screen transform.
func (v *Viewport) matrix() ebiten.GeoM {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sx, sy := v.scale()
	var m ebiten.GeoM
	m.Translate(-v.view.X, -v.view.Y)
	m.Scale(sx, sy)
	m.Translate(v.screen.X, v.screen.Y)
	return m
}

// WorldToScreen converts a world point into window coordinates.
func (v *Viewport) WorldToScreen(p Point) Point {
	m := v.matrix()
	x, y := m.Apply(p.X, p.Y)
	return Pt3(x, y, p.Z)
}

// ScreenToWorld converts a window point into world coordinates.
func (v *Viewport) ScreenToWorld(p Point) Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sx, sy := v.scale()
	return Pt3((p.X-v.screen.X)/sx+v.view.X, (p.Y-v.screen.Y)/sy+v.view.Y, p.Z)
}

// ContainsScreenPoint reports whether p lies inside the screen region.
func (v *Viewport) ContainsScreenPoint(p Point) bool {
	return v.Screen().Contains(p)
}

// target clips dst to the screen region. Sub-images keep dst's coordinates.
func (v *Viewport) target(dst *ebiten.Image) *ebiten.Image {
	s := v.Screen()
	r := image.Rect(int(s.X), int(s.Y), int(s.X+s.Width), int(s.Y+s.Height))
	return dst.SubImage(r).(*ebiten.Image)
}

// --- Window viewports ---

// AddViewport adds v to the viewports the window renders through. It
// reports false if v was already added.
func (w *Window) AddViewport(v *Viewport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Contains(w.viewports, v) {
		return false
	}
	w.viewports = append(w.viewports, v)
	w.logger.Debug("viewport added", "view", v.View(), "screen", v.Screen())
	return true
}

// RemoveViewport removes v. It reports false if v was not added.
func (w *Window) RemoveViewport(v *Viewport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.Index(w.viewports, v)
	if i < 0 {
		return false
	}
	w.viewports = slices.Delete(w.viewports, i, i+1)
	w.logger.Debug("viewport removed", "view", v.View(), "screen", v.Screen())
	return true
}

// Viewports returns a copy of the window's viewports.
func (w *Window) Viewports() []*Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.viewports)
}

// ViewportAt returns the last enabled viewport whose screen region contains
// p, or nil. Without viewports the window maps one to one and ViewportAt
// returns nil.
func (w *Window) ViewportAt(p Point) *Viewport {
	vs := w.Viewports()
	for i := len(vs) - 1; i >= 0; i-- {
		if vs[i].Enabled() && vs[i].ContainsScreenPoint(p) {
			return vs[i]
		}
	}
	return nil
}

// ScreenToWorld converts a window point into world coordinates through the
// viewport under it.
func (w *Window) ScreenToWorld(p Point) Point {
	if v := w.ViewportAt(p); v != nil {
		return v.ScreenToWorld(p)
	}
	return p
}

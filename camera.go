package toxicity

import (
	"errors"
	"math"
	"time"

	"github.com/tanema/gween/ease"
)

// Center returns the world point in the middle of the view.
func (v *Viewport) Center() Point {
	r := v.View()
	return Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

// CenterOn moves the view so that p is in its middle. The view keeps its
// size and is clamped to the bounds, if any.
func (v *Viewport) CenterOn(p Point) {
	v.mu.Lock()
	v.centerLocked(p)
	v.mu.Unlock()
}

func (v *Viewport) centerLocked(p Point) {
	v.view.X = p.X - v.view.Width/2
	v.view.Y = p.Y - v.view.Height/2
	if v.bounded {
		v.view.X = clampAxis(v.view.X, v.view.Width, v.bounds.X, v.bounds.Width)
		v.view.Y = clampAxis(v.view.Y, v.view.Height, v.bounds.Y, v.bounds.Height)
	}
}

// clampAxis keeps [pos, pos+size] inside [lo, lo+span]. A view larger than
// the bounds is centred on them.
func clampAxis(pos, size, lo, span float64) float64 {
	if size >= span {
		return lo + (span-size)/2
	}
	return math.Min(math.Max(pos, lo), lo+span-size)
}

// Zoom scales the view around its centre. A factor above 1 zooms in.
func (v *Viewport) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	c := Pt(v.view.X+v.view.Width/2, v.view.Y+v.view.Height/2)
	v.view.Width /= factor
	v.view.Height /= factor
	v.centerLocked(c)
}

// SetBounds keeps the view inside the world rectangle r.
func (v *Viewport) SetBounds(r Rect) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds, v.bounded = r, true
	v.centerLocked(Pt(v.view.X+v.view.Width/2, v.view.Y+v.view.Height/2))
}

// ClearBounds lets the view move freely again.
func (v *Viewport) ClearBounds() {
	v.mu.Lock()
	v.bounded = false
	v.mu.Unlock()
}

// Follow makes the view track n's world position plus offset. Every frame
// the view covers the fraction lerp of the remaining distance; 1 snaps.
func (v *Viewport) Follow(n *Node, offset Point, lerp float64) {
	if lerp <= 0 || lerp > 1 {
		lerp = 1
	}
	v.mu.Lock()
	v.follow, v.followOffset, v.followLerp = n, offset, lerp
	v.mu.Unlock()
}

// Unfollow stops tracking.
func (v *Viewport) Unfollow() {
	v.mu.Lock()
	v.follow = nil
	v.mu.Unlock()
}

// Following returns the node being tracked, or nil.
func (v *Viewport) Following() *Node {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.follow
}

// ScrollTo eases the view centre to p over d using the intervals of m. Any
// tracked node is released first.
func (v *Viewport) ScrollTo(m *IntervalManager, p Point, d time.Duration, fn ease.TweenFunc) (*Interval, error) {
	if m == nil {
		return nil, errors.New("toxicity: scroll without interval manager")
	}
	v.Unfollow()
	i := newInterval("scroll", d, fn,
		func() ([]float64, error) {
			c := v.Center()
			return []float64{c.X, c.Y}, nil
		},
		[]float64{p.X, p.Y},
		func(vals []float64) { v.CenterOn(Pt(vals[0], vals[1])) })
	if err := i.Start(m); err != nil {
		return nil, err
	}
	return i, nil
}

// track moves the view one step towards the followed node.
func (v *Viewport) track() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.follow == nil {
		return
	}
	target := v.follow.WorldPosition().Plus(v.followOffset)
	cx := v.view.X + v.view.Width/2
	cy := v.view.Y + v.view.Height/2
	cx += (target.X - cx) * v.followLerp
	cy += (target.Y - cy) * v.followLerp
	v.centerLocked(Pt(cx, cy))
}

// trackViewports advances every following viewport. Called once per frame
// after the tree has stepped.
func (w *Window) trackViewports() {
	for _, v := range w.Viewports() {
		v.track()
	}
}

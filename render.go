package toxicity

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// DrawContext is handed to OnDraw hooks.
type DrawContext struct {
	// Target is the image being drawn to, already clipped to the viewport.
	Target *ebiten.Image
	// GeoM maps the node's local coordinates to Target.
	GeoM ebiten.GeoM
	// View maps world coordinates to Target.
	View ebiten.GeoM
	// Viewport is the viewport being rendered.
	Viewport *Viewport
	// Node is the node being drawn.
	Node *Node
}

// DrawImage draws img at the node's origin, tinted by c.
func (dc DrawContext) DrawImage(img *ebiten.Image, c Color) {
	op := &ebiten.DrawImageOptions{GeoM: dc.GeoM}
	c.scaleInto(&op.ColorScale)
	dc.Target.DrawImage(img, op)
}

// renderWithViewport draws the whole tree through v.
func (w *Window) renderWithViewport(screen *ebiten.Image, v *Viewport) {
	var t0 time.Time
	debug := w.Debug()
	if debug {
		t0 = time.Now()
	}

	dc := DrawContext{Target: v.target(screen), View: v.matrix(), Viewport: v}
	renderTree(dc, w.root, nil, dc.View, passes.Add(1), debug)

	if debug {
		w.logger.Debug("viewport rendered", "screen", v.Screen(), "took", time.Since(t0))
	}
}

// renderTree draws node, then its children, parent before children in the
// same depth-first order as stepTree. Each node's lock is held only while
// that node draws. Hidden nodes skip their whole subtree, and a node is drawn
// at most once per pass even if it moves during it.
func renderTree(dc DrawContext, node, parent *Node, parentGeo ebiten.GeoM, pass uint64, debug bool) {
	node.mu.Lock()
	if node.parent.Load() != parent || node.drawPass == pass || !node.Visible() {
		node.mu.Unlock()
		return
	}
	node.drawPass = pass
	geo := localGeoM(*node.local.Load())
	geo.Concat(parentGeo)
	dc.GeoM = geo
	dc.Node = node
	node.draw(dc, debug)
	children := node.Children()
	node.mu.Unlock()

	for _, c := range children {
		renderTree(dc, c, node, geo, pass, debug)
	}
}

// localGeoM rotates then translates, matching composePlacement.
func localGeoM(l placement) ebiten.GeoM {
	var m ebiten.GeoM
	if l.angle != 0 {
		m.Rotate(mgl64.DegToRad(l.angle))
	}
	m.Translate(l.pos.X, l.pos.Y)
	return m
}

// draw runs the node's built-in drawing, then OnDraw. The caller holds n.mu.
func (n *Node) draw(dc DrawContext, debug bool) {
	switch n.Type {
	case NodeTypeSprite:
		if n.sprite != nil {
			n.sprite.draw(dc.Target, dc.GeoM)
		}
	case NodeTypeText:
		if n.text != nil {
			n.text.draw(dc.Target, dc.GeoM)
		}
	case NodeTypeGui:
		if n.gui != nil {
			n.gui.draw(dc)
		}
	case NodeTypeCollision:
		on, c := n.drawBounds()
		if on || debug {
			strokeShape(dc, n.Shape(), c)
		}
	}
	if n.OnDraw != nil {
		n.OnDraw(dc)
	}
}

// strokeShape outlines a world-space shape.
func strokeShape(dc DrawContext, s BoundingShape, c Color) {
	if s == nil {
		return
	}
	verts := s.Vertices()
	clr := c.RGBA()
	for i, a := range verts {
		b := verts[(i+1)%len(verts)]
		x0, y0 := dc.View.Apply(a.X, a.Y)
		x1, y1 := dc.View.Apply(b.X, b.Y)
		vector.StrokeLine(dc.Target, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, false)
	}
}

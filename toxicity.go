package toxicity

import (
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// ErrReparentCycle is returned when a node would become its own ancestor.
	ErrReparentCycle = errors.New("toxicity: reparent would create a cycle")
	// ErrWindowClosed is returned by window commands issued after Close.
	ErrWindowClosed = errors.New("toxicity: window closed")
	// ErrInvalidWindowSize is returned for a window size that cannot be
	// used. Each call site states its own bound.
	ErrInvalidWindowSize = errors.New("toxicity: invalid window size")
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// RGBA returns the premultiplied 8-bit form, for image.Fill and vector
// drawing.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// scaleInto applies c as a tint to an ebiten ColorScale.
func (c Color) scaleInto(cs *ebiten.ColorScale) {
	a := float32(c.A)
	cs.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside the rectangle. Edges are inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// NodeType selects the built-in behaviour a Node runs on step and draw.
type NodeType uint8

const (
	NodeTypeContainer        NodeType = iota // plain component with no built-in behaviour
	NodeTypeSprite                           // draws and animates a Sprite
	NodeTypeText                             // draws a line of text
	NodeTypeCollision                        // carries a BoundingShape
	NodeTypeCollisionManager                 // checks its collision children every step
	NodeTypeScene                            // receives scene lifecycle calls
	NodeTypeGui                              // sized widget with its own hit box
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeContainer:
		return "container"
	case NodeTypeSprite:
		return "sprite"
	case NodeTypeText:
		return "text"
	case NodeTypeCollision:
		return "collision"
	case NodeTypeCollisionManager:
		return "collision-manager"
	case NodeTypeScene:
		return "scene"
	case NodeTypeGui:
		return "gui"
	default:
		return "unknown"
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)

	mouseButtonCount
)

func (b MouseButton) ebiten() ebiten.MouseButton {
	switch b {
	case MouseButtonRight:
		return ebiten.MouseButtonRight
	case MouseButtonMiddle:
		return ebiten.MouseButtonMiddle
	default:
		return ebiten.MouseButtonLeft
	}
}

package toxicity

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind tags a BoundingShape variant. Intersection and translation
// registries are keyed by kinds, so custom shapes pick a kind at or above
// ShapeUser and register handlers for it.
type ShapeKind uint16

const (
	ShapeNone ShapeKind = iota // zero value, never registered
	ShapeAABB                  // *AxisAlignedBox
	ShapeOBB                   // *OrientedBox

	// ShapeUser is the first kind available to user-defined shapes.
	ShapeUser ShapeKind = 64
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeNone:
		return "none"
	case ShapeAABB:
		return "aabb"
	case ShapeOBB:
		return "obb"
	default:
		return fmt.Sprintf("shape(%d)", uint16(k))
	}
}

// BoundingShape is a convex region used for collision and hit testing.
// Vertices are returned in a consistent winding so they can be fed to
// SeparatingAxisIntersects.
type BoundingShape interface {
	Kind() ShapeKind
	Min() Point
	Max() Point
	Vertices() []Point
	ContainsPoint(p Point) bool
	Clone() BoundingShape
}

// --- AxisAlignedBox ---

// AxisAlignedBox is a rectangle that never rotates. Its position is the
// minimum corner.
type AxisAlignedBox struct {
	pos           Point
	width, height float64
}

// NewAABB returns a box with its minimum corner at (x, y).
func NewAABB(x, y, width, height float64) *AxisAlignedBox {
	return &AxisAlignedBox{pos: Pt(x, y), width: width, height: height}
}

// Kind returns ShapeAABB.
func (b *AxisAlignedBox) Kind() ShapeKind { return ShapeAABB }

// Position returns the minimum corner.
func (b *AxisAlignedBox) Position() Point { return b.pos }

// SetPosition moves the minimum corner to p.
func (b *AxisAlignedBox) SetPosition(p Point) { b.pos = p }

// Width returns the box width.
func (b *AxisAlignedBox) Width() float64 { return b.width }

// Height returns the box height.
func (b *AxisAlignedBox) Height() float64 { return b.height }

// SetSize changes the width and height, keeping the minimum corner.
func (b *AxisAlignedBox) SetSize(width, height float64) {
	b.width = width
	b.height = height
}

// Min returns the minimum corner.
func (b *AxisAlignedBox) Min() Point { return b.pos }

// Max returns the corner opposite Min.
func (b *AxisAlignedBox) Max() Point {
	return Pt3(b.pos.X+b.width, b.pos.Y+b.height, b.pos.Z)
}

// Vertices returns the four corners starting at Min: (x,y), (x+w,y),
// (x+w,y+h), (x,y+h).
func (b *AxisAlignedBox) Vertices() []Point {
	x, y, z := b.pos.X, b.pos.Y, b.pos.Z
	return []Point{
		Pt3(x, y, z),
		Pt3(x+b.width, y, z),
		Pt3(x+b.width, y+b.height, z),
		Pt3(x, y+b.height, z),
	}
}

// ContainsPoint reports whether p lies inside the box. Edges count as inside.
func (b *AxisAlignedBox) ContainsPoint(p Point) bool {
	max := b.Max()
	return p.X >= b.pos.X && p.X <= max.X &&
		p.Y >= b.pos.Y && p.Y <= max.Y
}

// Clone returns an independent copy.
func (b *AxisAlignedBox) Clone() BoundingShape {
	c := *b
	return &c
}

// --- OrientedBox ---

// OrientedBox is a rectangle that rotates about an anchor. The edges are
// signed distances from the anchor before rotation: Left and Right along X,
// Top and Bottom along Y. The anchor itself sits at Position in world space.
type OrientedBox struct {
	pos    Point
	anchor Point
	angle  float64 // degrees

	top, left, bottom, right float64

	// corner offsets from pos after rotation: top-left, top-right,
	// bottom-right, bottom-left
	corners [4]mgl64.Vec2
}

// NewOrientedBox returns an unrotated box spanning (left, top) to
// (right, bottom) around an anchor at the origin.
func NewOrientedBox(left, top, right, bottom float64) *OrientedBox {
	b := &OrientedBox{top: top, left: left, bottom: bottom, right: right}
	b.updateCorners()
	return b
}

// Kind returns ShapeOBB.
func (b *OrientedBox) Kind() ShapeKind { return ShapeOBB }

// Position returns the world position of the anchor.
func (b *OrientedBox) Position() Point { return b.pos }

// SetPosition moves the anchor to p.
func (b *OrientedBox) SetPosition(p Point) {
	b.pos = p
	b.updateCorners()
}

// Anchor returns the anchor offset.
func (b *OrientedBox) Anchor() Point { return b.anchor }

// SetAnchor changes the point the box rotates about.
func (b *OrientedBox) SetAnchor(p Point) {
	b.anchor = p
	b.updateCorners()
}

// Angle returns the rotation in degrees.
func (b *OrientedBox) Angle() float64 { return b.angle }

// SetAngle sets the rotation in degrees.
func (b *OrientedBox) SetAngle(deg float64) {
	b.angle = deg
	b.updateCorners()
}

// Edges returns the left, top, right and bottom distances.
func (b *OrientedBox) Edges() (left, top, right, bottom float64) {
	return b.left, b.top, b.right, b.bottom
}

// SetEdges replaces all four edge distances.
func (b *OrientedBox) SetEdges(left, top, right, bottom float64) {
	b.left, b.top, b.right, b.bottom = left, top, right, bottom
	b.updateCorners()
}

// SetTop sets the distance from the anchor to the top edge.
func (b *OrientedBox) SetTop(d float64) {
	b.top = d
	b.updateCorners()
}

// SetLeft sets the distance from the anchor to the left edge.
func (b *OrientedBox) SetLeft(d float64) {
	b.left = d
	b.updateCorners()
}

// SetBottom sets the distance from the anchor to the bottom edge.
func (b *OrientedBox) SetBottom(d float64) {
	b.bottom = d
	b.updateCorners()
}

// SetRight sets the distance from the anchor to the right edge.
func (b *OrientedBox) SetRight(d float64) {
	b.right = d
	b.updateCorners()
}

// updateCorners recomputes every rotated corner offset from scratch.
func (b *OrientedBox) updateCorners() {
	ax, ay := b.anchor.X, b.anchor.Y
	rot := mgl64.Rotate2D(mgl64.DegToRad(b.angle))
	b.corners = [4]mgl64.Vec2{
		rot.Mul2x1(mgl64.Vec2{b.left - ax, b.top - ay}),
		rot.Mul2x1(mgl64.Vec2{b.right - ax, b.top - ay}),
		rot.Mul2x1(mgl64.Vec2{b.right - ax, b.bottom - ay}),
		rot.Mul2x1(mgl64.Vec2{b.left - ax, b.bottom - ay}),
	}
}

// Min returns the smallest corner of the rectangle that encloses the
// rotated box.
func (b *OrientedBox) Min() Point {
	x, y := math.Inf(1), math.Inf(1)
	for _, c := range b.corners {
		x = math.Min(x, c[0])
		y = math.Min(y, c[1])
	}
	return Pt3(x+b.pos.X, y+b.pos.Y, b.pos.Z)
}

// Max returns the largest corner of the rectangle that encloses the
// rotated box.
func (b *OrientedBox) Max() Point {
	x, y := math.Inf(-1), math.Inf(-1)
	for _, c := range b.corners {
		x = math.Max(x, c[0])
		y = math.Max(y, c[1])
	}
	return Pt3(x+b.pos.X, y+b.pos.Y, b.pos.Z)
}

// Vertices returns the rotated corners in world space, in the same order as
// AxisAlignedBox.Vertices for an unrotated box.
func (b *OrientedBox) Vertices() []Point {
	out := make([]Point, len(b.corners))
	for i, c := range b.corners {
		out[i] = pointFromVec2(c.Add(b.pos.Vec2()), b.pos.Z)
	}
	return out
}

// ContainsPoint rotates p into the box's local frame and tests it against
// the edges. Edges count as inside.
func (b *OrientedBox) ContainsPoint(p Point) bool {
	local := mgl64.Rotate2D(-mgl64.DegToRad(b.angle)).Mul2x1(p.Vec2().Sub(b.pos.Vec2()))
	x := local[0] + b.anchor.X
	y := local[1] + b.anchor.Y
	return x >= b.left && x <= b.right && y >= b.top && y <= b.bottom
}

// Clone returns an independent copy.
func (b *OrientedBox) Clone() BoundingShape {
	c := *b
	return &c
}

package toxicity

import "github.com/go-gl/mathgl/mgl64"

// Point is a position or vector with three coordinates. Z is carried through
// the tree like X and Y but only affects draw-order decisions such as
// Window.TopNodeAt; it never moves anything on screen.
//
// Point has value semantics: assigning or passing a Point copies it. The
// mutating methods take a pointer receiver and change the Point in place.
type Point struct {
	X, Y, Z float64
}

// Pt returns the point (x, y, 0).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Pt3 returns the point (x, y, z).
func Pt3(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Copy returns an independent copy of p.
func (p Point) Copy() Point {
	return Point{X: p.X, Y: p.Y, Z: p.Z}
}

// Add adds o to p component-wise.
func (p *Point) Add(o Point) {
	p.X += o.X
	p.Y += o.Y
	p.Z += o.Z
}

// AddXY adds x and y to the X and Y coordinates.
func (p *Point) AddXY(x, y float64) {
	p.X += x
	p.Y += y
}

// AddXYZ adds x, y and z to the coordinates.
func (p *Point) AddXYZ(x, y, z float64) {
	p.X += x
	p.Y += y
	p.Z += z
}

// Sub subtracts o from p component-wise.
func (p *Point) Sub(o Point) {
	p.X -= o.X
	p.Y -= o.Y
	p.Z -= o.Z
}

// SubXY subtracts x and y from the X and Y coordinates.
func (p *Point) SubXY(x, y float64) {
	p.X -= x
	p.Y -= y
}

// SubXYZ subtracts x, y and z from the coordinates.
func (p *Point) SubXYZ(x, y, z float64) {
	p.X -= x
	p.Y -= y
	p.Z -= z
}

// Scale multiplies X and Y by s. Z is left alone.
func (p *Point) Scale(s float64) {
	p.X *= s
	p.Y *= s
}

// ScaleXY multiplies X by x and Y by y.
func (p *Point) ScaleXY(x, y float64) {
	p.X *= x
	p.Y *= y
}

// ScaleXYZ multiplies each coordinate by the matching factor.
func (p *Point) ScaleXYZ(x, y, z float64) {
	p.X *= x
	p.Y *= y
	p.Z *= z
}

// ScaleBy multiplies p by o component-wise.
func (p *Point) ScaleBy(o Point) {
	p.X *= o.X
	p.Y *= o.Y
	p.Z *= o.Z
}

// Plus returns p+o without modifying either.
func (p Point) Plus(o Point) Point {
	p.Add(o)
	return p
}

// Minus returns p-o without modifying either.
func (p Point) Minus(o Point) Point {
	p.Sub(o)
	return p
}

// Vec2 returns the X and Y coordinates as an mgl64 vector.
func (p Point) Vec2() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// Vec3 returns p as an mgl64 vector.
func (p Point) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// pointFromVec2 builds a Point from a 2D vector, keeping z.
func pointFromVec2(v mgl64.Vec2, z float64) Point {
	return Point{X: v[0], Y: v[1], Z: z}
}

package toxicity

import "github.com/go-gl/mathgl/mgl64"

// placement is a position plus a rotation in degrees. Nodes publish their
// local and world placements as immutable snapshots.
type placement struct {
	pos   Point
	angle float64
}

// composePlacement places local inside parent: the local offset is rotated
// by the parent's angle, angles add and Z adds.
func composePlacement(parent, local placement) placement {
	off := local.pos.Vec2()
	if parent.angle != 0 {
		off = mgl64.Rotate2D(mgl64.DegToRad(parent.angle)).Mul2x1(off)
	}
	return placement{
		pos:   Pt3(parent.pos.X+off[0], parent.pos.Y+off[1], parent.pos.Z+local.pos.Z),
		angle: parent.angle + local.angle,
	}
}

// refreshWorld recomputes node's world placement from its parent and pushes
// the change down the subtree. Caller holds treeMu.
func refreshWorld(node *Node) {
	local := *node.local.Load()
	world := local
	if p := node.parent.Load(); p != nil {
		world = composePlacement(*p.world.Load(), local)
	}
	node.world.Store(&world)
	for _, c := range node.Children() {
		refreshWorld(c)
	}
}

// updateLocal applies fn to a copy of the local placement, publishes it, and
// refreshes the world cache of the subtree.
func (n *Node) updateLocal(fn func(*placement)) {
	treeMu.Lock()
	next := *n.local.Load()
	fn(&next)
	n.local.Store(&next)
	refreshWorld(n)
	treeMu.Unlock()
}

// --- Local placement ---

// Position returns the position relative to the parent.
func (n *Node) Position() Point {
	return n.local.Load().pos
}

// Angle returns the rotation in degrees relative to the parent.
func (n *Node) Angle() float64 {
	return n.local.Load().angle
}

// SetPosition sets the position relative to the parent.
func (n *Node) SetPosition(p Point) {
	n.updateLocal(func(l *placement) { l.pos = p })
}

// SetXY sets X and Y relative to the parent, keeping Z.
func (n *Node) SetXY(x, y float64) {
	n.updateLocal(func(l *placement) { l.pos.X, l.pos.Y = x, y })
}

// SetX sets X relative to the parent.
func (n *Node) SetX(x float64) {
	n.updateLocal(func(l *placement) { l.pos.X = x })
}

// SetY sets Y relative to the parent.
func (n *Node) SetY(y float64) {
	n.updateLocal(func(l *placement) { l.pos.Y = y })
}

// SetZ sets the depth relative to the parent. Higher Z is on top for
// Window.TopNodeAt.
func (n *Node) SetZ(z float64) {
	n.updateLocal(func(l *placement) { l.pos.Z = z })
}

// Move offsets the position by d.
func (n *Node) Move(d Point) {
	n.updateLocal(func(l *placement) { l.pos.Add(d) })
}

// MoveXY offsets X and Y.
func (n *Node) MoveXY(dx, dy float64) {
	n.updateLocal(func(l *placement) { l.pos.AddXY(dx, dy) })
}

// SetAngle sets the rotation in degrees relative to the parent.
func (n *Node) SetAngle(deg float64) {
	n.updateLocal(func(l *placement) { l.angle = deg })
}

// Rotate adds deg to the rotation.
func (n *Node) Rotate(deg float64) {
	n.updateLocal(func(l *placement) { l.angle += deg })
}

// --- World placement ---

// WorldPosition returns the cached position in window space. It is the local
// position carried through every ancestor's position and rotation, and equals
// the local position for a detached node.
func (n *Node) WorldPosition() Point {
	return n.world.Load().pos
}

// WorldAngle returns the sum of the node's and its ancestors' angles.
func (n *Node) WorldAngle() float64 {
	return n.world.Load().angle
}

// WorldToLocal converts a window-space point into the node's frame.
func (n *Node) WorldToLocal(p Point) Point {
	w := n.world.Load()
	off := p.Minus(w.pos).Vec2()
	if w.angle != 0 {
		off = mgl64.Rotate2D(-mgl64.DegToRad(w.angle)).Mul2x1(off)
	}
	return pointFromVec2(off, p.Z-w.pos.Z)
}

// LocalToWorld converts a point in the node's frame into window space.
func (n *Node) LocalToWorld(p Point) Point {
	return composePlacement(*n.world.Load(), placement{pos: p}).pos
}

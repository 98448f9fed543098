package toxicity

import (
	"log/slog"
	"sync"
)

// IntersectionFunc decides whether two shapes overlap. It is only called
// after the broad phase has found overlapping bounding rectangles, and its
// operands always arrive in the order the func was registered with.
type IntersectionFunc func(a, b BoundingShape) bool

// shapePair is an unordered key: lo <= hi.
type shapePair struct {
	lo, hi ShapeKind
}

func makeShapePair(a, b ShapeKind) shapePair {
	if a > b {
		a, b = b, a
	}
	return shapePair{lo: a, hi: b}
}

type intersectionEntry struct {
	first, second ShapeKind
	fn            IntersectionFunc
}

// IntersectionRegistry dispatches intersection tests by the kinds of the two
// shapes involved. One handler exists per unordered pair of kinds; a later
// registration for the same pair replaces the earlier one. Safe for
// concurrent use; reads vastly outnumber writes.
type IntersectionRegistry struct {
	mu      sync.RWMutex
	entries map[shapePair]intersectionEntry
	logger  *slog.Logger
}

// NewIntersectionRegistry returns a registry preloaded with handlers for
// AABB/AABB, AABB/OBB and OBB/OBB.
func NewIntersectionRegistry(logger *slog.Logger) *IntersectionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &IntersectionRegistry{
		entries: make(map[shapePair]intersectionEntry),
		logger:  logger,
	}
	r.Register(ShapeAABB, ShapeAABB, intersectAABBs)
	r.Register(ShapeAABB, ShapeOBB, intersectPolygons)
	r.Register(ShapeOBB, ShapeOBB, intersectPolygons)
	return r
}

// Register binds fn to the pair (first, second). fn receives a shape of kind
// first as its first operand. Registering ShapeNone or a nil fn is ignored.
func (r *IntersectionRegistry) Register(first, second ShapeKind, fn IntersectionFunc) {
	if fn == nil || first == ShapeNone || second == ShapeNone {
		return
	}
	r.mu.Lock()
	r.entries[makeShapePair(first, second)] = intersectionEntry{first: first, second: second, fn: fn}
	r.mu.Unlock()
	r.logger.Debug("intersection handler registered", "first", first, "second", second)
}

// Intersects reports whether a and b overlap. Nil shapes and pairs with no
// registered handler never intersect.
func (r *IntersectionRegistry) Intersects(a, b BoundingShape) bool {
	if a == nil || b == nil {
		return false
	}
	r.mu.RLock()
	e, ok := r.entries[makeShapePair(a.Kind(), b.Kind())]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("no intersection handler", "first", a.Kind(), "second", b.Kind())
		return false
	}
	if e.first != a.Kind() {
		a, b = b, a
	}
	if !boundsOverlap(a, b) {
		return false
	}
	return e.fn(a, b)
}

// boundsOverlap is the broad phase: the enclosing rectangles either contain
// one another or overlap. Touching rectangles overlap.
func boundsOverlap(a, b BoundingShape) bool {
	min1, max1 := a.Min(), a.Max()
	min2, max2 := b.Min(), b.Max()
	if min2.X >= min1.X && max2.X <= max1.X &&
		min2.Y >= min1.Y && max2.Y <= max1.Y {
		return true
	}
	return !(max1.X < min2.X || min1.X > max2.X ||
		max1.Y < min2.Y || min1.Y > max2.Y)
}

// intersectAABBs: an AABB is its own bounding rectangle, so passing the
// broad phase is the whole test.
func intersectAABBs(a, b BoundingShape) bool {
	return true
}

func intersectPolygons(a, b BoundingShape) bool {
	return SeparatingAxisIntersects(a.Vertices(), b.Vertices())
}

package toxicity

import "github.com/go-gl/mathgl/mgl64"

// SeparatingAxisIntersects reports whether two convex polygons overlap. Both
// vertex lists must use the same winding. Every edge normal of both shapes is
// tried as a separating axis; projections that merely touch do not separate,
// so polygons sharing an edge intersect.
func SeparatingAxisIntersects(a, b []Point) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	av := toVec2s(a)
	bv := toVec2s(b)
	for _, axis := range edgeNormals(av) {
		if !overlapOnAxis(axis, av, bv) {
			return false
		}
	}
	for _, axis := range edgeNormals(bv) {
		if !overlapOnAxis(axis, av, bv) {
			return false
		}
	}
	return true
}

func toVec2s(pts []Point) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(pts))
	for i, p := range pts {
		out[i] = p.Vec2()
	}
	return out
}

// edgeNormals returns the perpendicular of (p[i] - p[i+1]) for every edge,
// wrapping from the last vertex back to the first.
func edgeNormals(shape []mgl64.Vec2) []mgl64.Vec2 {
	norms := make([]mgl64.Vec2, len(shape))
	for i := range shape {
		next := shape[(i+1)%len(shape)]
		e := shape[i].Sub(next)
		norms[i] = mgl64.Vec2{e[1], -e[0]}
	}
	return norms
}

// project returns the [min, max] interval of shape projected onto axis.
func project(axis mgl64.Vec2, shape []mgl64.Vec2) (lo, hi float64) {
	lo = shape[0].Dot(axis)
	hi = lo
	for _, v := range shape[1:] {
		d := v.Dot(axis)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}

// overlapOnAxis treats touching intervals as overlapping.
func overlapOnAxis(axis mgl64.Vec2, a, b []mgl64.Vec2) bool {
	aMin, aMax := project(axis, a)
	bMin, bMax := project(axis, b)
	return aMax >= bMin && bMax >= aMin
}

package geomutil

import "math"

// arcSteps is the number of line segments used to flatten an outer-corner
// arc, matching the original's arcs_to_approx_lines(1.0) tolerance choice
// for the typical stroke widths this renderer offsets (a handful of pixels).
const arcSteps = 10

// OffsetLine returns points parallel-offset from the input polyline by
// offset pixels (positive = to the left of the direction of travel,
// negative = to the right), with convex (outer) corners flattened into a
// short circular arc rather than left as a sharp miter spike.
//
// This module has no access to a dedicated polyline-offsetting library (the
// example corpus carries none), so the join behavior here is a direct,
// from-scratch arc-and-miter construction rather than a port of a general
// Boolean polygon-offset algorithm; it is sufficient for the open polylines
// (label baselines in internal/labelline) this renderer offsets.
func OffsetLine(points []Point, offset float64) []Point {
	if len(points) < 2 || offset == 0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	result := make([]Point, 0, len(points)*2)

	offsetSegment := func(a, b Point) (Point, Point) {
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			return a, b
		}

		nx, ny := dy/length*offset, -dx/length*offset

		return Point{a.X + nx, a.Y + ny}, Point{b.X + nx, b.Y + ny}
	}

	prevA, prevB := offsetSegment(points[0], points[1])
	result = append(result, prevA)

	for i := 1; i < len(points)-1; i++ {
		curA, curB := offsetSegment(points[i], points[i+1])

		result = append(result, prevB)

		if isConvexTurn(points[i-1], points[i], points[i+1], offset) {
			result = append(result, arcBetween(points[i], prevB, curA, arcSteps)...)
		}

		result = append(result, curA)

		prevB = curB
	}

	result = append(result, prevB)

	return result
}

// isConvexTurn reports whether the turn at b (from a->b->c) opens up on the
// side the offset is applied to, meaning the two offset segments pull apart
// rather than cross, and need an arc fill rather than a miter.
func isConvexTurn(a, b, c Point, offset float64) bool {
	cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)

	return (cross > 0) == (offset > 0)
}

// arcBetween flattens the circular arc around center from p1 to p2 into
// steps short line segments.
func arcBetween(center, p1, p2 Point, steps int) []Point {
	r1 := dist(center, p1)
	if r1 == 0 {
		return nil
	}

	a1 := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	a2 := math.Atan2(p2.Y-center.Y, p2.X-center.X)

	// Always sweep the short way around.
	delta := a2 - a1
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}

	out := make([]Point, 0, steps)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		a := a1 + delta*t
		out = append(out, Point{center.X + r1*math.Cos(a), center.Y + r1*math.Sin(a)})
	}

	return out
}

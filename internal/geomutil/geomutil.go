// Package geomutil implements the per-tile geometry helpers shared by the
// thematic layers: parallel line offsetting, AGG-style Bézier smoothing,
// line-pattern stamping, and cross-tile-seamless hatching (§4.7).
package geomutil

import "math"

// Point is a 2D point in destination pixel space.
type Point struct {
	X, Y float64
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

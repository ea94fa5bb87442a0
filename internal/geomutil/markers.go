package geomutil

import "math"

// WalkMarkers calls fn at each point spaced repeatDist apart along the
// polyline points, starting startOffset past the first vertex, passing the
// marker's position and the direction of travel at that point in radians.
// No markers_on_path.rs source file was retrieved; grounded by the calling
// convention visible at water_lines.rs's draw_markers_on_path call site
// (start offset, repeat spacing, per-marker (x, y, angle) callback).
func WalkMarkers(points []Point, startOffset, repeatDist float64, fn func(x, y, angle float64)) {
	if len(points) < 2 || repeatDist <= 0 {
		return
	}

	next := startOffset
	traveled := 0.0

	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		dx, dy := p2.X-p1.X, p2.Y-p1.Y
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			continue
		}

		angle := math.Atan2(dy, dx)

		for next < traveled+segLen {
			t := (next - traveled) / segLen
			fn(p1.X+dx*t, p1.Y+dy*t, angle)
			next += repeatDist
		}

		traveled += segLen
	}
}

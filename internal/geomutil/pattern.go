package geomutil

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/freemap-slovakia/maprender/internal/svgicon"
)

// miterLimit bounds how sharp a join may be before falling back to a bevel,
// matching the original's should_use_bevel_join threshold test.
func shouldUseBevelJoin(p0, p1, p2 Point, strokeWidth, miterLimit float64) bool {
	v1x, v1y := p1.X-p0.X, p1.Y-p0.Y
	v2x, v2y := p2.X-p1.X, p2.Y-p1.Y

	len1 := math.Hypot(v1x, v1y)
	len2 := math.Hypot(v2x, v2y)
	if len1 == 0 || len2 == 0 {
		return true
	}

	dot := (v1x/len1)*(v2x/len2) + (v1y/len1)*(v2y/len2)
	angle := math.Acos(clampFloat(dot, -1, 1))

	if angle == 0 {
		return false
	}

	miterLength := strokeWidth / (2 * math.Cos(angle/2))

	return miterLength > miterLimit*strokeWidth
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func perpendicular(dx, dy, length, strokeWidth float64) (float64, float64) {
	return (-dy / length) * strokeWidth / 2, (dx / length) * strokeWidth / 2
}

func computeCorners(p0, p1 Point, strokeWidth float64) (c1, c2, c3, c4 Point) {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p0, p0, p1, p1
	}

	px, py := perpendicular(dx, dy, length, strokeWidth)

	return Point{p0.X + px, p0.Y + py},
		Point{p0.X - px, p0.Y - py},
		Point{p1.X - px, p1.Y - py},
		Point{p1.X + px, p1.Y + py}
}

// DrawLinePattern stamps icon, tiled and rotated to follow lineString,
// along each segment as a quadrilateral strip the width of the icon's
// intrinsic height, mirroring the original's draw_line_pattern_scaled.
// Corner joins are beveled when the turn is sharper than miterLimit permits
// (a simplified join model compared to the original's full miter
// intersection search — see DESIGN.md).
func DrawLinePattern(gc *gg.Context, lineString []Point, miterLimit float64, icon *svgicon.Icon, scale float64) {
	if len(lineString) < 2 {
		return
	}

	// The original walks the line in reverse so that patterns read in the
	// natural direction for (typically) clockwise-digitized ways.
	vertices := make([]Point, len(lineString))
	for i, p := range lineString {
		vertices[len(lineString)-1-i] = p
	}

	strokeWidth := icon.Height * scale
	width := icon.Width

	dist := 0.0

	for i := 0; i < len(vertices)-1; i++ {
		p1, p2 := vertices[i], vertices[i+1]

		length := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
		if length == 0 {
			continue
		}

		c1, c2, c3, c4 := computeCorners(p1, p2, strokeWidth)

		var miterPoint *Point
		if i > 0 {
			p0 := vertices[i-1]
			if !shouldUseBevelJoin(p0, p1, p2, strokeWidth, miterLimit) {
				mp := Point{X: (c1.X + c2.X) / 2, Y: (c1.Y + c2.Y) / 2}
				miterPoint = &mp
			}
		}

		gc.Push()
		gc.NewSubPath()
		gc.MoveTo(c1.X, c1.Y)
		if miterPoint != nil {
			gc.LineTo(miterPoint.X, miterPoint.Y)
		}
		gc.LineTo(c2.X, c2.Y)
		gc.LineTo(c3.X, c3.Y)
		gc.LineTo(c4.X, c4.Y)
		gc.ClosePath()
		gc.Clip()

		gc.Translate(p1.X, p1.Y)
		gc.Rotate(math.Atan2(p2.Y-p1.Y, p2.X-p1.X))
		gc.Scale(1/scale, 1/scale)
		gc.Translate(math.Mod(dist/scale, width), -icon.Height/2)

		// Tile the icon across the segment's length; the Clip above already
		// bounds the quad, so repeated draws beyond the segment are cheap
		// no-ops against the clip region.
		for x := -width; x < length/scale+width; x += width {
			gc.DrawImage(icon.Image, int(x), 0)
		}

		gc.Pop()

		dist += length
	}
}

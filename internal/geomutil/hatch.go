package geomutil

import (
	"math"

	"github.com/fogleman/gg"
)

const earthCircumferenceMeters = 40075016.685578488

// GlobalPixelCoords converts an EPSG:3857 point to its absolute pixel
// position in the world-wide tile pyramid at zoom, using tileSizePx-pixel
// tiles. Two renders of adjacent tiles derive the same absolute coordinate
// for the same ground point, which is what lets Hatch phase-align a hatch
// pattern seamlessly across a tile boundary.
func GlobalPixelCoords(mercX, mercY float64, zoom, tileSizePx int) (px, py float64) {
	worldPx := float64(tileSizePx) * math.Pow(2, float64(zoom))
	res := earthCircumferenceMeters / worldPx

	origin := earthCircumferenceMeters / 2.0

	px = (mercX + origin) / res
	py = (origin - mercY) / res

	return px, py
}

// perpendicularDistance returns the signed distance of p from the line
// through the origin at angleDeg degrees, i.e. the hatch-line phase offset.
func perpendicularDistance(p Point, angleDeg float64) float64 {
	theta := angleDeg * math.Pi / 180.0

	return p.X*math.Sin(theta) - p.Y*math.Cos(theta)
}

// Hatch draws parallel hatch lines spaced spacingPx apart at angleDeg
// degrees across the polygon ring described by destPoints (already
// projected to destination pixel space) and mercPoints (the same ring's
// EPSG:3857 coordinates, used only to compute the seamless phase anchor).
// Hatch strokes each line itself with gc's current color and line width;
// callers clip gc to the polygon before calling it.
func Hatch(gc *gg.Context, destPoints []Point, mercPoints []Point, zoom, tileSizePx int, spacingPx, angleDeg float64) {
	if len(destPoints) == 0 || len(mercPoints) == 0 {
		return
	}

	mMinX, mMaxX, mMinY, mMaxY := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	minX, maxX, minY, maxY := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)

	for _, p := range mercPoints {
		mMinX = math.Min(mMinX, p.X)
		mMaxX = math.Max(mMaxX, p.X)
		mMinY = math.Min(mMinY, p.Y)
		mMaxY = math.Max(mMaxY, p.Y)
	}

	for _, p := range destPoints {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	gx, gy := GlobalPixelCoords((mMaxX+mMinX)/2, (mMaxY+mMinY)/2, zoom, tileSizePx)

	halfLen := math.Hypot(maxX-minX, maxY-minY)/2 + 1.0

	d := math.Mod(perpendicularDistance(Point{X: gx, Y: gy}, angleDeg), spacingPx)

	cx, cy := (maxX+minX)/2, (maxY+minY)/2

	gc.Push()
	gc.Translate(cx, cy)
	gc.Rotate(angleDeg * math.Pi / 180.0)

	for off := 0.0; off < halfLen; off += spacingPx {
		gc.DrawLine(-halfLen, off+d, halfLen, off+d)
		gc.Stroke()

		if off > 0 {
			gc.DrawLine(-halfLen, -off+d, halfLen, -off+d)
			gc.Stroke()
		}
	}

	gc.Pop()
}

package tile

import "github.com/freemap-slovakia/maprender/internal/types"

// Projector maps geographic coordinates (EPSG:3857 meters) to destination
// pixel coordinates for a single tile's paint surface, the Go analogue of
// the original's TileProjector.
type Projector struct {
	bbox       types.BoundingBox4326To3857
	widthPx    float64
	heightPx   float64
}

// NewProjector builds a projector for a surface of size (widthPx, heightPx)
// covering bbox.
func NewProjector(bbox types.BoundingBox4326To3857, widthPx, heightPx int) Projector {
	return Projector{bbox: bbox, widthPx: float64(widthPx), heightPx: float64(heightPx)}
}

// Project converts an EPSG:3857 point to destination pixel coordinates.
func (p Projector) Project(x, y float64) (px, py float64) {
	px = (x - p.bbox.MinX) / p.bbox.Width() * p.widthPx
	py = (p.bbox.MaxY - y) / p.bbox.Height() * p.heightPx

	return px, py
}

// Unproject converts destination pixel coordinates back to EPSG:3857.
func (p Projector) Unproject(px, py float64) (x, y float64) {
	x = p.bbox.MinX + px/p.widthPx*p.bbox.Width()
	y = p.bbox.MaxY - py/p.heightPx*p.bbox.Height()

	return x, y
}

// PixelsPerMeter returns the scale factor of the projection, used by layers
// that need to convert a geographic line width/offset into pixels.
func (p Projector) PixelsPerMeter() float64 {
	return p.widthPx / p.bbox.Width()
}

// Package types holds the shared data model for render requests, tile
// coordinates, and geographic bounds used across the rendering pipeline.
package types

import (
	"fmt"
	"math"
)

// TileCoordinate identifies a tile in the Web Mercator XYZ scheme.
type TileCoordinate struct {
	Zoom int
	X    int
	Y    int
}

// BoundingBox is a geographic bounding box in WGS84 (EPSG:4326).
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// TileToBounds converts tile coordinates to a geographic bounding box.
func TileToBounds(coord TileCoordinate) BoundingBox {
	n := math.Pow(2, float64(coord.Zoom))

	minLon := float64(coord.X)/n*360.0 - 180.0
	maxLon := float64(coord.X+1)/n*360.0 - 180.0

	minLat := mercatorToLat(math.Pi * (1 - 2*float64(coord.Y+1)/n))
	maxLat := mercatorToLat(math.Pi * (1 - 2*float64(coord.Y)/n))

	return BoundingBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
}

func mercatorToLat(mercatorY float64) float64 {
	return 180.0 / math.Pi * math.Atan(math.Sinh(mercatorY))
}

// TileBoundsEPSG3857 returns the tile's bounds in EPSG:3857 meters. The
// tile's logical pixel size cancels out, so the result is the tile's exact
// extent with no padding (used by the XYZ handler to build render requests).
func TileBoundsEPSG3857(x, y, zoom, tileSizePx int) BoundingBox4326To3857 {
	const earthCircumference = 40075016.685578488
	n := math.Pow(2, float64(zoom))
	res := earthCircumference / float64(tileSizePx) / n

	originShift := earthCircumference / 2.0

	minX := float64(x)*float64(tileSizePx)*res - originShift
	maxX := float64(x+1)*float64(tileSizePx)*res - originShift
	maxY := originShift - float64(y)*float64(tileSizePx)*res
	minY := originShift - float64(y+1)*float64(tileSizePx)*res

	return BoundingBox4326To3857{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// BoundingBox4326To3857 is a bounding box expressed in EPSG:3857 meters.
type BoundingBox4326To3857 struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b BoundingBox4326To3857) Width() float64  { return b.MaxX - b.MinX }
func (b BoundingBox4326To3857) Height() float64 { return b.MaxY - b.MinY }

// String returns a human-readable representation of the tile coordinate.
func (t TileCoordinate) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", t.Zoom, t.X, t.Y)
}

// String returns a human-readable representation of the bounding box.
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(%.6f,%.6f,%.6f,%.6f)", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// ExpandByFraction grows the box on every side by a fraction of its own
// width/height.
func (b BoundingBox) ExpandByFraction(frac float64) BoundingBox {
	dLon := b.Width() * frac
	dLat := b.Height() * frac

	return BoundingBox{
		MinLon: b.MinLon - dLon,
		MaxLon: b.MaxLon + dLon,
		MinLat: b.MinLat - dLat,
		MaxLat: b.MaxLat + dLat,
	}
}

func (b BoundingBox) Width() float64  { return b.MaxLon - b.MinLon }
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

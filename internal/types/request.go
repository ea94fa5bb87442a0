package types

import (
	"github.com/paulmach/orb"
)

// ImageFormat is the output encoding of a rendered tile.
type ImageFormat int

const (
	ImagePNG ImageFormat = iota
	ImageJPEG
	ImageWebP
)

func (f ImageFormat) String() string {
	switch f {
	case ImageJPEG:
		return "jpeg"
	case ImageWebP:
		return "webp"
	default:
		return "png"
	}
}

func (f ImageFormat) ContentType() string {
	switch f {
	case ImageJPEG:
		return "image/jpeg"
	case ImageWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Size is a pixel dimension, width by height.
type Size struct {
	Width  int
	Height int
}

// Feature is a single geographic feature supplied out-of-band by a client
// request (the "custom" overlay layer, §4.1 dispatch order).
type Feature struct {
	ID         string
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// FeatureCollection groups client-supplied features for the custom overlay.
type FeatureCollection struct {
	Features []Feature
}

// RenderRequest describes one tile to render: its geographic extent, zoom
// level, the set of pixel scale factors to produce, the output encoding, and
// which optional thematic layers (hillshading, contours, route overlays,
// client-supplied features) should be drawn.
type RenderRequest struct {
	BBox       BoundingBox4326To3857
	Zoom       int
	Scales     []float64
	Format     ImageFormat
	Shading    bool
	Contours   bool
	RouteTypes []string
	Features   *FeatureCollection

	// MaskGeometry, when set, is softened into by blur_edges: everything
	// outside it fades to transparent near the tile's edge of coverage,
	// matching the original render()'s own mask_geometry parameter.
	MaskGeometry orb.Geometry
}

// NewRenderRequest builds a RenderRequest for the given bounds, matching the
// original's RenderRequest::new constructor.
func NewRenderRequest(bbox BoundingBox4326To3857, zoom int, scales []float64, format ImageFormat) RenderRequest {
	return RenderRequest{BBox: bbox, Zoom: zoom, Scales: scales, Format: format}
}

// SizePx returns the logical (unscaled) pixel size of the tile this request
// renders, always square per the XYZ convention used throughout this module.
func (r RenderRequest) SizePx(tileSize int) Size {
	return Size{Width: tileSize, Height: tileSize}
}

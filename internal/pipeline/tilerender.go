// tilerender.go adapts RenderTile to the worker.Renderer interface: one
// call renders every requested pixel scale of a single tile request and
// returns each as encoded image bytes, the shape internal/worker's pool
// expects a Renderer to fulfil.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/hillshade"
	"github.com/freemap-slovakia/maprender/internal/layers"
	"github.com/freemap-slovakia/maprender/internal/svgicon"
	"github.com/freemap-slovakia/maprender/internal/tile"
	"github.com/freemap-slovakia/maprender/internal/types"
)

// TileRenderer implements worker.Renderer by running RenderTile once per
// requested scale against a shared database pool, the PostGIS analog of
// the original's per-request Ctx construction in render_tile.rs.
type TileRenderer struct {
	DB           layers.Querier
	BaseTileSize int
}

// Render produces one encoded image per req.Scales, highest scale last,
// matching the original's @1x/@2x/... multi-scale render_tile contract.
func (r *TileRenderer) Render(ctx context.Context, req types.RenderRequest, svgCache *svgicon.Cache, hillshadeCache *hillshade.DatasetCache) ([][]byte, error) {
	baseSize := r.BaseTileSize
	if baseSize <= 0 {
		baseSize = 256
	}

	scales := req.Scales
	if len(scales) == 0 {
		scales = []float64{1.0}
	}

	images := make([][]byte, len(scales))

	for i, scale := range scales {
		img, err := r.renderScale(ctx, req, baseSize, scale, svgCache, hillshadeCache)
		if err != nil {
			return nil, fmt.Errorf("tilerender: scale %v: %w", scale, err)
		}

		data, err := encodeImage(img, req.Format)
		if err != nil {
			return nil, fmt.Errorf("tilerender: encoding scale %v: %w", scale, err)
		}

		images[i] = data
	}

	return images, nil
}

func (r *TileRenderer) renderScale(ctx context.Context, req types.RenderRequest, baseSize int, scale float64, svgCache *svgicon.Cache, hillshadeCache *hillshade.DatasetCache) (*image.RGBA, error) {
	sizePx := types.Size{
		Width:  int(float64(baseSize) * scale),
		Height: int(float64(baseSize) * scale),
	}

	lctx := &layers.Context{
		Ctx:       ctx,
		BBox:      req.BBox,
		Zoom:      req.Zoom,
		SizePx:    sizePx,
		Scale:     scale,
		Projector: tile.NewProjector(req.BBox, sizePx.Width, sizePx.Height),
		DB:        r.DB,
		Stack:     composite.NewStack(sizePx.Width, sizePx.Height),
		SVGCache:  svgCache,
		Hillshade: hillshadeCache,
	}

	return RenderTile(lctx, req)
}

// encodeImage encodes img per format. WebP has no encoder among this
// module's dependencies (none of the retrieved example repos pull in a
// WebP encoding library, only golang.org/x/image's decode-only support),
// so ImageWebP is rejected here rather than faked with a mislabeled PNG;
// see DESIGN.md.
func encodeImage(img image.Image, format types.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case types.ImageJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
	case types.ImageWebP:
		return nil, fmt.Errorf("tilerender: webp encoding not supported")
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

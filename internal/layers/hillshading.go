package layers

import (
	"fmt"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/hillshade"
)

// renderHillshading paints the named country's (or "<code>-mask" mask
// dataset's) hillshading raster onto the current top of ctx.Stack at the
// given alpha using op, acting as a single cairo set_source_surface +
// paint_with_alpha call under whatever operator is currently set. Grounded
// on layers/hillshading.rs's render. Always resamples at ctx.Scale (the
// stack's own device pixel ratio) rather than a separate, possibly lower,
// hillshade raster scale: composite.Stack layers must all share one pixel
// grid, so there is no cairo-style "paint a smaller surface, then let the
// context's affine scale stretch it" step to recreate that knob with (see
// DESIGN.md).
func renderHillshading(ctx *Context, datasetKey string, alpha float64, op composite.Operator) error {
	ds, err := ctx.Hillshade.Get(datasetKey)
	if err != nil {
		return fmt.Errorf("hillshading: %w", err)
	}

	gt6, err := ds.GeoTransform()
	if err != nil {
		return fmt.Errorf("hillshading: reading geotransform for %s: %w", datasetKey, err)
	}

	gt := hillshade.GeoTransform{
		XOff: gt6[0], XWidth: gt6[1],
		YOff: gt6[3], YWidth: gt6[5],
	}

	win := hillshade.Window{
		MinX: ctx.BBox.MinX, MinY: ctx.BBox.MinY,
		MaxX: ctx.BBox.MaxX, MaxY: ctx.BBox.MaxY,
		WidthPx: ctx.SizePx.Width, HeightPx: ctx.SizePx.Height,
		RasterScale: ctx.Scale,
	}

	img, hasData, err := hillshade.ReadRGBA(ds, gt, win)
	if err != nil {
		return fmt.Errorf("hillshading: reading window for %s: %w", datasetKey, err)
	}

	if hasData {
		ctx.Hillshade.RecordUse(datasetKey)
	}

	ctx.Stack.SetSource(img)

	return ctx.Stack.PaintWithAlpha(op, alpha)
}

// render.go is the render orchestrator: the strict layer dispatch order and
// zoom gates a single tile render runs through, grounded on
// original_source/rust/crates/core/src/layers/mod.rs's render(). The
// representative layer set built in internal/layers is wired in at its
// exact dispatch position; every other original layer is left as a
// documented no-op so the order and zoom gates stay faithful end-to-end
// without reimplementing all ~40 original layers (see SPEC_FULL.md §11).
package pipeline

import (
	"image"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/layers"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
	"github.com/freemap-slovakia/maprender/internal/types"
)

// HillshadeScale is the fixed render-scale hillshading is resampled at,
// matching the original's hardcoded call argument.
const HillshadeScale = 1.0

var (
	contourLayer = layers.ContourLayer{}
	bridgeLayer  = layers.BridgeAreaLayer{}
)

// RenderTile paints one tile's full layer stack into ctx.Stack and returns
// the composited RGBA result. ctx.Stack must be a fresh *composite.Stack
// sized to ctx.SizePx with nothing pushed. Mirrors layers/mod.rs's render().
func RenderTile(ctx *layers.Context, req types.RenderRequest) (*image.RGBA, error) {
	zoom := ctx.Zoom
	s := ctx.Stack

	if err := rendererr.WithLayer("sea", layers.RenderSea(ctx)); err != nil {
		return nil, err
	}

	s.Push() // top

	if err := rendererr.WithLayer("landuse", layers.RenderLanduse(ctx)); err != nil {
		return nil, err
	}

	// cutlines (zoom >= 13): no cutlines.rs survived in any retrieved
	// original_source variant and no pack example exercises a comparable
	// "cut line" layer; left as a documented no-op rather than invented.

	if err := rendererr.WithLayer("water_lines", layers.RenderWaterLines(ctx)); err != nil {
		return nil, err
	}

	if err := rendererr.WithLayer("water_areas", layers.RenderWaterAreas(ctx)); err != nil {
		return nil, err
	}

	if zoom >= 15 {
		if err := rendererr.WithLayer("bridge_areas", bridgeLayer.RenderBridgeAreas(ctx, false)); err != nil {
			return nil, err
		}
	}

	// trees (zoom >= 16), pipelines (zoom >= 12), feature_lines (zoom >= 13),
	// feature_lines_maskable (zoom >= 13), embankments (zoom >= 16): no-ops,
	// outside SPEC_FULL's representative layer list (§11).

	if zoom >= 8 {
		if err := rendererr.WithLayer("roads", layers.RenderRoads(ctx)); err != nil {
			return nil, err
		}
	}

	// road_access_restrictions (zoom >= 14): no-op.

	if req.Shading || req.Contours {
		if err := rendererr.WithLayer("shading_and_contours",
			layers.RenderShadingAndContours(ctx, contourLayer, bridgeLayer, req.Shading, req.Contours, HillshadeScale)); err != nil {
			return nil, err
		}
	}

	// aeroways (zoom >= 11), solar_power_plants (zoom >= 12): no-ops.

	if zoom >= 13 {
		if err := rendererr.WithLayer("buildings", layers.RenderBuildings(ctx)); err != nil {
			return nil, err
		}
	}

	// barrierways (zoom >= 16), aerialways (zoom >= 12),
	// power_lines::render_lines (zoom >= 13),
	// power_lines::render_towers_poles (zoom >= 14): no-ops.

	if zoom >= 8 {
		if err := rendererr.WithLayer("protected_areas", layers.RenderProtectedAreas(ctx)); err != nil {
			return nil, err
		}
	}

	// special_parks (zoom >= 13), military_areas (zoom >= 10),
	// borders (commented out even in the original, zoom >= 8): no-ops.

	if err := rendererr.WithLayer("routes", layers.RenderRouteMarking(ctx, req.RouteTypes)); err != nil {
		return nil, err
	}

	// geonames (zoom 9-11): no-op.

	idx := collision.New()

	if zoom >= 8 && zoom <= 14 {
		if err := rendererr.WithLayer("place_names", layers.RenderPlaceNames(ctx, idx)); err != nil {
			return nil, err
		}
	}

	// national_park_names (zoom 8-10), special_park_names (zoom 13-16),
	// features (zoom >= 10): no-ops.

	if zoom >= 10 {
		if err := rendererr.WithLayer("water_area_names", layers.RenderWaterAreaNames(ctx, idx)); err != nil {
			return nil, err
		}
	}

	// building_names (zoom >= 17), protected_area_names (zoom >= 12),
	// landcover_names (zoom >= 12), locality_names (zoom >= 15),
	// housenumbers (zoom >= 18): no-ops.

	if zoom >= 15 {
		if err := rendererr.WithLayer("highway_names", layers.RenderHighwayNames(ctx, idx)); err != nil {
			return nil, err
		}
	}

	if zoom >= 14 {
		if err := rendererr.WithLayer("routes", layers.RenderRouteLabels(ctx, req.RouteTypes, idx)); err != nil {
			return nil, err
		}
	}

	// aerialway_names (zoom >= 16): no-op.

	// water_line_names (zoom >= 12): no separate label layer built for
	// waterways beyond water_area_names; left a documented no-op.

	// fixmes (zoom >= 14), valleys_ridges (zoom >= 13): no-ops.

	if zoom >= 15 {
		// Second place_names pass without collision checking, covering the
		// finer place types (hamlet/neighbourhood/farm/...) the original
		// draws unconditionally from zoom 15 up: no such pass is made here,
		// and RenderPlaceNames is gated to zoom 8-14 above, so no place
		// names are drawn from zoom 15 up.
	}

	s.PopGroupToSource() // top
	if err := s.Paint(composite.SourceOver); err != nil {
		return nil, rendererr.WithLayer("top", err)
	}

	if err := rendererr.WithLayer("blur_edges", layers.RenderBlurEdges(ctx, req.MaskGeometry)); err != nil {
		return nil, err
	}

	// country_names (zoom < 8): no-op.

	// custom overlay, drawn directly from req.Features if the caller
	// supplied client-side features: no custom.rs survived in any
	// retrieved original_source variant; left a documented no-op, since
	// without its geometry-styling rules there is nothing concrete to
	// ground a port on beyond "draw the raw geometry somehow".
	_ = req.Features

	return s.Result()
}

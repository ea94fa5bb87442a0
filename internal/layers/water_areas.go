package layers

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/geomutil"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

const tileSizePx = 256

// RenderWaterAreas paints lake/reservoir/river-bank polygons, flat-filled in
// water color, or hatched-and-faded for intermittent/seasonal water bodies.
// Grounded on layers/water_areas.rs.
func RenderWaterAreas(ctx *Context) error {
	query := fmt.Sprintf(
		`SELECT
			ST_AsEWKB(geometry) AS geom,
			COALESCE(intermittent OR seasonal, false) AS tmp
		FROM osm_waterareas%s
		WHERE geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)`,
		landuseTableSuffix(ctx.Zoom))

	rows, err := ctx.DB.Query(ctx.Ctx, query, ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_waterareas", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var wkb []byte
		var tmp bool
		if err := rows.Scan(&wkb, &tmp); err != nil {
			return &rendererr.DbError{Query: "osm_waterareas", Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		if tmp {
			renderIntermittentWaterArea(ctx, gc, geom)
		} else {
			paintFlat(ctx, gc, geom, colorWater)
		}
	}

	return rows.Err()
}

// renderIntermittentWaterArea clips to geom, flat-fills it in water color,
// then overlays a white 75%-alpha hatch at 45 degrees and pops the group
// back onto the stack — the original's push_group/clip/paint/hatch/stroke/
// pop_group_to_source/paint sequence.
func renderIntermittentWaterArea(ctx *Context, gc *gg.Context, geom orb.Geometry) {
	ctx.Stack.Push()
	inner := ctx.Stack.TopContext()

	PathGeometry(ctx, inner, geom)
	inner.ClipPreserve()

	setColor(inner, colorWater)
	inner.Fill()

	destPts, mercPts := geometryHatchPoints(ctx, geom)

	inner.ClearPath()
	PathGeometry(ctx, inner, geom)
	inner.Clip()

	setColor(inner, color.NRGBA{R: 255, G: 255, B: 255, A: 191})
	inner.SetLineWidth(2.0)
	geomutil.Hatch(inner, destPts, mercPts, ctx.Zoom, tileSizePx, 4.0, 45.0)

	ctx.Stack.PopGroupToSource()
	_ = ctx.Stack.Paint(composite.SourceOver)
}

// geometryHatchPoints flattens geom's outer ring(s) into both projected
// destination-pixel points (for Hatch's extent) and raw EPSG:3857 points
// (for Hatch's phase anchor).
func geometryHatchPoints(ctx *Context, geom orb.Geometry) (dest, merc []geomutil.Point) {
	var rings []orb.LineString

	switch g := geom.(type) {
	case orb.Polygon:
		for _, r := range g {
			rings = append(rings, orb.LineString(r))
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, r := range poly {
				rings = append(rings, orb.LineString(r))
			}
		}
	case orb.Ring:
		rings = append(rings, orb.LineString(g))
	case orb.LineString:
		rings = append(rings, g)
	}

	for _, ring := range rings {
		dest = append(dest, ProjectedPoints(ctx, ring)...)
		for _, pt := range ring {
			merc = append(merc, geomutil.Point{X: pt[0], Y: pt[1]})
		}
	}

	return dest, merc
}

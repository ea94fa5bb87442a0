package layers

import (
	"image/color"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// paintFlat fills geom with a single flat color on gc, the common case
// shared by sea/water_areas/buildings/protected_areas.
func paintFlat(ctx *Context, gc *gg.Context, geom orb.Geometry, c color.Color) {
	PathGeometry(ctx, gc, geom)
	setColor(gc, c)
	gc.Fill()
}

// paintFlatWithStroke is paintFlat followed by an outline stroke in
// strokeColor at strokeWidth pixels, the shape most area layers use for
// polygons that get both a fill and a border.
func paintFlatWithStroke(ctx *Context, gc *gg.Context, geom orb.Geometry, fill, stroke color.Color, strokeWidth float64) {
	paintFlat(ctx, gc, geom, fill)

	PathGeometry(ctx, gc, geom)
	setColor(gc, stroke)
	gc.SetLineWidth(strokeWidth)
	gc.Stroke()
}

// RenderSea paints ocean polygon fills as the tile's background, the very
// first thing drawn (dispatch step 1). No original_source file survived for
// this layer; grounded by analogy to water_areas.rs's single
// intersect-and-fill query shape, since sea and other open-water bodies
// share the same "one polygon type, one flat color" treatment.
func RenderSea(ctx *Context) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`SELECT ST_AsEWKB(ST_Intersection(ST_MakeValid(geometry), ST_MakeEnvelope($1, $2, $3, $4, 3857))) AS geom
		 FROM osm_ocean_polygons
		 WHERE geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)`,
		ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_ocean_polygons", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var wkb []byte
		if err := rows.Scan(&wkb); err != nil {
			return &rendererr.DbError{Query: "osm_ocean_polygons", Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		paintFlat(ctx, gc, geom, colorSea)
	}

	if err := rows.Err(); err != nil {
		return &rendererr.DbError{Query: "osm_ocean_polygons", Err: err}
	}

	return nil
}

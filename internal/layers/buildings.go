package layers

import (
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// RenderBuildings paints building footprints as a flat fill with a thin
// outline stroke, dispatch step gated at zoom >= 13. No buildings.rs
// survived in any retrieved original_source tree variant; grounded by
// analogy to bridge_areas.rs's "fill_preserve then stroke in building
// color" sequence, which is itself styling a subset of buildings (bridge
// decks) the same way ordinary buildings are styled elsewhere in the
// stylesheet.
func RenderBuildings(ctx *Context) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`SELECT ST_AsEWKB(geometry) AS geom FROM osm_buildings
		 WHERE geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)`,
		ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_buildings", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var wkb []byte
		if err := rows.Scan(&wkb); err != nil {
			return &rendererr.DbError{Query: "osm_buildings", Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		paintFlatWithStroke(ctx, gc, geom, colorBuilding, colorBuildingStroke, 1.0)
	}

	return rows.Err()
}

package layers

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// RenderWaterAreaNames labels standing-water polygons (lakes, reservoirs,
// ...) at their point-on-surface, skipping polygons that already carry a
// separate feature-point label and gating small lakes out until zoomed in
// close enough. Grounded on layers/water_area_names.rs.
func RenderWaterAreaNames(ctx *Context, idx *collision.Index) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`SELECT
			REGEXP_REPLACE(osm_waterareas.name, '[Vv]odná [Nn]ádrž\M', 'v. n.') AS name,
			ST_AsEWKB(ST_PointOnSurface(osm_waterareas.geometry)) AS geom
		 FROM osm_waterareas LEFT JOIN osm_feature_polys USING (osm_id)
		 WHERE osm_waterareas.geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5)
		   AND osm_feature_polys.osm_id IS NULL
		   AND osm_waterareas.type <> 'riverbank'
		   AND osm_waterareas.water NOT IN ('river', 'stream', 'canal', 'ditch')
		   AND ($6 >= 17 OR osm_waterareas.area > 800000 / POWER(2, (2 * ($6 - 10))))`,
		append(ctx.BufferedBBoxParams(1024.0), ctx.Zoom)...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_waterareas (names)", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var name string
		var wkb []byte
		if err := rows.Scan(&name, &wkb); err != nil {
			return &rendererr.DbError{Query: "osm_waterareas (names)", Err: err}
		}
		if name == "" {
			continue
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}
		pt, ok := geom.(orb.Point)
		if !ok {
			continue
		}
		px, py := ctx.Projector.Project(pt[0], pt[1])

		drawHaloedLabel(gc, idx, name, px, py, 11.0, false, 1.5, 1.0, colorWaterLabel, colorWaterLabelHalo)
	}

	return rows.Err()
}

package layers

import (
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// RenderProtectedAreas paints national park / protected landscape area
// boundaries as a translucent green fill with a solid green outline,
// dispatch step gated at zoom >= 8. No protected_areas.rs survived in any
// retrieved original_source tree variant; grounded by analogy to
// water_areas.rs's query/fill shape, generalized to a translucent fill
// since protected area boundaries, unlike water, must not obscure the
// layers drawn under them.
func RenderProtectedAreas(ctx *Context) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`SELECT ST_AsEWKB(geometry) AS geom FROM osm_protected_areas
		 WHERE geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)`,
		ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_protected_areas", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var wkb []byte
		if err := rows.Scan(&wkb); err != nil {
			return &rendererr.DbError{Query: "osm_protected_areas", Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		paintFlatWithStroke(ctx, gc, geom, colorProtectedArea, colorProtectedAreaStroke, 1.5)
	}

	return rows.Err()
}

package layers

import (
	"image/color"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/labelline"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// RenderHighwayNames labels road centerlines with their street/track name,
// merging same-name same-z_order segments first so a long street gets one
// label run instead of one per OSM way, then repeating the label every
// 200px along each merged run via internal/labelline. Grounded on
// layers/highway_names.rs.
func RenderHighwayNames(ctx *Context, idx *collision.Index) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`WITH merged AS (
			SELECT name, ST_LineMerge(ST_Collect(geometry)) AS geometry, type, z_order, MIN(osm_id) AS osm_id
			FROM osm_roads
			WHERE geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5) AND name <> ''
			GROUP BY z_order, name, type
		 )
		 SELECT name, ST_AsEWKB(geometry) AS geom, type
		 FROM merged
		 ORDER BY z_order DESC, osm_id`,
		ctx.BufferedBBoxParams(1024.0)...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_roads (names)", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	opts := labelline.DefaultOptions()
	opts.Distribution = labelline.AlignRepeat(labelline.AlignCenter, 200.0)
	opts.Color = color.Color(colorTrack)

	for rows.Next() {
		var name, typ string
		var wkb []byte
		if err := rows.Scan(&name, &wkb, &typ); err != nil {
			return &rendererr.DbError{Query: "osm_roads (names)", Err: err}
		}
		if name == "" {
			continue
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		for _, ls := range lineStringsOf(geom) {
			pts := ProjectedPoints(ctx, ls)
			if len(pts) < 2 {
				continue
			}

			labelline.Draw(gc, pts, name, idx, opts)
		}
	}

	return rows.Err()
}

// lineStringsOf flattens a LineString or MultiLineString into a slice of
// individual line strings, mirroring walk_geometry_line_strings's traversal
// over every member rather than just the first, as asLineString does.
func lineStringsOf(geom orb.Geometry) []orb.LineString {
	switch g := geom.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		out := make([]orb.LineString, 0, len(g))
		out = append(out, g...)
		return out
	default:
		return nil
	}
}

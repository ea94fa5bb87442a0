package layers

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/geomutil"
	"github.com/freemap-slovakia/maprender/internal/pointlabel"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

func placeNamesTypeFilter(zoom int) (string, bool) {
	switch {
	case zoom == 8:
		return "type = 'city'", true
	case zoom >= 9 && zoom <= 10:
		return "(type = 'city' OR type = 'town')", true
	case zoom == 11:
		return "(type = 'city' OR type = 'town' OR type = 'village')", true
	case zoom >= 12:
		return "type <> 'locality'", true
	default:
		return "", false
	}
}

type placeNameStyle struct {
	size      float64
	uppercase bool
	haloWidth float64
}

func placeNameStyleFor(zoom int, typ string) (placeNameStyle, bool) {
	switch {
	case zoom >= 6 && typ == "city":
		return placeNameStyle{1.2, true, 2.0}, true
	case zoom >= 9 && typ == "town":
		return placeNameStyle{0.8, true, 2.0}, true
	case zoom >= 11 && typ == "village":
		return placeNameStyle{0.55, true, 1.5}, true
	case zoom >= 12 && (typ == "hamlet" || typ == "allotments" || typ == "suburb"):
		return placeNameStyle{0.50, false, 1.5}, true
	case zoom >= 14 && (typ == "isolated_dwelling" || typ == "quarter"):
		return placeNameStyle{0.45, false, 1.5}, true
	case zoom >= 15 && typ == "neighbourhood":
		return placeNameStyle{0.40, false, 1.5}, true
	case zoom >= 16 && (typ == "farm" || typ == "borough" || typ == "square"):
		return placeNameStyle{0.35, false, 1.5}, true
	default:
		return placeNameStyle{}, false
	}
}

// RenderPlaceNames labels settlements (city/town/village/hamlet/...),
// dispatch step gated at zoom 8-14, sized and filtered by place type and
// zoom. Grounded on layers/place_names.rs.
func RenderPlaceNames(ctx *Context, idx *collision.Index) error {
	filter, ok := placeNamesTypeFilter(ctx.Zoom)
	if !ok {
		return nil
	}

	query := fmt.Sprintf(
		`SELECT name, type, ST_AsEWKB(geometry) AS geom
		 FROM osm_places
		 WHERE %s AND geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5)
		 ORDER BY z_order DESC, population DESC, osm_id`,
		filter)

	rows, err := ctx.DB.Query(ctx.Ctx, query, ctx.BufferedBBoxParams(1024.0)...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_places", Err: err}
	}
	defer rows.Close()

	scale := 2.5 * math.Pow(1.2, float64(ctx.Zoom))
	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var name, typ string
		var wkb []byte
		if err := rows.Scan(&name, &typ, &wkb); err != nil {
			return &rendererr.DbError{Query: "osm_places", Err: err}
		}

		style, ok := placeNameStyleFor(ctx.Zoom, typ)
		if !ok {
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

		alpha := 1.0
		if ctx.Zoom > 14 {
			alpha = 0.5
		}

		drawHaloedLabel(gc, idx, name, px, py, style.size*scale, style.uppercase, style.haloWidth, alpha, color.Black, color.White)
	}

	return rows.Err()
}

// drawHaloedLabel draws text near (x, y), trying pointlabel's 33-offset
// ladder (scaled by fontSize) until one position clears idx, then centered
// with a stroked-looking halo stamped behind the fill.
func drawHaloedLabel(gc *gg.Context, idx *collision.Index, name string, x, y, fontSize float64, uppercase bool, haloWidth, alpha float64, fill, halo color.Color) {
	opts := pointlabel.DefaultOptions()
	opts.Alpha = alpha
	opts.Color = fill
	opts.HaloColor = halo
	opts.HaloOpacity = 0.9
	opts.HaloWidth = haloWidth
	opts.Uppercase = uppercase

	pointlabel.Draw(gc, idx, geomutil.Point{X: x, Y: y}, name, fontSize*0.3, opts)
}

package layers

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/geomutil"
	"github.com/freemap-slovakia/maprender/internal/labelline"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

var colorContour = color.RGBA{R: 0xb1, G: 0x8e, B: 0x5c, A: 0xff}

func contourWidthCase(zoom int) string {
	switch {
	case zoom <= 12:
		return "CASE WHEN height_m % 50 = 0 THEN 0.2 ELSE 0.0 END"
	case zoom == 13 || zoom == 14:
		return `CASE
			WHEN height_m % 100 = 0 THEN 0.4
			WHEN height_m % 20 = 0 THEN 0.2
			ELSE 0.0
		END`
	default:
		return `CASE
			WHEN height_m % 100 = 0 THEN 0.6
			WHEN height_m % 10 = 0 THEN 0.3
			WHEN height_m % 50 = 0 AND height_m % 100 <> 0 THEN 0.0
			ELSE 0.0
		END`
	}
}

func contourSimplifyFactor(zoom int) float64 {
	switch {
	case zoom <= 12:
		return 2000.0
	case zoom == 13:
		return 1000.0
	case zoom == 14:
		return 200.0
	case zoom == 15:
		return 50.0
	default:
		return 0.0
	}
}

func contourHasLabel(zoom int, height int16) bool {
	switch {
	case zoom >= 13 && zoom <= 14:
		return height%100 == 0
	case zoom >= 15:
		return height%50 == 0
	default:
		return false
	}
}

// ContourLayer implements ContourRenderer, backing shading_and_contours.go's
// per-country and fallback contour passes.
type ContourLayer struct{}

// RenderContours paints elevation contour lines, smoothed and weighted by
// round-number significance, with elevation labels on the "round hundred"
// (or round fifty, at high zoom) lines. Grounded on layers/contours.rs.
// country selects the per-country split table ("" selects the DMR
// fallback table, matching the original's cont_dmr_split).
func (ContourLayer) RenderContours(ctx *Context, country string) error {
	if ctx.Zoom < 12 {
		return nil
	}

	table := "cont_dmr_split"
	if country != "" {
		table = fmt.Sprintf("contour_%s_split", country)
	}

	query := fmt.Sprintf(
		`WITH contours AS (
			SELECT
				ST_AsEWKB(ST_SimplifyVW(wkb_geometry, $6)) AS geometry,
				height_m,
				(%s)::double precision AS width
			FROM %s
			WHERE wkb_geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5)
		)
		SELECT geometry, height_m, width FROM contours WHERE width > 0`,
		contourWidthCase(ctx.Zoom), table)

	params := append(ctx.BufferedBBoxParams(8.0), contourSimplifyFactor(ctx.Zoom))

	rows, err := ctx.DB.Query(ctx.Ctx, query, params...)
	if err != nil {
		return &rendererr.DbError{Query: table, Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var wkb []byte
		var height int16
		var width float64
		if err := rows.Scan(&wkb, &height, &width); err != nil {
			return &rendererr.DbError{Query: table, Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}
		ls, ok := asLineString(geom)
		if !ok {
			continue
		}
		pts := ProjectedPoints(ctx, ls)

		gc.SetDash()
		gc.SetLineWidth(width)
		setColor(gc, colorContour)
		geomutil.DrawSmoothBezierSpline(gc, pts, 1.0)
		gc.Stroke()

		if contourHasLabel(ctx.Zoom, height) {
			drawContourLabel(gc, pts, height)
		}
	}

	return rows.Err()
}

// drawContourLabel repeats the elevation label every 200px along the
// smoothed contour, upright-flipped to read left-to-right, matching
// contours.rs's draw_text_on_line call (collision is not consulted here,
// matching the original: shading_and_contours::render never threads the
// collision index down into contours::render).
func drawContourLabel(gc *gg.Context, pts []geomutil.Point, height int16) {
	if len(pts) < 2 {
		return
	}

	opts := labelline.DefaultOptions()
	opts.Upright = labelline.UprightLeft
	opts.Color = color.Color(colorContour)
	opts.Distribution = labelline.AlignRepeat(labelline.AlignCenter, 200.0)

	labelline.Draw(gc, pts, strconv.Itoa(int(height)), nil, opts)
}

package layers

import (
	"fmt"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/geomutil"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

func waterwaysGeometryExpr(zoom int) string {
	switch zoom {
	case 12:
		return "ST_Segmentize(ST_Simplify(geometry, 24), 200) AS geometry"
	case 13:
		return "ST_Segmentize(ST_Simplify(geometry, 12), 200) AS geometry"
	case 14:
		return "ST_Segmentize(ST_Simplify(geometry, 6), 200) AS geometry"
	default:
		return "geometry"
	}
}

func waterwaysTable(zoom int) string {
	switch {
	case zoom <= 9:
		return "osm_waterways_gen0"
	case zoom <= 11:
		return "osm_waterways_gen1"
	default:
		return "osm_waterways"
	}
}

func waterLineWidthAndSmooth(typ string, zoom int) (width, smooth float64) {
	switch {
	case typ == "river" && zoom <= 8:
		return math.Pow(1.5, float64(zoom)-8.0), 0
	case typ == "river" && zoom == 9:
		return 1.5, 0
	case typ == "river" && zoom >= 10 && zoom <= 11:
		return 2.2, 0
	case typ == "river" && zoom >= 12:
		return 2.2, 0.5
	case typ != "river" && zoom >= 12:
		if zoom == 12 {
			return 1.0, 0.5
		}
		return 1.2, 0.5
	default:
		return 0, 0
	}
}

// RenderWaterLines paints rivers/streams as two passes (a soft white glow
// under a colored stroke) plus repeating directional arrow markers along
// non-tunnel segments, grounded on layers/water_lines.rs.
func RenderWaterLines(ctx *Context) error {
	query := fmt.Sprintf(
		`SELECT ST_AsEWKB(%s), type, seasonal OR intermittent AS tmp, tunnel
		 FROM %s
		 WHERE geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5)`,
		waterwaysGeometryExpr(ctx.Zoom), waterwaysTable(ctx.Zoom))

	rows, err := ctx.DB.Query(ctx.Ctx, query, ctx.BufferedBBoxParams(8.0)...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_waterways", Err: err}
	}
	defer rows.Close()

	type waterway struct {
		geom   orb.Geometry
		typ    string
		tmp    bool
		tunnel bool
	}

	var ways []waterway
	for rows.Next() {
		var wkb []byte
		var w waterway
		if err := rows.Scan(&wkb, &w.typ, &w.tmp, &w.tunnel); err != nil {
			return &rendererr.DbError{Query: "osm_waterways", Err: err}
		}
		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}
		w.geom = geom
		ways = append(ways, w)
	}
	if err := rows.Err(); err != nil {
		return &rendererr.DbError{Query: "osm_waterways", Err: err}
	}

	arrow, err := ctx.SVGCache.Get("waterway-arrow.svg")
	if err != nil {
		return &rendererr.ResourceError{Resource: "waterway-arrow.svg", Err: err}
	}
	arrowDX, arrowDY := -arrow.Width/2, -arrow.Height/2

	gc := ctx.Stack.TopContext()

	for pass := 0; pass <= 1; pass++ {
		glow := pass == 0

		for _, w := range ways {
			ls, ok := asLineString(w.geom)
			if !ok {
				continue
			}
			pts := ProjectedPoints(ctx, ls)

			if w.tmp {
				gc.SetDash(6.0, 3.0)
			} else {
				gc.SetDash()
			}

			width, smooth := waterLineWidthAndSmooth(w.typ, ctx.Zoom)

			if glow {
				if ctx.Zoom < 12 {
					continue
				}
				setColor(gc, colorWater)
				alpha := 0.5
				if w.tunnel {
					alpha = 0.8
				}
				setColor(gc, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(alpha * 255)})

				lineWidth := 2.4
				if w.typ == "river" {
					lineWidth = 3.4
				} else if ctx.Zoom == 12 {
					lineWidth = 2.0
				}
				gc.SetLineWidth(lineWidth)

				geomutil.DrawSmoothBezierSpline(gc, pts, smooth)
				gc.Stroke()
			} else {
				alpha := 1.0
				if w.tunnel {
					alpha = 0.33
				}
				setColor(gc, withAlpha(colorWater, alpha))
				gc.SetLineWidth(width)

				geomutil.DrawSmoothBezierSpline(gc, pts, smooth)
				gc.StrokePreserve()

				if !w.tunnel {
					geomutil.WalkMarkers(pts, 150.0, 300.0, func(x, y, angle float64) {
						gc.Push()
						gc.Translate(x, y)
						gc.Rotate(angle)
						gc.DrawImage(arrow.Image, int(arrowDX), int(arrowDY))
						gc.Pop()
					})
				}

				gc.ClearPath()
			}
		}
	}

	return nil
}

func asLineString(geom orb.Geometry) (orb.LineString, bool) {
	switch g := geom.(type) {
	case orb.LineString:
		return g, true
	case orb.MultiLineString:
		if len(g) == 0 {
			return nil, false
		}
		return g[0], true
	default:
		return nil, false
	}
}

// withAlpha returns an opaque color c restyled with alpha set to factor
// (0..1), straight (non-premultiplied) so it can be handed to gg.SetColor.
func withAlpha(c color.RGBA, factor float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(clampUnit(factor) * 255)}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

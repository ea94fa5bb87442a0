package layers

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/geomutil"
	"github.com/freemap-slovakia/maprender/internal/rendererr"
	"github.com/freemap-slovakia/maprender/internal/svgicon"
)

var (
	colorTrack             = color.RGBA{R: 0xb0, G: 0xa0, B: 0x80, A: 0xff}
	colorGlow              = color.RGBA{R: 255, G: 255, B: 255, A: 0xff}
	colorRoad              = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorSuperroad         = color.RGBA{R: 0xfc, G: 0xd6, B: 0xa4, A: 0xff}
	colorRail              = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	colorRailGlow          = color.RGBA{R: 255, G: 255, B: 255, A: 0xff}
	colorTram              = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	colorRailwayDisused    = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
	colorCycleway          = color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0xff}
	colorBridleway         = color.RGBA{R: 0x99, G: 0x66, B: 0x33, A: 0xff}
	colorBridleway2        = color.RGBA{R: 0x99, G: 0x66, B: 0x33, A: 0xff}
	colorPiste             = color.RGBA{R: 0x33, G: 0x99, B: 0xff, A: 0xff}
	colorPiste2            = color.RGBA{R: 0x33, G: 0x99, B: 0xff, A: 0xff}
	colorPier              = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
	colorWaterSlide        = color.RGBA{R: 0x33, G: 0x99, B: 0xcc, A: 0xff}
	colorConstructionRoad1 = color.RGBA{R: 0xff, G: 0xcc, B: 0x00, A: 0xff}
	colorConstructionRoad2 = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
)

type roadRow struct {
	geom            orb.Geometry
	typ             string
	tracktype       string
	class           string
	service         string
	bridge          int16
	tunnel          int16
	oneway          int16
	bicycle         string
	foot            string
	trailVisibility float64
	isInRoute       bool
}

func roadsTable(zoom int) string {
	switch {
	case zoom <= 9:
		return "osm_roads_gen0"
	case zoom <= 11:
		return "osm_roads_gen1"
	default:
		return "osm_roads"
	}
}

func highwayWidthCoef(zoom int) float64 {
	return math.Pow(1.5, math.Max(8.6, float64(zoom))-8.0)
}

func trackVisibilityFactor(zoom int) float64 {
	switch zoom {
	case 12:
		return 0.66
	case 13:
		return 0.75
	default:
		if zoom >= 14 {
			return 1.0
		}
		return 0.0
	}
}

// RenderRoads paints the road/rail network: a white glow pass for narrow
// foot/track ways, then the main stroke pass (highway width ladder, rail
// sleeper pattern, bridge/tunnel casing, oneway arrow markers). Grounded on
// layers/roads.rs; the long per-(zoom,class,type) match is restructured
// into the helper functions below rather than ported arm-for-arm, but every
// style rule (width, color, dash) is preserved.
func RenderRoads(ctx *Context) error {
	table := roadsTable(ctx.Zoom)

	query := fmt.Sprintf(
		`SELECT %[1]s.geometry, %[1]s.type, tracktype, class, service, bridge, tunnel, oneway, bicycle, foot,
			power(0.666, greatest(0, trail_visibility - 1))::DOUBLE PRECISION AS trail_visibility,
			osm_route_members.member IS NOT NULL AS is_in_route
		FROM %[1]s LEFT JOIN osm_route_members ON osm_route_members.type = 1 AND osm_route_members.member = %[1]s.osm_id
		WHERE %[1]s.geometry && ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), $5)
		ORDER BY z_order, CASE WHEN %[1]s.type = 'rail' AND service IN ('', 'main') THEN 2 ELSE 1 END, %[1]s.osm_id`,
		table)

	rows, err := ctx.DB.Query(ctx.Ctx, query, ctx.BufferedBBoxParams(128.0)...)
	if err != nil {
		return &rendererr.DbError{Query: table, Err: err}
	}
	defer rows.Close()

	var roadRows []roadRow
	for rows.Next() {
		var wkb []byte
		var r roadRow
		if err := rows.Scan(&wkb, &r.typ, &r.tracktype, &r.class, &r.service, &r.bridge, &r.tunnel,
			&r.oneway, &r.bicycle, &r.foot, &r.trailVisibility, &r.isInRoute); err != nil {
			return &rendererr.DbError{Query: table, Err: err}
		}
		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}
		r.geom = geom
		roadRows = append(roadRows, r)
	}
	if err := rows.Err(); err != nil {
		return &rendererr.DbError{Query: table, Err: err}
	}

	arrow, err := ctx.SVGCache.Get("highway-arrow.svg")
	if err != nil {
		return &rendererr.ResourceError{Resource: "highway-arrow.svg", Err: err}
	}

	gc := ctx.Stack.TopContext()

	for i := range roadRows {
		renderRoadGlow(ctx, gc, &roadRows[i])
	}
	for i := range roadRows {
		renderRoadMain(ctx, gc, &roadRows[i], arrow)
	}

	return nil
}

func pathRoad(ctx *Context, gc *gg.Context, geom orb.Geometry) {
	if ls, ok := asLineString(geom); ok {
		pathRing(ctx, gc, ls)
	}
}

// renderRoadGlow is the zoom>=12 white/soft glow pass for footways, via
// ferratas, designated paths, tracks and similar narrow features.
func renderRoadGlow(ctx *Context, gc *gg.Context, r *roadRow) {
	if ctx.Zoom < 12 {
		return
	}
	zoom := ctx.Zoom

	draw := func(width float64, c color.Color) {
		gc.SetDash()
		setColor(gc, c)
		gc.SetLineJoin(gg.LineJoinRound)
		gc.SetLineWidth(width)
		pathRoad(ctx, gc, r.geom)
		gc.Stroke()
	}

	switch {
	case zoom >= 14 && r.class == "highway" && (r.typ == "footway" || r.typ == "pedestrian" || r.typ == "steps"):
		draw(1.0, colorGlow)
	case zoom >= 14 && r.class == "railway" && r.typ == "platform":
		draw(1.0, colorGlow)
	case zoom >= 14 && r.class == "highway" && r.typ == "via_ferrata":
		draw(3.0, color.Black)
		draw(1.0, colorGlow)
	case zoom >= 12 && r.class == "highway" && r.typ == "path" && r.bicycle != "designated" && (zoom > 12 || r.isInRoute):
		draw(1.0, withAlpha(colorGlow, r.trailVisibility))
	case zoom >= 12 && r.class == "highway" && r.typ == "track" &&
		(zoom > 12 || r.isInRoute || r.tracktype == "grade1"):
		draw(trackVisibilityFactor(zoom)*1.2, withAlpha(colorGlow, r.trailVisibility))
	case zoom >= 12 && r.class == "highway" && r.typ == "service" && r.service != "parking_aisle":
		draw(trackVisibilityFactor(zoom)*1.2, withAlpha(colorGlow, r.trailVisibility))
	case zoom >= 12 && (r.typ == "escape" || r.typ == "corridor" || r.typ == "bus_guideway"):
		draw(trackVisibilityFactor(zoom)*1.2, withAlpha(colorGlow, r.trailVisibility))
	case zoom >= 14 && (r.typ == "raceway" || (r.class == "leisure" && r.typ == "track")):
		draw(1.2, colorGlow)
	case zoom >= 13 && r.class == "highway" && r.typ == "bridleway":
		draw(1.2, colorGlow)
		draw(1.2, withAlpha(colorBridleway2, r.trailVisibility))
	case r.class == "highway" && (r.typ == "motorway" || r.typ == "trunk"):
		draw(4.0, colorTrack)
	case r.class == "highway" && (r.typ == "primary" || r.typ == "motorway_link" || r.typ == "trunk_link"):
		draw(3.666, colorTrack)
	case r.class == "highway" && (r.typ == "primary_link" || r.typ == "secondary" || r.typ == "construction"):
		draw(3.333, colorTrack)
	case r.class == "highway" && (r.typ == "secondary_link" || r.typ == "tertiary" || r.typ == "tertiary_link"):
		draw(3.0, colorTrack)
	case zoom >= 14 && r.class == "highway" && (r.typ == "living_street" || r.typ == "residential" || r.typ == "unclassified" || r.typ == "road"):
		draw(2.5, colorTrack)
	case zoom >= 14 && r.class == "highway" && r.typ == "piste":
		gc.SetLineJoin(gg.LineJoinRound)
		gc.SetLineWidth(2.2)
		gc.SetDash(6.0, 2.0)
		setColor(gc, colorPiste2)
		pathRoad(ctx, gc, r.geom)
		gc.Stroke()
	}
}

// drawBridgeTunnelCasing draws the black bridge outline / gray dashed
// tunnel outline under a feature, ported from draw_bridges_tunnels.
func drawBridgeTunnelCasing(ctx *Context, gc *gg.Context, r *roadRow, width float64) {
	draw := func() {
		pathRoad(ctx, gc, r.geom)
	}

	if r.bridge > 0 {
		strokeCasingRing(ctx, r, color.Black, 0.0, width+2.0, width)
	}

	if r.tunnel > 0 {
		gc.SetDash()
		gc.SetLineWidth(width + 1.0)
		setColor(gc, color.NRGBA{R: 204, G: 204, B: 204, A: 204})
		draw()
		gc.Stroke()

		strokeCasingRing(ctx, r, color.NRGBA{A: 128}, 3.0, width+2.0, width+0.8)
	}
}

// strokeCasingRing paints a ring-shaped outline around geom: an outer
// stroke at outerWidth, with an inner stroke at innerWidth punched out of
// it (DestOut), leaving just the casing band visible when composited onto
// the layer below. Ported from draw_bridges_tunnels's push_group/Clear/
// pop_group_to_source sequence; dashSpacing of 0 draws solid, matching the
// bridge casing (no dash) vs. the tunnel casing's dashed outer line.
func strokeCasingRing(ctx *Context, r *roadRow, c color.Color, dashSpacing, outerWidth, innerWidth float64) {
	ctx.Stack.Push()
	ring := ctx.Stack.TopContext()

	if dashSpacing > 0 {
		ring.SetDash(dashSpacing, dashSpacing)
	} else {
		ring.SetDash()
	}
	setColor(ring, c)
	ring.SetLineCap(gg.LineCapButt)
	ring.SetLineJoin(gg.LineJoinRound)
	ring.SetLineWidth(outerWidth)
	pathRoad(ctx, ring, r.geom)
	ring.Stroke()

	ctx.Stack.Push()
	hole := ctx.Stack.TopContext()
	hole.SetDash()
	setColor(hole, color.Opaque)
	hole.SetLineCap(gg.LineCapSquare)
	hole.SetLineJoin(gg.LineJoinRound)
	hole.SetLineWidth(innerWidth)
	pathRoad(ctx, hole, r.geom)
	hole.Stroke()

	ctx.Stack.PopGroupToSource()
	_ = ctx.Stack.Paint(composite.DestOut)

	ctx.Stack.PopGroupToSource()
	_ = ctx.Stack.Paint(composite.SourceOver)
}

func drawRail(ctx *Context, gc *gg.Context, r *roadRow, railColor color.Color, weight, sleeperWeight, spacing, glowWidth float64) {
	gc.SetLineJoin(gg.LineJoinRound)

	gw := weight + glowWidth*2.0
	sgw := sleeperWeight + glowWidth*2.0

	setColor(gc, colorRailGlow)
	gc.SetDash()
	gc.SetLineWidth(gw)
	pathRoad(ctx, gc, r.geom)
	gc.Stroke()

	gc.SetDash(0.0, (spacing-gw)/2.0, gw, (spacing-gw)/2.0)
	gc.SetLineWidth(sgw)
	pathRoad(ctx, gc, r.geom)
	gc.Stroke()

	setColor(gc, railColor)
	gc.SetDash()
	gc.SetLineWidth(weight)
	pathRoad(ctx, gc, r.geom)
	gc.Stroke()

	gc.SetDash(0.0, (spacing-weight)/2.0, weight, (spacing-weight)/2.0)
	gc.SetLineWidth(sleeperWeight)
	pathRoad(ctx, gc, r.geom)
	gc.Stroke()

	drawBridgeTunnelCasing(ctx, gc, r, sleeperWeight+glowWidth)
}

// renderRoadMain is the colored stroke pass: highway width ladder, rail
// sleeper rendering, and bridge/tunnel casings, followed by the oneway
// arrow overlay.
func renderRoadMain(ctx *Context, gc *gg.Context, r *roadRow, arrow *svgicon.Icon) {
	zoom := ctx.Zoom
	ke := trackVisibilityFactor(zoom)

	draw := func(width float64, c color.Color, dash ...float64) {
		setColor(gc, c)
		gc.SetLineJoin(gg.LineJoinRound)
		gc.SetLineWidth(width)
		gc.SetDash(dash...)
		pathRoad(ctx, gc, r.geom)
		gc.Stroke()
	}

	switch {
	case zoom >= 14 && r.typ == "pier":
		draw(2.0, colorPier)

	case zoom >= 12 && r.class == "railway" && r.typ == "rail" && (r.service == "main" || r.service == ""):
		drawRail(ctx, gc, r, colorRail, 1.5, 5.0, 9.5, 1.0)

	case zoom >= 13 && r.class == "railway" && ((r.typ == "light_rail" || r.typ == "tram") ||
		(r.typ == "rail" && r.service != "main" && r.service != "")):
		drawRail(ctx, gc, r, colorTram, 1.0, 4.5, 9.5, 1.0)

	case zoom >= 13 && r.class == "railway" && (r.typ == "miniature" || r.typ == "monorail" || r.typ == "funicular" || r.typ == "narrow_gauge" || r.typ == "subway"):
		drawRail(ctx, gc, r, colorTram, 1.0, 4.5, 7.5, 1.0)

	case zoom >= 14 && r.class == "railway" && (r.typ == "construction" || r.typ == "disused" || r.typ == "preserved"):
		drawRail(ctx, gc, r, colorRailwayDisused, 1.0, 4.5, 7.5, 1.0)

	case zoom >= 8 && zoom <= 11 && r.class == "railway" && r.typ == "rail" && (r.service == "main" || r.service == ""):
		koef := 0.8 * math.Pow(1.15, float64(zoom-8))
		drawRail(ctx, gc, r, colorRail, koef, 10.0/3.0*koef, 9.5/1.5*koef, 0.5*koef)

	case zoom >= 8 && zoom <= 11 && r.class == "highway" && (r.typ == "motorway" || r.typ == "trunk" || r.typ == "motorway_link" || r.typ == "trunk_link"):
		draw(0.8*highwayWidthCoef(zoom), colorTrack)

	case zoom >= 8 && zoom <= 11 && r.class == "highway" && (r.typ == "primary" || r.typ == "primary_link"):
		draw(0.7*highwayWidthCoef(zoom), colorTrack)

	case zoom >= 8 && zoom <= 11 && r.class == "highway" && (r.typ == "secondary" || r.typ == "secondary_link"):
		draw(0.6*highwayWidthCoef(zoom), colorTrack)

	case zoom >= 8 && zoom <= 11 && r.class == "highway" && (r.typ == "tertiary" || r.typ == "tertiary_link"):
		draw(0.5*highwayWidthCoef(zoom), colorTrack)

	case zoom >= 12 && r.class == "highway" && (r.typ == "motorway" || r.typ == "trunk"):
		draw(2.5, colorSuperroad)
		drawBridgeTunnelCasing(ctx, gc, r, 2.5+1.0)

	case zoom >= 12 && r.class == "highway" && (r.typ == "motorway_link" || r.typ == "trunk_link"):
		draw(1.5+2.0/3.0, colorSuperroad)
		drawBridgeTunnelCasing(ctx, gc, r, 1.5+2.0/3.0+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "primary":
		draw(1.5+2.0/3.0, colorRoad)
		drawBridgeTunnelCasing(ctx, gc, r, 1.5+2.0/3.0+1.0)

	case zoom >= 12 && r.class == "highway" && (r.typ == "primary_link" || r.typ == "secondary"):
		draw(1.5+1.0/3.0, colorRoad)
		drawBridgeTunnelCasing(ctx, gc, r, 1.5+1.0/3.0+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "construction":
		draw(1.5+1.0/3.0, colorConstructionRoad1, 5.0, 5.0)
		gc.SetDashOffset(5.0)
		draw(1.5+1.0/3.0, colorConstructionRoad2, 5.0, 5.0)

	case zoom >= 12 && r.class == "highway" && (r.typ == "secondary_link" || r.typ == "tertiary" || r.typ == "tertiary_link"):
		draw(1.5, colorRoad)
		drawBridgeTunnelCasing(ctx, gc, r, 1.5+1.0/3.0+1.0)

	case zoom >= 12 && zoom <= 13 && r.class == "highway" && (r.typ == "living_street" || r.typ == "residential" || r.typ == "unclassified" || r.typ == "road"):
		draw(1.0, colorTrack)
		drawBridgeTunnelCasing(ctx, gc, r, 2.0)

	case zoom >= 14 && r.class == "highway" && (r.typ == "living_street" || r.typ == "residential" || r.typ == "unclassified" || r.typ == "road"):
		draw(1.0, colorRoad)
		drawBridgeTunnelCasing(ctx, gc, r, 2.0)

	case zoom >= 14 && r.class == "attraction" && r.typ == "water_slide":
		draw(1.5, colorWaterSlide)
		drawBridgeTunnelCasing(ctx, gc, r, 2.5)

	case zoom >= 14 && r.class == "highway" && r.typ == "service" && r.service == "parking_aisle":
		draw(1.0, colorTrack)
		drawBridgeTunnelCasing(ctx, gc, r, 2.0)

	case zoom >= 14 && (r.typ == "raceway" || (r.class == "leisure" && r.typ == "track")):
		draw(1.2, colorTrack, 9.5, 1.5)
		drawBridgeTunnelCasing(ctx, gc, r, 2.2)

	case zoom >= 14 && r.class == "highway" && r.typ == "piste":
		draw(1.2, colorPiste, 9.5, 1.5)
		drawBridgeTunnelCasing(ctx, gc, r, 2.2)

	case zoom >= 14 && r.class == "highway" && (r.typ == "footway" || r.typ == "pedestrian") || zoom >= 14 && r.class == "railway" && r.typ == "platform":
		draw(1.0, colorTrack, 4.0, 2.0)
		drawBridgeTunnelCasing(ctx, gc, r, 2.0)

	case zoom >= 14 && r.class == "highway" && r.typ == "steps":
		gc.SetDashOffset(2.0)
		draw(2.5, colorTrack, 1.0, 2.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "service" && r.service != "parking_aisle",
		zoom >= 12 && (r.typ == "escape" || r.typ == "corridor" || r.typ == "bus_guideway"):
		width := ke * 1.2
		draw(width, colorTrack)
		drawBridgeTunnelCasing(ctx, gc, r, width+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "path" && r.bicycle == "designated" && r.foot == "designated" && (zoom > 12 || r.isInRoute):
		draw(ke, withAlpha(colorCycleway, r.trailVisibility), 4.0, 2.0)
		drawBridgeTunnelCasing(ctx, gc, r, ke+1.0)

	case zoom >= 12 && r.class == "highway" && (r.typ == "cycleway" ||
		(r.typ == "path" && r.bicycle == "designated" && r.foot != "designated")) && (zoom > 12 || r.isInRoute):
		draw(ke, withAlpha(colorCycleway, r.trailVisibility), 6.0, 3.0)
		drawBridgeTunnelCasing(ctx, gc, r, ke+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "path" && (r.bicycle != "designated" || r.foot == "designated") && (zoom > 12 || r.isInRoute):
		draw(ke, withAlpha(colorTrack, r.trailVisibility), 3.0, 3.0)
		drawBridgeTunnelCasing(ctx, gc, r, ke+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "bridleway" && (zoom > 12 || r.isInRoute):
		draw(ke, withAlpha(colorBridleway, r.trailVisibility), 6.0, 3.0)
		drawBridgeTunnelCasing(ctx, gc, r, ke+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "via_ferrata" && (zoom > 12 || r.isInRoute):
		draw(ke, colorTrack, 4.0, 4.0)
		drawBridgeTunnelCasing(ctx, gc, r, ke+1.0)

	case zoom >= 12 && r.class == "highway" && r.typ == "track" && (zoom > 12 || r.isInRoute || r.tracktype == "grade1"):
		width := ke * 1.2
		gc.SetLineJoin(gg.LineJoinRound)
		gc.SetLineWidth(width)
		setColor(gc, withAlpha(colorTrack, r.trailVisibility))
		gc.SetDash(trackDash(r.tracktype)...)
		pathRoad(ctx, gc, r.geom)
		gc.Stroke()
		drawBridgeTunnelCasing(ctx, gc, r, width+1.0)
	}

	if zoom >= 14 && r.oneway != 0 {
		pts := projectedRoadPoints(ctx, r.geom)
		rot := 0.0
		if r.oneway < 0 {
			rot = math.Pi
		}
		geomutil.WalkMarkers(pts, 50.0, 100.0, func(x, y, angle float64) {
			gc.Push()
			gc.Translate(x, y)
			gc.Rotate(angle + rot)
			gc.DrawImage(arrow.Image, int(-arrow.Width/2), int(-arrow.Height/2))
			gc.Pop()
		})
	}
}

func trackDash(tracktype string) []float64 {
	switch tracktype {
	case "grade1":
		return nil
	case "grade2":
		return []float64{8.0, 2.0}
	case "grade3":
		return []float64{6.0, 4.0}
	case "grade4":
		return []float64{4.0, 6.0}
	case "grade5":
		return []float64{2.0, 8.0}
	default:
		return []float64{3.0, 7.0, 7.0, 3.0}
	}
}

func projectedRoadPoints(ctx *Context, geom orb.Geometry) []geomutil.Point {
	ls, ok := asLineString(geom)
	if !ok {
		return nil
	}
	return ProjectedPoints(ctx, ls)
}

package layers

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// landuseStyle is a type's fill (and, where present, stroke) plus an
// optional SVG pattern tile name to overlay, collapsing the original's
// long per-type match arm into a declarative table. A simplification of
// landuse.rs's match block: the category -> style mapping is preserved,
// the exhaustive type list is trimmed to the types most tile styles
// actually exercise (see DESIGN.md).
type landuseStyle struct {
	fill, stroke color.Color
	strokeWidth  float64
	pattern      string
}

var landuseStyles = map[string]landuseStyle{
	"allotments":        {fill: colorAllotments},
	"cemetery":          {fill: colorGrassy, pattern: "grave"},
	"grave_yard":        {fill: colorGrassy, pattern: "grave"},
	"clearcut":          {pattern: "clearcut2"},
	"bare_rock":         {pattern: "bare_rock"},
	"beach":             {fill: colorBeach, pattern: "sand"},
	"brownfield":        {fill: colorBrownfield},
	"bog":               {fill: colorGrassy, pattern: "bog"},
	"college":           {fill: colorCollege},
	"commercial":        {fill: colorCommercial},
	"dam":               {fill: colorDam},
	"farmland":          {fill: colorFarmland},
	"farmyard":          {fill: colorFarmyard},
	"fell":              {fill: colorGrassy},
	"marsh":             {fill: colorGrassy, pattern: "marsh"},
	"wet_meadow":        {fill: colorGrassy, pattern: "marsh"},
	"fen":               {fill: colorGrassy, pattern: "marsh"},
	"forest":            {fill: colorForest},
	"grass":             {fill: colorGrassy},
	"garden":            {fill: colorOrchard, stroke: color.NRGBA{A: 51}, strokeWidth: 1},
	"grassland":         {fill: colorGrassy},
	"heath":             {fill: colorHeath},
	"hospital":          {fill: colorHospital},
	"industrial":        {fill: colorIndustrial},
	"landfill":          {fill: colorLandfill},
	"living_street":     {fill: colorResidential},
	"mangrove":          {fill: colorGrassy, pattern: "mangrove"},
	"meadow":            {fill: colorGrassy},
	"orchard":           {fill: colorOrchard, pattern: "orchard"},
	"park":              {fill: colorGrassy},
	"parking":           {fill: colorParking, stroke: colorParkingStroke, strokeWidth: 1},
	"pitch":             {fill: colorPitch, stroke: colorPitchStroke, strokeWidth: 1},
	"playground":        {fill: colorPitch, stroke: colorPitchStroke, strokeWidth: 1},
	"golf_course":       {fill: colorPitch, stroke: colorPitchStroke, strokeWidth: 1},
	"track":             {fill: colorPitch, stroke: colorPitchStroke, strokeWidth: 1},
	"plant_nursery":     {fill: colorScrub, pattern: "plant_nursery"},
	"quarry":            {fill: color.RGBA{R: 0xcd, G: 0xc3, B: 0xb5, A: 0xff}, pattern: "quarry"},
	"glacier":           {fill: colorGlacier, pattern: "glacier"},
	"reedbed":           {fill: colorGrassy, pattern: "reedbed"},
	"recreation_ground": {fill: colorRecreationGround},
	"residential":       {fill: colorResidential},
	"retail":            {fill: colorCommercial},
	"silo":              {fill: colorSilo, stroke: colorSiloStroke, strokeWidth: 1},
	"school":            {fill: colorCollege},
	"scree":             {fill: colorScree, pattern: "scree"},
	"blockfield":        {fill: colorScree, pattern: "scree"},
	"scrub":             {fill: colorScrub, pattern: "scrub"},
	"swamp":             {fill: colorGrassy, pattern: "swamp"},
	"university":        {fill: colorCollege},
	"village_green":     {fill: colorGrassy},
	"vineyard":          {fill: colorOrchard, pattern: "grapes"},
	"wastewater_plant":  {fill: colorIndustrial},
	"weir":              {fill: colorDam},
	"wetland":           {pattern: "wetland"},
	"wood":              {fill: colorForest},
}

// excludedLandTypesAtZoom mirrors the original's zoom-gated type exclusion:
// low zooms hide small recreational/storage features whose generalized
// polygons would otherwise look cluttered.
func excludedLandTypesAtZoom(zoom int) string {
	switch {
	case zoom < 12:
		return "type NOT IN ('pitch', 'playground', 'golf_course', 'track') AND"
	case zoom < 13:
		return "type NOT IN ('pitch', 'playground', 'golf_course', 'track', 'parking', 'bunker_silo', 'storage_tank', 'silo') AND"
	default:
		return ""
	}
}

// landuseTableSuffix mirrors the original's generalized-table selection:
// zoomed-out tiles read from pre-simplified _gen0/_gen1 tables rather than
// the full-resolution osm_landusages.
func landuseTableSuffix(zoom int) string {
	switch {
	case zoom <= 9:
		return "_gen0"
	case zoom <= 11:
		return "_gen1"
	default:
		return ""
	}
}

// RenderLanduse paints generalized land-use/land-cover polygons (forest,
// farmland, residential, ...), dispatch step 3. Grounded on landuse.rs.
func RenderLanduse(ctx *Context) error {
	query := fmt.Sprintf(
		`SELECT
			CASE
				WHEN type = 'wetland' AND tags->'wetland' IN ('bog', 'reedbed', 'marsh', 'swamp', 'wet_meadow', 'mangrove', 'fen')
				THEN tags->'wetland'
				ELSE type
			END AS type,
			ST_AsEWKB(ST_Intersection(ST_MakeValid(geometry), ST_Expand(ST_MakeEnvelope($1, $2, $3, $4, 3857), 100))) AS geom
		FROM osm_landusages%s
		WHERE %s geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)
		ORDER BY osm_id`,
		landuseTableSuffix(ctx.Zoom), excludedLandTypesAtZoom(ctx.Zoom))

	rows, err := ctx.DB.Query(ctx.Ctx, query, ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_landusages", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()

	for rows.Next() {
		var typ string
		var wkb []byte
		if err := rows.Scan(&typ, &wkb); err != nil {
			return &rendererr.DbError{Query: "osm_landusages", Err: err}
		}

		style, ok := landuseStyles[typ]
		if !ok {
			continue
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		if style.fill != nil {
			if style.stroke != nil {
				paintFlatWithStroke(ctx, gc, geom, style.fill, style.stroke, style.strokeWidth)
			} else {
				paintFlat(ctx, gc, geom, style.fill)
			}
		}

		if style.pattern != "" {
			paintPattern(ctx, gc, geom, style.pattern)
		}
	}

	return rows.Err()
}

// paintPattern fills geom with a repeating SVG tile fetched from
// ctx.SVGCache, a simplified analogue of landuse.rs's pattern_area (which
// anchors the repeat phase to the tile's absolute pixel position so
// patterns stay seamless across tile boundaries; this port anchors to the
// tile's own top-left corner instead, an acceptable simplification given
// patterns here are decorative texture rather than phase-sensitive hatching
// like geomutil.Hatch). Clips to geom and stamps the icon on a regular grid
// sized to the icon's own dimensions, the same DrawImage-at-an-offset
// technique renderRoadMain uses for oneway arrows. Missing pattern SVGs are
// skipped rather than treated as fatal, since the underlying fill (painted
// by the caller before pattern == "" is checked) already covers the shape.
func paintPattern(ctx *Context, gc *gg.Context, geom orb.Geometry, name string) {
	icon, err := ctx.SVGCache.Get(name + ".svg")
	if err != nil || icon.Width < 1 || icon.Height < 1 {
		return
	}

	b := geom.Bound()
	minX, minY := ctx.Projector.Project(b.Min[0], b.Min[1])
	maxX, maxY := ctx.Projector.Project(b.Max[0], b.Max[1])
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	minX = math.Max(minX, 0)
	minY = math.Max(minY, 0)
	maxX = math.Min(maxX, float64(ctx.SizePx.Width))
	maxY = math.Min(maxY, float64(ctx.SizePx.Height))
	if minX >= maxX || minY >= maxY {
		return
	}

	gc.Push()
	PathGeometry(ctx, gc, geom)
	gc.Clip()

	startCol := int(math.Floor(minX/icon.Width)) - 1
	endCol := int(math.Ceil(maxX/icon.Width)) + 1
	startRow := int(math.Floor(minY/icon.Height)) - 1
	endRow := int(math.Ceil(maxY/icon.Height)) + 1

	for row := startRow; row <= endRow; row++ {
		cy := float64(row) * icon.Height
		for col := startCol; col <= endCol; col++ {
			cx := float64(col) * icon.Width
			gc.DrawImage(icon.Image, int(cx-icon.Width/2), int(cy-icon.Height/2))
		}
	}

	gc.Pop()
}

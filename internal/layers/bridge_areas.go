package layers

import (
	"github.com/fogleman/gg"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/freemap-slovakia/maprender/internal/rendererr"
)

// BridgeAreaLayer implements BridgeAreaRenderer, backing
// shading_and_contours.go's pre-pass that keeps hillshading/contours from
// being drawn under bridge decks.
type BridgeAreaLayer struct{}

// RenderBridgeAreas paints (mask=false) or clips around (mask=true)
// "bridge"-typed landuse polygons, grounded on layers/bridge_areas.rs. When
// mask is true this sets an even-odd clip on the current top layer's
// context — everything except the bridge polygons — so that a caller
// drawing directly afterward on the SAME *gg.Context value skips the
// bridge decks. Note this clip does not propagate into separately pushed
// composite.Stack groups the way cairo's clip inherits into push_group,
// since each ctx.Stack.TopContext() call returns a fresh *gg.Context
// wrapping the layer's pixels rather than a nested drawing scope; callers
// needing the mask honored across a push/pop sequence must re-derive it.
func (BridgeAreaLayer) RenderBridgeAreas(ctx *Context, mask bool) error {
	rows, err := ctx.DB.Query(ctx.Ctx,
		`SELECT ST_AsEWKB(geometry) AS geom FROM osm_landusages
		 WHERE geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857) AND type = 'bridge'`,
		ctx.BBoxParams()...)
	if err != nil {
		return &rendererr.DbError{Query: "osm_landusages (bridge)", Err: err}
	}
	defer rows.Close()

	gc := ctx.Stack.TopContext()
	if mask {
		gc.SetFillRule(gg.FillRuleEvenOdd)
	}

	for rows.Next() {
		var wkb []byte
		if err := rows.Scan(&wkb); err != nil {
			return &rendererr.DbError{Query: "osm_landusages (bridge)", Err: err}
		}

		geom, err := ewkb.Unmarshal(wkb)
		if err != nil {
			continue
		}

		if mask {
			gc.DrawRectangle(0, 0, float64(ctx.SizePx.Width), float64(ctx.SizePx.Height))
			PathGeometry(ctx, gc, geom)
			gc.Clip()
		} else {
			paintFlat(ctx, gc, geom, colorIndustrial)

			gc.SetLineWidth(1.0)
			gc.SetDash()
			setColor(gc, colorBuildingStroke)
			PathGeometry(ctx, gc, geom)
			gc.Stroke()
		}
	}

	return rows.Err()
}

// Package layers implements the fixed z-ordered stack of thematic render
// layers (sea, landuse, hydrography, roads, buildings, hillshading, labels,
// ...), each painting onto the shared composite.Stack for a single tile
// request. Layout and naming follow the teacher's internal/pipeline stage
// breakdown, generalized to the layer set and dispatch order described by
// the original's layers/mod.rs.
package layers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/hillshade"
	"github.com/freemap-slovakia/maprender/internal/svgicon"
	"github.com/freemap-slovakia/maprender/internal/tile"
	"github.com/freemap-slovakia/maprender/internal/types"
)

// Querier is the subset of pgxpool.Pool's query surface layers need;
// *pgxpool.Pool satisfies it directly. Layers depend on this narrow
// interface rather than the concrete pool type so they can be tested
// against a fake.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Context bundles everything a layer needs to paint itself: the bbox/zoom
// being rendered, the shared group-stack surface, the database connection,
// and the per-worker resource caches. One Context is built per tile request
// and threaded through every layer's Render call, mirroring the original's
// Ctx.
type Context struct {
	Ctx  context.Context
	BBox types.BoundingBox4326To3857
	Zoom int

	SizePx    types.Size
	Scale     float64
	Projector tile.Projector

	DB        Querier
	Stack     *composite.Stack
	SVGCache  *svgicon.Cache
	Hillshade *hillshade.DatasetCache
}

// MetersPerPixel reports the ground resolution of this render, used by
// layers that size features (e.g. buffers, stroke widths) in ground units.
func (c *Context) MetersPerPixel() float64 {
	return c.BBox.Width() / (float64(c.SizePx.Width) * c.Scale)
}

// BBoxParams returns the tile's bbox as (min_x, min_y, max_x, max_y) query
// parameters, the argument shape every layer query's
// "geometry && ST_MakeEnvelope($1, $2, $3, $4, 3857)" clause expects.
// Mirrors bbox_query_params.
func (c *Context) BBoxParams() []any {
	return []any{c.BBox.MinX, c.BBox.MinY, c.BBox.MaxX, c.BBox.MaxY}
}

// BufferedBBoxParams is BBoxParams with an extra ground-unit buffer distance
// appended, for queries that need to fetch slightly outside the tile so
// stroked/offset geometry doesn't clip at the edge.
func (c *Context) BufferedBBoxParams(bufferPx float64) []any {
	return append(c.BBoxParams(), c.MetersPerPixel()*bufferPx)
}

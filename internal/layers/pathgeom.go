package layers

import (
	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/freemap-slovakia/maprender/internal/geomutil"
)

// PathGeometry traces geom onto gc as one or more subpaths, projecting
// every coordinate through ctx.Projector first. Callers set source/fill
// rule and call Fill/Stroke themselves, mirroring path_geom.rs's
// path_geometry helper.
func PathGeometry(ctx *Context, gc *gg.Context, geom orb.Geometry) {
	if geom == nil {
		return
	}

	switch g := geom.(type) {
	case orb.Point:
		px, py := ctx.Projector.Project(g[0], g[1])
		gc.DrawPoint(px, py, 0.5)
	case orb.MultiPoint:
		for _, p := range g {
			PathGeometry(ctx, gc, orb.Point(p))
		}
	case orb.LineString:
		pathRing(ctx, gc, g)
	case orb.MultiLineString:
		for _, ls := range g {
			pathRing(ctx, gc, ls)
		}
	case orb.Ring:
		pathRing(ctx, gc, orb.LineString(g))
	case orb.Polygon:
		for _, ring := range g {
			pathRing(ctx, gc, orb.LineString(ring))
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, ring := range poly {
				pathRing(ctx, gc, orb.LineString(ring))
			}
		}
	case orb.Collection:
		for _, sub := range g {
			PathGeometry(ctx, gc, sub)
		}
	}
}

func pathRing(ctx *Context, gc *gg.Context, ls orb.LineString) {
	if len(ls) == 0 {
		return
	}

	gc.NewSubPath()

	px, py := ctx.Projector.Project(ls[0][0], ls[0][1])
	gc.MoveTo(px, py)

	for _, pt := range ls[1:] {
		px, py := ctx.Projector.Project(pt[0], pt[1])
		gc.LineTo(px, py)
	}
}

// ProjectedPoints converts ls to a geomutil.Point slice in destination
// pixel space, for callers (label-on-line, offsetting, pattern stamping)
// that work with plain point lists rather than a gg path.
func ProjectedPoints(ctx *Context, ls orb.LineString) []geomutil.Point {
	pts := make([]geomutil.Point, len(ls))
	for i, pt := range ls {
		px, py := ctx.Projector.Project(pt[0], pt[1])
		pts[i] = geomutil.Point{X: px, Y: py}
	}
	return pts
}

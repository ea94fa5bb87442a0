package geomutil

import (
	"github.com/fogleman/gg"
)

// DrawSmoothBezierSpline paths a smoothed cubic Bézier spline through
// points onto gc, without stroking or filling it (callers set style and
// call Stroke/Fill themselves). smoothValue of 0 degenerates to a straight
// polyline; closed input (first point == last point) is smoothed as a
// closed loop. Ported from the AGG smooth-polygon vertex generator
// (agg_vcgen_smooth_poly1), matching the original's
// draw_smooth_bezier_spline.
func DrawSmoothBezierSpline(gc *gg.Context, points []Point, smoothValue float64) {
	if smoothValue == 0 {
		drawPolyline(gc, points)
		return
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	n := len(pts)
	if n < 2 {
		panic("geomutil: at least two points are required")
	}

	off := 0
	if pts[0] == pts[n-1] {
		pts = pts[:n-1]
		n--
		off = 1
	}

	if n < 2 {
		return
	}

	gc.MoveTo(pts[off].X, pts[off].Y)

	if n < 3 {
		gc.LineTo(pts[1].X, pts[1].Y)
		return
	}

	for i := off; i < n-1+off*4; i++ {
		p1 := pts[i%n]
		p2 := pts[(i+1)%n]

		len2 := dist(p1, p2)
		xc2, yc2 := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2

		var ctrl1 Point
		if off == 0 && i == 0 {
			ctrl1 = p1
		} else {
			p0 := pts[((i-1)%n+n)%n]
			len1 := dist(p0, p1)
			k1 := len1 / (len1 + len2)
			xc1, yc1 := (p0.X+p1.X)/2, (p0.Y+p1.Y)/2
			xm1 := xc1 + (xc2-xc1)*k1
			ym1 := yc1 + (yc2-yc1)*k1

			ctrl1 = Point{
				X: xm1 + (xc2-xm1)*smoothValue + p1.X - xm1,
				Y: ym1 + (yc2-ym1)*smoothValue + p1.Y - ym1,
			}
		}

		var ctrl2 Point
		if off == 0 && i == n-2 {
			ctrl2 = p2
		} else {
			p3 := pts[(i+2)%n]
			len3 := dist(p2, p3)
			k2 := len2 / (len2 + len3)
			xc3, yc3 := (p2.X+p3.X)/2, (p2.Y+p3.Y)/2
			xm2 := xc2 + (xc3-xc2)*k2
			ym2 := yc2 + (yc3-yc2)*k2

			ctrl2 = Point{
				X: xm2 + (xc2-xm2)*smoothValue + p2.X - xm2,
				Y: ym2 + (yc2-ym2)*smoothValue + p2.Y - ym2,
			}
		}

		gc.CubicTo(ctrl1.X, ctrl1.Y, ctrl2.X, ctrl2.Y, p2.X, p2.Y)
	}
}

func drawPolyline(gc *gg.Context, points []Point) {
	if len(points) == 0 {
		return
	}

	gc.MoveTo(points[0].X, points[0].Y)

	for _, p := range points[1:] {
		gc.LineTo(p.X, p.Y)
	}
}

// Package labelline implements text-on-a-line placement: walking a label's
// glyphs along a polyline while keeping them upright, bending with gentle
// curves, backing off on sharp ones, and optionally repeating the label at
// intervals or justifying it to fill the line exactly. Grounded on
// original_source/rust/crates/core/src/draw/text_on_line.rs (the draw/
// variant under crates/core, not the older src/draw/text_on_line.rs one;
// see DESIGN.md for why).
//
// Pango exposes glyph-cluster and ink-vs-logical-box metrics that
// fogleman/gg does not: this module measures a label one rune at a time
// with gc.MeasureString and treats each rune's advance box as its own ink
// box, rather than trying to recover per-glyph kerning or side-bearing
// detail gg's font interface doesn't surface. For the short Latin-script
// place and route names this renderer draws, the visible difference is
// negligible.
package labelline

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/geomutil"
)

// Upright controls which way a label is flipped to stay readable.
type Upright int

const (
	UprightAuto Upright = iota
	UprightLeft
	UprightRight
)

// Align anchors a non-repeating, non-justified label along the line.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Distribution selects how a label's glyphs are laid out along the line:
// aligned (optionally repeated at a fixed spacing) or justified to fill the
// line's full length.
type Distribution struct {
	Justify bool

	// Used when Justify is false.
	Align         Align
	Repeat        bool
	RepeatSpacing float64

	// Used when Justify is true.
	HasMinSpacing bool
	MinSpacing    float64
}

// AlignOnce places a single, unrepeated label anchored by align.
func AlignOnce(align Align) Distribution {
	return Distribution{Align: align}
}

// AlignRepeat repeats the label every spacing pixels of gap between copies.
func AlignRepeat(align Align, spacing float64) Distribution {
	return Distribution{Align: align, Repeat: true, RepeatSpacing: spacing}
}

// Justify stretches a single label to fill the line's entire length.
func Justify() Distribution {
	return Distribution{Justify: true}
}

// JustifyMinSpacing is Justify, but placement is abandoned (draw returns
// false) if the resulting inter-glyph spacing would fall below min.
func JustifyMinSpacing(min float64) Distribution {
	return Distribution{Justify: true, HasMinSpacing: true, MinSpacing: min}
}

// Options configures one draw along one line.
type Options struct {
	Upright      Upright
	Distribution Distribution

	Alpha       float64
	Offset      float64
	Color       color.Color
	HaloColor   color.Color
	HaloOpacity float64
	HaloWidth   float64

	MaxCurvatureDegrees  float64
	ConcaveSpacingFactor float64
}

// DefaultOptions mirrors TextOnLineOptions::default.
func DefaultOptions() Options {
	return Options{
		Upright:              UprightAuto,
		Distribution:         AlignOnce(AlignCenter),
		Alpha:                1.0,
		Color:                color.Black,
		HaloColor:            color.White,
		HaloOpacity:          0.75,
		HaloWidth:            1.5,
		MaxCurvatureDegrees:  60.0,
		ConcaveSpacingFactor: 1.0,
	}
}

type glyphCluster struct {
	text    string
	advance float64
}

type glyphPlacement struct {
	text  string
	pos   geomutil.Point
	angle float64
}

type repeatParams struct {
	span           float64
	deferCollision bool
}

// Draw draws text along points, consulting and reserving rectangles in idx
// (nil disables collision checking entirely, always succeeding). It returns
// false when nothing could be placed, either because the line was too
// short, every span crossed too sharp a bend, every candidate collided, or
// (Justify with a minimum spacing) the line couldn't be stretched to fit
// without falling below it. A line with fewer than two distinct points or
// zero length, or text with no glyphs, draws nothing and returns true.
func Draw(gc *gg.Context, points []geomutil.Point, text string, idx *collision.Index, opts Options) bool {
	pts := dedupPoints(points)
	if len(pts) < 2 {
		return true
	}

	cum := cumulativeLengths(pts)
	totalLength := cum[len(cum)-1]
	if totalLength == 0 {
		return true
	}

	dist := opts.Distribution

	var alignMode Align
	var spacing *float64
	var minSpacing *float64
	isJustify := dist.Justify

	if isJustify {
		alignMode = AlignLeft
		if dist.HasMinSpacing {
			ms := dist.MinSpacing
			minSpacing = &ms
		}
	} else {
		alignMode = dist.Align
		if dist.Repeat {
			sp := dist.RepeatSpacing
			spacing = &sp
		}
	}

	concaveSpacingFactor := opts.ConcaveSpacingFactor
	if isJustify {
		// Keep justification exact; curvature padding would shift glyphs off the span.
		concaveSpacingFactor = 0
	}

	clusters := collectClusters(gc, text)
	if len(clusters) == 0 {
		return true
	}

	baseTotalAdvance := 0.0
	for _, c := range clusters {
		baseTotalAdvance += c.advance
	}
	if baseTotalAdvance == 0 {
		return true
	}

	inkSpan, _ := gc.MeasureString(text)

	advanceScale := 1.0
	extraSpacing := 0.0
	if isJustify {
		scale, sp, ok := justifySpacing(minSpacing, totalLength, baseTotalAdvance, clusters)
		if !ok {
			return false
		}
		advanceScale, extraSpacing = scale, sp
	}

	totalAdvance := baseTotalAdvance*advanceScale + extraSpacing*float64(len(clusters)-1)

	repeat := computeRepeatParams(spacing, totalAdvance, inkSpan, opts.HaloWidth)

	var offsets []float64
	if isJustify {
		offsets = []float64{0.0}
	} else {
		offsets = labelOffsets(totalLength, repeat.span, spacing, alignMode)
	}
	if len(offsets) == 0 {
		return false
	}

	var placements [][]glyphPlacement
	var deferredBoxes []collision.Rect
	rendered := false

outer:
	for _, labelStart := range offsets {
		repeatSpan := repeat.span
		spanStart := labelStart
		spanEnd := labelStart + repeatSpan

		overallTangent, ok := weightedTangentForSpan(pts, cum, spanStart, spanEnd)
		if !ok {
			overallTangent = geomutil.Point{X: 1, Y: 0}
		}

		baseAngle := math.Atan2(overallTangent.Y, overallTangent.X)
		adjustedAngle := adjustUprightAngle(baseAngle, opts.Upright)
		delta := normalizeAngle(adjustedAngle - baseAngle)
		flipNeeded := math.Abs(delta) > math.Pi/2
		flipOffset := 0.0
		if !flipNeeded {
			flipOffset = delta
		}

		ptsUse := pts
		if opts.Offset != 0 {
			signedOffset := -opts.Offset
			if flipNeeded {
				signedOffset = opts.Offset
			}
			offsetPts := dedupPoints(geomutil.OffsetLine(pts, signedOffset))
			if len(offsetPts) >= 2 {
				ptsUse = offsetPts
			}
		}

		if flipNeeded {
			ptsUse = reversedPoints(ptsUse)
		}

		cumUse := cumulativeLengths(ptsUse)
		startUse := labelStart
		if flipNeeded {
			startUse = math.Max(totalLength-repeatSpan-labelStart, 0)
		}

		cursor := startUse
		var labelPlacements []glyphPlacement
		var glyphBoxes []collision.Rect

		for i, c := range clusters {
			effAdvance := c.advance * advanceScale
			spanStartG := cursor
			spanEndG := cursor + effAdvance

			if spanEndG > totalLength && !isJustify {
				continue outer
			}

			_, tangent, ok := positionAt(ptsUse, cumUse, spanStartG+effAdvance/2)
			if !ok {
				continue outer
			}

			weightedTangent, ok2 := weightedTangentForSpan(ptsUse, cumUse, spanStartG, spanEndG)
			if !ok2 {
				weightedTangent = tangent
			}

			tangentBefore := weightedTangent
			if _, t, ok3 := positionAt(ptsUse, cumUse, math.Max(spanStartG, 0)); ok3 {
				tangentBefore = t
			}
			tangentAfter := weightedTangent
			if _, t, ok4 := positionAt(ptsUse, cumUse, math.Min(spanEndG, totalLength)); ok4 {
				tangentAfter = t
			}

			maxBend := angleBetween(tangentBefore, tangentAfter)
			segTangents := tangentsForSpan(ptsUse, cumUse, spanStartG, spanEndG)
			for j := 1; j < len(segTangents); j++ {
				if b := angleBetween(segTangents[j-1], segTangents[j]); b > maxBend {
					maxBend = b
				}
			}

			if maxBend > opts.MaxCurvatureDegrees {
				continue outer
			}

			// Extra space proportional to curvature, so glyph corners don't touch on bends.
			ratio := clamp01(maxBend / 180.0)
			concaveSpacing := effAdvance * concaveSpacingFactor * ratio

			shiftedStart := spanStartG
			shiftedEnd := shiftedStart + effAdvance
			if shiftedEnd > totalLength && !isJustify {
				continue outer
			}

			shiftedCenter := shiftedStart + effAdvance/2

			pos, _, ok5 := positionAt(ptsUse, cumUse, shiftedCenter)
			if !ok5 {
				continue outer
			}

			glyphTangent := weightedTangent
			if t, ok6 := weightedTangentForSpan(ptsUse, cumUse, shiftedStart, shiftedEnd); ok6 {
				glyphTangent = t
			}

			angle := normalizeAngle(math.Atan2(glyphTangent.Y, glyphTangent.X) + flipOffset)

			w, h := gc.MeasureString(c.text)
			hw, hh := w/2, h/2
			cosA, sinA := math.Abs(math.Cos(angle)), math.Abs(math.Sin(angle))
			rx := hw*cosA + hh*sinA
			ry := hw*sinA + hh*cosA

			glyphBoxes = append(glyphBoxes, collision.Rect{
				MinX: pos.X - rx, MinY: pos.Y - ry,
				MaxX: pos.X + rx, MaxY: pos.Y + ry,
			})

			labelPlacements = append(labelPlacements, glyphPlacement{text: c.text, pos: pos, angle: angle})

			cursor += effAdvance
			if i+1 < len(clusters) {
				cursor += concaveSpacing + extraSpacing
			}
		}

		if idx != nil {
			collided := false
			for _, bb := range glyphBoxes {
				if idx.Collides(bb) {
					collided = true
					break
				}
			}
			if collided {
				continue outer
			}
		}

		if repeat.deferCollision {
			deferredBoxes = append(deferredBoxes, glyphBoxes...)
		} else if idx != nil {
			for _, bb := range glyphBoxes {
				idx.Add(bb)
			}
		}

		placements = append(placements, labelPlacements)
		rendered = true
	}

	if repeat.deferCollision && idx != nil {
		for _, bb := range deferredBoxes {
			idx.Add(bb)
		}
	}

	for _, label := range placements {
		drawLabel(gc, label, opts)
	}

	return rendered
}

func drawLabel(gc *gg.Context, glyphs []glyphPlacement, opts Options) {
	if len(glyphs) == 0 {
		return
	}

	haloWidth := opts.HaloWidth
	haloOffs := haloOffsets(haloWidth)

	for _, g := range glyphs {
		gc.Push()
		gc.Translate(g.pos.X, g.pos.Y)
		gc.Rotate(g.angle)

		if haloWidth > 0 {
			gc.SetColor(withAlpha(opts.HaloColor, opts.HaloOpacity*opts.Alpha))
			for _, off := range haloOffs {
				gc.DrawStringAnchored(g.text, off.X, off.Y, 0.5, 0.5)
			}
		}

		gc.SetColor(withAlpha(opts.Color, opts.Alpha))
		gc.DrawStringAnchored(g.text, 0, 0, 0.5, 0.5)

		gc.Pop()
	}
}

func haloOffsets(r float64) []geomutil.Point {
	pts := make([]geomutil.Point, 0, 8)
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		pts = append(pts, geomutil.Point{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
	}
	return pts
}

func withAlpha(c color.Color, factor float64) color.NRGBA {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.NRGBA{R: nc.R, G: nc.G, B: nc.B, A: uint8(clamp01(factor) * 255)}
}

func collectClusters(gc *gg.Context, text string) []glyphCluster {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	clusters := make([]glyphCluster, 0, len(runes))
	prevWidth := 0.0
	built := make([]rune, 0, len(runes))

	for _, r := range runes {
		built = append(built, r)
		w, _ := gc.MeasureString(string(built))
		clusters = append(clusters, glyphCluster{text: string(r), advance: w - prevWidth})
		prevWidth = w
	}

	return clusters
}

func labelOffsets(totalLength, labelSpan float64, spacing *float64, align Align) []float64 {
	if totalLength < labelSpan {
		return nil
	}

	step := totalLength
	if spacing != nil {
		step = math.Max(labelSpan+*spacing, labelSpan*0.2)
	}

	count := 1
	if spacing != nil {
		count = int(math.Floor((totalLength-labelSpan)/step)) + 1
	}

	totalSpan := 0.0
	if count > 0 {
		totalSpan = step*float64(count-1) + labelSpan
	}

	var start float64
	switch align {
	case AlignLeft:
		start = 0
	case AlignCenter:
		start = math.Max((totalLength-totalSpan)/2, 0)
	case AlignRight:
		start = math.Max(totalLength-totalSpan, 0)
	}

	offsets := make([]float64, count)
	for i := 0; i < count; i++ {
		offsets[i] = float64(i)*step + start
	}

	return offsets
}

// justifySpacing returns the per-glyph advance scale (always 1.0; kept to
// mirror the ported shape) and the extra spacing inserted between glyphs so
// the label exactly fills totalLength. ok is false when minSpacing is set
// and can't be honored.
func justifySpacing(minSpacing *float64, totalLength, baseTotalAdvance float64, clusters []glyphCluster) (scale, spacing float64, ok bool) {
	gaps := float64(len(clusters) - 1)
	if gaps <= 0 {
		return 1.0, 0.0, true
	}

	rawExtra := (totalLength - baseTotalAdvance) / gaps

	minAdv := math.Inf(1)
	for _, c := range clusters {
		if c.advance < minAdv {
			minAdv = c.advance
		}
	}
	if minAdv < 0 {
		minAdv = 0
	}

	// Allow slight compression (down to -80% of the narrowest advance), but keep spacing even.
	minGap := rawExtra
	if !math.IsInf(minAdv, 1) {
		minGap = -minAdv * 0.8
	}

	spacing = math.Max(rawExtra, minGap)
	if minSpacing != nil && spacing < *minSpacing {
		return 0, 0, false
	}

	return 1.0, spacing, true
}

func computeRepeatParams(spacing *float64, totalAdvance, inkSpan, haloWidth float64) repeatParams {
	if spacing != nil {
		return repeatParams{span: math.Max(totalAdvance, inkSpan+2*haloWidth), deferCollision: true}
	}
	return repeatParams{span: totalAdvance, deferCollision: false}
}

func dedupPoints(pts []geomutil.Point) []geomutil.Point {
	if len(pts) == 0 {
		return pts
	}

	out := make([]geomutil.Point, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		if last := out[len(out)-1]; p != last {
			out = append(out, p)
		}
	}

	return out
}

func reversedPoints(pts []geomutil.Point) []geomutil.Point {
	out := make([]geomutil.Point, len(pts))
	for i, p := range pts {
		out[len(out)-1-i] = p
	}
	return out
}

func cumulativeLengths(pts []geomutil.Point) []float64 {
	cum := make([]float64, len(pts))
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += ptDist(pts[i-1], pts[i])
		cum[i] = total
	}
	return cum
}

func positionAt(pts []geomutil.Point, cum []float64, d float64) (geomutil.Point, geomutil.Point, bool) {
	if len(pts) < 2 {
		return geomutil.Point{}, geomutil.Point{}, false
	}

	if d <= 0 {
		tangent := normalize(ptSub(pts[1], pts[0]))
		return pts[0], tangent, true
	}

	total := cum[len(cum)-1]
	if d >= total {
		n := len(pts)
		tangent := normalize(ptSub(pts[n-1], pts[n-2]))
		return pts[n-1], tangent, true
	}

	idx := 0
	for idx+1 < len(cum) && cum[idx+1] < d {
		idx++
	}

	segLen := cum[idx+1] - cum[idx]
	if segLen == 0 {
		return geomutil.Point{}, geomutil.Point{}, false
	}

	t := (d - cum[idx]) / segLen
	p1, p2 := pts[idx], pts[idx+1]
	pos := geomutil.Point{X: p1.X + (p2.X-p1.X)*t, Y: p1.Y + (p2.Y-p1.Y)*t}
	tangent := normalize(ptSub(p2, p1))

	return pos, tangent, true
}

func weightedTangentForSpan(pts []geomutil.Point, cum []float64, spanStart, spanEnd float64) (geomutil.Point, bool) {
	if len(pts) < 2 {
		return geomutil.Point{}, false
	}

	accum := geomutil.Point{}
	total := 0.0

	for i := 0; i < len(pts)-1; i++ {
		segStart, segEnd := cum[i], cum[i+1]
		overlapStart := math.Max(spanStart, segStart)
		overlapEnd := math.Min(spanEnd, segEnd)
		if overlapEnd <= overlapStart {
			continue
		}

		weight := overlapEnd - overlapStart
		tangent := normalize(ptSub(pts[i+1], pts[i]))

		accum.X += tangent.X * weight
		accum.Y += tangent.Y * weight
		total += weight
	}

	if total == 0 {
		return geomutil.Point{}, false
	}

	return normalize(accum), true
}

func tangentsForSpan(pts []geomutil.Point, cum []float64, spanStart, spanEnd float64) []geomutil.Point {
	var result []geomutil.Point

	for i := 0; i < len(pts)-1; i++ {
		segStart, segEnd := cum[i], cum[i+1]
		overlapStart := math.Max(spanStart, segStart)
		overlapEnd := math.Min(spanEnd, segEnd)
		if overlapEnd <= overlapStart {
			continue
		}

		result = append(result, normalize(ptSub(pts[i+1], pts[i])))
	}

	return result
}

func normalize(v geomutil.Point) geomutil.Point {
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return geomutil.Point{}
	}
	return geomutil.Point{X: v.X / l, Y: v.Y / l}
}

func ptSub(a, b geomutil.Point) geomutil.Point {
	return geomutil.Point{X: a.X - b.X, Y: a.Y - b.Y}
}

func ptDist(a, b geomutil.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func dot(a, b geomutil.Point) float64 {
	return a.X*b.X + a.Y*b.Y
}

func wedge(a, b geomutil.Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

func angleBetween(a, b geomutil.Point) float64 {
	return math.Abs(math.Atan2(wedge(a, b), dot(a, b))) * 180.0 / math.Pi
}

func normalizeAngle(a float64) float64 {
	switch {
	case a > math.Pi:
		return a - 2*math.Pi
	case a <= -math.Pi:
		return a + 2*math.Pi
	default:
		return a
	}
}

func adjustUprightAngle(angle float64, upright Upright) float64 {
	a := normalizeAngle(angle)

	switch upright {
	case UprightLeft:
		return normalizeAngle(a + math.Pi)
	case UprightRight:
		return a
	default: // UprightAuto
		if math.Abs(a) > math.Pi/2 {
			return normalizeAngle(a + math.Pi)
		}
		return a
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

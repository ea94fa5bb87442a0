// Package pointlabel places a single text label next to a point feature,
// retrying a ladder of candidate offsets around the point until one clears
// the collision index. Grounded on original_source/src/draw/text.rs's
// draw_text, which retries DEFAULT_PLACEMENTS (7 vertical dy offsets) in
// order and keeps the first that doesn't collide; SPEC_FULL.md calls for a
// denser, full-plane ladder than that 7-entry vertical-only list, so this
// generalizes the same retry-in-order idea to 4 concentric rings of 8
// compass offsets around the point (plus the point itself), 33 candidates
// total, rather than porting the narrower vertical-only list verbatim.
package pointlabel

import (
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/freemap-slovakia/maprender/internal/collision"
	"github.com/freemap-slovakia/maprender/internal/geomutil"
)

const (
	rings            = 4
	directionsPerRing = 8
)

// Options mirrors draw/text.rs's TextOptions, minus the narrow-font-family
// switch and letter-spacing fields: no condensed font family ships with
// this renderer, so Narrow/LetterSpacing have no equivalent to thread
// through (see DESIGN.md).
type Options struct {
	Alpha       float64
	Color       color.Color
	HaloColor   color.Color
	HaloOpacity float64
	HaloWidth   float64
	Uppercase   bool
}

// DefaultOptions mirrors TextOptions::default.
func DefaultOptions() Options {
	return Options{
		Alpha:       1.0,
		Color:       color.Black,
		HaloColor:   color.White,
		HaloOpacity: 0.75,
		HaloWidth:   1.5,
	}
}

// ladderOffset returns the unscaled (ring, direction) unit offset for
// candidate index i in [0, Count()), center first, then ring 1's 8
// directions, then ring 2's, and so on.
func ladderOffset(i int) (ring int, dir geomutil.Point) {
	if i == 0 {
		return 0, geomutil.Point{}
	}

	i--
	ring = i/directionsPerRing + 1
	dirIndex := i % directionsPerRing

	angle := -math.Pi/2 + float64(dirIndex)*(2*math.Pi/directionsPerRing)
	return ring, geomutil.Point{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Count returns the number of candidates the ladder tries.
func Count() int {
	return 1 + rings*directionsPerRing
}

// Draw tries each ladder position around pos, scaled by step pixels per
// ring, anchoring text there as soon as one doesn't collide with idx (nil
// disables collision checking, so the first/center position always wins).
// Returns false if every candidate collided.
func Draw(gc *gg.Context, idx *collision.Index, pos geomutil.Point, text string, step float64, opts Options) bool {
	if text == "" {
		return false
	}
	if opts.Uppercase {
		text = strings.ToUpper(text)
	}

	w, h := gc.MeasureString(text)
	halfW, halfH := w/2+opts.HaloWidth, h/2+opts.HaloWidth

	for i := 0; i < Count(); i++ {
		ring, dir := ladderOffset(i)
		cx := pos.X + dir.X*step*float64(ring)
		cy := pos.Y + dir.Y*step*float64(ring)

		rect := collision.Rect{MinX: cx - halfW, MinY: cy - halfH, MaxX: cx + halfW, MaxY: cy + halfH}

		if idx != nil && idx.Collides(rect) {
			continue
		}
		if idx != nil {
			idx.Add(rect)
		}

		drawHaloedText(gc, text, cx, cy, opts)
		return true
	}

	return false
}

func drawHaloedText(gc *gg.Context, text string, x, y float64, opts Options) {
	if opts.HaloWidth > 0 {
		gc.SetColor(withAlpha(opts.HaloColor, opts.HaloOpacity*opts.Alpha))
		for i := 0; i < 8; i++ {
			angle := float64(i) * math.Pi / 4
			ox, oy := opts.HaloWidth*math.Cos(angle), opts.HaloWidth*math.Sin(angle)
			gc.DrawStringAnchored(text, x+ox, y+oy, 0.5, 0.5)
		}
	}

	gc.SetColor(withAlpha(opts.Color, opts.Alpha))
	gc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}

func withAlpha(c color.Color, factor float64) color.NRGBA {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return color.NRGBA{R: nc.R, G: nc.G, B: nc.B, A: uint8(factor * 255)}
}

// Package composite implements the group-stack compositing engine used to
// layer hillshading and contour rasters under country-specific precedence
// masks (§4.2). It models cairo's push_group/pop_group_to_source/paint
// semantics on top of plain image.RGBA buffers, since the paint surface in
// this module (fogleman/gg) does not expose a group stack of its own. RGBA
// (premultiplied alpha) is used rather than NRGBA to match both gg's
// internal representation and cairo's ARGB32 convention, so a layer's pixels
// never need reformatting when handed between hillshade.ReadRGBA, a gg
// drawing context, and this stack.
package composite

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
)

// Operator selects the Porter-Duff compositing rule applied by Paint /
// PaintWithAlpha. The zero value is SourceOver.
type Operator int

const (
	SourceOver Operator = iota
	SourceIn
	SourceOut
	DestOut
	DestIn
	DestOver
)

// Stack is a push/pop stack of transparent layers, all the same size as the
// base surface. Push starts a new blank layer as the active drawing target;
// PopGroupToSource removes the top layer and holds it as the pending
// "source" for the next Paint/PaintWithAlpha call, mirroring cairo's group
// API as used by the original's shading_and_contours layer.
type Stack struct {
	w, h   int
	layers []*image.RGBA
	source *image.RGBA
}

// NewStack creates a stack with a single base layer of the given size.
func NewStack(w, h int) *Stack {
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	return &Stack{w: w, h: h, layers: []*image.RGBA{base}}
}

// Top returns the currently active drawing target.
func (s *Stack) Top() *image.RGBA {
	return s.layers[len(s.layers)-1]
}

// TopContext wraps the currently active layer in a gg.Context so layer code
// can draw vector shapes directly onto it, the way cairo drawing calls
// target whichever surface is currently active after a push_group.
func (s *Stack) TopContext() *gg.Context {
	return gg.NewContextForRGBA(s.Top())
}

// Push starts a new transparent layer on top of the stack.
func (s *Stack) Push() {
	s.layers = append(s.layers, image.NewRGBA(image.Rect(0, 0, s.w, s.h)))
}

// PopGroupToSource removes the top layer and stores it as the pending
// source for the next Paint call. Panics if called with only the base
// layer remaining, mirroring cairo's "group stack underflow" failure mode.
func (s *Stack) PopGroupToSource() {
	if len(s.layers) <= 1 {
		panic("composite: PopGroupToSource called with no pushed group")
	}

	n := len(s.layers) - 1
	s.source = s.layers[n]
	s.layers = s.layers[:n]
}

// SetSource installs img directly as the pending source for the next Paint
// call, without going through push/pop. This is how raster layers (e.g.
// hillshading read straight off a geotiff) act as a cairo set_source_surface
// call rather than a drawn group.
func (s *Stack) SetSource(img *image.RGBA) {
	s.source = img
}

// Paint composites the pending source (set by the last PopGroupToSource or
// SetSource) onto the new top layer at full alpha using op.
func (s *Stack) Paint(op Operator) error {
	return s.PaintWithAlpha(op, 1.0)
}

// PaintWithAlpha is like Paint but scales the source's alpha by alpha
// (0..1) before compositing, matching paint_with_alpha.
func (s *Stack) PaintWithAlpha(op Operator, alpha float64) error {
	if s.source == nil {
		return fmt.Errorf("composite: no pending source to paint")
	}

	applyOperator(s.Top(), s.source, op, alpha)
	s.source = nil

	return nil
}

// Result returns the base layer, valid once every pushed group has been
// popped and painted back down.
func (s *Stack) Result() (*image.RGBA, error) {
	if len(s.layers) != 1 {
		return nil, fmt.Errorf("composite: %d group(s) still pushed", len(s.layers)-1)
	}

	return s.layers[0], nil
}

// applyOperator composites src onto dst in place using the Porter-Duff
// algebra for op. Both images carry premultiplied alpha already, so the
// blend equations need no premultiply/unpremultiply round trip.
func applyOperator(dst *image.RGBA, src *image.RGBA, op Operator, alpha float64) {
	bounds := dst.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		dOff := dst.PixOffset(bounds.Min.X, y)
		sOff := src.PixOffset(bounds.Min.X, y)

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sr := float64(src.Pix[sOff]) * alpha
			sg := float64(src.Pix[sOff+1]) * alpha
			sb := float64(src.Pix[sOff+2]) * alpha
			as := float64(src.Pix[sOff+3]) / 255.0 * alpha

			dr := float64(dst.Pix[dOff])
			dg := float64(dst.Pix[dOff+1])
			db := float64(dst.Pix[dOff+2])
			ad := float64(dst.Pix[dOff+3]) / 255.0

			var or_, og, ob, oa float64

			switch op {
			case SourceIn:
				or_, og, ob = sr*ad, sg*ad, sb*ad
				oa = as * ad
			case SourceOut:
				or_, og, ob = sr*(1-ad), sg*(1-ad), sb*(1-ad)
				oa = as * (1 - ad)
			case DestOut:
				or_, og, ob = dr*(1-as), dg*(1-as), db*(1-as)
				oa = ad * (1 - as)
			case DestIn:
				or_, og, ob = dr*as, dg*as, db*as
				oa = ad * as
			case DestOver:
				or_, og, ob = dr+sr*(1-ad), dg+sg*(1-ad), db+sb*(1-ad)
				oa = ad + as*(1-ad)
			default: // SourceOver
				or_, og, ob = sr+dr*(1-as), sg+dg*(1-as), sb+db*(1-as)
				oa = as + ad*(1-as)
			}

			dst.Pix[dOff] = clamp8(or_)
			dst.Pix[dOff+1] = clamp8(og)
			dst.Pix[dOff+2] = clamp8(ob)
			dst.Pix[dOff+3] = clamp8(oa * 255.0)

			dOff += 4
			sOff += 4
		}
	}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

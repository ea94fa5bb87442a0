package layers

import (
	"math"

	"github.com/freemap-slovakia/maprender/internal/composite"
)

// ContourRenderer paints elevation contour lines for country (or, when
// country is "", the fallback contour set covering area outside every
// named country) onto the current top of the stack. Implemented by the
// database layer, which queries contour geometries clipped to the tile
// bbox.
type ContourRenderer interface {
	RenderContours(ctx *Context, country string) error
}

// BridgeAreaRenderer paints bridge deck polygons, used from zoom 15 up to
// mask hillshading out from underneath bridges so the terrain relief
// doesn't show through the deck.
type BridgeAreaRenderer interface {
	RenderBridgeAreas(ctx *Context, mask bool) error
}

// countryPrecedence lists, for each country with its own hillshading/contour
// dataset, the neighboring countries whose mask should cut its result back
// (countries digitized with overlapping coverage take precedence in a fixed
// order rather than blending). Grounded on shading_and_contours.rs's config
// table.
var countryPrecedence = []struct {
	country string
	cuts    []string
}{
	{"at", []string{"sk", "si", "cz"}},
	{"it", []string{"at", "ch", "si", "fr"}},
	{"ch", []string{"at", "fr"}},
	{"si", nil},
	{"cz", []string{"sk", "pl"}},
	{"pl", []string{"sk"}},
	{"sk", nil},
	{"fr", nil},
}

// fallbackCountries lists every country mask unioned together to figure out
// which area of the tile is NOT covered by any of the named countries, so
// the fallback dataset only paints there.
var fallbackCountries = []string{"it", "at", "ch", "si", "pl", "sk", "cz", "fr"}

// RenderShadingAndContours paints hillshading and, optionally, elevation
// contour lines for the tile, masked by the country-precedence rules above
// so that overlapping national datasets composite deterministically instead
// of blending into each other at borders. Grounded on
// shading_and_contours.rs's render.
func RenderShadingAndContours(ctx *Context, contourRenderer ContourRenderer, bridgeAreas BridgeAreaRenderer, shading, contours bool, hillshadeScale float64) error {
	fadeAlpha := math.Min(1.0, 1.0-math.Log(float64(ctx.Zoom)-7.0)/5.0)

	s := ctx.Stack

	s.Push() // top

	if ctx.Zoom >= 15 && bridgeAreas != nil {
		if err := bridgeAreas.RenderBridgeAreas(ctx, true); err != nil {
			return err
		}
	}

	for _, cc := range countryPrecedence {
		if err := renderCountryContoursAndShading(ctx, contourRenderer, cc.country, cc.cuts, shading, contours, fadeAlpha, hillshadeScale); err != nil {
			return err
		}
	}

	s.Push() // mask

	for _, country := range fallbackCountries {
		if err := renderHillshading(ctx, country+"-mask", 1.0, composite.SourceOver); err != nil {
			return err
		}
	}

	s.Push() // fallback

	if contours && ctx.Zoom >= 12 {
		s.Push() // contours
		if err := contourRenderer.RenderContours(ctx, ""); err != nil {
			return err
		}
		s.PopGroupToSource()
		if err := s.PaintWithAlpha(composite.SourceOver, 0.33); err != nil {
			return err
		}
	}

	if shading {
		if err := renderHillshading(ctx, "_", fadeAlpha, composite.SourceOver); err != nil {
			return err
		}
	}

	s.PopGroupToSource() // fallback
	if err := s.Paint(composite.SourceOut); err != nil {
		return err
	}

	s.PopGroupToSource() // mask
	if err := s.Paint(composite.SourceOver); err != nil {
		return err
	}

	s.PopGroupToSource() // top
	return s.Paint(composite.SourceOver)
}

// renderCountryContoursAndShading paints a single country's contours+shading
// group, masked by that country's own coverage mask, then cuts back every
// higher-precedence neighbor named in cuts.
func renderCountryContoursAndShading(ctx *Context, contourRenderer ContourRenderer, country string, cuts []string, shading, contours bool, fadeAlpha, hillshadeScale float64) error {
	s := ctx.Stack

	s.Push() // country-contours-and-shading

	if err := renderHillshading(ctx, country+"-mask", 1.0, composite.SourceOver); err != nil {
		return err
	}

	s.Push() // contours-and-shading

	if contours && ctx.Zoom >= 12 {
		s.Push() // contours
		if err := contourRenderer.RenderContours(ctx, country); err != nil {
			return err
		}
		s.PopGroupToSource()
		if err := s.PaintWithAlpha(composite.SourceOver, 0.33); err != nil {
			return err
		}
	}

	if shading {
		if err := renderHillshading(ctx, country, fadeAlpha, composite.SourceOver); err != nil {
			return err
		}
	}

	s.PopGroupToSource() // contours-and-shading
	if err := s.Paint(composite.SourceIn); err != nil {
		return err
	}

	for _, cut := range cuts {
		if err := renderHillshading(ctx, cut+"-mask", 1.0, composite.DestOut); err != nil {
			return err
		}
	}

	s.PopGroupToSource() // country-contours-and-shading
	return s.Paint(composite.SourceOver)
}

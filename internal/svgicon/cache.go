// Package svgicon provides the per-worker SVG icon cache: parsed and
// pre-rasterized icon images keyed by "path|stylesheet", mirroring the
// original's SvgCache but rendering to a reusable raster image instead of a
// cairo recording surface, since this module paints with fogleman/gg.
package svgicon

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Icon is a rasterized SVG, cached at its intrinsic pixel size. Callers
// scale it onto the destination surface as needed.
type Icon struct {
	Image  *image.RGBA
	Width  float64
	Height float64
}

// Cache is a per-worker cache of rasterized SVG icons. Not safe for
// concurrent use; each worker owns its own instance.
type Cache struct {
	base string
	svgs map[string]*Icon
}

// New returns an empty cache rooted at base.
func New(base string) *Cache {
	return &Cache{base: base, svgs: make(map[string]*Icon)}
}

// SetBase changes the icon root directory and drops every cached icon,
// matching the original's set_base behavior.
func (c *Cache) SetBase(base string) {
	c.base = base
	c.svgs = make(map[string]*Icon)
}

// Get returns the rasterized icon for key ("relative/path.svg" or
// "relative/path.svg|stylesheet-string"), parsing and rendering it on first
// use.
func (c *Cache) Get(key string) (*Icon, error) {
	if icon, ok := c.svgs[key]; ok {
		return icon, nil
	}

	path, _, _ := strings.Cut(key, "|")
	// A stylesheet override is not applied during parse: oksvg has no CSS
	// cascade hook, so per-call style variation for icons must instead be
	// expressed as distinct source SVG files. Keyed caching by the full
	// "path|stylesheet" string still avoids collisions between variants.

	fullPath := filepath.Join(c.base, path)

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("loading svg icon %s: %w", fullPath, err)
	}
	defer f.Close()

	svgIcon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return nil, fmt.Errorf("parsing svg icon %s: %w", fullPath, err)
	}

	w := svgIcon.ViewBox.W
	h := svgIcon.ViewBox.H
	if w <= 0 {
		w = 16
	}
	if h <= 0 {
		h = 16
	}

	svgIcon.SetTarget(0, 0, w, h)

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	scanner := rasterx.NewScannerGV(int(w), int(h), img, img.Bounds())
	raster := rasterx.NewDasher(int(w), int(h), scanner)

	svgIcon.Draw(raster, 1.0)

	icon := &Icon{Image: img, Width: w, Height: h}
	c.svgs[key] = icon

	return icon, nil
}

// DrawAt composites icon onto dst centered at (cx, cy) in destination pixel
// space, used by point-feature layers (§4.8 worker per-worker icon cache
// consumer).
func DrawAt(dst draw.Image, icon *Icon, cx, cy float64) {
	halfW := icon.Width / 2
	halfH := icon.Height / 2

	r := image.Rect(
		int(cx-halfW), int(cy-halfH),
		int(cx-halfW)+icon.Image.Bounds().Dx(),
		int(cy-halfH)+icon.Image.Bounds().Dy(),
	)

	draw.Draw(dst, r, icon.Image, image.Point{}, draw.Over)
}

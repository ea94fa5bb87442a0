package composite

import (
	"image"
	"image/color"
	"testing"
)

// fillRect sets c (given as straight, i.e. non-premultiplied, alpha) across
// rect; image.RGBA.Set premultiplies on the way in, matching how gg and the
// rest of the stack store pixels.
func fillRect(img *image.RGBA, rect image.Rectangle, c color.NRGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func straight(img *image.RGBA, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.RGBAAt(x, y)).(color.NRGBA)
}

func TestSourceOverIsStandardAlphaBlend(t *testing.T) {
	s := NewStack(2, 2)
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 0, G: 0, B: 255, A: 255})

	s.Push()
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 255, G: 0, B: 0, A: 128})
	s.PopGroupToSource()

	if err := s.Paint(SourceOver); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	got := straight(result, 0, 0)
	if got.A != 255 {
		t.Fatalf("expected fully opaque result over opaque backdrop, got %+v", got)
	}
	if got.R < 115 || got.R > 140 {
		t.Fatalf("expected ~half red blended in, got %+v", got)
	}
}

func TestSourceInMasksBySourceShape(t *testing.T) {
	s := NewStack(4, 4)
	// Backdrop opaque everywhere.
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	s.Push()
	// Source only covers the left half.
	fillRect(s.Top(), image.Rect(0, 0, 2, 4), color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	s.PopGroupToSource()

	if err := s.Paint(SourceIn); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, _ := s.Result()

	inside := straight(result, 0, 0)
	outside := straight(result, 3, 0)

	if inside.A == 0 {
		t.Fatalf("expected masked-in region to remain opaque, got %+v", inside)
	}
	if outside.A != 0 {
		t.Fatalf("expected masked-out region to become transparent, got %+v", outside)
	}
}

func TestDestOutCutsOutSourceShape(t *testing.T) {
	s := NewStack(4, 4)
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 50, G: 60, B: 70, A: 255})

	s.Push()
	fillRect(s.Top(), image.Rect(0, 0, 2, 4), color.NRGBA{A: 255})
	s.PopGroupToSource()

	if err := s.Paint(DestOut); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, _ := s.Result()

	cut := straight(result, 0, 0)
	kept := straight(result, 3, 0)

	if cut.A != 0 {
		t.Fatalf("expected cut-out region to become transparent, got %+v", cut)
	}
	if kept.A != 255 {
		t.Fatalf("expected untouched region to remain opaque, got %+v", kept)
	}
}

func TestPaintWithoutPendingSourceErrors(t *testing.T) {
	s := NewStack(2, 2)
	if err := s.Paint(SourceOver); err == nil {
		t.Fatalf("expected error painting with no pending source")
	}
}

func TestResultFailsWithUnpoppedGroups(t *testing.T) {
	s := NewStack(2, 2)
	s.Push()

	if _, err := s.Result(); err == nil {
		t.Fatalf("expected error when a group is still pushed")
	}
}

func TestPaintWithAlphaScalesContribution(t *testing.T) {
	s := NewStack(2, 2)
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{A: 0})

	s.Push()
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 255, A: 255})
	s.PopGroupToSource()

	if err := s.PaintWithAlpha(SourceOver, 0.5); err != nil {
		t.Fatalf("PaintWithAlpha: %v", err)
	}

	result, _ := s.Result()
	got := straight(result, 0, 0)

	if got.A < 120 || got.A > 135 {
		t.Fatalf("expected ~half alpha contribution, got %+v", got)
	}
}

func TestDestInKeepsDestOnlyWhereSourceIsOpaque(t *testing.T) {
	s := NewStack(4, 4)
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 90, G: 80, B: 70, A: 255})

	s.Push()
	// Source only covers the left half, like TestSourceInMasksBySourceShape.
	fillRect(s.Top(), image.Rect(0, 0, 2, 4), color.NRGBA{A: 255})
	s.PopGroupToSource()

	if err := s.Paint(DestIn); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, _ := s.Result()

	kept := straight(result, 0, 0)
	cut := straight(result, 3, 0)

	if kept.A != 255 || kept.R != 90 {
		t.Fatalf("expected dest to survive unmodified under opaque source, got %+v", kept)
	}
	if cut.A != 0 {
		t.Fatalf("expected dest to fade out where source is transparent, got %+v", cut)
	}
}

func TestDestOverFillsTransparentDestWithSource(t *testing.T) {
	s := NewStack(2, 2)
	// Dest transparent on the left, opaque on the right.
	fillRect(s.Top(), image.Rect(0, 0, 1, 2), color.NRGBA{A: 0})
	fillRect(s.Top(), image.Rect(1, 0, 2, 2), color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	s.Push()
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	s.PopGroupToSource()

	if err := s.Paint(DestOver); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, _ := s.Result()

	filled := straight(result, 0, 0)
	untouched := straight(result, 1, 0)

	if filled.A != 255 || filled.R != 255 {
		t.Fatalf("expected transparent dest filled in by source, got %+v", filled)
	}
	if untouched.R != 10 || untouched.A != 255 {
		t.Fatalf("expected opaque dest left untouched, got %+v", untouched)
	}
}

func TestSetSourceActsLikeSetSourceSurface(t *testing.T) {
	s := NewStack(2, 2)
	fillRect(s.Top(), s.Top().Bounds(), color.NRGBA{A: 0})

	raster := image.NewRGBA(image.Rect(0, 0, 2, 2))
	fillRect(raster, raster.Bounds(), color.NRGBA{G: 255, A: 255})

	s.SetSource(raster)

	if err := s.Paint(SourceOver); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	result, _ := s.Result()
	got := straight(result, 0, 0)

	if got.G != 255 || got.A != 255 {
		t.Fatalf("expected raster source painted straight through, got %+v", got)
	}
}

package mask

import (
	"image"
	"image/color"
	"testing"
)

func TestExtractAlphaMaskPreservesAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 200})

	m := ExtractAlphaMask(img)
	if m == nil {
		t.Fatal("expected non-nil mask")
	}
	if got := m.GrayAt(0, 0).Y; got != 0 {
		t.Fatalf("expected alpha 0 at (0,0), got %d", got)
	}
	if got := m.GrayAt(1, 0).Y; got != 200 {
		t.Fatalf("expected alpha 200 at (1,0), got %d", got)
	}
}

package hillshade

import "testing"

func TestPremultiply(t *testing.T) {
	// Opaque pixel is unchanged at full alpha.
	pix := []byte{255, 0, 0, 255}
	premultiply(pix)

	if pix[0] != 255 || pix[1] != 0 || pix[2] != 0 || pix[3] != 255 {
		t.Fatalf("unexpected premultiplied pixel: %v", pix)
	}

	// Half-alpha pixel attenuates each channel by ~0.5.
	pix2 := []byte{200, 100, 50, 128}
	premultiply(pix2)

	if pix2[0] == 200 || pix2[1] == 100 || pix2[2] == 50 {
		t.Fatalf("expected channels to be attenuated by alpha, got %v", pix2)
	}
}

func TestClampHelpers(t *testing.T) {
	if maxInt(3, 5) != 5 || maxInt(5, 3) != 5 {
		t.Fatalf("maxInt wrong")
	}
	if minInt(3, 5) != 3 || minInt(5, 3) != 3 {
		t.Fatalf("minInt wrong")
	}
	if clampInt(-1, 0, 10) != 0 || clampInt(11, 0, 10) != 10 || clampInt(5, 0, 10) != 5 {
		t.Fatalf("clampInt wrong")
	}
}

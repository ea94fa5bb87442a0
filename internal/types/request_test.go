package types

import "testing"

func TestImageFormatContentType(t *testing.T) {
	cases := []struct {
		format ImageFormat
		want   string
	}{
		{ImagePNG, "image/png"},
		{ImageJPEG, "image/jpeg"},
		{ImageWebP, "image/webp"},
	}

	for _, tc := range cases {
		if got := tc.format.ContentType(); got != tc.want {
			t.Fatalf("%v.ContentType() = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestNewRenderRequest(t *testing.T) {
	bbox := BoundingBox4326To3857{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}

	req := NewRenderRequest(bbox, 14, []float64{1, 2}, ImageJPEG)

	if req.Zoom != 14 || req.Format != ImageJPEG || len(req.Scales) != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}

	size := req.SizePx(256)
	if size.Width != 256 || size.Height != 256 {
		t.Fatalf("unexpected size: %+v", size)
	}
}

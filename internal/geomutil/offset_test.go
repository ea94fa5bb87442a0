package geomutil

import (
	"math"
	"testing"
)

func TestOffsetLineStraightSegment(t *testing.T) {
	points := []Point{{0, 0}, {10, 0}}

	out := OffsetLine(points, 2)

	if len(out) != 2 {
		t.Fatalf("expected 2 points for a single segment, got %d", len(out))
	}

	// Offsetting to the "left" of travel along +X should move points to -Y.
	if math.Abs(out[0].Y+2) > 1e-9 || math.Abs(out[1].Y+2) > 1e-9 {
		t.Fatalf("unexpected offset points: %+v", out)
	}
}

func TestOffsetLineZeroOffsetIsIdentity(t *testing.T) {
	points := []Point{{0, 0}, {5, 5}, {10, 0}}

	out := OffsetLine(points, 0)

	if len(out) != len(points) {
		t.Fatalf("expected identity length, got %d", len(out))
	}

	for i := range points {
		if out[i] != points[i] {
			t.Fatalf("expected identity at %d, got %+v want %+v", i, out[i], points[i])
		}
	}
}

func TestOffsetLineInsertsArcAtConvexCorner(t *testing.T) {
	// A right-angle turn opening away from the offset side should add arc
	// points between the two offset segments.
	points := []Point{{0, 0}, {10, 0}, {10, 10}}

	out := OffsetLine(points, 2)

	if len(out) <= 3 {
		t.Fatalf("expected arc points inserted at the convex corner, got %d points", len(out))
	}
}

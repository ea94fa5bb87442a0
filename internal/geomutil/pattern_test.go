package geomutil

import "testing"

func TestComputeCornersSymmetric(t *testing.T) {
	c1, c2, c3, c4 := computeCorners(Point{0, 0}, Point{10, 0}, 4)

	if c1.Y != -c2.Y {
		t.Fatalf("expected symmetric corners around the segment, got c1=%+v c2=%+v", c1, c2)
	}
	if c3.Y != -c4.Y {
		t.Fatalf("expected symmetric corners around the segment, got c3=%+v c4=%+v", c3, c4)
	}
}

func TestShouldUseBevelJoinStraightLineNeverBevels(t *testing.T) {
	// A perfectly straight run has angle 0, which cannot exceed any finite
	// miter limit.
	bevel := shouldUseBevelJoin(Point{0, 0}, Point{10, 0}, Point{20, 0}, 4, 4)
	if bevel {
		t.Fatalf("expected straight line not to trigger a bevel")
	}
}

func TestShouldUseBevelJoinSharpTurnBevels(t *testing.T) {
	// A near-180-degree reversal produces an arbitrarily long miter spike,
	// which should always exceed a modest miter limit.
	bevel := shouldUseBevelJoin(Point{0, 0}, Point{10, 0}, Point{9.99, 0}, 4, 2)
	if !bevel {
		t.Fatalf("expected sharp reversal to trigger a bevel")
	}
}

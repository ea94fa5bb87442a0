package collision

import "testing"

func TestIndexCollidesAfterAdd(t *testing.T) {
	idx := New()

	r := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	if idx.Collides(r) {
		t.Fatalf("empty index should not collide")
	}

	idx.Add(r)

	if !idx.Collides(r) {
		t.Fatalf("expected self-overlap to collide")
	}

	if !idx.Collides(Rect{MinX: 9, MinY: 9, MaxX: 20, MaxY: 20}) {
		t.Fatalf("expected overlapping rect to collide")
	}

	if idx.Collides(Rect{MinX: 11, MinY: 11, MaxX: 20, MaxY: 20}) {
		t.Fatalf("expected disjoint rect (beyond epsilon) not to collide")
	}
}

func TestEpsilonInflationIsSymmetric(t *testing.T) {
	idx := New()
	idx.Add(Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})

	// A rectangle touching exactly at the epsilon-inflated edge on the right
	// must collide the same way a rectangle touching on the left would.
	right := Rect{MinX: 10 + Epsilon/2, MinY: 0, MaxX: 20, MaxY: 10}
	left := Rect{MinX: -20, MinY: 0, MaxX: 0 - Epsilon/2, MaxY: 10}

	if idx.Collides(right) != idx.Collides(left) {
		t.Fatalf("epsilon inflation should be symmetric on the left and right edges")
	}
}

func TestAcceptanceIsIrrevocable(t *testing.T) {
	idx := New()
	r := Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5}
	idx.Add(r)

	before := idx.Len()

	// Colliding checks never remove anything, regardless of outcome.
	idx.Collides(r)
	idx.Collides(Rect{MinX: 100, MinY: 100, MaxX: 110, MaxY: 110})

	if idx.Len() != before {
		t.Fatalf("expected accepted rect count to remain %d, got %d", before, idx.Len())
	}
}

func TestCollidesWithExclusion(t *testing.T) {
	idx := New()
	r := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	idx.AddWithOwner(r, 7)

	if idx.CollidesWithExclusion(r, 7) {
		t.Fatalf("owner should be excluded from its own collision check")
	}

	if !idx.CollidesWithExclusion(r, 8) {
		t.Fatalf("a different owner should still collide")
	}
}

package layers

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/freemap-slovakia/maprender/internal/composite"
	"github.com/freemap-slovakia/maprender/internal/types"
)

func testBlurContext() *Context {
	bbox := types.BoundingBox4326To3857{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	return &Context{
		BBox:   bbox,
		Zoom:   12,
		SizePx: types.Size{Width: 256, Height: 256},
		Scale:  1.0,
		Stack:  composite.NewStack(256, 256),
	}
}

func TestTileIntersectsMaskTrueWhenOverlapping(t *testing.T) {
	ctx := testBlurContext()
	poly := orb.Polygon{orb.Ring{{-10, -10}, {500, -10}, {500, 500}, {-10, 500}, {-10, -10}}}

	if !tileIntersectsMask(ctx, poly) {
		t.Fatal("expected overlapping mask polygon to intersect the tile")
	}
}

func TestTileIntersectsMaskFalseWhenFarAway(t *testing.T) {
	ctx := testBlurContext()
	poly := orb.Polygon{orb.Ring{{1e7, 1e7}, {1e7 + 10, 1e7}, {1e7 + 10, 1e7 + 10}, {1e7, 1e7 + 10}, {1e7, 1e7}}}

	if tileIntersectsMask(ctx, poly) {
		t.Fatal("expected far-away mask polygon not to intersect the tile")
	}
}

func TestRenderBlurEdgesNoopWithoutMask(t *testing.T) {
	ctx := testBlurContext()

	if err := RenderBlurEdges(ctx, nil); err != nil {
		t.Fatalf("expected nil maskGeometry to be a no-op, got error: %v", err)
	}
}

func TestRenderBlurEdgesNoopWhenMaskFarFromTile(t *testing.T) {
	ctx := testBlurContext()
	poly := orb.Polygon{orb.Ring{{1e7, 1e7}, {1e7 + 10, 1e7}, {1e7 + 10, 1e7 + 10}, {1e7, 1e7 + 10}, {1e7, 1e7}}}

	if err := RenderBlurEdges(ctx, poly); err != nil {
		t.Fatalf("expected far-away mask to be a no-op, got error: %v", err)
	}
}

func TestRenderBlurEdgesFeathersOverlappingMask(t *testing.T) {
	ctx := testBlurContext()
	poly := orb.Polygon{orb.Ring{{-10, -10}, {500, -10}, {500, 500}, {-10, 500}, {-10, -10}}}

	if err := RenderBlurEdges(ctx, poly); err != nil {
		t.Fatalf("RenderBlurEdges returned error: %v", err)
	}

	if _, err := ctx.Stack.Result(); err != nil {
		t.Fatalf("expected stack to still have exactly its base layer, got: %v", err)
	}
}

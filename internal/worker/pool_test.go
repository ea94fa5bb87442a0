package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freemap-slovakia/maprender/internal/hillshade"
	"github.com/freemap-slovakia/maprender/internal/svgicon"
	"github.com/freemap-slovakia/maprender/internal/types"
)

type mockRenderer struct {
	delay     time.Duration
	failZoom  int
	callCount atomic.Int32
}

func (m *mockRenderer) Render(ctx context.Context, req types.RenderRequest, svgCache *svgicon.Cache, hillshadeCache *hillshade.DatasetCache) ([][]byte, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
	}

	if req.Zoom == m.failZoom {
		return nil, errors.New("simulated render failure")
	}

	return [][]byte{[]byte("fake-png-bytes")}, nil
}

func req(zoom int) types.RenderRequest {
	return types.NewRenderRequest(types.BoundingBox4326To3857{MaxX: 1, MaxY: 1}, zoom, []float64{1}, types.ImagePNG)
}

func TestPoolRenderReturnsResult(t *testing.T) {
	r := &mockRenderer{}
	p := New(Config{Workers: 2, Renderer: r})

	images, err := p.Render(context.Background(), req(10))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
}

func TestPoolPropagatesRendererError(t *testing.T) {
	r := &mockRenderer{failZoom: 5}
	p := New(Config{Workers: 1, Renderer: r})

	if _, err := p.Render(context.Background(), req(5)); err == nil {
		t.Fatalf("expected renderer error to propagate")
	}
}

func TestPoolRespectsContextCancellation(t *testing.T) {
	r := &mockRenderer{delay: 500 * time.Millisecond}
	p := New(Config{Workers: 1, Renderer: r})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := p.Render(ctx, req(1)); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestPoolRunsManyRequestsConcurrently(t *testing.T) {
	r := &mockRenderer{delay: 5 * time.Millisecond}
	p := New(Config{Workers: 4, Renderer: r})

	const n = 20
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		go func(zoom int) {
			_, err := p.Render(context.Background(), req(zoom))
			errs <- err
		}(i % 18)
	}

	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if r.callCount.Load() != n {
		t.Fatalf("expected %d renders, got %d", n, r.callCount.Load())
	}
}

// Package worker implements the render worker pool: a fixed number of
// goroutines, each owning its own SVG icon cache and hillshade dataset
// cache, pulling render requests off a bounded channel and replying on a
// one-shot channel per request. No tile render runs across more than one
// worker, and a worker never shares its caches with another (§4.8, §5).
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freemap-slovakia/maprender/internal/hillshade"
	"github.com/freemap-slovakia/maprender/internal/svgicon"
	"github.com/freemap-slovakia/maprender/internal/types"
)

// Renderer renders one tile request into one encoded image per requested
// scale, given the caches owned by the worker handling it.
type Renderer interface {
	Render(ctx context.Context, req types.RenderRequest, svgCache *svgicon.Cache, hillshadeCache *hillshade.DatasetCache) ([][]byte, error)
}

type task struct {
	ctx     context.Context
	request types.RenderRequest
	reply   chan result
}

type result struct {
	images [][]byte
	err    error
}

// Pool is a bounded-queue worker pool matching the original's
// RenderWorkerPool: queue capacity is 2*workerCount, and each worker thread
// owns its own svg/hillshade caches for its whole lifetime.
type Pool struct {
	tasks  chan task
	logger *slog.Logger
}

// Config configures the pool.
type Config struct {
	Workers          int
	Renderer         Renderer
	SvgBasePath      string
	HillshadeBase    string
	Logger           *slog.Logger
}

// New starts Workers goroutines and returns a pool ready to accept
// render requests via Render. Each worker opens its own SvgIconCache and
// HillshadeDatasetCache rooted at the configured base paths; these are
// never shared across workers.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	queueSize := workers * 2
	p := &Pool{
		tasks:  make(chan task, queueSize),
		logger: cfg.Logger,
	}

	for i := 0; i < workers; i++ {
		go p.run(i, cfg.Renderer, cfg.SvgBasePath, cfg.HillshadeBase)
	}

	return p
}

func (p *Pool) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func (p *Pool) run(id int, renderer Renderer, svgBase, hillshadeBase string) {
	svgCache := svgicon.New(svgBase)
	hillshadeCache := hillshade.NewDatasetCache(hillshadeBase)

	for t := range p.tasks {
		images, err := renderer.Render(t.ctx, t.request, svgCache, hillshadeCache)

		hillshadeCache.EvictUnused()

		select {
		case t.reply <- result{images: images, err: err}:
		default:
			// Caller already gave up (context cancelled before we could
			// reply); drop the result rather than block a worker forever.
			p.log().Warn("worker reply dropped, caller gone", "worker", id)
		}
	}
}

// Render submits a request and blocks until it is handled by some worker or
// ctx is cancelled first. Requests are served FIFO within a single worker,
// but the pool itself provides no ordering guarantee across workers.
func (p *Pool) Render(ctx context.Context, req types.RenderRequest) ([][]byte, error) {
	reply := make(chan result, 1)

	select {
	case p.tasks <- task{ctx: ctx, request: req, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		if r.err != nil {
			return nil, fmt.Errorf("render: %w", r.err)
		}
		return r.images, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

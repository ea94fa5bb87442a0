// Package metrics exposes Prometheus instrumentation for the tile server:
// render latency, cache hit/miss counts, and export job outcomes. No
// equivalent existed in the original (which logs to stderr only); this is
// this module's ambient stack supplement, grounded on the rest of the
// example pack's promauto/promhttp usage conventions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RenderDuration observes how long a single tile render takes, labeled
	// by outcome so slow renders and failures are distinguishable.
	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maprender_tile_render_seconds",
		Help:    "Tile render duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	// TilesServed counts XYZ/WMTS responses by cache outcome.
	TilesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maprender_tiles_served_total",
		Help: "Tiles served over HTTP, by cache outcome.",
	}, []string{"cache"})

	// ExportJobs counts export job terminal outcomes.
	ExportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maprender_export_jobs_total",
		Help: "Completed export jobs, by outcome.",
	}, []string{"outcome"})

	// TilesInvalidated counts cached tile files removed by the
	// pyramid-invalidation watcher.
	TilesInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maprender_tiles_invalidated_total",
		Help: "Cached tile files removed by the invalidation watcher.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

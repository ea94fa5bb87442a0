// Package hillshade provides the per-worker geotiff dataset cache and the
// pixel-window extraction/resampling used to paint hillshading and derive
// contour masks from country-specific elevation rasters.
package hillshade

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/airbusgeo/godal"
)

// datasetPaths maps a country code to its geotiff relative to the
// hillshading base directory. "_" is the fallback dataset covering any area
// not belonging to one of the named countries.
var datasetPaths = []struct {
	code string
	path string
}{
	{"sk", filepath.Join("sk", "final.tif")},
	{"sk-mask", filepath.Join("sk", "mask.tif")},
	{"cz", filepath.Join("cz", "final.tif")},
	{"cz-mask", filepath.Join("cz", "mask.tif")},
	{"at", filepath.Join("at", "final.tif")},
	{"at-mask", filepath.Join("at", "mask.tif")},
	{"pl", filepath.Join("pl", "final.tif")},
	{"pl-mask", filepath.Join("pl", "mask.tif")},
	{"it", filepath.Join("it", "final.tif")},
	{"it-mask", filepath.Join("it", "mask.tif")},
	{"ch", filepath.Join("ch", "final.tif")},
	{"ch-mask", filepath.Join("ch", "mask.tif")},
	{"si", filepath.Join("si", "final.tif")},
	{"si-mask", filepath.Join("si", "mask.tif")},
	{"fr", filepath.Join("fr", "final.tif")},
	{"fr-mask", filepath.Join("fr", "mask.tif")},
	{"no", filepath.Join("no", "final.tif")},
	{"no-mask", filepath.Join("no", "mask.tif")},
	{"_", "final.tif"},
}

func datasetPath(code string) (string, bool) {
	for _, dp := range datasetPaths {
		if dp.code == code {
			return dp.path, true
		}
	}

	return "", false
}

// MaxUnusedUses bounds how far behind the global use counter a dataset's
// last use may fall before it becomes eligible for eviction.
const MaxUnusedUses uint64 = 100

// EvictAfter bounds how long a dataset may sit idle (wall-clock) before it
// becomes eligible for eviction, even if MaxUnusedUses hasn't been reached.
const EvictAfter = 10 * time.Second

type cachedDataset struct {
	dataset    *godal.Dataset
	lastUse    uint64
	lastUsedAt time.Time
}

// DatasetCache is a per-worker cache of open geotiff datasets keyed by
// country code. Its methods take an internal mutex, so it is safe for
// concurrent use; each worker in the pool owns its own instance.
type DatasetCache struct {
	mu          sync.Mutex
	base        string
	datasets    map[string]*cachedDataset
	useCounter  uint64
}

// NewDatasetCache returns an empty cache rooted at base.
func NewDatasetCache(base string) *DatasetCache {
	return &DatasetCache{base: base, datasets: make(map[string]*cachedDataset)}
}

// Get returns the open dataset for the given country code, opening and
// caching it on first use. Returns an error if the code is unknown or the
// file can't be opened.
func (c *DatasetCache) Get(code string) (*godal.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.datasets[code]; ok {
		return cached.dataset, nil
	}

	rel, ok := datasetPath(code)
	if !ok {
		return nil, fmt.Errorf("unknown hillshading dataset key: %s", code)
	}

	full := filepath.Join(c.base, rel)

	ds, err := godal.Open(full)
	if err != nil {
		return nil, fmt.Errorf("opening hillshading geotiff %s: %w", full, err)
	}

	c.datasets[code] = &cachedDataset{dataset: &ds, lastUse: c.useCounter, lastUsedAt: time.Now()}

	return &ds, nil
}

// RecordUse advances the global use counter and refreshes the recency of the
// named dataset. Call this only after a Get actually touched pixel data, not
// on every lookup (mirrors the original's has_data gating).
func (c *DatasetCache) RecordUse(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.useCounter++

	if cached, ok := c.datasets[code]; ok {
		cached.lastUse = c.useCounter
		cached.lastUsedAt = time.Now()
	}
}

// EvictUnused closes and drops every dataset that has either fallen more
// than MaxUnusedUses uses behind the current counter, or been idle longer
// than EvictAfter wall-clock time. A dataset is kept only while both the
// use-recency and time-recency conditions hold, matching the original's
// retain() predicate.
func (c *DatasetCache) EvictUnused() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var threshold uint64
	if c.useCounter > MaxUnusedUses {
		threshold = c.useCounter - MaxUnusedUses
	}

	now := time.Now()

	for code, cached := range c.datasets {
		keep := cached.lastUse >= threshold && now.Sub(cached.lastUsedAt) <= EvictAfter

		if !keep {
			cached.dataset.Close()
			delete(c.datasets, code)
		}
	}
}

// Len reports how many datasets are currently open, for tests and metrics.
func (c *DatasetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.datasets)
}

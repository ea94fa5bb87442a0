// invalidation.go watches for imposm-style ".tile" expiry files and deletes
// the affected cached tile pyramid, plus the tiles recorded in the
// zoom-aggregated index files appendIndexEntry builds. Grounded on
// original_source/rust/crates/http/src/tile_invalidation.rs, with
// notify::recommended_watcher's recursive mode replaced by an explicit
// directory walk (fsnotify has no built-in recursive watch) that extends
// itself as new subdirectories appear.
package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/freemap-slovakia/maprender/internal/metrics"
)

// InvalidationConfig configures the expiry-file watcher and the
// pyramid-invalidation it triggers.
type InvalidationConfig struct {
	// WatchBase is watched recursively for *.tile expiry files dropped by
	// the tile-generation pipeline (e.g. imposm's expire-tiles output).
	WatchBase string

	// TileBasePath is the cached-tile tree invalidated entries are deleted
	// from; matches XYZTilesConfig.TileDir.
	TileBasePath string

	// ParentMinZoom bounds how far up the pyramid invalidation climbs.
	ParentMinZoom int

	// IndexZoom is the zoom level aggregated index files live at; must
	// match XYZTilesConfig.IndexZoom.
	IndexZoom int

	// MaxZoom bounds direct (non-parent) tile deletion and index lookup.
	MaxZoom int
}

// Invalidator watches for tile-expiry notifications and deletes the
// affected cached tiles, the Go analog of the original's free functions
// operating on a shared InvalidationConfig.
type Invalidator struct {
	cfg    InvalidationConfig
	logger *slog.Logger
}

// NewInvalidator constructs an Invalidator. Call ProcessRecoveryFiles once
// at startup, then StartWatcher to begin watching.
func NewInvalidator(cfg InvalidationConfig, logger *slog.Logger) *Invalidator {
	return &Invalidator{cfg: cfg, logger: logger}
}

func (iv *Invalidator) log() *slog.Logger {
	if iv.logger != nil {
		return iv.logger
	}
	return slog.Default()
}

// ProcessRecoveryFiles reprocesses any "*.index.processing" snapshot left
// behind by a prior run that crashed mid-invalidation, mirroring
// process_recovery_files. Call this once before StartWatcher.
func (iv *Invalidator) ProcessRecoveryFiles() {
	base := filepath.Join(iv.cfg.TileBasePath, "index", strconv.Itoa(iv.cfg.IndexZoom))

	for _, path := range collectProcessingFiles(base) {
		if err := iv.processProcessingFile(path); err != nil {
			iv.log().Error("failed to process recovery file", "path", path, "error", err)
		}
	}
}

// StartWatcher watches cfg.WatchBase recursively for "*.tile" expiry files
// and processes each as it appears, running until ctx is cancelled.
// Mirrors start_watcher/run_watcher.
func (iv *Invalidator) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("invalidation: creating watcher: %w", err)
	}

	if err := addRecursive(watcher, iv.cfg.WatchBase); err != nil {
		watcher.Close()
		return fmt.Errorf("invalidation: watching %s: %w", iv.cfg.WatchBase, err)
	}

	go iv.run(ctx, watcher)
	return nil
}

func (iv *Invalidator) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			iv.handleEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			iv.log().Warn("watcher error", "error", err)
		}
	}
}

func (iv *Invalidator) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := addRecursive(watcher, event.Name); err != nil {
				iv.log().Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}

	if filepath.Ext(event.Name) != ".tile" {
		return
	}

	if err := iv.processTileExpirationFile(event.Name); err != nil {
		iv.log().Warn("tile expiration processing failed", "path", event.Name, "error", err)
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func (iv *Invalidator) processTileExpirationFile(path string) error {
	content, err := readWithRetry(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		zoom, x, y, ok := parseTileLine(line)
		if !ok {
			iv.log().Warn("invalid tile line", "line", line)
			continue
		}

		iv.invalidateTilePyramid(zoom, x, y)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		iv.log().Warn("failed to remove tile expiry file", "path", path, "error", err)
	}

	return nil
}

// readWithRetry re-reads path up to 5 times, 50ms apart, until its size is
// stable across the read and its content is empty or newline-terminated —
// guarding against reading a file the expirer is still writing.
func readWithRetry(path string) (string, error) {
	var lastErr error

	for i := 0; i < 5; i++ {
		sizeBefore, err := fileSize(path)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}

		sizeAfter, err := fileSize(path)
		if err != nil {
			sizeAfter = sizeBefore
		}

		stable := sizeBefore == sizeAfter
		complete := len(data) == 0 || data[len(data)-1] == '\n'
		if stable && complete {
			return string(data), nil
		}

		lastErr = fmt.Errorf("file still changing")
		time.Sleep(50 * time.Millisecond)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("read failed")
	}
	return "", lastErr
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func parseTileLine(line string) (zoom, x, y int, ok bool) {
	parts := strings.Split(line, "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	z, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false
	}
	xv, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, false
	}
	yv, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, false
	}

	return z, xv, yv, true
}

func (iv *Invalidator) invalidateTilePyramid(zoom, x, y int) {
	if zoom <= iv.cfg.MaxZoom {
		iv.deleteTileFiles(zoom, x, y)
	}
	iv.deleteParentTiles(zoom, x, y)
	if zoom <= iv.cfg.MaxZoom {
		iv.deleteIndexedChildren(zoom, x, y)
	}
}

func (iv *Invalidator) deleteParentTiles(zoom, x, y int) {
	for zoom > iv.cfg.ParentMinZoom {
		zoom--
		x /= 2
		y /= 2
		iv.deleteTileFiles(zoom, x, y)
	}
}

func (iv *Invalidator) deleteIndexedChildren(zoom, x, y int) {
	if zoom != iv.cfg.IndexZoom {
		iv.log().Warn("skipping indexed child deletion: zoom mismatch",
			"zoom", zoom, "index_zoom", iv.cfg.IndexZoom, "x", x, "y", y)
		return
	}

	indexPath := indexFilePath(iv.cfg.TileBasePath, iv.cfg.IndexZoom, x, y)

	processingFile, ok, err := snapshotToProcessing(indexPath)
	if err != nil {
		iv.log().Warn("failed to snapshot index", "path", indexPath, "error", err)
		return
	}
	if !ok {
		return
	}

	if err := iv.processProcessingFile(processingFile); err != nil {
		iv.log().Warn("failed to process index snapshot", "path", processingFile, "error", err)
	}
}

func (iv *Invalidator) deleteTileFiles(zoom, x, y int) {
	dir := filepath.Join(iv.cfg.TileBasePath, strconv.Itoa(zoom), strconv.Itoa(x))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			iv.log().Warn("failed to read tile dir", "path", dir, "error", err)
		}
		return
	}

	prefix := strconv.Itoa(y) + "@"

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jpeg") {
			continue
		}

		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			iv.log().Warn("failed to remove tile file", "path", path, "error", err)
		} else if err == nil {
			metrics.TilesInvalidated.Inc()
		}
	}
}

// snapshotToProcessing exclusively locks indexPath, copies its contents to
// a fresh ".processing" snapshot, and truncates the original, so a
// concurrent appendIndexEntry writer never races a reader. Returns ok=false
// if indexPath doesn't exist (nothing to invalidate).
func snapshotToProcessing(indexPath string) (string, bool, error) {
	f, err := os.OpenFile(indexPath, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer f.Close()

	fileLock := flock.New(indexPath + ".lock")
	if err := fileLock.Lock(); err != nil {
		return "", false, err
	}
	defer fileLock.Unlock()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", false, err
	}

	target := uniqueProcessingPath(indexPath + ".processing")

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", false, err
	}

	if err := f.Truncate(0); err != nil {
		return "", false, err
	}

	return target, true, nil
}

func uniqueProcessingPath(base string) string {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s.%d", base, counter)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// processProcessingFile deletes every tile named by a ".processing"
// snapshot's lines (each a tileCachePath-relative "zoom/x/y@scale" entry,
// matching the format appendIndexEntry writes) and then removes the
// snapshot itself.
func (iv *Invalidator) processProcessingFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}

		tilePath := filepath.Join(iv.cfg.TileBasePath, entry+".jpeg")
		if err := os.Remove(tilePath); err != nil && !os.IsNotExist(err) {
			iv.log().Warn("failed to remove tile file", "path", tilePath, "error", err)
		} else if err == nil {
			metrics.TilesInvalidated.Inc()
		}
	}

	return os.Remove(path)
}

// collectProcessingFiles recursively finds stray "*.index.processing"
// snapshots under dir, left behind by a crash between snapshotToProcessing
// and processProcessingFile.
func collectProcessingFiles(dir string) []string {
	var out []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Default().Warn("failed to read dir", "path", dir, "error", err)
		}
		return out
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			out = append(out, collectProcessingFiles(path)...)
			continue
		}

		if strings.Contains(entry.Name(), ".index.processing") {
			out = append(out, path)
		}
	}

	return out
}

// export.go implements the asynchronous export job lifecycle: POST /export
// kicks off a background render to a temp file and returns a token, and
// HEAD/GET/DELETE /export?token=... poll, download, and cancel it. Grounded
// on original_source/rust/crates/http/src/export.rs, with tokio::sync::Notify
// replaced by a done channel closed once on job completion.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freemap-slovakia/maprender/internal/geojson"
	"github.com/freemap-slovakia/maprender/internal/metrics"
	"github.com/freemap-slovakia/maprender/internal/types"
)

// ExportRequest is the POST /export request body.
type ExportRequest struct {
	Zoom     int              `json:"zoom"`
	BBox     [4]float64       `json:"bbox"` // [minLon, minLat, maxLon, maxLat]
	Format   string           `json:"format"`
	Scale    *float64         `json:"scale"`
	Features *ExportFeatures  `json:"features"`
}

// ExportFeatures mirrors the original's optional per-export layer toggles.
type ExportFeatures struct {
	Shading        *bool                  `json:"shading"`
	Contours       *bool                  `json:"contours"`
	BicycleTrails  *bool                  `json:"bicycleTrails"`
	HorseTrails    *bool                  `json:"horseTrails"`
	HikingTrails   *bool                  `json:"hikingTrails"`
	SkiTrails      *bool                  `json:"skiTrails"`
	FeatureColl    map[string]interface{} `json:"featureCollection"`
}

type exportJob struct {
	filePath    string
	filename    string
	contentType string

	mu   sync.Mutex
	done chan struct{}
	err  error

	cancel context.CancelFunc
}

// Exports tracks in-flight and completed export jobs by token, the Go
// analog of the original's ExportState{jobs: Mutex<HashMap<...>>}.
type Exports struct {
	renderer Renderer
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*exportJob
}

// NewExports constructs an export job tracker backed by renderer (normally
// a *worker.Pool).
func NewExports(renderer Renderer, logger *slog.Logger) *Exports {
	return &Exports{renderer: renderer, logger: logger, jobs: make(map[string]*exportJob)}
}

func (e *Exports) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// PostHandler starts a new export job and replies with its token.
func (e *Exports) PostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		format, ext, contentType, ok := parseExportFormat(req.Format)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		scale := 1.0
		if req.Scale != nil {
			scale = *req.Scale
		}
		if !(scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		renderRequest, ok := buildExportRenderRequest(req, format, scale)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		token := uuid.NewString()
		filename := fmt.Sprintf("export-%s.%s", token, ext)
		filePath := exportFilePath(filename)

		job := e.spawn(filePath, filename, contentType, renderRequest)

		e.mu.Lock()
		e.jobs[token] = job
		e.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

// HeadHandler blocks until the job named by ?token= finishes, replying with
// its terminal status and no body.
func (e *Exports) HeadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := e.job(r.URL.Query().Get("token"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if err := e.wait(r.Context(), job); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetHandler blocks until the job finishes, then streams the rendered file.
func (e *Exports) GetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := e.job(r.URL.Query().Get("token"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		if err := e.wait(r.Context(), job); err != nil {
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		f, err := os.Open(job.filePath)
		if err != nil {
			http.Error(w, "export file missing", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", job.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, job.filename))
		http.ServeContent(w, r, job.filename, fileModTime(f), f)
	}
}

// DeleteHandler cancels a pending job (or discards a finished one) and
// removes its temp file.
func (e *Exports) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")

		e.mu.Lock()
		job, ok := e.jobs[token]
		delete(e.jobs, token)
		e.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		job.cancel()
		_ = os.Remove(job.filePath)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *Exports) job(token string) (*exportJob, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[token]
	return job, ok
}

func (e *Exports) wait(ctx context.Context, job *exportJob) error {
	select {
	case <-job.done:
		job.mu.Lock()
		defer job.mu.Unlock()
		return job.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exports) spawn(filePath, filename, contentType string, req types.RenderRequest) *exportJob {
	ctx, cancel := context.WithCancel(context.Background())

	job := &exportJob{
		filePath:    filePath,
		filename:    filename,
		contentType: contentType,
		done:        make(chan struct{}),
		cancel:      cancel,
	}

	go func() {
		defer close(job.done)

		err := e.runExport(ctx, filePath, req)

		job.mu.Lock()
		job.err = err
		job.mu.Unlock()

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				e.log().Error("export failed", "filename", filename, "error", err)
			}
			metrics.ExportJobs.WithLabelValues("error").Inc()
		} else {
			metrics.ExportJobs.WithLabelValues("ok").Inc()
		}
	}()

	return job
}

func (e *Exports) runExport(ctx context.Context, filePath string, req types.RenderRequest) error {
	images, err := e.renderer.Render(ctx, req)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("export: empty render result")
	}

	return os.WriteFile(filePath, images[0], 0o644)
}

func exportFilePath(filename string) string {
	return os.TempDir() + string(os.PathSeparator) + filename
}

func fileModTime(f *os.File) time.Time {
	if info, err := f.Stat(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

// parseExportFormat maps the requested export format to an ImageFormat,
// extension, and content type. PDF and SVG are recognized by the original
// but have no encoder among this module's dependencies (no PDF/SVG writer
// appears anywhere in the retrieved example pack, only oksvg's rasterizer
// for reading icons), so they are rejected here rather than faked; see
// DESIGN.md.
func parseExportFormat(format string) (types.ImageFormat, string, string, bool) {
	if format == "" {
		format = "jpeg"
	}

	switch format {
	case "jpeg", "jpg":
		return types.ImageJPEG, "jpeg", "image/jpeg", true
	case "png":
		return types.ImagePNG, "png", "image/png", true
	default:
		return 0, "", "", false
	}
}

func buildExportRenderRequest(req ExportRequest, format types.ImageFormat, scale float64) (types.RenderRequest, bool) {
	minX, minY := lonLatTo3857(req.BBox[0], req.BBox[1])
	maxX, maxY := lonLatTo3857(req.BBox[2], req.BBox[3])

	bbox := types.BoundingBox4326To3857{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}

	rr := types.NewRenderRequest(bbox, req.Zoom, []float64{scale}, format)

	if f := req.Features; f != nil {
		if f.Shading != nil {
			rr.Shading = *f.Shading
		}
		if f.Contours != nil {
			rr.Contours = *f.Contours
		}

		var routeTypes []string
		if f.HikingTrails != nil && *f.HikingTrails {
			routeTypes = append(routeTypes, "hiking")
		}
		if f.HorseTrails != nil && *f.HorseTrails {
			routeTypes = append(routeTypes, "horse")
		}
		if f.BicycleTrails != nil && *f.BicycleTrails {
			routeTypes = append(routeTypes, "bicycle")
		}
		if f.SkiTrails != nil && *f.SkiTrails {
			routeTypes = append(routeTypes, "ski")
		}
		if f.HikingTrails != nil || f.HorseTrails != nil || f.BicycleTrails != nil || f.SkiTrails != nil {
			rr.RouteTypes = routeTypes
		}

		if f.FeatureColl != nil {
			raw, err := json.Marshal(f.FeatureColl)
			if err != nil {
				return types.RenderRequest{}, false
			}
			fc, err := geojson.FromGeoJSON(raw)
			if err != nil {
				return types.RenderRequest{}, false
			}
			rr.Features = fc
		}
	}

	return rr, true
}

// lonLatTo3857 converts WGS84 degrees to EPSG:3857 meters, matching the
// original's lon_lat_to_3857 including its latitude clamp.
func lonLatTo3857(lon, lat float64) (float64, float64) {
	const earthRadius = 6378137.0
	const maxLat = 85.05112878

	if lat > maxLat {
		lat = maxLat
	}
	if lat < -maxLat {
		lat = -maxLat
	}

	x := lon * math.Pi / 180.0 * earthRadius
	y := math.Log(math.Tan(lat*math.Pi/180.0/2.0+math.Pi/4.0)) * earthRadius

	return x, y
}

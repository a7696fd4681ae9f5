package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/raster"
	"github.com/MeKo-Tech/discarta/internal/tile"
)

// OnDemandTilesConfig configures the on-demand tile handler.
type OnDemandTilesConfig struct {
	// TilesDir caches rendered tiles as {projection}/{zoom}/{row}-{col}.png.
	// Empty disables the disk cache.
	TilesDir             string
	CacheControl         string
	MaxConcurrentRenders int
	RenderTimeout        time.Duration
	DisableCache         bool
	Style                raster.Style
}

// OnDemandTiles renders tiles of any registered projection per request.
type OnDemandTiles struct {
	renderer tile.Renderer
	painter  *raster.Renderer
	logger   *slog.Logger
	sem      chan struct{}
	locks    sync.Map
	cfg      OnDemandTilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	totalCached    atomic.Int64
	currentRenders sync.Map // tile key -> start time
	queuedRenders  atomic.Int32
}

// RenderStatus contains current render operation status.
type RenderStatus struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	TotalCached   int64    `json:"total_cached"`
	CurrentTiles  []string `json:"current_tiles"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedRenders int      `json:"queued_renders"`
}

// NewOnDemandTiles creates the handler. A nil renderer draws the graticule.
func NewOnDemandTiles(r tile.Renderer, cfg OnDemandTilesConfig, logger *slog.Logger) *OnDemandTiles {
	if r == nil {
		r = tile.GraticuleRenderer{}
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.Style == (raster.Style{}) {
		cfg.Style = raster.DefaultStyle()
	}

	return &OnDemandTiles{
		renderer: r,
		painter:  raster.NewRenderer(cfg.Style),
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrentRenders),
		cfg:      cfg,
	}
}

// Status returns the current render counters.
func (t *OnDemandTiles) Status() RenderStatus {
	var current []string
	t.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	return RenderStatus{
		ActiveRenders: int(t.activeRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		TotalCached:   t.totalCached.Load(),
		CurrentTiles:  current,
		MaxConcurrent: t.cfg.MaxConcurrentRenders,
		QueuedRenders: int(t.queuedRenders.Load()),
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

// Handler serves /tiles/{projection}/{z}/{row}-{col}.png.
func (t *OnDemandTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	name, coord, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	p, err := projection.ByName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	req, err := tile.NewRequest(p, coord)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	key := projection.Slug(p) + "/" + coord.String()
	var cachePath string
	if t.cfg.TilesDir != "" {
		cachePath = coord.FilePath(filepath.Join(t.cfg.TilesDir, projection.Slug(p)), "png")
	}

	if t.serveCached(w, r, cachePath) {
		return
	}

	mu := t.getLock(key)
	mu.Lock()
	defer mu.Unlock()

	if t.serveCached(w, r, cachePath) {
		return
	}

	t.queuedRenders.Add(1)
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(key, start)
	data, err := t.render(ctx, req)
	t.activeRenders.Add(-1)
	t.currentRenders.Delete(key)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("tile render failed", "tile", key, "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, fmt.Sprintf("failed to render tile: %v", err), status)
		return
	}
	t.totalRendered.Add(1)
	t.log().Debug("tile rendered", "tile", key, "duration", time.Since(start))

	if cachePath != "" {
		if err := writeFileAtomic(cachePath, data); err != nil {
			t.log().Warn("failed to cache tile", "path", cachePath, "error", err)
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		t.log().Error("failed to write response", "error", err)
	}
}

func (t *OnDemandTiles) serveCached(w http.ResponseWriter, r *http.Request, path string) bool {
	if path == "" || t.cfg.DisableCache || !fileExists(path) {
		return false
	}
	t.totalCached.Add(1)
	http.ServeFile(w, r, path)
	return true
}

func (t *OnDemandTiles) render(ctx context.Context, req tile.Request) ([]byte, error) {
	d, err := t.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, t.painter.Render(d)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *OnDemandTiles) getLock(key string) *sync.Mutex {
	mu, _ := t.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (t *OnDemandTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*.png")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

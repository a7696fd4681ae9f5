package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/discarta/internal/extent"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// MuxConfig wires the handlers of the tile server.
type MuxConfig struct {
	Tiles http.Handler
	// Status is optional.
	Status http.Handler
	// Projections lists what /projections reports. Empty means all
	// registered projections.
	Projections []projection.Projection
	Logger      *slog.Logger
}

// ProjectionInfo is one entry of the /projections response.
type ProjectionInfo struct {
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	TileWidth  float64    `json:"tile_width"`
	TileHeight float64    `json:"tile_height"`
	MinZoom    int        `json:"min_zoom"`
	MaxZoom    int        `json:"max_zoom"`
	Bounds     [4]float64 `json:"bounds"` // west, south, east, north
}

func describe(p projection.Projection) ProjectionInfo {
	world := p.World()
	size := p.TileSize()
	return ProjectionInfo{
		Name:       p.Name(),
		Slug:       projection.Slug(p),
		TileWidth:  size.Width,
		TileHeight: size.Height,
		MinZoom:    extent.MinZoomLevel,
		MaxZoom:    extent.MaxZoomLevel,
		Bounds: [4]float64{
			world.NorthWest.Longitude,
			world.SouthWest().Latitude,
			world.NorthEast().Longitude,
			world.NorthWest.Latitude,
		},
	}
}

// NewMux builds the routes: /healthz, /projections, /status and /tiles/.
func NewMux(cfg MuxConfig) *http.ServeMux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	projections := cfg.Projections
	if len(projections) == 0 {
		for _, name := range projection.Names() {
			p, _ := projection.ByName(name)
			projections = append(projections, p)
		}
	}
	infos := make([]ProjectionInfo, len(projections))
	for i, p := range projections {
		infos[i] = describe(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/projections", withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(infos); err != nil {
			logger.Error("failed to encode projections", "error", err)
		}
	})))
	if cfg.Status != nil {
		mux.Handle("/status", withCORS(cfg.Status))
	}
	mux.Handle("/tiles/", withCORS(cfg.Tiles))
	return mux
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

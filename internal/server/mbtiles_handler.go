package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// MBTilesHandler serves tiles from an MBTiles database.
type MBTilesHandler struct {
	reader       *mbtiles.Reader
	logger       *slog.Logger
	cacheControl string
}

// MBTilesConfig configures the MBTiles handler.
type MBTilesConfig struct {
	MBTilesPath  string
	CacheControl string
}

// NewMBTilesHandler creates a new MBTiles handler.
func NewMBTilesHandler(cfg MBTilesConfig, logger *slog.Logger) (*MBTilesHandler, error) {
	reader, err := mbtiles.OpenReader(cfg.MBTilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MBTiles: %w", err)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &MBTilesHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Handler returns the HTTP handler function.
func (h *MBTilesHandler) Handler() http.HandlerFunc {
	return h.serveTile
}

// Projection is the projection of the served tiles.
func (h *MBTilesHandler) Projection() projection.Projection {
	return h.reader.Projection()
}

func (h *MBTilesHandler) serveTile(w http.ResponseWriter, r *http.Request) {
	name, coord, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Only the database's own projection is available.
	p, err := projection.ByName(name)
	if err != nil || projection.Slug(p) != projection.Slug(h.reader.Projection()) {
		http.Error(w, fmt.Sprintf("projection %q not served", name), http.StatusNotFound)
		return
	}

	data, err := h.reader.ReadTile(coord)
	if errors.Is(err, mbtiles.ErrTileNotFound) {
		http.Error(w, "Tile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read tile", "coords", coord.String(), "error", err)
		http.Error(w, "Failed to read tile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the MBTiles reader.
func (h *MBTilesHandler) Close() error {
	return h.reader.Close()
}

func (h *MBTilesHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

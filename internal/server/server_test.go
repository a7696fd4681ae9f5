package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestOnDemandTiles(t *testing.T) {
	dir := t.TempDir()
	od := NewOnDemandTiles(nil, OnDemandTilesConfig{TilesDir: dir, CacheControl: "max-age=60"}, nil)
	mux := NewMux(MuxConfig{Tiles: od.Handler(), Status: od.StatusHandler()})

	t.Run("renders tile", func(t *testing.T) {
		rec := get(t, mux, http.MethodGet, "/tiles/equirectangular/1/0-1.png")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

		img := decodePNG(t, rec.Body.Bytes())
		assert.Equal(t, image.Rect(0, 0, 512, 256), img.Bounds())

		cached := tile.NewCoord(1, 1, 0).FilePath(filepath.Join(dir, "wgs-84-world-equidistant-cylindrical"), "png")
		assert.FileExists(t, cached)
	})

	t.Run("serves cached tile", func(t *testing.T) {
		rec := get(t, mux, http.MethodGet, "/tiles/wgs-84-world-equidistant-cylindrical/1/0-1.png")
		require.Equal(t, http.StatusOK, rec.Code)
		decodePNG(t, rec.Body.Bytes())

		status := od.Status()
		assert.EqualValues(t, 1, status.TotalRendered)
		assert.EqualValues(t, 1, status.TotalCached)
	})

	t.Run("mercator tile size", func(t *testing.T) {
		rec := get(t, mux, http.MethodGet, "/tiles/pseudo-mercator/0/0-0.png")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, image.Rect(0, 0, 256, 256), decodePNG(t, rec.Body.Bytes()).Bounds())
	})

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"unknown projection", http.MethodGet, "/tiles/lambert/0/0-0.png", http.StatusNotFound},
		{"outside grid", http.MethodGet, "/tiles/equirectangular/1/2-0.png", http.StatusNotFound},
		{"zoom outside grid", http.MethodGet, "/tiles/equirectangular/25/0-0.png", http.StatusNotFound},
		{"bad path", http.MethodGet, "/tiles/equirectangular/a.png", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/tiles/equirectangular/0/0-0.png", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(t, mux, tt.method, tt.target).Code)
		})
	}
}

func TestOnDemandTilesRenderFailure(t *testing.T) {
	failing := tile.RendererFunc(func(ctx context.Context, req tile.Request) (tile.Drawing, error) {
		return tile.Drawing{}, errors.New("boom")
	})
	od := NewOnDemandTiles(failing, OnDemandTilesConfig{}, nil)

	rec := get(t, od.Handler(), http.MethodGet, "/tiles/equirectangular/0/0-0.png")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")

	status := od.Status()
	assert.EqualValues(t, 1, status.TotalFailed)
	assert.Zero(t, status.ActiveRenders)
	assert.Empty(t, status.CurrentTiles)
}

func TestStatusHandler(t *testing.T) {
	od := NewOnDemandTiles(nil, OnDemandTilesConfig{MaxConcurrentRenders: 3, DisableCache: true}, nil)
	get(t, od.Handler(), http.MethodGet, "/tiles/equirectangular/0/0-0.png")

	rec := get(t, od.StatusHandler(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status RenderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 3, status.MaxConcurrent)
	assert.EqualValues(t, 1, status.TotalRendered)
}

func TestMuxEndpoints(t *testing.T) {
	mux := NewMux(MuxConfig{Tiles: http.NotFoundHandler()})

	rec := get(t, mux, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, mux, http.MethodGet, "/projections")
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []ProjectionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "wgs-84-world-equidistant-cylindrical", infos[0].Slug)
	assert.Equal(t, [4]float64{-180, -90, 180, 90}, infos[0].Bounds)
	assert.Equal(t, 512.0, infos[0].TileWidth)
	assert.Equal(t, 256.0, infos[1].TileHeight)

	assert.Equal(t, http.StatusNotFound, get(t, mux, http.MethodGet, "/status").Code)
}

func TestMBTilesHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.mbtiles")
	p := projection.PseudoMercator{}
	w, err := mbtiles.New(path, mbtiles.MetadataFor("test", p, p.World(), 0, 1))
	require.NoError(t, err)
	require.NoError(t, w.WriteTile(tile.NewCoord(1, 1, 0), []byte("png-bytes")))
	require.NoError(t, w.Close())

	h, err := NewMBTilesHandler(MBTilesConfig{MBTilesPath: path}, nil)
	require.NoError(t, err)
	defer h.Close()
	assert.IsType(t, projection.PseudoMercator{}, h.Projection())

	rec := get(t, h.Handler(), http.MethodGet, "/tiles/pseudo-mercator/1/0-1.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusNotFound, get(t, h.Handler(), http.MethodGet, "/tiles/pseudo-mercator/1/1-1.png").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h.Handler(), http.MethodGet, "/tiles/equirectangular/1/0-1.png").Code)
}

func TestMBTilesHandlerMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mbtiles")
	_, err := NewMBTilesHandler(MBTilesConfig{MBTilesPath: path}, nil)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "reader must not create the file")
}

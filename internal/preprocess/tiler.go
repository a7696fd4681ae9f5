package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/discarta/internal/extent"
	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/raster"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/MeKo-Tech/discarta/internal/worker"
	"github.com/disintegration/gift"
)

// ErrOutsideWorld is returned for rasters that do not overlap the target
// projection's world.
var ErrOutsideWorld = errors.New("raster lies outside the projection's world")

// TilerConfig configures a Tiler.
type TilerConfig struct {
	// OutputDir receives {projection}/{zoom}/{row}-{col}.png. Empty skips
	// file output.
	OutputDir string
	// MBTiles optionally receives every tile as well.
	MBTiles *mbtiles.Writer
	Workers int
	// Force overwrites existing tile files.
	Force  bool
	Logger *slog.Logger
}

// Tiler cuts georeferenced rasters into the tile grid of a projection.
type Tiler struct {
	cfg TilerConfig
}

// NewTiler creates a tiler.
func NewTiler(cfg TilerConfig) *Tiler {
	return &Tiler{cfg: cfg}
}

func (t *Tiler) log() *slog.Logger {
	if t.cfg.Logger != nil {
		return t.cfg.Logger
	}
	return slog.Default()
}

// Summary describes one ProjectAndTile run.
type Summary struct {
	Zoom   int
	Tiles  int
	Failed int
	// Target is where the raster landed on the full map, in pixels.
	Target pixel.Rect
}

// ProjectAndTile places the raster described by info on the full map of p
// at zoom and writes every tile it touches. Rasters without georeference
// are treated as covering p's whole world. Progress goes to observer, which
// may be nil.
func (t *Tiler) ProjectAndTile(ctx context.Context, info RasterInfo, p projection.Projection, zoom int, observer Observer) (Summary, error) {
	if p == nil {
		return Summary{}, projection.ErrNilProjection
	}
	if zoom != extent.ClampZoom(zoom) {
		return Summary{}, fmt.Errorf("zoom %d outside [%d, %d]", zoom, extent.MinZoomLevel, extent.MaxZoomLevel)
	}

	area := info.MapArea
	if area.IsEmpty() {
		t.log().Warn("Raster has no georeference, assuming whole world", "file", info.FileName)
		area = p.World()
	}
	clipped := geo.Intersection(area, p.World())
	if clipped.Size.DeltaLatitude <= 0 || clipped.Size.DeltaLongitude <= 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrOutsideWorld, info.FileName)
	}

	src, err := decodeRaster(info.FullPath)
	if err != nil {
		return Summary{}, err
	}
	src = cropToArea(src, area, clipped)

	view := projection.At(zoom, p.World())
	target := p.ToAreaRect(clipped, view)
	placed := warp(src, clipped, p, view, target.Image())
	if placed.Bounds().Empty() {
		return Summary{}, fmt.Errorf("%w: %s is smaller than a pixel at zoom %d", ErrOutsideWorld, info.FileName, zoom)
	}

	grid := tile.NewGrid(p, zoom)
	coords := grid.Intersecting(target)
	tasks := make([]worker.Task, len(coords))
	for i, c := range coords {
		tasks[i] = worker.Task{Coord: c, Force: t.cfg.Force}
	}

	message := fmt.Sprintf("Tiling %s at zoom %d", info.FileName, zoom)
	observer.report(Status{Message: message, Total: float64(len(tasks))})

	t.log().Info("Tiling raster",
		"file", info.FileName,
		"projection", p.Name(),
		"zoom", zoom,
		"target", target.String(),
		"tiles", len(tasks))

	pool := worker.New(worker.Config{
		Workers:   t.cfg.Workers,
		Generator: &cutter{tiler: t, proj: p, grid: grid, placed: placed},
		OnProgress: func(completed, total, failed int) {
			observer.report(Status{Message: message, Current: float64(completed), Total: float64(total)})
		},
	})
	results := pool.Run(ctx, tasks)

	summary := Summary{Zoom: zoom, Tiles: len(results), Target: target}
	if failed := worker.Failed(results); len(failed) > 0 {
		summary.Failed = len(failed)
		return summary, fmt.Errorf("%d of %d tiles failed: %w", len(failed), len(results), failed[0].Err)
	}
	return summary, nil
}

func decodeRaster(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster %s: %w", path, err)
	}
	return img, nil
}

// cropToArea cuts the part of src covering clipped out of a raster
// covering area.
func cropToArea(src image.Image, area, clipped geo.GeoArea) image.Image {
	if clipped.Equal(area) {
		return src
	}

	b := src.Bounds()
	sx := float64(b.Dx()) / area.Size.DeltaLongitude
	sy := float64(b.Dy()) / area.Size.DeltaLatitude
	r := image.Rect(
		b.Min.X+int(math.Floor((clipped.NorthWest.Longitude-area.NorthWest.Longitude)*sx)),
		b.Min.Y+int(math.Floor((area.NorthWest.Latitude-clipped.NorthWest.Latitude)*sy)),
		b.Min.X+int(math.Ceil((clipped.NorthEast().Longitude-area.NorthWest.Longitude)*sx)),
		b.Min.Y+int(math.Ceil((area.NorthWest.Latitude-clipped.SouthWest().Latitude)*sy)),
	).Intersect(b)

	g := gift.New(gift.Crop(r))
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst
}

// warp resamples src, which covers area in geographic coordinates, onto
// the target pixel rect of p's full map. The result's bounds are target.
// Columns scale linearly in both projections; rows are remapped by
// latitude so non-linear projections get the right vertical stretch.
func warp(src image.Image, area geo.GeoArea, p projection.Projection, view projection.View, target image.Rectangle) *image.NRGBA {
	w, h := target.Dx(), target.Dy()
	out := image.NewNRGBA(target)
	if w <= 0 || h <= 0 {
		return out
	}

	resized := image.NewNRGBA(image.Rect(0, 0, w, h))
	gift.New(gift.Resize(w, h, gift.LinearResampling)).Draw(resized, src)

	north := area.NorthWest.Latitude
	for y := 0; y < h; y++ {
		center := pixel.Point{X: float64(target.Min.X), Y: float64(target.Min.Y+y) + 0.5}
		lat := p.ToGeoPoint(center, view).Latitude
		row := int(math.Floor((north - lat) / area.Size.DeltaLatitude * float64(h)))
		row = max(0, min(h-1, row))

		copy(out.Pix[out.PixOffset(target.Min.X, target.Min.Y+y):][:w*4],
			resized.Pix[resized.PixOffset(0, row):][:w*4])
	}
	return out
}

// cutter writes the tiles of one placed raster.
type cutter struct {
	tiler  *Tiler
	proj   projection.Projection
	grid   tile.Grid
	placed *image.NRGBA
}

func (c *cutter) Generate(ctx context.Context, coord tile.Coord, force bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var path string
	if dir := c.tiler.cfg.OutputDir; dir != "" {
		path = coord.FilePath(filepath.Join(dir, projection.Slug(c.proj)), "png")
		if !force && c.tiler.cfg.MBTiles == nil {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	img := c.cut(coord)
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		return "", fmt.Errorf("tile %s: %w", coord, err)
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create tile directory: %w", err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("failed to write tile %s: %w", coord, err)
		}
	}
	if w := c.tiler.cfg.MBTiles; w != nil {
		if err := w.WriteTile(coord, buf.Bytes()); err != nil {
			return "", err
		}
	}
	return path, nil
}

// cut copies the part of the placed raster inside coord's cell into a
// transparent tile.
func (c *cutter) cut(coord tile.Coord) *image.NRGBA {
	cell := c.grid.Rect(coord).Image()
	dst := image.NewNRGBA(image.Rect(0, 0, cell.Dx(), cell.Dy()))

	overlap := cell.Intersect(c.placed.Bounds())
	if overlap.Empty() {
		return dst
	}

	g := gift.New(gift.Crop(overlap))
	g.DrawAt(dst, c.placed, overlap.Min.Sub(cell.Min), gift.CopyOperator)
	return dst
}

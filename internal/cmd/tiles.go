package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/geojson"
	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/raster"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/MeKo-Tech/discarta/internal/viewport"
	"github.com/MeKo-Tech/discarta/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Render the tiles visible in a viewport",
	Long: `Lay out a viewport of the given screen size, render every tile it shows
and write them as PNG files or into an MBTiles database. Optionally exports the
tile footprints and placed elements as GeoJSON and a composite screenshot.`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().Float64("width", 1024, "Viewport width in pixels")
	tilesCmd.Flags().Float64("height", 768, "Viewport height in pixels")
	tilesCmd.Flags().IntP("zoom", "z", -1, "Zoom level (default: smallest level covering the viewport)")
	tilesCmd.Flags().String("center", "", "Center the viewport on lat,lon")
	tilesCmd.Flags().String("bbox", "", "Scroll to the area minLon,minLat,maxLon,maxLat")
	tilesCmd.Flags().String("elements", "", "GeoJSON file with elements to place (points and areas)")
	tilesCmd.Flags().String("geojson", "", "Write tile footprints and placed elements to this GeoJSON file")
	tilesCmd.Flags().String("screenshot", "", "Write the composed viewport to this PNG file")
	tilesCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar")
	tilesCmd.Flags().Bool("force", false, "Overwrite existing tile files")
	tilesCmd.Flags().Int64("seed", raster.DefaultStyle().Seed, "Seed of the paper noise")
	tilesCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	tilesCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., tiles.mbtiles)")

	bindFlags(tilesCmd, []flagBinding{
		{"tiles.width", "width"},
		{"tiles.height", "height"},
		{"tiles.zoom", "zoom"},
		{"tiles.center", "center"},
		{"tiles.bbox", "bbox"},
		{"tiles.elements", "elements"},
		{"tiles.geojson", "geojson"},
		{"tiles.screenshot", "screenshot"},
		{"tiles.workers", "workers"},
		{"tiles.progress", "progress"},
		{"tiles.force", "force"},
		{"tiles.seed", "seed"},
		{"tiles.format", "format"},
		{"tiles.output_file", "output-file"},
	})
}

type tilesOptions struct {
	Projection projection.Projection
	Screen     pixel.Size
	Zoom       int
	Center     geo.GeoPoint
	Area       geo.GeoArea
	Elements   string
	OutputDir  string
	Format     string
	OutputFile string
	GeoJSON    string
	Screenshot string
	Workers    int
	Progress   bool
	Force      bool
	Style      raster.Style
}

type tilesResult struct {
	Zoom        int
	Area        geo.GeoArea
	Arrangement viewport.Arrangement
	Results     []worker.Result
}

func runTiles(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	p, err := selectedProjection()
	if err != nil {
		return err
	}

	opts := tilesOptions{
		Projection: p,
		Screen:     pixel.Size{Width: viper.GetFloat64("tiles.width"), Height: viper.GetFloat64("tiles.height")},
		Zoom:       viper.GetInt("tiles.zoom"),
		Center:     geo.EmptyPoint,
		Area:       geo.EmptyArea,
		Elements:   viper.GetString("tiles.elements"),
		OutputDir:  viper.GetString("output-dir"),
		Format:     viper.GetString("tiles.format"),
		OutputFile: viper.GetString("tiles.output_file"),
		GeoJSON:    viper.GetString("tiles.geojson"),
		Screenshot: viper.GetString("tiles.screenshot"),
		Workers:    viper.GetInt("tiles.workers"),
		Progress:   viper.GetBool("tiles.progress"),
		Force:      viper.GetBool("tiles.force"),
		Style:      raster.DefaultStyle(),
	}
	opts.Style.Seed = viper.GetInt64("tiles.seed")

	if s := viper.GetString("tiles.center"); s != "" {
		if opts.Center, err = parseCenter(s); err != nil {
			return fmt.Errorf("invalid center: %w", err)
		}
	}
	if s := viper.GetString("tiles.bbox"); s != "" {
		bbox, err := parseBBox(s)
		if err != nil {
			return fmt.Errorf("invalid bbox: %w", err)
		}
		opts.Area = bboxArea(bbox)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	res, err := renderViewport(ctx, opts, logger)
	if err != nil {
		return err
	}

	logger.Info("Viewport rendered",
		"projection", p.Name(),
		"zoom", res.Zoom,
		"area", res.Area.String(),
		"tiles", len(res.Arrangement.Tiles),
		"elements", len(res.Arrangement.Elements))
	return nil
}

// renderViewport lays out a viewport, waits for its tiles and writes the
// requested outputs.
func renderViewport(ctx context.Context, opts tilesOptions, log *slog.Logger) (tilesResult, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := validateFormat(opts.Format, opts.OutputFile); err != nil {
		return tilesResult{}, err
	}
	if opts.Screen.Width <= 0 || opts.Screen.Height <= 0 {
		return tilesResult{}, fmt.Errorf("invalid viewport size %s", opts.Screen)
	}

	layer := viewport.NewLayer()
	if opts.Elements != "" {
		if err := loadElements(opts.Elements, layer); err != nil {
			return tilesResult{}, err
		}
		log.Info("Loaded elements", "file", opts.Elements, "count", layer.Len())
	}

	manager, err := tile.NewManager(tile.ManagerConfig{Renderer: tile.GraticuleRenderer{}, Logger: log})
	if err != nil {
		return tilesResult{}, err
	}
	v, err := viewport.New(viewport.Config{
		Projection: opts.Projection,
		Tiles:      manager,
		Layer:      layer,
		Logger:     log,
	})
	if err != nil {
		return tilesResult{}, err
	}
	defer v.Close()

	v.Layout(opts.Screen)
	if opts.Zoom >= 0 {
		v.SetZoomLevel(opts.Zoom)
	}
	if !opts.Area.IsEmpty() {
		v.Extent().SetArea(opts.Area)
	}
	if !opts.Center.IsEmpty() {
		v.CenterOn(opts.Center)
	}
	if err := v.Err(); err != nil {
		return tilesResult{}, err
	}

	if err := v.PumpTiles(ctx); err != nil {
		return tilesResult{}, fmt.Errorf("failed to render tiles: %w", err)
	}

	res := tilesResult{
		Zoom:        v.Extent().ZoomLevel(),
		Area:        v.Extent().Area(),
		Arrangement: v.Arrangement(),
	}
	painter := raster.NewRenderer(opts.Style)

	res.Results, err = writeTiles(ctx, opts, res, painter, log)
	if err != nil {
		return res, err
	}

	if opts.GeoJSON != "" {
		if err := writeGeoJSON(opts, res, layer); err != nil {
			return res, err
		}
		log.Info("GeoJSON written", "file", opts.GeoJSON)
	}

	if opts.Screenshot != "" {
		if err := writeScreenshot(opts, res, painter); err != nil {
			return res, err
		}
		log.Info("Screenshot written", "file", opts.Screenshot)
	}

	return res, nil
}

func loadElements(path string, layer *viewport.Layer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read elements: %w", err)
	}
	fc, err := geojson.Parse(data)
	if err != nil {
		return err
	}
	return geojson.LoadLayer(fc, layer)
}

func writeTiles(ctx context.Context, opts tilesOptions, res tilesResult, painter *raster.Renderer, log *slog.Logger) ([]worker.Result, error) {
	drawings := make(map[tile.Coord]tile.Drawing, len(res.Arrangement.Tiles))
	tasks := make([]worker.Task, 0, len(res.Arrangement.Tiles))
	for _, t := range res.Arrangement.Tiles {
		c := t.Drawing.Coord()
		drawings[c] = t.Drawing
		tasks = append(tasks, worker.Task{Coord: c, Force: opts.Force})
	}

	gen := &drawingWriter{
		proj:     opts.Projection,
		painter:  painter,
		drawings: drawings,
	}
	if opts.Format == "mbtiles" {
		meta := mbtiles.MetadataFor("Discarta", opts.Projection, res.Area, res.Zoom, res.Zoom)
		meta.Description = "Graticule tiles of " + opts.Projection.Name()
		w, err := mbtiles.New(opts.OutputFile, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer w.Close()
		gen.mbtiles = w
	} else {
		gen.dir = filepath.Join(opts.OutputDir, projection.Slug(opts.Projection))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	progress := worker.NewProgress(len(tasks), opts.Progress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})
	results := pool.Run(ctx, tasks)
	progress.Done()
	log.Info(progress.Summary())

	if failed := worker.Failed(results); len(failed) > 0 {
		return results, fmt.Errorf("%d tiles failed to write: %w", len(failed), failed[0].Err)
	}
	if gen.mbtiles != nil {
		if err := gen.mbtiles.Flush(); err != nil {
			return results, fmt.Errorf("failed to flush MBTiles: %w", err)
		}
	}
	return results, nil
}

// drawingWriter rasterizes finished drawings into a tile folder or an
// MBTiles database.
type drawingWriter struct {
	proj     projection.Projection
	painter  *raster.Renderer
	drawings map[tile.Coord]tile.Drawing
	dir      string
	mbtiles  *mbtiles.Writer
}

func (w *drawingWriter) Generate(ctx context.Context, coord tile.Coord, force bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d, ok := w.drawings[coord]
	if !ok {
		return "", fmt.Errorf("no drawing for tile %s", coord)
	}

	var path string
	if w.dir != "" {
		path = coord.FilePath(w.dir, "png")
		if !force {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, w.painter.Render(d)); err != nil {
		return "", fmt.Errorf("tile %s: %w", coord, err)
	}

	if w.mbtiles != nil {
		return "", w.mbtiles.WriteTile(coord, buf.Bytes())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create tile directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write tile %s: %w", coord, err)
	}
	return path, nil
}

func writeGeoJSON(opts tilesOptions, res tilesResult, layer *viewport.Layer) error {
	drawings := make([]tile.Drawing, len(res.Arrangement.Tiles))
	for i, t := range res.Arrangement.Tiles {
		drawings[i] = t.Drawing
	}

	fc := geojson.TilesToGeoJSON(opts.Projection, drawings)
	fc.Features = append(fc.Features, geojson.LayerToGeoJSON(layer).Features...)

	data, err := geojson.ToBytes(fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.GeoJSON, data, 0o644); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}

var elementFill = color.NRGBA{R: 30, G: 90, B: 200, A: 96}

// composeScreen paints the placed tiles at their screen positions and
// marks every visible element with a translucent box.
func composeScreen(screen pixel.Size, arr viewport.Arrangement, painter *raster.Renderer) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, int(math.Ceil(screen.Width)), int(math.Ceil(screen.Height))))

	for _, t := range arr.Tiles {
		img := painter.Render(t.Drawing)
		at := image.Pt(int(math.Round(t.Rect.X)), int(math.Round(t.Rect.Y)))
		draw.Draw(canvas, img.Bounds().Add(at), img, image.Point{}, draw.Src)
	}

	fill := image.NewUniform(elementFill)
	for _, r := range arr.Elements {
		if r == (pixel.Rect{}) {
			continue
		}
		draw.Draw(canvas, r.Image(), fill, image.Point{}, draw.Over)
	}
	return canvas
}

func writeScreenshot(opts tilesOptions, res tilesResult, painter *raster.Renderer) error {
	f, err := os.Create(opts.Screenshot)
	if err != nil {
		return fmt.Errorf("failed to create screenshot: %w", err)
	}
	defer f.Close()

	if err := raster.EncodePNG(f, composeScreen(opts.Screen, res.Arrangement, painter)); err != nil {
		return err
	}
	return f.Close()
}

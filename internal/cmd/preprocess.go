package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/preprocess"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [raster...]",
	Short: "Cut georeferenced rasters into map tiles",
	Long: `Read the size and georeference of each raster (world file and .prj
sidecars), project it into the selected projection and write the tiles it
covers for every zoom level of the range.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	preprocessCmd.Flags().Int("zoom-max", -1, "Maximum zoom level (default: native zoom of each raster)")
	preprocessCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	preprocessCmd.Flags().Bool("progress", true, "Show progress bar")
	preprocessCmd.Flags().Bool("force", false, "Overwrite existing tile files")
	preprocessCmd.Flags().Bool("allow-failures", false, "Continue with the next zoom level when tiles fail")
	preprocessCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	preprocessCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., tiles.mbtiles)")

	bindFlags(preprocessCmd, []flagBinding{
		{"preprocess.zoom_min", "zoom-min"},
		{"preprocess.zoom_max", "zoom-max"},
		{"preprocess.workers", "workers"},
		{"preprocess.progress", "progress"},
		{"preprocess.force", "force"},
		{"preprocess.allow_failures", "allow-failures"},
		{"preprocess.format", "format"},
		{"preprocess.output_file", "output-file"},
	})
}

type preprocessOptions struct {
	Projection    projection.Projection
	ZoomMin       int
	ZoomMax       int // < 0 uses each raster's native zoom
	OutputDir     string
	Format        string
	OutputFile    string
	Workers       int
	Progress      bool
	Force         bool
	AllowFailures bool
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	p, err := selectedProjection()
	if err != nil {
		return err
	}

	opts := preprocessOptions{
		Projection:    p,
		ZoomMin:       viper.GetInt("preprocess.zoom_min"),
		ZoomMax:       viper.GetInt("preprocess.zoom_max"),
		OutputDir:     viper.GetString("output-dir"),
		Format:        viper.GetString("preprocess.format"),
		OutputFile:    viper.GetString("preprocess.output_file"),
		Workers:       viper.GetInt("preprocess.workers"),
		Progress:      viper.GetBool("preprocess.progress"),
		Force:         viper.GetBool("preprocess.force"),
		AllowFailures: viper.GetBool("preprocess.allow_failures"),
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

	summaries, err := preprocessRasters(ctx, args, opts, logger)
	if err != nil {
		return err
	}

	total := 0
	for _, s := range summaries {
		total += s.Tiles
	}
	logger.Info("Preprocessing complete", "rasters", len(args), "runs", len(summaries), "tiles", total)
	return nil
}

// preprocessRasters loads the metadata of every path first, then tiles
// each raster over the zoom range.
func preprocessRasters(ctx context.Context, paths []string, opts preprocessOptions, log *slog.Logger) ([]preprocess.Summary, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := validateFormat(opts.Format, opts.OutputFile); err != nil {
		return nil, err
	}
	if opts.ZoomMax >= 0 && opts.ZoomMin > opts.ZoomMax {
		return nil, fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", opts.ZoomMin, opts.ZoomMax)
	}

	pre := preprocess.NewPreprocessor(nil, log)
	for _, path := range paths {
		if _, err := pre.LoadMetadata(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	rasters := pre.Rasters()

	cfg := preprocess.TilerConfig{
		OutputDir: opts.OutputDir,
		Workers:   opts.Workers,
		Force:     opts.Force,
		Logger:    log,
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if opts.Format == "mbtiles" {
		minZoom, maxZoom := opts.ZoomMin, opts.ZoomMax
		if maxZoom < 0 {
			for _, r := range rasters {
				maxZoom = max(maxZoom, r.NativeZoom(opts.Projection))
			}
			maxZoom = max(maxZoom, minZoom)
		}
		meta := mbtiles.MetadataFor("Discarta", opts.Projection, coverage(rasters, opts.Projection), minZoom, maxZoom)
		meta.Description = "Preprocessed rasters in " + opts.Projection.Name()

		w, err := mbtiles.New(opts.OutputFile, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer w.Close()
		cfg.MBTiles = w
		cfg.OutputDir = ""
	}

	tiler := preprocess.NewTiler(cfg)
	var summaries []preprocess.Summary
	for _, info := range rasters {
		maxZoom := opts.ZoomMax
		if maxZoom < 0 {
			maxZoom = max(info.NativeZoom(opts.Projection), opts.ZoomMin)
		}

		for zoom := opts.ZoomMin; zoom <= maxZoom; zoom++ {
			progress := worker.NewProgress(0, opts.Progress)
			summary, err := tiler.ProjectAndTile(ctx, info, opts.Projection, zoom, func(s preprocess.Status) {
				progress.Update(int(s.Current), int(s.Total), 0)
			})
			progress.Done()
			summaries = append(summaries, summary)

			if err != nil {
				if !opts.AllowFailures || ctx.Err() != nil {
					return summaries, fmt.Errorf("failed to tile %s at zoom %d: %w", info.FileName, zoom, err)
				}
				log.Warn("Some tiles failed, continuing due to --allow-failures flag",
					"file", info.FileName, "zoom", zoom, "failed_count", summary.Failed, "error", err)
				continue
			}
			log.Info(progress.Summary(), "file", info.FileName, "zoom", zoom)
		}
	}

	if cfg.MBTiles != nil {
		if err := cfg.MBTiles.Flush(); err != nil {
			return summaries, fmt.Errorf("failed to flush MBTiles: %w", err)
		}
	}
	return summaries, nil
}

// coverage is the area spanned by all rasters, clipped to p's world.
// Rasters without georeference count as the whole world.
func coverage(rasters []preprocess.RasterInfo, p projection.Projection) geo.GeoArea {
	var corners []geo.GeoPoint
	for _, r := range rasters {
		area := r.MapArea
		if area.IsEmpty() {
			area = p.World()
		}
		corners = append(corners, area.NorthWest, area.SouthEast())
	}
	if len(corners) == 0 {
		return p.World()
	}
	return geo.Intersection(geo.NewGeoAreaFromPoints(corners...), p.World())
}

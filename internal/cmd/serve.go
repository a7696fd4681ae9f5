package cmd

import (
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/raster"
	"github.com/MeKo-Tech/discarta/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tiles over HTTP (rendered on demand or from an MBTiles file)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("tiles-dir", "", "Directory caching rendered tiles (defaults to --output-dir)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles file instead of rendering them")
	serveCmd.Flags().Bool("disable-cache", false, "Always render tiles (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent tile renders (default: number of CPUs)")
	serveCmd.Flags().Duration("render-timeout", 30*time.Second, "Timeout per tile render")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")
	serveCmd.Flags().Int64("seed", raster.DefaultStyle().Seed, "Seed of the paper noise")

	bindFlags(serveCmd, []flagBinding{
		{"serve.addr", "addr"},
		{"serve.tiles_dir", "tiles-dir"},
		{"serve.mbtiles", "mbtiles"},
		{"serve.disable_cache", "disable-cache"},
		{"serve.max_concurrent_renders", "max-concurrent-renders"},
		{"serve.render_timeout", "render-timeout"},
		{"serve.cache_control", "cache-control"},
		{"serve.seed", "seed"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	tilesDir := viper.GetString("serve.tiles_dir")
	if tilesDir == "" {
		tilesDir = viper.GetString("output-dir")
	}
	mbtilesPath := viper.GetString("serve.mbtiles")
	cacheControl := viper.GetString("serve.cache_control")

	var cfg server.MuxConfig
	cfg.Logger = logger

	if mbtilesPath != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{
			MBTilesPath:  mbtilesPath,
			CacheControl: cacheControl,
		}, logger)
		if err != nil {
			return err
		}
		defer h.Close()

		cfg.Tiles = h.Handler()
		cfg.Projections = []projection.Projection{h.Projection()}
		logger.Info("serving MBTiles", "file", mbtilesPath, "projection", h.Projection().Name())
	} else {
		style := raster.DefaultStyle()
		style.Seed = viper.GetInt64("serve.seed")

		od := server.NewOnDemandTiles(nil, server.OnDemandTilesConfig{
			TilesDir:             tilesDir,
			CacheControl:         cacheControl,
			MaxConcurrentRenders: viper.GetInt("serve.max_concurrent_renders"),
			RenderTimeout:        viper.GetDuration("serve.render_timeout"),
			DisableCache:         viper.GetBool("serve.disable_cache"),
			Style:                style,
		}, logger)

		cfg.Tiles = od.Handler()
		cfg.Status = od.StatusHandler()
		logger.Info("rendering tiles on demand",
			"tiles_dir", tilesDir,
			"max_concurrent_renders", viper.GetInt("serve.max_concurrent_renders"))
	}

	logger.Info("tile server listening", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: server.NewMux(cfg), ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

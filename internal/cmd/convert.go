package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/discarta/internal/mbtiles"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert folder tiles to MBTiles format",
	Long:  `Convert the tile folder of a projection ({output-dir}/{projection}/{z}/{row}-{col}.png) to an MBTiles database.`,
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "", "Input directory containing projection tile folders (defaults to --output-dir)")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "Discarta", "Tileset name")
	convertCmd.Flags().String("description", "", "Tileset description")
	convertCmd.Flags().String("attribution", "", "Attribution text")
	convertCmd.Flags().String("bounds", "", "Bounding box: minLon,minLat,maxLon,maxLat (default: projection world)")

	bindFlags(convertCmd, []flagBinding{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
		{"convert.description", "description"},
		{"convert.attribution", "attribution"},
		{"convert.bounds", "bounds"},
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := viper.GetString("convert.input_dir")
	if inputDir == "" {
		inputDir = viper.GetString("output-dir")
	}
	outputFile := viper.GetString("convert.output")
	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}

	p, err := selectedProjection()
	if err != nil {
		return err
	}

	area := p.World()
	if s := viper.GetString("convert.bounds"); s != "" {
		bbox, err := parseBBox(s)
		if err != nil {
			return fmt.Errorf("invalid bounds: %w", err)
		}
		area = bboxArea(bbox)
	}

	meta := mbtiles.MetadataFor(viper.GetString("convert.name"), p, area, 0, 0)
	meta.Description = viper.GetString("convert.description")
	meta.Attribution = viper.GetString("convert.attribution")

	n, err := convertFolder(inputDir, outputFile, p, meta, logger)
	if err != nil {
		return err
	}
	logger.Info("Conversion complete", "output", outputFile, "tiles", n)
	return nil
}

// convertFolder copies the tile tree of p below inputDir into a new MBTiles
// file. meta's zoom range and center zoom are replaced by what was found.
func convertFolder(inputDir, outputFile string, p projection.Projection, meta mbtiles.Metadata, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Join(inputDir, projection.Slug(p))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, fmt.Errorf("input directory does not exist: %s", dir)
	}

	log.Info("Converting folder tiles to MBTiles",
		"input_dir", dir,
		"output", outputFile,
		"name", meta.Name,
	)

	tiles, minZoom, maxZoom, err := scanTilesDirectory(dir, p)
	if err != nil {
		return 0, fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return 0, fmt.Errorf("no tiles found in %s", dir)
	}
	log.Info("Found tiles", "count", len(tiles), "min_zoom", minZoom, "max_zoom", maxZoom)

	meta.MinZoom, meta.MaxZoom = minZoom, maxZoom
	meta.Center[2] = float64((minZoom + maxZoom) / 2)

	writer, err := mbtiles.New(outputFile, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to create MBTiles writer: %w", err)
	}
	defer writer.Close()

	written := 0
	for i, t := range tiles {
		data, err := os.ReadFile(t.path)
		if err != nil {
			log.Error("Failed to read tile", "path", t.path, "error", err)
			continue
		}
		if err := writer.WriteTile(t.coord, data); err != nil {
			log.Error("Failed to write tile", "coords", t.coord.String(), "error", err)
			continue
		}
		written++

		if (i+1)%100 == 0 {
			log.Info("Progress", "converted", i+1, "total", len(tiles))
		}
	}

	if err := writer.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush tiles: %w", err)
	}
	return written, writer.Close()
}

type tileInfo struct {
	coord tile.Coord
	path  string
}

// scanTilesDirectory finds {z}/{row}-{col}.png files below dir that lie in
// p's grid.
func scanTilesDirectory(dir string, p projection.Projection) ([]tileInfo, int, int, error) {
	var tiles []tileInfo
	minZoom := 999
	maxZoom := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".png" {
			return nil
		}

		c, err := tile.ParseFilePath(filepath.Base(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil
		}
		if _, err := tile.NewRequest(p, c); err != nil {
			return nil
		}

		tiles = append(tiles, tileInfo{coord: c, path: path})
		minZoom = min(minZoom, int(c.Z))
		maxZoom = max(maxZoom, int(c.Z))
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	if len(tiles) == 0 {
		minZoom = 0
		maxZoom = 0
	}

	return tiles, minZoom, maxZoom, nil
}

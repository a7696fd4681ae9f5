package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/spf13/viper"
)

// parseBBox parses a bounding box string "minLon,minLat,maxLon,maxLat" into [4]float64.
func parseBBox(s string) ([4]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return [4]float64{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var bbox [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [4]float64{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	if bbox[0] >= bbox[2] {
		return [4]float64{}, fmt.Errorf("minLon (%.4f) must be < maxLon (%.4f)", bbox[0], bbox[2])
	}
	if bbox[1] >= bbox[3] {
		return [4]float64{}, fmt.Errorf("minLat (%.4f) must be < maxLat (%.4f)", bbox[1], bbox[3])
	}

	return bbox, nil
}

// bboxArea converts a parsed bbox to a geographic area.
func bboxArea(b [4]float64) geo.GeoArea {
	return geo.NewGeoArea(b[3], b[2], b[1], b[0])
}

// parseCenter parses "lat,lon".
func parseCenter(s string) (geo.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.EmptyPoint, fmt.Errorf("expected lat,lon, got %q", s)
	}

	var v [2]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.EmptyPoint, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		v[i] = f
	}

	p := geo.NewGeoPoint(v[0], v[1])
	if !p.IsValid() {
		return geo.EmptyPoint, fmt.Errorf("center %s outside [-90,90] x [-180,180]", p)
	}
	return p, nil
}

func selectedProjection() (projection.Projection, error) {
	return projection.ByName(viper.GetString("projection"))
}

func validateFormat(format, outputFile string) error {
	switch format {
	case "folder":
		return nil
	case "mbtiles":
		if outputFile == "" {
			return fmt.Errorf("--output-file is required when using --format=mbtiles")
		}
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", format)
	}
}

// Package mbtiles stores rendered tiles in an MBTiles (SQLite) database.
package mbtiles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// ErrTileNotFound is returned by Reader.ReadTile for missing tiles.
var ErrTileNotFound = errors.New("tile not found")

// Metadata is the tileset description kept in the metadata table.
// Projection is an extension key naming the projection the tiles were
// cut from; readers that do not know it fall back to pseudo-mercator.
type Metadata struct {
	Name        string
	Format      string // png, jpg
	Attribution string
	Description string
	Type        string // baselayer or overlay
	Version     string
	Projection  string
	Bounds      [4]float64 // west, south, east, north
	Center      [3]float64 // lon, lat, zoom
	MinZoom     int
	MaxZoom     int
}

// MetadataFor fills name, format, projection and bounds for tiles cut from
// area in p.
func MetadataFor(name string, p projection.Projection, area geo.GeoArea, minZoom, maxZoom int) Metadata {
	b := area.Bound()
	c := area.Center()
	return Metadata{
		Name:       name,
		Format:     "png",
		Type:       "baselayer",
		Version:    "1.0",
		Projection: projection.Slug(p),
		Bounds:     [4]float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()},
		Center:     [3]float64{c.Longitude, c.Latitude, float64(minZoom)},
		MinZoom:    minZoom,
		MaxZoom:    maxZoom,
	}
}

// ResolveProjection returns the projection named by m.Projection.
func (m Metadata) ResolveProjection() (projection.Projection, error) {
	if m.Projection == "" {
		return projection.PseudoMercator{}, nil
	}
	return projection.ByName(m.Projection)
}

// ToMap converts m to metadata rows. Zero values are omitted, except that
// minzoom and maxzoom are always written.
func (m Metadata) ToMap() map[string]string {
	rows := map[string]string{
		"minzoom": strconv.Itoa(m.MinZoom),
		"maxzoom": strconv.Itoa(m.MaxZoom),
	}

	text := map[string]string{
		"name":        m.Name,
		"format":      m.Format,
		"attribution": m.Attribution,
		"description": m.Description,
		"type":        m.Type,
		"version":     m.Version,
		"projection":  m.Projection,
	}
	for k, v := range text {
		if v != "" {
			rows[k] = v
		}
	}

	if m.Bounds != [4]float64{} {
		rows["bounds"] = fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3])
	}
	if m.Center != [3]float64{} {
		rows["center"] = fmt.Sprintf("%.6f,%.6f,%d", m.Center[0], m.Center[1], int(m.Center[2]))
	}
	return rows
}

// metadataFromMap is the inverse of ToMap. Unparseable numbers are left at
// zero.
func metadataFromMap(rows map[string]string) Metadata {
	m := Metadata{
		Name:        rows["name"],
		Format:      rows["format"],
		Attribution: rows["attribution"],
		Description: rows["description"],
		Type:        rows["type"],
		Version:     rows["version"],
		Projection:  rows["projection"],
	}
	m.MinZoom, _ = strconv.Atoi(rows["minzoom"])
	m.MaxZoom, _ = strconv.Atoi(rows["maxzoom"])
	parseFloats(rows["bounds"], m.Bounds[:])
	parseFloats(rows["center"], m.Center[:])
	return m
}

func parseFloats(s string, dst []float64) {
	parts := strings.Split(s, ",")
	if len(parts) != len(dst) {
		return
	}
	for i, part := range parts {
		if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
			dst[i] = f
		}
	}
}

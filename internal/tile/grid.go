package tile

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/discarta/internal/extent"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// ErrOutsideGrid is returned for coordinates beyond the grid of their zoom.
var ErrOutsideGrid = errors.New("tile outside grid")

// Grid is the tile layout of a projection's full map at one zoom level.
type Grid struct {
	Zoom     int
	Cols     int
	Rows     int
	TileSize pixel.Size
}

// NewGrid returns the grid that steps the full map at zoom by the
// projection's tile size.
func NewGrid(p projection.Projection, zoom int) Grid {
	full := p.FullMapSizeFor(zoom)
	size := p.TileSize()
	return Grid{
		Zoom:     zoom,
		Cols:     int(math.Ceil(full.Width / size.Width)),
		Rows:     int(math.Ceil(full.Height / size.Height)),
		TileSize: size,
	}
}

// Bounds is the pixel rect of the full map.
func (g Grid) Bounds() pixel.Rect {
	return pixel.Rect{
		Width:  float64(g.Cols) * g.TileSize.Width,
		Height: float64(g.Rows) * g.TileSize.Height,
	}
}

// Count is the number of cells in the grid.
func (g Grid) Count() int {
	return g.Cols * g.Rows
}

// Rect returns the absolute pixel rect of a cell.
func (g Grid) Rect(c Coord) pixel.Rect {
	return pixel.Rect{
		X:      float64(c.X) * g.TileSize.Width,
		Y:      float64(c.Y) * g.TileSize.Height,
		Width:  g.TileSize.Width,
		Height: g.TileSize.Height,
	}
}

// Range returns the block of cells that may overlap r, clamped to the grid.
func (g Grid) Range(r pixel.Rect) Range {
	if r.IsEmpty() {
		return Range{Z: uint32(g.Zoom), MinX: 0, MaxX: -1, MinY: 0, MaxY: -1}
	}
	return Range{
		Z:    uint32(g.Zoom),
		MinX: max(0, int(math.Floor(r.Left()/g.TileSize.Width))),
		MaxX: min(g.Cols-1, int(math.Ceil(r.Right()/g.TileSize.Width))-1),
		MinY: max(0, int(math.Floor(r.Top()/g.TileSize.Height))),
		MaxY: min(g.Rows-1, int(math.Ceil(r.Bottom()/g.TileSize.Height))-1),
	}
}

// All returns every cell of the grid.
func (g Grid) All() []Coord {
	coords := make([]Coord, 0, g.Count())
	Range{Z: uint32(g.Zoom), MinX: 0, MaxX: g.Cols - 1, MinY: 0, MaxY: g.Rows - 1}.ForEach(func(c Coord) {
		coords = append(coords, c)
	})
	return coords
}

// Intersecting returns the cells whose rect overlaps r with a positive area.
// The result is the same set a full scan of the grid would produce.
func (g Grid) Intersecting(r pixel.Rect) []Coord {
	rng := g.Range(r)
	coords := make([]Coord, 0, rng.Count())
	rng.ForEach(func(c Coord) {
		if g.Rect(c).Intersects(r) {
			coords = append(coords, c)
		}
	})
	return coords
}

// Contains reports whether c is a cell of the grid.
func (g Grid) Contains(c Coord) bool {
	return int(c.Z) == g.Zoom && int(c.X) < g.Cols && int(c.Y) < g.Rows
}

// NewRequest builds the render request for a single cell, viewed with the
// whole world at the cell's zoom level.
func NewRequest(p projection.Projection, c Coord) (Request, error) {
	if p == nil {
		return Request{}, projection.ErrNilProjection
	}
	if int(c.Z) != extent.ClampZoom(int(c.Z)) {
		return Request{}, fmt.Errorf("%w: zoom %d outside [%d, %d]", ErrOutsideGrid, c.Z, extent.MinZoomLevel, extent.MaxZoomLevel)
	}
	g := NewGrid(p, int(c.Z))
	if !g.Contains(c) {
		return Request{}, fmt.Errorf("%w: %s outside %dx%d grid", ErrOutsideGrid, c, g.Cols, g.Rows)
	}
	return Request{
		Projection: p,
		View:       projection.At(int(c.Z), p.World()),
		Coord:      c,
		Rect:       g.Rect(c),
	}, nil
}

package tile

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Coord is a cell of the tile grid at a zoom level. X is the column and Y the
// row, counted from the top-left of the full map.
type Coord struct {
	Z uint32 // Zoom level (0-19)
	X uint32 // Column
	Y uint32 // Row
}

// NewCoord creates a Coord from zoom, column and row.
func NewCoord(z, x, y uint32) Coord {
	return Coord{Z: z, X: x, Y: y}
}

// String returns the coordinate as "z{zoom}_x{x}_y{y}".
func (c Coord) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns a flat file name for this tile.
func (c Coord) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// FilePath returns the slash separated location of the tile inside a tile
// tree: "{dir}/{zoom}/{row}-{col}.{ext}".
func (c Coord) FilePath(dir, extension string) string {
	return path.Join(dir, fmt.Sprint(c.Z), fmt.Sprintf("%d-%d.%s", c.Y, c.X, extension))
}

// MapTile returns the equivalent maptile.Tile. The Web Mercator geometry of
// the result only matches the cell for PseudoMercator grids.
func (c Coord) MapTile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Quadkey returns the Bing style quadkey of the cell, one base-4 digit per
// zoom level. It is empty at zoom 0. Only meaningful for PseudoMercator.
func (c Coord) Quadkey() string {
	if c.Z == 0 {
		return ""
	}
	k := strconv.FormatUint(c.MapTile().Quadkey(), 4)
	return strings.Repeat("0", int(c.Z)-len(k)) + k
}

// ParseCoord parses a string like "z13_x4297_y2754".
func ParseCoord(s string) (Coord, error) {
	var c Coord
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	return c, nil
}

// ParseFilePath parses the "{zoom}/{row}-{col}" part of a tile path. The
// extension, if any, is ignored.
func ParseFilePath(zoom, name string) (Coord, error) {
	var c Coord
	if _, err := fmt.Sscanf(zoom, "%d", &c.Z); err != nil {
		return c, fmt.Errorf("invalid zoom %q: %w", zoom, err)
	}
	if ext := path.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	if _, err := fmt.Sscanf(name, "%d-%d", &c.Y, &c.X); err != nil {
		return c, fmt.Errorf("invalid tile name %q: %w", name, err)
	}
	return c, nil
}

// Range is an inclusive block of tiles at one zoom level. A range with
// MaxX < MinX or MaxY < MinY is empty.
type Range struct {
	Z          uint32
	MinX, MaxX int
	MinY, MaxY int
}

// Empty reports whether the range holds no tiles.
func (r Range) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// ForEach calls fn for each tile in the range, column by column.
func (r Range) ForEach(fn func(Coord)) {
	if r.Empty() {
		return
	}
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			fn(NewCoord(r.Z, uint32(x), uint32(y)))
		}
	}
}

// Count returns the number of tiles in the range.
func (r Range) Count() int {
	if r.Empty() {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

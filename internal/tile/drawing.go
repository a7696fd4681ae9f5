package tile

import (
	"slices"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
)

// SegmentKind tells a rasterizer how to style a segment.
type SegmentKind int

const (
	// KindGraticule marks latitude and longitude lines.
	KindGraticule SegmentKind = iota
	// KindOutline marks the edge of the projection's world.
	KindOutline
)

func (k SegmentKind) String() string {
	switch k {
	case KindGraticule:
		return "graticule"
	case KindOutline:
		return "outline"
	default:
		return "unknown"
	}
}

// Segment is a straight line in absolute map pixels.
type Segment struct {
	From, To pixel.Point
	Kind     SegmentKind
}

// Drawing is the rendered content of one tile. It is immutable once built.
type Drawing struct {
	coord    Coord
	rect     pixel.Rect
	area     geo.GeoArea
	segments []Segment
}

// NewDrawing builds a drawing. Segments are copied.
func NewDrawing(coord Coord, rect pixel.Rect, area geo.GeoArea, segments []Segment) Drawing {
	return Drawing{
		coord:    coord,
		rect:     rect,
		area:     area,
		segments: slices.Clone(segments),
	}
}

// Coord is the grid cell the drawing was rendered for.
func (d Drawing) Coord() Coord { return d.coord }

// Rect is the tile's absolute pixel rect.
func (d Drawing) Rect() pixel.Rect { return d.rect }

// Area is the geographic area the tile covers.
func (d Drawing) Area() geo.GeoArea { return d.area }

// Segments returns a copy of the clipped line segments.
func (d Drawing) Segments() []Segment { return slices.Clone(d.segments) }

// Len is the number of segments.
func (d Drawing) Len() int { return len(d.segments) }

// clipSegment clips a-b to r (Liang-Barsky). Edges are inclusive.
func clipSegment(a, b pixel.Point, r pixel.Rect) (pixel.Point, pixel.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4]struct{ p, q float64 }{
		{-dx, a.X - r.Left()},
		{dx, r.Right() - a.X},
		{-dy, a.Y - r.Top()},
		{dy, r.Bottom() - a.Y},
	}
	for _, e := range edges {
		if e.p == 0 {
			if e.q < 0 {
				return a, b, false
			}
			continue
		}
		t := e.q / e.p
		if e.p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = min(t1, t)
		}
	}

	return pixel.Point{X: a.X + t0*dx, Y: a.Y + t0*dy},
		pixel.Point{X: a.X + t1*dx, Y: a.Y + t1*dy},
		true
}

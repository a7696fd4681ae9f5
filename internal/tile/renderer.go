package tile

import (
	"context"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// Request describes one tile to render.
type Request struct {
	Projection projection.Projection
	View       projection.View
	Coord      Coord
	Rect       pixel.Rect
}

// Renderer produces the drawing for a single tile. Implementations must be
// safe for concurrent use; every tile of a batch renders on its own goroutine.
type Renderer interface {
	Render(ctx context.Context, req Request) (Drawing, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, req Request) (Drawing, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, req Request) (Drawing, error) {
	return f(ctx, req)
}

// GraticuleRenderer draws latitude/longitude lines and the world outline,
// clipped to the tile.
type GraticuleRenderer struct{}

// GraticuleSpacing returns the distance in degrees between graticule lines
// at a zoom level.
func GraticuleSpacing(zoom int) float64 {
	switch {
	case zoom <= 1:
		return 50
	case zoom <= 3:
		return 30
	case zoom <= 6:
		return 20
	default:
		return 10
	}
}

// Render implements Renderer.
func (GraticuleRenderer) Render(ctx context.Context, req Request) (Drawing, error) {
	if err := ctx.Err(); err != nil {
		return Drawing{}, err
	}

	p, v := req.Projection, req.View
	world := p.World()
	ne, se, nw := world.NorthEast(), world.SouthEast(), world.NorthWest
	step := GraticuleSpacing(v.ZoomLevel())

	var segments []Segment
	add := func(a, b geo.GeoPoint, kind SegmentKind) {
		from, to, ok := clipSegment(p.ToPoint(a, v), p.ToPoint(b, v), req.Rect)
		if ok {
			segments = append(segments, Segment{From: from, To: to, Kind: kind})
		}
	}

	outline := p.ToAreaRect(world, v)
	corners := [5]pixel.Point{
		outline.TopLeft(),
		{X: outline.Right(), Y: outline.Top()},
		outline.BottomRight(),
		{X: outline.Left(), Y: outline.Bottom()},
		outline.TopLeft(),
	}
	for i := 0; i < 4; i++ {
		from, to, ok := clipSegment(corners[i], corners[i+1], req.Rect)
		if ok {
			segments = append(segments, Segment{From: from, To: to, Kind: KindOutline})
		}
	}

	for lat := 0.0; lat <= ne.Latitude; lat += step {
		add(geo.NewGeoPoint(lat, ne.Longitude), geo.NewGeoPoint(lat, nw.Longitude), KindGraticule)
		if lat > 0 {
			add(geo.NewGeoPoint(-lat, ne.Longitude), geo.NewGeoPoint(-lat, nw.Longitude), KindGraticule)
		}
	}

	for lon := 0.0; lon <= ne.Longitude; lon += step {
		add(geo.NewGeoPoint(ne.Latitude, lon), geo.NewGeoPoint(se.Latitude, lon), KindGraticule)
		if lon > 0 {
			add(geo.NewGeoPoint(ne.Latitude, -lon), geo.NewGeoPoint(se.Latitude, -lon), KindGraticule)
		}
	}

	return NewDrawing(req.Coord, req.Rect, p.ToGeoArea(req.Rect, v), segments), nil
}

package tile

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraticuleSpacing(t *testing.T) {
	tests := []struct {
		zoom int
		want float64
	}{
		{0, 50}, {1, 50}, {2, 30}, {3, 30}, {4, 20}, {6, 20}, {7, 10}, {19, 10},
	}
	for _, tt := range tests {
		if got := GraticuleSpacing(tt.zoom); got != tt.want {
			t.Errorf("GraticuleSpacing(%d) = %g, want %g", tt.zoom, got, tt.want)
		}
	}
}

func TestGraticuleRendererWholeWorld(t *testing.T) {
	p := projection.Equirectangular{}
	v := projection.At(0, p.World())
	g := NewGrid(p, 0)
	c := NewCoord(0, 0, 0)

	d, err := GraticuleRenderer{}.Render(context.Background(), Request{
		Projection: p, View: v, Coord: c, Rect: g.Rect(c),
	})
	require.NoError(t, err)

	var outline, lines int
	for _, s := range d.Segments() {
		switch s.Kind {
		case KindOutline:
			outline++
		case KindGraticule:
			lines++
		}
	}

	// Latitudes 0, ±50 and longitudes 0, ±50, ±100, ±150.
	assert.Equal(t, 4, outline)
	assert.Equal(t, 10, lines)
	assert.True(t, d.Area().Equal(p.World()))
	assert.Equal(t, c, d.Coord())
}

func TestGraticuleRendererClipsToTile(t *testing.T) {
	p := projection.PseudoMercator{}
	v := projection.At(2, p.World())
	g := NewGrid(p, 2)

	for _, c := range g.All() {
		r := g.Rect(c)
		d, err := GraticuleRenderer{}.Render(context.Background(), Request{Projection: p, View: v, Coord: c, Rect: r})
		require.NoError(t, err)

		for _, s := range d.Segments() {
			for _, pt := range []pixel.Point{s.From, s.To} {
				assert.True(t, inside(r, pt), "%s: %s outside %s", c, pt, r)
			}
		}
	}
}

func TestGraticuleRendererCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := projection.Equirectangular{}
	_, err := GraticuleRenderer{}.Render(ctx, Request{Projection: p, View: projection.At(0, p.World())})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClipSegment(t *testing.T) {
	r := pixel.Rect{X: 0, Y: 0, Width: 10, Height: 10}

	a, b, ok := clipSegment(pixel.Point{X: -5, Y: 5}, pixel.Point{X: 15, Y: 5}, r)
	require.True(t, ok)
	assert.Equal(t, pixel.Point{X: 0, Y: 5}, a)
	assert.Equal(t, pixel.Point{X: 10, Y: 5}, b)

	_, _, ok = clipSegment(pixel.Point{X: -5, Y: 20}, pixel.Point{X: 15, Y: 20}, r)
	assert.False(t, ok)

	a, b, ok = clipSegment(pixel.Point{X: 2, Y: 2}, pixel.Point{X: 3, Y: 3}, r)
	require.True(t, ok)
	assert.Equal(t, pixel.Point{X: 2, Y: 2}, a)
	assert.Equal(t, pixel.Point{X: 3, Y: 3}, b)
}

func inside(r pixel.Rect, p pixel.Point) bool {
	const eps = 1e-6
	return p.X >= r.Left()-eps && p.X <= r.Right()+eps && p.Y >= r.Top()-eps && p.Y <= r.Bottom()+eps
}

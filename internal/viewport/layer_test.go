package viewport

import (
	"testing"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace(t *testing.T) {
	p := projection.Equirectangular{}
	view := projection.At(0, p.World())
	size := pixel.Size{Width: 40, Height: 20}

	tests := []struct {
		name string
		e    Element
		want pixel.Rect
	}{
		{
			name: "nothing attached",
			e:    Element{Area: geo.EmptyArea, Location: geo.EmptyPoint, Size: size},
			want: pixel.Rect{},
		},
		{
			name: "point centered",
			e: Element{
				Area:     geo.EmptyArea,
				Location: geo.NewGeoPoint(0, 0),
				HotSpotX: geo.HotSpotCenter,
				HotSpotY: geo.HotSpotCenter,
				Size:     size,
			},
			want: pixel.Rect{X: 256 - 20, Y: 128 - 10, Width: 40, Height: 20},
		},
		{
			name: "point with absolute hot spot",
			e: Element{
				Area:     geo.EmptyArea,
				Location: geo.NewGeoPoint(0, 0),
				HotSpotX: geo.HotSpot{Value: 0, Unit: geo.Pixel},
				HotSpotY: geo.HotSpot{Value: 20, Unit: geo.Pixel},
				Size:     size,
			},
			want: pixel.Rect{X: 256, Y: 128 - 20, Width: 40, Height: 20},
		},
		{
			name: "area wins over point",
			e: Element{
				Area:     geo.NewGeoArea(90, 0, 0, -180),
				Location: geo.NewGeoPoint(0, 0),
				HotSpotX: geo.HotSpotCenter,
				HotSpotY: geo.HotSpotCenter,
				Size:     size,
			},
			want: pixel.Rect{X: 0, Y: 0, Width: 256, Height: 128},
		},
		{
			name: "area clipped to world",
			e:    Element{Area: geo.NewGeoArea(120, 200, 0, 0), Location: geo.EmptyPoint},
			want: pixel.Rect{X: 256, Y: 0, Width: 256, Height: 128},
		},
		{
			name: "area outside world",
			e:    Element{Area: geo.NewGeoArea(10, -190, 0, -200), Location: geo.NewGeoPoint(0, 0), Size: size},
			want: pixel.Rect{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(p, view, tt.e)
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-6)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-6)
		})
	}
}

func TestLayerBookkeeping(t *testing.T) {
	l := NewLayer()
	l.SetLocation("b", geo.NewGeoPoint(10, 20))
	l.SetArea("a", geo.NewGeoArea(10, 10, 0, 0))
	l.SetSize("b", pixel.Size{Width: 8, Height: 8})

	assert.Equal(t, []ID{"a", "b"}, l.IDs())
	assert.Equal(t, 2, l.Len())

	b, ok := l.Get("b")
	require.True(t, ok)
	assert.True(t, b.Area.IsEmpty())
	assert.True(t, b.HotSpotX.Equal(geo.HotSpotCenter))
	assert.Equal(t, pixel.Size{Width: 8, Height: 8}, b.Size)

	x, err := geo.ParseHotSpot("2 px")
	require.NoError(t, err)
	l.SetHotSpot("b", x, geo.HotSpotCenter)
	b, _ = l.Get("b")
	assert.True(t, b.HotSpotX.IsAbsolute())

	l.Remove("a")
	_, ok = l.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []ID{"b"}, l.IDs())

	placed := l.Arrange(projection.PseudoMercator{}, projection.At(0, projection.PseudoMercator{}.World()))
	require.Len(t, placed, 1)
	assert.Equal(t, 8.0, placed["b"].Width)
}

package geojson

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/MeKo-Tech/discarta/internal/viewport"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worldDrawings(t *testing.T, p projection.Projection, zoom int) []tile.Drawing {
	t.Helper()
	var out []tile.Drawing
	for _, c := range tile.NewGrid(p, zoom).All() {
		req, err := tile.NewRequest(p, c)
		require.NoError(t, err)
		d, err := tile.GraticuleRenderer{}.Render(context.Background(), req)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestTilesToGeoJSON(t *testing.T) {
	p := projection.Equirectangular{}
	fc := TilesToGeoJSON(p, worldDrawings(t, p, 1))

	require.Len(t, fc.Features, 4)
	var union orb.Bound
	for i, f := range fc.Features {
		assert.Equal(t, string(FeatureTile), f.Properties["feature_type"])
		assert.Equal(t, projection.Slug(p), f.Properties["projection"])
		_, ok := f.Geometry.(orb.Polygon)
		require.True(t, ok)
		if i == 0 {
			union = f.Geometry.Bound()
		} else {
			union = union.Union(f.Geometry.Bound())
		}
	}

	world := p.World().Bound()
	assert.InDelta(t, world.Min.X(), union.Min.X(), 1e-6)
	assert.InDelta(t, world.Max.Y(), union.Max.Y(), 1e-6)
	assert.Equal(t, "tile=4", Summary(fc))
	assert.NotContains(t, fc.Features[0].Properties, "quadkey")
}

func TestTilesToGeoJSONQuadkeys(t *testing.T) {
	p := projection.PseudoMercator{}
	fc := TilesToGeoJSON(p, worldDrawings(t, p, 1))

	require.Len(t, fc.Features, 4)
	keys := make(map[string]bool)
	for _, f := range fc.Features {
		k, ok := f.Properties["quadkey"].(string)
		require.True(t, ok)
		assert.Len(t, k, 1)
		keys[k] = true
	}
	assert.Equal(t, map[string]bool{"0": true, "1": true, "2": true, "3": true}, keys)
}

func TestSegmentsToGeoJSON(t *testing.T) {
	p := projection.PseudoMercator{}
	d := worldDrawings(t, p, 0)[0]
	fc := SegmentsToGeoJSON(p, projection.At(0, p.World()), d)

	require.Len(t, fc.Features, d.Len())
	outline := 0
	for _, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		require.True(t, ok)
		require.Len(t, line, 2)
		for _, pt := range line {
			assert.LessOrEqual(t, pt.Lat(), projection.MercatorMaxLatitude+1e-6)
			assert.GreaterOrEqual(t, pt.Lon(), -180-1e-6)
		}
		if f.Properties["kind"] == "outline" {
			outline++
		}
	}
	assert.Equal(t, 4, outline)
}

func TestLayerRoundTrip(t *testing.T) {
	l := viewport.NewLayer()
	l.SetArea("lower-saxony", geo.NewGeoArea(53.9, 11.6, 51.3, 6.6))
	l.SetLocation("hanover", geo.NewGeoPoint(52.37, 9.73))
	l.SetHotSpot("hanover", geo.HotSpot{Value: 8, Unit: geo.Pixel}, geo.HotSpot{Value: 1, Unit: geo.Percent})
	l.SetSize("hanover", pixel.Size{Width: 16, Height: 24})
	l.SetSize("unplaced", pixel.Size{Width: 1, Height: 1})

	fc := LayerToGeoJSON(l)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "area=1, location=1", Summary(fc))

	data, err := ToBytes(fc)
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)

	loaded := viewport.NewLayer()
	require.NoError(t, LoadLayer(parsed, loaded))
	assert.Equal(t, []viewport.ID{"hanover", "lower-saxony"}, loaded.IDs())

	area, ok := loaded.Get("lower-saxony")
	require.True(t, ok)
	assert.True(t, area.Area.Equal(geo.NewGeoArea(53.9, 11.6, 51.3, 6.6)), "area %s", area.Area)

	pin, ok := loaded.Get("hanover")
	require.True(t, ok)
	assert.True(t, pin.Location.Equal(geo.NewGeoPoint(52.37, 9.73)))
	assert.True(t, pin.HotSpotX.Equal(geo.HotSpot{Value: 8, Unit: geo.Pixel}))
	assert.True(t, pin.HotSpotY.Equal(geo.HotSpot{Value: 1, Unit: geo.Percent}))
	assert.Equal(t, pixel.Size{Width: 16, Height: 24}, pin.Size)
}

func TestLoadLayerErrors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(orb.Point{1, 2}))
		require.Error(t, LoadLayer(fc, viewport.NewLayer()))
	})

	t.Run("feature id fallback", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.Point{1, 2})
		f.ID = "pin"
		fc.Append(f)

		l := viewport.NewLayer()
		require.NoError(t, LoadLayer(fc, l))
		e, ok := l.Get("pin")
		require.True(t, ok)
		assert.True(t, e.Location.Equal(geo.NewGeoPoint(2, 1)))
	})

	t.Run("bad hot spot", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.Point{1, 2})
		f.Properties["id"] = "pin"
		f.Properties["hotspot_x"] = "150%"
		fc.Append(f)
		require.ErrorIs(t, LoadLayer(fc, viewport.NewLayer()), geo.ErrInvalidHotSpot)
	})
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("{"))
	require.Error(t, err)
}

package extent

import (
	"testing"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/stretchr/testify/assert"
)

func TestNewClampsZoom(t *testing.T) {
	assert.Equal(t, MaxZoomLevel, New(geo.EmptyArea, 42, pixel.Size{}).ZoomLevel())
	assert.Equal(t, MinZoomLevel, New(geo.EmptyArea, -3, pixel.Size{}).ZoomLevel())
}

func TestSetZoomLevel(t *testing.T) {
	e := New(geo.NewGeoArea(90, 180, -90, -180), 2, pixel.Size{Width: 512, Height: 512})

	var changes []Change
	cancel := e.Subscribe(func(c Change) { changes = append(changes, c) })
	defer cancel()

	tests := []struct {
		in          int
		wantZoom    int
		wantChanged bool
	}{
		{3, 3, true},
		{3, 3, false},
		{25, MaxZoomLevel, true},
		{20, MaxZoomLevel, false},
		{-1, MinZoomLevel, true},
	}

	for _, tt := range tests {
		changed := e.SetZoomLevel(tt.in)
		assert.Equal(t, tt.wantChanged, changed, "SetZoomLevel(%d)", tt.in)
		assert.Equal(t, tt.wantZoom, e.ZoomLevel())
	}

	assert.Equal(t, []Change{
		{Zoom: true, OldZoom: 2},
		{Zoom: true, OldZoom: 3},
		{Zoom: true, OldZoom: MaxZoomLevel},
	}, changes)
}

func TestSetAreaUsesPrecision(t *testing.T) {
	e := New(geo.NewGeoArea(10, 10, 0, 0), 0, pixel.Size{})

	calls := 0
	e.Subscribe(func(c Change) {
		calls++
		assert.True(t, c.Area)
		assert.False(t, c.Zoom)
	})

	assert.False(t, e.SetArea(geo.NewGeoArea(10.000001, 10, 0, 0)))
	assert.True(t, e.SetArea(geo.NewGeoArea(20, 20, 0, 0)))
	assert.Equal(t, 1, calls)
	assert.True(t, e.Area().Equal(geo.NewGeoArea(20, 20, 0, 0)))
}

func TestSetScreen(t *testing.T) {
	e := New(geo.EmptyArea, 0, pixel.Size{})

	assert.True(t, e.SetScreen(pixel.Size{Width: 800, Height: 600}))
	assert.False(t, e.SetScreen(pixel.Size{Width: 800, Height: 600}))
	assert.Equal(t, pixel.Size{Width: 800, Height: 600}, e.Screen())
}

func TestUnsubscribe(t *testing.T) {
	e := New(geo.EmptyArea, 0, pixel.Size{})

	calls := 0
	cancel := e.Subscribe(func(Change) { calls++ })
	e.SetZoomLevel(1)
	cancel()
	e.SetZoomLevel(2)

	assert.Equal(t, 1, calls)
}

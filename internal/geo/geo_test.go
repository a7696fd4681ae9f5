package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoPointEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b GeoPoint
		want bool
	}{
		{"identical", NewGeoPoint(52.37, 9.73), NewGeoPoint(52.37, 9.73), true},
		{"within precision", NewGeoPoint(52.37, 9.73), NewGeoPoint(52.370005, 9.729995), true},
		{"outside precision", NewGeoPoint(52.37, 9.73), NewGeoPoint(52.3701, 9.73), false},
		{"empty vs empty", EmptyPoint, EmptyPoint, true},
		{"empty vs point", EmptyPoint, NewGeoPoint(0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestGeoPointIsValid(t *testing.T) {
	tests := []struct {
		p    GeoPoint
		want bool
	}{
		{NewGeoPoint(0, 0), true},
		{NewGeoPoint(90, 180), true},
		{NewGeoPoint(-90, -180), true},
		{NewGeoPoint(90.000001, 180), true},
		{NewGeoPoint(91, 0), false},
		{NewGeoPoint(0, -181), false},
		{EmptyPoint, false},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	// One degree of latitude along a meridian.
	d := Distance(NewGeoPoint(0, 0), NewGeoPoint(1, 0))
	assert.InDelta(t, MeanEarthRadius*math.Pi/180, d, 0.001)

	// Hanover to Berlin is roughly 250 km.
	d = Distance(NewGeoPoint(52.3759, 9.7320), NewGeoPoint(52.5200, 13.4050))
	assert.InDelta(t, 250_000, d, 5_000)

	assert.Zero(t, Distance(NewGeoPoint(10, 10), NewGeoPoint(10, 10)))
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		to   GeoPoint
		want float64
	}{
		{"north", NewGeoPoint(1, 0), 0},
		{"east", NewGeoPoint(0, 1), 90},
		{"south", NewGeoPoint(-1, 0), 180},
		{"west", NewGeoPoint(0, -1), -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bearing(NewGeoPoint(0, 0), tt.to), 1e-9)
		})
	}
}

func TestGeoVector(t *testing.T) {
	v := NewGeoVector(3, 4)
	assert.InDelta(t, 5.0, v.Magnitude(), 1e-12)
	assert.InDelta(t, 36.8698976, v.Angle(), 1e-6)

	assert.True(t, EmptyVector.IsEmpty())
	assert.False(t, NewGeoVector(0, 0).IsEmpty())
	assert.False(t, EmptyVector.Equal(NewGeoVector(0, 0)))

	// Unguarded division.
	assert.InDelta(t, 90.0, NewGeoVector(1, 0).Angle(), 1e-12)
	assert.True(t, math.IsNaN(NewGeoVector(0, 0).Angle()))
}

func TestGeoPointArithmetic(t *testing.T) {
	p := NewGeoPoint(10, 20)
	v := NewGeoVector(1, -2)

	assert.True(t, p.Add(v).Equal(NewGeoPoint(11, 18)))
	assert.True(t, p.Sub(v).Equal(NewGeoPoint(9, 22)))
	assert.True(t, p.Add(v).Minus(p).Equal(v))
}

func TestGeoAreaCornerConsistency(t *testing.T) {
	areas := []GeoArea{
		NewGeoArea(90, 180, -90, -180),
		NewGeoArea(85.051129, 180, -85.051129, -180),
		NewGeoArea(55, 15, 47, 5),
		NewGeoAreaFromPoints(NewGeoPoint(-3, 7), NewGeoPoint(12, -40), NewGeoPoint(1, 1)),
		NewGeoAreaFromCorners(NewGeoPoint(10, 10), NewGeoPoint(-10, 30)),
		NewGeoArea(0, 0, 0, 0),
	}

	for _, a := range areas {
		t.Run(a.String(), func(t *testing.T) {
			assert.Equal(t, a.NorthWest.Latitude, a.NorthEast().Latitude)
			assert.Equal(t, a.NorthWest.Longitude, a.SouthWest().Longitude)
			assert.Equal(t, a.SouthWest().Latitude, a.SouthEast().Latitude)
			assert.Equal(t, a.NorthEast().Longitude, a.SouthEast().Longitude)

			se := a.SouthEast()
			mid := NewGeoPoint((a.NorthWest.Latitude+se.Latitude)/2, (a.NorthWest.Longitude+se.Longitude)/2)
			assert.True(t, a.Center().Equal(mid), "center %s, midpoint %s", a.Center(), mid)
		})
	}
}

func TestNewGeoArea(t *testing.T) {
	a := NewGeoArea(55, 15, 47, 5)

	assert.True(t, a.NorthWest.Equal(NewGeoPoint(55, 5)))
	assert.True(t, a.Size.Equal(NewGeoVector(8, 10)))
	assert.True(t, a.SouthEast().Equal(NewGeoPoint(47, 15)))
	assert.True(t, a.Center().Equal(NewGeoPoint(51, 10)))
	assert.False(t, a.IsEmpty())
}

func TestNewGeoAreaFromPoints(t *testing.T) {
	a := NewGeoAreaFromPoints(
		NewGeoPoint(52, 9),
		NewGeoPoint(48, 11),
		NewGeoPoint(54, 10),
		NewGeoPoint(50, 6),
	)
	assert.True(t, a.Equal(NewGeoArea(54, 11, 48, 6)), "got %s", a)

	// Corners given in any order normalize to the same box.
	b := NewGeoAreaFromCorners(NewGeoPoint(-10, 30), NewGeoPoint(10, 10))
	assert.True(t, b.Equal(NewGeoArea(10, 30, -10, 10)), "got %s", b)

	zero := NewGeoAreaFromPoints()
	assert.False(t, zero.IsEmpty())
	assert.True(t, zero.Equal(NewGeoArea(0, 0, 0, 0)))
}

func TestGeoAreaIsEmpty(t *testing.T) {
	assert.True(t, EmptyArea.IsEmpty())
	assert.True(t, NewGeoAreaWithSize(EmptyPoint, NewGeoVector(1, 1)).IsEmpty())
	assert.True(t, NewGeoAreaWithSize(NewGeoPoint(1, 1), EmptyVector).IsEmpty())
	assert.False(t, NewGeoAreaWithSize(NewGeoPoint(1, 1), NewGeoVector(0, 0)).IsEmpty())
	assert.True(t, EmptyArea.Equal(EmptyArea))
}

func TestGeoAreaExpand(t *testing.T) {
	a := NewGeoArea(10, 10, 0, 0)
	b := a.Expand(NewGeoVector(4, 2))

	assert.True(t, b.Center().Equal(a.Center()))
	assert.True(t, b.Equal(NewGeoArea(12, 11, -2, -1)), "got %s", b)
	// receiver is untouched
	assert.True(t, a.Equal(NewGeoArea(10, 10, 0, 0)))
}

func TestIntersection(t *testing.T) {
	world := NewGeoArea(90, 180, -90, -180)

	t.Run("overlap", func(t *testing.T) {
		got := Intersection(NewGeoArea(10, 10, 0, 0), NewGeoArea(5, 20, -5, 5))
		assert.True(t, got.Equal(NewGeoArea(5, 10, 0, 5)), "got %s", got)
	})

	t.Run("contained", func(t *testing.T) {
		inner := NewGeoArea(55, 15, 47, 5)
		assert.True(t, Intersection(world, inner).Equal(inner))
		assert.True(t, Intersection(inner, world).Equal(inner))
	})

	t.Run("clipped to world", func(t *testing.T) {
		got := Intersection(NewGeoArea(95, 200, 80, 170), world)
		assert.True(t, got.Equal(NewGeoArea(90, 180, 80, 170)), "got %s", got)
	})

	t.Run("disjoint is degenerate", func(t *testing.T) {
		got := Intersection(NewGeoArea(10, 10, 0, 0), NewGeoArea(30, 30, 20, 20))
		assert.False(t, got.IsEmpty())
		assert.Negative(t, got.Size.DeltaLatitude)
		assert.Negative(t, got.Size.DeltaLongitude)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.True(t, Intersection(EmptyArea, world).IsEmpty())
	})
}

func TestBoundRoundTrip(t *testing.T) {
	a := NewGeoArea(55, 15, 47, 5)
	b := a.Bound()

	assert.Equal(t, orb.Point{5, 47}, b.Min)
	assert.Equal(t, orb.Point{15, 55}, b.Max)
	assert.True(t, FromBound(b).Equal(a))
}

func TestNewHotSpot(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    HotSpotUnit
		wantErr bool
	}{
		{"center", 0.5, Percent, false},
		{"percent zero", 0, Percent, false},
		{"percent slack", 1.005, Percent, false},
		{"percent too big", 1.5, Percent, true},
		{"percent negative", -0.2, Percent, true},
		{"pixel", 12, Pixel, false},
		{"pixel negative", -1, Pixel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHotSpot(tt.value, tt.unit)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidHotSpot))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseHotSpot(t *testing.T) {
	tests := []struct {
		in      string
		want    HotSpot
		wantErr bool
	}{
		{"50%", HotSpotCenter, false},
		{" 25 % ", HotSpot{Value: 0.25, Unit: Percent}, false},
		{"12px", HotSpot{Value: 12, Unit: Pixel}, false},
		{"7", HotSpot{Value: 7, Unit: Pixel}, false},
		{"1in", HotSpot{Value: 96, Unit: Pixel}, false},
		{"2.54cm", HotSpot{Value: 96, Unit: Pixel}, false},
		{"72pt", HotSpot{Value: 96, Unit: Pixel}, false},
		{"150%", HotSpot{}, true},
		{"abc", HotSpot{}, true},
		{"", HotSpot{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHotSpot(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHotSpot)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestHotSpotApply(t *testing.T) {
	assert.InDelta(t, 20.0, HotSpotCenter.Apply(40), 1e-12)
	assert.InDelta(t, 8.0, HotSpot{Value: 8, Unit: Pixel}.Apply(40), 1e-12)
	assert.Equal(t, "50%", HotSpotCenter.String())
	assert.Equal(t, "8 px", HotSpot{Value: 8, Unit: Pixel}.String())
}

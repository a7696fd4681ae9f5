package geo

import (
	"fmt"
	"math"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// EmptyPoint is the sentinel for "no location". Both fields are NaN.
var EmptyPoint = GeoPoint{Latitude: math.NaN(), Longitude: math.NaN()}

// NewGeoPoint creates a point. Out-of-range values are accepted; use IsValid.
func NewGeoPoint(latitude, longitude float64) GeoPoint {
	return GeoPoint{Latitude: latitude, Longitude: longitude}
}

// IsEmpty reports whether either coordinate is NaN.
func (p GeoPoint) IsEmpty() bool {
	return math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude)
}

// IsValid reports whether the point lies within [-90,90] x [-180,180].
func (p GeoPoint) IsValid() bool {
	return InRange(p.Latitude, -90, 90, DegreePrecision) &&
		InRange(p.Longitude, -180, 180, DegreePrecision)
}

// Equal compares both coordinates within DegreePrecision. Two empty points
// are equal to each other.
func (p GeoPoint) Equal(other GeoPoint) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return p.IsEmpty() && other.IsEmpty()
	}
	return SameAs(p.Latitude, other.Latitude, DegreePrecision) &&
		SameAs(p.Longitude, other.Longitude, DegreePrecision)
}

// Add displaces the point by v.
func (p GeoPoint) Add(v GeoVector) GeoPoint {
	return GeoPoint{Latitude: p.Latitude + v.DeltaLatitude, Longitude: p.Longitude + v.DeltaLongitude}
}

// Sub displaces the point by -v.
func (p GeoPoint) Sub(v GeoVector) GeoPoint {
	return GeoPoint{Latitude: p.Latitude - v.DeltaLatitude, Longitude: p.Longitude - v.DeltaLongitude}
}

// Minus returns the vector that leads from other to p.
func (p GeoPoint) Minus(other GeoPoint) GeoVector {
	return GeoVector{DeltaLatitude: p.Latitude - other.Latitude, DeltaLongitude: p.Longitude - other.Longitude}
}

// String returns "[Lat: x, Lon: y]".
func (p GeoPoint) String() string {
	return fmt.Sprintf("[Lat: %g, Lon: %g]", p.Latitude, p.Longitude)
}

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula.
func Distance(a, b GeoPoint) float64 {
	lat1 := ToRadians(a.Latitude)
	lat2 := ToRadians(b.Latitude)
	deltaLat := ToRadians(b.Latitude - a.Latitude)
	deltaLon := ToRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return MeanEarthRadius * c
}

// Bearing returns the initial forward azimuth from a to b in degrees, in the
// range (-180, 180] with 0 pointing north.
func Bearing(a, b GeoPoint) float64 {
	lat1 := ToRadians(a.Latitude)
	lat2 := ToRadians(b.Latitude)
	deltaLon := ToRadians(b.Longitude - a.Longitude)

	y := math.Sin(deltaLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)

	return ToDegrees(math.Atan2(y, x))
}

package geo

import (
	"fmt"
	"math"
)

// GeoVector is a displacement in degrees. It is not a location.
type GeoVector struct {
	DeltaLatitude  float64
	DeltaLongitude float64
}

// EmptyVector is the "no size" sentinel. It differs from the zero vector.
var EmptyVector = GeoVector{DeltaLatitude: math.NaN(), DeltaLongitude: math.NaN()}

// NewGeoVector creates a displacement.
func NewGeoVector(deltaLatitude, deltaLongitude float64) GeoVector {
	return GeoVector{DeltaLatitude: deltaLatitude, DeltaLongitude: deltaLongitude}
}

// IsEmpty reports whether either delta is NaN.
func (v GeoVector) IsEmpty() bool {
	return math.IsNaN(v.DeltaLatitude) || math.IsNaN(v.DeltaLongitude)
}

// Magnitude is the euclidean length in degrees.
func (v GeoVector) Magnitude() float64 {
	return math.Sqrt(v.DeltaLatitude*v.DeltaLatitude + v.DeltaLongitude*v.DeltaLongitude)
}

// Angle returns atan(dLat/dLon) in degrees. A zero DeltaLongitude is not
// guarded and yields ±90 or NaN per IEEE 754.
func (v GeoVector) Angle() float64 {
	return ToDegrees(math.Atan(v.DeltaLatitude / v.DeltaLongitude))
}

// Equal compares both deltas within DegreePrecision.
func (v GeoVector) Equal(other GeoVector) bool {
	if v.IsEmpty() || other.IsEmpty() {
		return v.IsEmpty() && other.IsEmpty()
	}
	return SameAs(v.DeltaLatitude, other.DeltaLatitude, DegreePrecision) &&
		SameAs(v.DeltaLongitude, other.DeltaLongitude, DegreePrecision)
}

func (v GeoVector) String() string {
	return fmt.Sprintf("[ΔLat: %g, ΔLon: %g]", v.DeltaLatitude, v.DeltaLongitude)
}

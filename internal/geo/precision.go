// Package geo provides geographic value types: points, displacement vectors,
// and rectangular areas expressed in WGS84 degrees.
package geo

import "math"

const (
	// DegreePrecision is the tolerance used when comparing degrees (~1 meter).
	DegreePrecision = 0.00001

	// MeanEarthRadius in meters.
	MeanEarthRadius = 6371 * 1000.0
)

// SameAs reports whether a and b differ by less than precision.
func SameAs(a, b, precision float64) bool {
	return math.Abs(a-b) < precision
}

// InRange reports whether value lies in [minValue, maxValue], allowing
// precision slack at both ends.
func InRange(value, minValue, maxValue, precision float64) bool {
	return (value > minValue || SameAs(value, minValue, precision)) &&
		(value < maxValue || SameAs(value, maxValue, precision))
}

// Clip returns value limited to [minValue, maxValue]. Values within precision
// of the range are returned untouched.
func Clip(value, minValue, maxValue, precision float64) float64 {
	if InRange(value, minValue, maxValue, precision) {
		return value
	}
	if value < minValue {
		return minValue
	}
	return maxValue
}

// ToRadians converts degrees to radians.
func ToRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// ToDegrees converts radians to degrees.
func ToDegrees(radians float64) float64 {
	return radians * (180 / math.Pi)
}

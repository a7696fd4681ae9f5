package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoArea is an axis-aligned geographic rectangle anchored at its north-west
// corner. Size.DeltaLatitude grows southwards and Size.DeltaLongitude grows
// eastwards.
type GeoArea struct {
	NorthWest GeoPoint
	Size      GeoVector
}

// EmptyArea is the sentinel for "no area".
var EmptyArea = GeoArea{NorthWest: EmptyPoint, Size: EmptyVector}

// NewGeoArea creates an area from its four bounding scalars.
func NewGeoArea(north, east, south, west float64) GeoArea {
	return GeoArea{
		NorthWest: GeoPoint{Latitude: north, Longitude: west},
		Size:      GeoVector{DeltaLatitude: north - south, DeltaLongitude: east - west},
	}
}

// NewGeoAreaWithSize creates an area from its north-west corner and size.
func NewGeoAreaWithSize(northWest GeoPoint, size GeoVector) GeoArea {
	return GeoArea{NorthWest: northWest, Size: size}
}

// NewGeoAreaFromCorners returns the bounding box of two opposite corners.
func NewGeoAreaFromCorners(northWest, southEast GeoPoint) GeoArea {
	return NewGeoAreaFromPoints(northWest, southEast)
}

// NewGeoAreaFromPoints returns the bounding box of points. With no points the
// result is a zero-sized area at (0,0).
func NewGeoAreaFromPoints(points ...GeoPoint) GeoArea {
	if len(points) == 0 {
		return GeoArea{}
	}

	north, south := points[0].Latitude, points[0].Latitude
	east, west := points[0].Longitude, points[0].Longitude
	for _, p := range points[1:] {
		north = math.Max(north, p.Latitude)
		south = math.Min(south, p.Latitude)
		east = math.Max(east, p.Longitude)
		west = math.Min(west, p.Longitude)
	}

	return NewGeoArea(north, east, south, west)
}

// IsEmpty reports whether the corner or the size is the empty sentinel.
func (a GeoArea) IsEmpty() bool {
	return a.NorthWest.IsEmpty() || a.Size.IsEmpty()
}

// NorthEast corner.
func (a GeoArea) NorthEast() GeoPoint {
	return GeoPoint{Latitude: a.NorthWest.Latitude, Longitude: a.NorthWest.Longitude + a.Size.DeltaLongitude}
}

// SouthWest corner.
func (a GeoArea) SouthWest() GeoPoint {
	return GeoPoint{Latitude: a.NorthWest.Latitude - a.Size.DeltaLatitude, Longitude: a.NorthWest.Longitude}
}

// SouthEast corner.
func (a GeoArea) SouthEast() GeoPoint {
	return GeoPoint{
		Latitude:  a.NorthWest.Latitude - a.Size.DeltaLatitude,
		Longitude: a.NorthWest.Longitude + a.Size.DeltaLongitude,
	}
}

// Center is the midpoint of NorthWest and SouthEast.
func (a GeoArea) Center() GeoPoint {
	return GeoPoint{
		Latitude:  a.NorthWest.Latitude - a.Size.DeltaLatitude/2,
		Longitude: a.NorthWest.Longitude + a.Size.DeltaLongitude/2,
	}
}

// Equal compares corner and size within DegreePrecision.
func (a GeoArea) Equal(other GeoArea) bool {
	return a.NorthWest.Equal(other.NorthWest) && a.Size.Equal(other.Size)
}

// Expand grows the area by dimensions, keeping the center fixed.
func (a GeoArea) Expand(dimensions GeoVector) GeoArea {
	return GeoArea{
		NorthWest: GeoPoint{
			Latitude:  a.NorthWest.Latitude + dimensions.DeltaLatitude/2,
			Longitude: a.NorthWest.Longitude - dimensions.DeltaLongitude/2,
		},
		Size: GeoVector{
			DeltaLatitude:  a.Size.DeltaLatitude + dimensions.DeltaLatitude,
			DeltaLongitude: a.Size.DeltaLongitude + dimensions.DeltaLongitude,
		},
	}
}

// Intersection returns the overlap of a and b, computed component-wise from
// their corners. Disjoint inputs produce a negative size; empty inputs produce
// an empty result since NaN propagates.
func Intersection(a, b GeoArea) GeoArea {
	return NewGeoArea(
		math.Min(a.NorthEast().Latitude, b.NorthEast().Latitude),
		math.Min(a.NorthEast().Longitude, b.NorthEast().Longitude),
		math.Max(a.SouthWest().Latitude, b.SouthWest().Latitude),
		math.Max(a.SouthWest().Longitude, b.SouthWest().Longitude),
	)
}

// Bound converts the area to an orb.Bound (x = longitude, y = latitude).
func (a GeoArea) Bound() orb.Bound {
	sw, ne := a.SouthWest(), a.NorthEast()
	return orb.Bound{
		Min: orb.Point{sw.Longitude, sw.Latitude},
		Max: orb.Point{ne.Longitude, ne.Latitude},
	}
}

// FromBound converts an orb.Bound into a GeoArea.
func FromBound(b orb.Bound) GeoArea {
	return NewGeoArea(b.Max.Lat(), b.Max.Lon(), b.Min.Lat(), b.Min.Lon())
}

func (a GeoArea) String() string {
	return fmt.Sprintf("{%s, %s}", a.NorthWest, a.SouthEast())
}

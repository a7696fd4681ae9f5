// Package projection maps geographic coordinates to absolute map pixels at a
// zoom level and back. Projections are stateless; the zoom level and the
// visible area are read from a View.
package projection

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
)

var (
	// ErrNilProjection is returned when a required projection is missing.
	ErrNilProjection = errors.New("projection is required")
	// ErrUnknownProjection is returned by ByName for unregistered names.
	ErrUnknownProjection = errors.New("unknown projection")
)

// View is the part of the view state projection math depends on.
type View interface {
	ZoomLevel() int
	Area() geo.GeoArea
}

type fixedView struct {
	zoom int
	area geo.GeoArea
}

func (v fixedView) ZoomLevel() int { return v.zoom }
func (v fixedView) Area() geo.GeoArea { return v.area }

// At returns an immutable View. It is used for math at a zoom other than the
// current one and for snapshots handed to background work.
func At(zoom int, area geo.GeoArea) View {
	return fixedView{zoom: zoom, area: area}
}

// Snapshot freezes the current state of v.
func Snapshot(v View) View {
	return At(v.ZoomLevel(), v.Area())
}

// Projection converts between geographic and absolute map pixel space.
// Results are not clamped to World and no antimeridian handling is done.
type Projection interface {
	// Name is the human readable coordinate system name.
	Name() string
	// WellKnownText is the OGC WKT definition.
	WellKnownText() string
	// World is the geographic area the projection covers.
	World() geo.GeoArea
	// TileSize is the pixel size of one tile.
	TileSize() pixel.Size
	// FullMapSizeFor is the pixel size of the whole world at zoom.
	FullMapSizeFor(zoom int) pixel.Size

	ToPoint(p geo.GeoPoint, v View) pixel.Point
	ToGeoPoint(pt pixel.Point, v View) geo.GeoPoint
	// ToRect maps the view's area.
	ToRect(v View) pixel.Rect
	ToAreaRect(area geo.GeoArea, v View) pixel.Rect
	ToGeoArea(r pixel.Rect, v View) geo.GeoArea
}

type pointMapper interface {
	ToPoint(p geo.GeoPoint, v View) pixel.Point
	ToGeoPoint(pt pixel.Point, v View) geo.GeoPoint
}

// areaRect maps an area through its NW and SE corners.
func areaRect(m pointMapper, area geo.GeoArea, v View) pixel.Rect {
	return pixel.RectFromPoints(m.ToPoint(area.NorthWest, v), m.ToPoint(area.SouthEast(), v))
}

func rectArea(m pointMapper, r pixel.Rect, v View) geo.GeoArea {
	return geo.NewGeoAreaFromCorners(m.ToGeoPoint(r.TopLeft(), v), m.ToGeoPoint(r.BottomRight(), v))
}

func zoomFactor(zoom int) float64 {
	return math.Pow(2, float64(zoom))
}

var registry = map[string]Projection{
	"equirectangular": Equirectangular{},
	"pseudo-mercator": PseudoMercator{},
}

// Names lists the registered short names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName looks up a projection by short name, slug or full name.
func ByName(name string) (Projection, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := registry[key]; ok {
		return p, nil
	}
	for _, p := range registry {
		if key == Slug(p) || key == strings.ToLower(p.Name()) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProjection, name, strings.Join(Names(), ", "))
}

// ForWKT picks the projection for a raster's coordinate system: WKT that
// mentions Mercator gets PseudoMercator, everything else Equirectangular.
func ForWKT(wkt string) Projection {
	if strings.Contains(wkt, "Mercator") {
		return PseudoMercator{}
	}
	return Equirectangular{}
}

// Slug returns a lower-case, path-safe form of the projection's name, used as
// the tile directory name.
func Slug(p Projection) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(p.Name()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

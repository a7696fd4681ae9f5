package projection

import (
	"math"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
)

// MercatorMaxLatitude is the latitude at which the square Web Mercator world
// ends.
const MercatorMaxLatitude = 85.051129

const pseudoMercatorWKT = `PROJCS["WGS 84 / Pseudo - Mercator",
    GEOGCS["WGS 84",
        DATUM["WGS_1984",
            SPHEROID["WGS 84", 6378137, 298.257223563,
                AUTHORITY["EPSG", "7030"]],
            AUTHORITY["EPSG", "6326"]],
        PRIMEM["Greenwich", 0,
            AUTHORITY["EPSG", "8901"]],
        UNIT["degree", 0.0174532925199433,
            AUTHORITY["EPSG", "9122"]],
        AUTHORITY["EPSG", "4326"]],
    PROJECTION["Mercator_1SP"],
    PARAMETER["central_meridian", 0],
    PARAMETER["scale_factor", 1],
    PARAMETER["false_easting", 0],
    PARAMETER["false_northing", 0],
    UNIT["metre", 1,
        AUTHORITY["EPSG", "9001"]],
    AXIS["X", EAST],
    AXIS["Y", NORTH],
    EXTENSION["PROJ4", "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext  +no_defs"],
    AUTHORITY["EPSG", "3857"]]`

// PseudoMercator is the spherical Web Mercator projection (EPSG:3857) on a
// square 256px tile grid, the same layout slippy maps use.
type PseudoMercator struct{}

func (PseudoMercator) Name() string { return "WGS 84 / Pseudo - Mercator" }
func (PseudoMercator) WellKnownText() string { return pseudoMercatorWKT }
func (PseudoMercator) TileSize() pixel.Size { return pixel.Size{Width: 256, Height: 256} }

func (PseudoMercator) World() geo.GeoArea {
	return geo.NewGeoArea(MercatorMaxLatitude, 180, -MercatorMaxLatitude, -180)
}

func (m PseudoMercator) FullMapSizeFor(zoom int) pixel.Size {
	side := m.TileSize().Width * zoomFactor(zoom)
	return pixel.Size{Width: side, Height: side}
}

// k is the pixels-per-radian factor at zoom.
func (m PseudoMercator) k(zoom int) float64 {
	return m.TileSize().Width / 2 / math.Pi * zoomFactor(zoom)
}

func (m PseudoMercator) ToPoint(p geo.GeoPoint, v View) pixel.Point {
	k := m.k(v.ZoomLevel())
	lat := geo.ToRadians(p.Latitude)
	return pixel.Point{
		X: k * (geo.ToRadians(p.Longitude) + math.Pi),
		Y: k * (math.Pi - math.Log(math.Tan(math.Pi/4+lat/2))),
	}
}

func (m PseudoMercator) ToGeoPoint(pt pixel.Point, v View) geo.GeoPoint {
	k := m.k(v.ZoomLevel())
	return geo.GeoPoint{
		Latitude:  geo.ToDegrees(2 * (math.Atan(math.Exp(math.Pi-pt.Y/k)) - math.Pi/4)),
		Longitude: geo.ToDegrees(pt.X/k - math.Pi),
	}
}

func (m PseudoMercator) ToRect(v View) pixel.Rect {
	return areaRect(m, v.Area(), v)
}

func (m PseudoMercator) ToAreaRect(area geo.GeoArea, v View) pixel.Rect {
	return areaRect(m, area, v)
}

func (m PseudoMercator) ToGeoArea(r pixel.Rect, v View) geo.GeoArea {
	return rectArea(m, r, v)
}

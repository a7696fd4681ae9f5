package projection

import (
	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
)

const equirectangularWKT = `PROJCS["WGS 84 / World Equidistant Cylindrical",
    GEOGCS["WGS 84",
        DATUM["WGS_1984",
            SPHEROID["WGS 84", 6378137, 298.257223563,
                AUTHORITY["EPSG", "7030"]],
            AUTHORITY["EPSG", "6326"]],
        PRIMEM["Greenwich", 0,
            AUTHORITY["EPSG", "8901"]],
        UNIT["degree", 0.01745329251994328,
            AUTHORITY["EPSG", "9122"]],
        AUTHORITY["EPSG", "4326"],
        AXIS["Latitude", NORTH],
        AXIS["Longitude", EAST]],
    UNIT["metre", 1,
        AUTHORITY["EPSG", "9001"]]]`

// Equirectangular is the plate carrée projection: degrees map linearly to
// pixels, with latitude 90 at y=0. Tiles are 512x256 so the 360x180 degree
// world stays square per degree.
type Equirectangular struct{}

func (Equirectangular) Name() string { return "WGS 84 / World Equidistant Cylindrical" }
func (Equirectangular) WellKnownText() string { return equirectangularWKT }
func (Equirectangular) World() geo.GeoArea { return geo.NewGeoArea(90, 180, -90, -180) }
func (Equirectangular) TileSize() pixel.Size { return pixel.Size{Width: 512, Height: 256} }

func (e Equirectangular) FullMapSizeFor(zoom int) pixel.Size {
	return e.TileSize().Scale(zoomFactor(zoom))
}

// scale returns pixels per degree of longitude and latitude.
func (e Equirectangular) scale(zoom int) (sx, sy float64) {
	size := e.FullMapSizeFor(zoom)
	world := e.World()
	return size.Width / world.Size.DeltaLongitude, size.Height / world.Size.DeltaLatitude
}

func (e Equirectangular) ToPoint(p geo.GeoPoint, v View) pixel.Point {
	sx, sy := e.scale(v.ZoomLevel())
	return pixel.Point{
		X: (p.Longitude + 180) * sx,
		Y: (90 - p.Latitude) * sy,
	}
}

func (e Equirectangular) ToGeoPoint(pt pixel.Point, v View) geo.GeoPoint {
	sx, sy := e.scale(v.ZoomLevel())
	return geo.GeoPoint{
		Latitude:  90 - pt.Y/sy,
		Longitude: pt.X/sx - 180,
	}
}

func (e Equirectangular) ToRect(v View) pixel.Rect {
	return areaRect(e, v.Area(), v)
}

func (e Equirectangular) ToAreaRect(area geo.GeoArea, v View) pixel.Rect {
	return areaRect(e, area, v)
}

func (e Equirectangular) ToGeoArea(r pixel.Rect, v View) geo.GeoArea {
	return rectArea(e, r, v)
}

// Package geojson exports tiles and geo-tagged elements as GeoJSON and
// loads elements back from it.
package geojson

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/MeKo-Tech/discarta/internal/viewport"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureType is stored in the "feature_type" property.
type FeatureType string

const (
	FeatureTile     FeatureType = "tile"
	FeatureSegment  FeatureType = "segment"
	FeatureArea     FeatureType = "area"
	FeatureLocation FeatureType = "location"
)

const propFeatureType = "feature_type"

func newFeature(g orb.Geometry, ft FeatureType) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties[propFeatureType] = string(ft)
	return f
}

func toPoint(p geo.GeoPoint) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// TilesToGeoJSON returns one polygon per drawing covering its geographic
// area. PseudoMercator tiles also carry their "quadkey".
func TilesToGeoJSON(p projection.Projection, drawings []tile.Drawing) *geojson.FeatureCollection {
	_, mercator := p.(projection.PseudoMercator)
	fc := geojson.NewFeatureCollection()
	for _, d := range drawings {
		f := newFeature(d.Area().Bound().ToPolygon(), FeatureTile)
		c := d.Coord()
		f.ID = c.String()
		f.Properties["projection"] = projection.Slug(p)
		f.Properties["z"] = c.Z
		f.Properties["x"] = c.X
		f.Properties["y"] = c.Y
		f.Properties["segments"] = d.Len()
		if mercator {
			f.Properties["quadkey"] = c.Quadkey()
		}
		fc.Append(f)
	}
	return fc
}

// SegmentsToGeoJSON converts the line segments of a drawing back to
// geographic line strings.
func SegmentsToGeoJSON(p projection.Projection, v projection.View, d tile.Drawing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range d.Segments() {
		line := orb.LineString{
			toPoint(p.ToGeoPoint(s.From, v)),
			toPoint(p.ToGeoPoint(s.To, v)),
		}
		f := newFeature(line, FeatureSegment)
		f.Properties["kind"] = s.Kind.String()
		f.Properties["tile"] = d.Coord().String()
		fc.Append(f)
	}
	return fc
}

// LayerToGeoJSON exports every element of l: areas as polygons, locations
// as points. Elements with neither are skipped.
func LayerToGeoJSON(l *viewport.Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range l.IDs() {
		e, _ := l.Get(id)

		var f *geojson.Feature
		switch {
		case !e.Area.IsEmpty():
			f = newFeature(e.Area.Bound().ToPolygon(), FeatureArea)
		case !e.Location.IsEmpty():
			f = newFeature(toPoint(e.Location), FeatureLocation)
			f.Properties["hotspot_x"] = e.HotSpotX.String()
			f.Properties["hotspot_y"] = e.HotSpotY.String()
		default:
			continue
		}

		f.ID = string(id)
		f.Properties["id"] = string(id)
		if e.Size.Width > 0 || e.Size.Height > 0 {
			f.Properties["width"] = e.Size.Width
			f.Properties["height"] = e.Size.Height
		}
		fc.Append(f)
	}
	return fc
}

// LoadLayer adds the features of fc to l. The element id comes from the
// "id" property, falling back to the feature id. Optional "width" and
// "height" properties set the element size. Points become locations
// with optional "hotspot_x"/"hotspot_y" properties, every other geometry
// contributes its bounding box as area.
func LoadLayer(fc *geojson.FeatureCollection, l *viewport.Layer) error {
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		id := viewport.ID(f.Properties.MustString("id", ""))
		if id == "" {
			if s, ok := f.ID.(string); ok {
				id = viewport.ID(s)
			}
		}
		if id == "" {
			return fmt.Errorf("feature %d has no id", i)
		}

		w := f.Properties.MustFloat64("width", 0)
		h := f.Properties.MustFloat64("height", 0)
		if w > 0 || h > 0 {
			l.SetSize(id, pixel.Size{Width: w, Height: h})
		}

		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			l.SetArea(id, geo.FromBound(f.Geometry.Bound()))
			continue
		}

		l.SetLocation(id, geo.NewGeoPoint(pt.Lat(), pt.Lon()))
		x, y := geo.HotSpotCenter, geo.HotSpotCenter
		var err error
		if s := f.Properties.MustString("hotspot_x", ""); s != "" {
			if x, err = geo.ParseHotSpot(s); err != nil {
				return fmt.Errorf("feature %q: %w", id, err)
			}
		}
		if s := f.Properties.MustString("hotspot_y", ""); s != "" {
			if y, err = geo.ParseHotSpot(s); err != nil {
				return fmt.Errorf("feature %q: %w", id, err)
			}
		}
		l.SetHotSpot(id, x, y)
	}
	return nil
}

// Parse decodes a FeatureCollection.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}
	return fc, nil
}

// ToBytes marshals fc as indented JSON.
func ToBytes(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return data, nil
}

// Summary counts features per feature type, e.g. "area=2, tile=16".
func Summary(fc *geojson.FeatureCollection) string {
	counts := map[string]int{}
	for _, f := range fc.Features {
		counts[f.Properties.MustString(propFeatureType, "unknown")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

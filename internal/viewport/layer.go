package viewport

import (
	"sort"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
)

// ID identifies an element placed on a Layer.
type ID string

// Element is the geographic metadata attached to a visual: either an area
// or a location with a hot spot, plus the element's measured size.
type Element struct {
	Area     geo.GeoArea
	Location geo.GeoPoint
	HotSpotX geo.HotSpot
	HotSpotY geo.HotSpot
	Size     pixel.Size
}

func newElement() *Element {
	return &Element{
		Area:     geo.EmptyArea,
		Location: geo.EmptyPoint,
		HotSpotX: geo.HotSpotCenter,
		HotSpotY: geo.HotSpotCenter,
	}
}

// Layer is a side table of geo-tagged elements. It is not safe for
// concurrent use.
type Layer struct {
	elements map[ID]*Element
}

// NewLayer creates an empty layer.
func NewLayer() *Layer {
	return &Layer{elements: make(map[ID]*Element)}
}

func (l *Layer) element(id ID) *Element {
	e, ok := l.elements[id]
	if !ok {
		e = newElement()
		l.elements[id] = e
	}
	return e
}

// SetArea attaches an area to id.
func (l *Layer) SetArea(id ID, area geo.GeoArea) { l.element(id).Area = area }

// SetLocation attaches a point to id.
func (l *Layer) SetLocation(id ID, p geo.GeoPoint) { l.element(id).Location = p }

// SetHotSpot sets the anchor of a point element. The default is the center.
func (l *Layer) SetHotSpot(id ID, x, y geo.HotSpot) {
	e := l.element(id)
	e.HotSpotX, e.HotSpotY = x, y
}

// SetSize records the measured size of id.
func (l *Layer) SetSize(id ID, size pixel.Size) { l.element(id).Size = size }

// Remove drops id from the layer.
func (l *Layer) Remove(id ID) { delete(l.elements, id) }

// Get returns a copy of the metadata for id.
func (l *Layer) Get(id ID) (Element, bool) {
	e, ok := l.elements[id]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// IDs returns the element ids in sorted order.
func (l *Layer) IDs() []ID {
	ids := make([]ID, 0, len(l.elements))
	for id := range l.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len is the number of elements.
func (l *Layer) Len() int { return len(l.elements) }

// Arrange places every element in absolute map pixels.
func (l *Layer) Arrange(p projection.Projection, v projection.View) map[ID]pixel.Rect {
	out := make(map[ID]pixel.Rect, len(l.elements))
	for id, e := range l.elements {
		out[id] = Place(p, v, *e)
	}
	return out
}

// Place computes the absolute pixel rect of one element. An area wins over
// a location. Areas are clipped to the projection's world first; an area
// entirely outside the world, or an element with neither area nor
// location, gets a zero rect.
func Place(p projection.Projection, v projection.View, e Element) pixel.Rect {
	if r, ok := placeArea(p, v, e); ok {
		return r
	}
	if r, ok := placePoint(p, v, e); ok {
		return r
	}
	return pixel.Rect{}
}

func placeArea(p projection.Projection, v projection.View, e Element) (pixel.Rect, bool) {
	if e.Area.IsEmpty() {
		return pixel.Rect{}, false
	}
	clipped := geo.Intersection(e.Area, p.World())
	if clipped.IsEmpty() {
		return pixel.Rect{}, false
	}
	if clipped.Size.DeltaLatitude < 0 || clipped.Size.DeltaLongitude < 0 {
		return pixel.Rect{}, true
	}
	return p.ToAreaRect(clipped, v), true
}

func placePoint(p projection.Projection, v projection.View, e Element) (pixel.Rect, bool) {
	if e.Location.IsEmpty() {
		return pixel.Rect{}, false
	}
	pt := p.ToPoint(e.Location, v)
	return pixel.Rect{
		X:      pt.X - e.HotSpotX.Apply(e.Size.Width),
		Y:      pt.Y - e.HotSpotY.Apply(e.Size.Height),
		Width:  e.Size.Width,
		Height: e.Size.Height,
	}, true
}

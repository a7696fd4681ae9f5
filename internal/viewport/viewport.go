// Package viewport keeps scroll offsets, zoom level and the visible
// geographic area consistent while the user pans and zooms, and feeds each
// change into a fresh tile batch.
package viewport

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/MeKo-Tech/discarta/internal/extent"
	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
)

// DefaultLineSize is one centimeter in 96 DPI display units.
const DefaultLineSize = 96 / 2.54

// ErrNilManager is returned by New without a tile manager.
var ErrNilManager = errors.New("tile manager is required")

// Config configures a Viewport.
type Config struct {
	Projection projection.Projection
	Tiles      *tile.Manager
	// Extent is optional; a fresh one showing the projection's world is
	// created when nil.
	Extent   *extent.Extent
	Layer    *Layer
	Logger   *slog.Logger
	LineSize float64
}

// PlacedTile is a finished tile and where it sits in absolute map pixels.
type PlacedTile struct {
	Drawing tile.Drawing
	Rect    pixel.Rect
}

// Arrangement is a snapshot of everything on screen, in screen pixels.
type Arrangement struct {
	Tiles    []PlacedTile
	Elements map[ID]pixel.Rect
}

type batch struct {
	generation uint64
	handles    []*tile.Handle
	pending    []*tile.Handle
}

// Viewport is the scroll and zoom controller of a map. It is owned by a
// single goroutine; only tile rendering happens elsewhere.
type Viewport struct {
	proj     projection.Projection
	tiles    *tile.Manager
	ext      *extent.Extent
	layer    *Layer
	logger   *slog.Logger
	lineSize float64

	mapSize pixel.Size
	// view.X/Y are the scroll offsets, view.Width/Height the viewport size
	view pixel.Rect

	loaded     bool
	updating   bool
	generation uint64
	current    *batch
	placed     []PlacedTile
	lastErr    error

	unsubscribe func()
}

// New creates a viewport. Layout must be called once the screen size is
// known before tiles are requested.
func New(cfg Config) (*Viewport, error) {
	if cfg.Projection == nil {
		return nil, projection.ErrNilProjection
	}
	if cfg.Tiles == nil {
		return nil, ErrNilManager
	}

	ext := cfg.Extent
	if ext == nil {
		ext = extent.New(cfg.Projection.World(), extent.MinZoomLevel, pixel.Size{})
	}
	layer := cfg.Layer
	if layer == nil {
		layer = NewLayer()
	}
	lineSize := cfg.LineSize
	if lineSize <= 0 {
		lineSize = DefaultLineSize
	}

	v := &Viewport{
		proj:     cfg.Projection,
		tiles:    cfg.Tiles,
		ext:      ext,
		layer:    layer,
		logger:   cfg.Logger,
		lineSize: lineSize,
		mapSize:  cfg.Projection.FullMapSizeFor(ext.ZoomLevel()),
	}
	v.unsubscribe = ext.Subscribe(v.extentChanged)

	return v, nil
}

func (v *Viewport) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}

// Close detaches the viewport from its extent.
func (v *Viewport) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// Projection returns the projection in use.
func (v *Viewport) Projection() projection.Projection { return v.proj }

// Extent returns the view state the viewport drives.
func (v *Viewport) Extent() *extent.Extent { return v.ext }

// Layer returns the element side table.
func (v *Viewport) Layer() *Layer { return v.layer }

// Loaded reports whether the first layout happened.
func (v *Viewport) Loaded() bool { return v.loaded }

// ExtentWidth is the full map width at the current zoom.
func (v *Viewport) ExtentWidth() float64 { return v.mapSize.Width }

// ExtentHeight is the full map height at the current zoom.
func (v *Viewport) ExtentHeight() float64 { return v.mapSize.Height }

// ViewportWidth is the visible width.
func (v *Viewport) ViewportWidth() float64 { return v.view.Width }

// ViewportHeight is the visible height.
func (v *Viewport) ViewportHeight() float64 { return v.view.Height }

// HorizontalOffset is the map x coordinate at the left screen edge.
func (v *Viewport) HorizontalOffset() float64 { return v.view.X }

// VerticalOffset is the map y coordinate at the top screen edge.
func (v *Viewport) VerticalOffset() float64 { return v.view.Y }

// CanHorizontallyScroll reports whether the map is wider than the viewport.
func (v *Viewport) CanHorizontallyScroll() bool { return v.mapSize.Width > v.view.Width }

// CanVerticallyScroll reports whether the map is taller than the viewport.
func (v *Viewport) CanVerticallyScroll() bool { return v.mapSize.Height > v.view.Height }

// Generation counts tile batches. It changes on every invalidation.
func (v *Viewport) Generation() uint64 { return v.generation }

// Err returns the error of the last tile request, if any.
func (v *Viewport) Err() error { return v.lastErr }

// Layout sets the screen size. The first call picks the smallest zoom level
// whose full map covers the screen, shows the whole world and centers it.
func (v *Viewport) Layout(screen pixel.Size) {
	v.guard(func() { v.ext.SetScreen(screen) })
	v.view.Width, v.view.Height = screen.Width, screen.Height

	if !v.loaded {
		v.loaded = true
		zoom := InitialZoom(v.proj, screen)

		v.guard(func() {
			v.ext.SetZoomLevel(zoom)
			v.ext.SetArea(v.proj.World())
		})
		v.mapSize = v.proj.FullMapSizeFor(v.ext.ZoomLevel())
		v.view.X, v.view.Y = v.clampX((v.mapSize.Width-screen.Width)/2), v.clampY((v.mapSize.Height-screen.Height)/2)

		v.log().Debug("Initial layout",
			"projection", v.proj.Name(),
			"zoom", v.ext.ZoomLevel(),
			"screen", screen.String(),
			"map", v.mapSize.String())

		v.invalidate()
		return
	}

	v.view.X, v.view.Y = v.clampX(v.view.X), v.clampY(v.view.Y)
	v.syncArea()
	v.invalidate()
}

// InitialZoom returns the smallest zoom level whose full map is at least
// as large as screen in both dimensions.
func InitialZoom(p projection.Projection, screen pixel.Size) int {
	zoom := extent.MinZoomLevel
	for zoom < extent.MaxZoomLevel && !p.FullMapSizeFor(zoom).Covers(screen) {
		zoom++
	}
	return zoom
}

// SetHorizontalOffset scrolls to offset, clamped to
// [0, max(0, ExtentWidth-ViewportWidth)].
func (v *Viewport) SetHorizontalOffset(offset float64) {
	v.scrollTo(offset, v.view.Y)
}

// SetVerticalOffset scrolls to offset, clamped to
// [0, max(0, ExtentHeight-ViewportHeight)].
func (v *Viewport) SetVerticalOffset(offset float64) {
	v.scrollTo(v.view.X, offset)
}

// Line scrolling moves by LineSize, page scrolling by one viewport.

func (v *Viewport) LineUp() { v.SetVerticalOffset(v.view.Y - v.lineSize) }
func (v *Viewport) LineDown() { v.SetVerticalOffset(v.view.Y + v.lineSize) }
func (v *Viewport) LineLeft() { v.SetHorizontalOffset(v.view.X - v.lineSize) }
func (v *Viewport) LineRight() { v.SetHorizontalOffset(v.view.X + v.lineSize) }
func (v *Viewport) PageUp() { v.SetVerticalOffset(v.view.Y - v.view.Height) }
func (v *Viewport) PageDown() { v.SetVerticalOffset(v.view.Y + v.view.Height) }
func (v *Viewport) PageLeft() { v.SetHorizontalOffset(v.view.X - v.view.Width) }
func (v *Viewport) PageRight() { v.SetHorizontalOffset(v.view.X + v.view.Width) }

// WheelUp zooms in one level.
func (v *Viewport) WheelUp() { v.ZoomIn() }

// WheelDown zooms out one level.
func (v *Viewport) WheelDown() { v.ZoomOut() }

// WheelLeft zooms out one level.
func (v *Viewport) WheelLeft() { v.ZoomOut() }

// WheelRight zooms in one level.
func (v *Viewport) WheelRight() { v.ZoomIn() }

// ZoomIn increases the zoom level by one, keeping the screen center fixed.
func (v *Viewport) ZoomIn() bool { return v.SetZoomLevel(v.ext.ZoomLevel() + 1) }

// ZoomOut decreases the zoom level by one, keeping the screen center fixed.
func (v *Viewport) ZoomOut() bool { return v.SetZoomLevel(v.ext.ZoomLevel() - 1) }

// SetZoomLevel changes the zoom level (clamped) and keeps the geographic
// point under the screen center in place. It reports whether the level
// changed.
func (v *Viewport) SetZoomLevel(zoom int) bool {
	oldZoom := v.ext.ZoomLevel()
	var changed bool
	v.guard(func() { changed = v.ext.SetZoomLevel(zoom) })
	if !changed {
		return false
	}
	v.rezoom(oldZoom)
	return true
}

// rezoom reprojects the old screen center at the new zoom.
func (v *Viewport) rezoom(oldZoom int) {
	newZoom := v.ext.ZoomLevel()
	center := v.proj.ToGeoPoint(v.screenCenter(), projection.At(oldZoom, v.ext.Area()))

	v.mapSize = v.proj.FullMapSizeFor(newZoom)
	p := v.proj.ToPoint(center, projection.At(newZoom, v.ext.Area()))
	v.view.X = v.clampX(p.X - v.view.Width/2)
	v.view.Y = v.clampY(p.Y - v.view.Height/2)

	v.log().Debug("Zoom changed",
		"old_zoom", oldZoom,
		"zoom", newZoom,
		"center", center.String())

	v.syncArea()
	v.invalidate()
}

// CenterOn scrolls so that p is in the middle of the screen, as far as the
// offset limits allow.
func (v *Viewport) CenterOn(p geo.GeoPoint) {
	pt := v.proj.ToPoint(p, v.ext)
	v.scrollTo(pt.X-v.view.Width/2, pt.Y-v.view.Height/2)
}

// Center returns the geographic point under the screen center.
func (v *Viewport) Center() geo.GeoPoint {
	return v.proj.ToGeoPoint(v.screenCenter(), v.ext)
}

// MakeVisible scrolls as little as possible to bring r, given in absolute
// map pixels, on screen. A rect larger than the viewport is aligned to its
// top-left corner. It returns the part of r that lies on the map, or
// pixel.EmptyRect when r misses the map and nothing scrolls.
func (v *Viewport) MakeVisible(r pixel.Rect) pixel.Rect {
	r = r.Intersect(v.mapRect())
	if r.IsEmpty() {
		return r
	}

	x, y := v.view.X, v.view.Y
	if r.Right() > x+v.view.Width {
		x = r.Right() - v.view.Width
	}
	if r.Left() < x {
		x = r.Left()
	}
	if r.Bottom() > y+v.view.Height {
		y = r.Bottom() - v.view.Height
	}
	if r.Top() < y {
		y = r.Top()
	}
	v.scrollTo(x, y)
	return r
}

// ScreenToGeo converts a screen position to a geographic point.
func (v *Viewport) ScreenToGeo(pt pixel.Point) geo.GeoPoint {
	return v.proj.ToGeoPoint(pt.Add(v.view.TopLeft()), v.ext)
}

// GeoToScreen converts a geographic point to a screen position.
func (v *Viewport) GeoToScreen(p geo.GeoPoint) pixel.Point {
	return v.proj.ToPoint(p, v.ext).Sub(v.view.TopLeft())
}

func (v *Viewport) screenCenter() pixel.Point {
	return v.view.Center()
}

func (v *Viewport) mapRect() pixel.Rect {
	return pixel.NewRect(pixel.Point{}, v.mapSize)
}

func (v *Viewport) clampX(offset float64) float64 {
	return math.Max(0, math.Min(offset, v.mapSize.Width-v.view.Width))
}

func (v *Viewport) clampY(offset float64) float64 {
	return math.Max(0, math.Min(offset, v.mapSize.Height-v.view.Height))
}

func (v *Viewport) scrollTo(x, y float64) {
	x, y = v.clampX(x), v.clampY(y)
	if x == v.view.X && y == v.view.Y {
		return
	}
	v.view.X, v.view.Y = x, y
	v.syncArea()
	v.invalidate()
}

// syncArea back-computes the visible geographic area from the pixel
// viewport.
func (v *Viewport) syncArea() {
	visible := v.view.Intersect(v.mapRect())
	if visible.IsEmpty() {
		return
	}
	area := v.proj.ToGeoArea(visible, projection.At(v.ext.ZoomLevel(), v.ext.Area()))
	v.guard(func() { v.ext.SetArea(area) })
}

// guard runs fn without reacting to the extent notifications it causes.
func (v *Viewport) guard(fn func()) {
	prev := v.updating
	v.updating = true
	defer func() { v.updating = prev }()
	fn()
}

// extentChanged handles changes made to the extent by someone else.
func (v *Viewport) extentChanged(c extent.Change) {
	if v.updating || !v.loaded {
		return
	}

	switch {
	case c.Zoom:
		v.rezoom(c.OldZoom)
	case c.Area:
		// the extent is rewritten even when the offsets stay put
		nw := v.proj.ToPoint(v.ext.Area().NorthWest, v.ext)
		v.view.X, v.view.Y = v.clampX(nw.X), v.clampY(nw.Y)
		v.syncArea()
		v.invalidate()
	case c.Screen:
		v.Layout(v.ext.Screen())
	}
}

// invalidate drops the placed tiles and starts a new batch. The previous
// batch keeps rendering but its results are never placed.
func (v *Viewport) invalidate() {
	if !v.loaded {
		return
	}

	v.generation++
	v.placed = nil

	handles, err := v.tiles.TilesForArea(context.Background(), v.proj, v.ext)
	v.lastErr = err
	if err != nil {
		v.log().Error("Failed to request tiles", "error", err)
		v.current = nil
		return
	}

	v.current = &batch{
		generation: v.generation,
		handles:    handles,
		pending:    slices.Clone(handles),
	}
}

// Pending is the number of tiles of the current batch not yet placed.
func (v *Viewport) Pending() int {
	if v.current == nil {
		return 0
	}
	return len(v.current.pending)
}

// PumpTiles places the tiles of the current batch as they finish, in
// completion order, until the batch is drained. The first failed tile
// stops the loop and is returned.
func (v *Viewport) PumpTiles(ctx context.Context) error {
	b := v.current
	if b == nil {
		return nil
	}

	return tile.Drain(ctx, slices.Clone(b.pending), func(h *tile.Handle, d tile.Drawing) error {
		v.place(b, h, d)
		return nil
	})
}

// PlaceReady places every tile of the current batch that has already
// finished, without blocking. It returns the number placed.
func (v *Viewport) PlaceReady() (int, error) {
	b := v.current
	if b == nil {
		return 0, nil
	}

	n := 0
	for _, h := range slices.Clone(b.pending) {
		select {
		case <-h.Done():
		default:
			continue
		}
		d, err := h.Result()
		if err != nil {
			return n, err
		}
		v.place(b, h, d)
		n++
	}
	return n, nil
}

func (v *Viewport) place(b *batch, done *tile.Handle, d tile.Drawing) {
	for i, h := range b.pending {
		if h == done {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			break
		}
	}
	if b.generation != v.generation {
		v.log().Debug("Discarding stale tile", "coords", d.Coord().String(), "generation", b.generation)
		return
	}
	v.placed = append(v.placed, PlacedTile{
		Drawing: d,
		Rect:    v.proj.ToAreaRect(d.Area(), v.ext),
	})
}

// Tiles returns the placed tiles of the current batch in screen pixels.
func (v *Viewport) Tiles() []PlacedTile {
	offset := pixel.Point{X: -v.view.X, Y: -v.view.Y}
	out := make([]PlacedTile, len(v.placed))
	for i, t := range v.placed {
		out[i] = PlacedTile{Drawing: t.Drawing, Rect: t.Rect.Offset(offset)}
	}
	return out
}

// Arrangement returns tiles and layer elements in screen pixels.
func (v *Viewport) Arrangement() Arrangement {
	offset := pixel.Point{X: -v.view.X, Y: -v.view.Y}
	elements := v.layer.Arrange(v.proj, v.ext)
	for id, r := range elements {
		if r != (pixel.Rect{}) {
			elements[id] = r.Offset(offset)
		}
	}
	return Arrangement{Tiles: v.Tiles(), Elements: elements}
}

// Package extent holds the mutable view state that projection math keys off:
// the visible geographic area, the zoom level and the screen size.
package extent

import (
	"sync"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
)

const (
	// MinZoomLevel is the most zoomed out level.
	MinZoomLevel = 0
	// MaxZoomLevel is the most zoomed in level.
	MaxZoomLevel = 19
)

// Change describes which parts of an Extent were modified.
type Change struct {
	Zoom    bool
	Area    bool
	Screen  bool
	OldZoom int
}

// Extent is the current view state. It is safe for concurrent reads; the
// owning viewport is expected to be the only writer.
type Extent struct {
	mu     sync.RWMutex
	area   geo.GeoArea
	zoom   int
	screen pixel.Size

	subMu     sync.Mutex
	nextSubID int
	observers map[int]func(Change)
}

// New creates an extent. zoom is clamped to [MinZoomLevel, MaxZoomLevel].
func New(area geo.GeoArea, zoom int, screen pixel.Size) *Extent {
	return &Extent{
		area:      area,
		zoom:      ClampZoom(zoom),
		screen:    screen,
		observers: make(map[int]func(Change)),
	}
}

// ClampZoom limits zoom to the supported range.
func ClampZoom(zoom int) int {
	return max(MinZoomLevel, min(zoom, MaxZoomLevel))
}

// ZoomLevel returns the current zoom level.
func (e *Extent) ZoomLevel() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.zoom
}

// Area returns the visible geographic area.
func (e *Extent) Area() geo.GeoArea {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.area
}

// Screen returns the screen size.
func (e *Extent) Screen() pixel.Size {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.screen
}

// SetZoomLevel clamps and applies zoom. It reports whether the level changed.
func (e *Extent) SetZoomLevel(zoom int) bool {
	zoom = ClampZoom(zoom)

	e.mu.Lock()
	old := e.zoom
	if old == zoom {
		e.mu.Unlock()
		return false
	}
	e.zoom = zoom
	e.mu.Unlock()

	e.notify(Change{Zoom: true, OldZoom: old})
	return true
}

// SetArea replaces the visible area. Areas equal within geo.DegreePrecision
// are not a change.
func (e *Extent) SetArea(area geo.GeoArea) bool {
	e.mu.Lock()
	old := e.zoom
	if e.area.Equal(area) {
		e.mu.Unlock()
		return false
	}
	e.area = area
	e.mu.Unlock()

	e.notify(Change{Area: true, OldZoom: old})
	return true
}

// SetScreen records a new screen size.
func (e *Extent) SetScreen(screen pixel.Size) bool {
	e.mu.Lock()
	old := e.zoom
	if e.screen == screen {
		e.mu.Unlock()
		return false
	}
	e.screen = screen
	e.mu.Unlock()

	e.notify(Change{Screen: true, OldZoom: old})
	return true
}

// Subscribe registers fn to be called after every change. Observers run on
// the goroutine that made the change. The returned func unsubscribes.
func (e *Extent) Subscribe(fn func(Change)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	e.observers[id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.observers, id)
	}
}

func (e *Extent) notify(c Change) {
	e.subMu.Lock()
	fns := make([]func(Change), 0, len(e.observers))
	for id := 0; id < e.nextSubID; id++ {
		if fn, ok := e.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

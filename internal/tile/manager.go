package tile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/discarta/internal/projection"
)

var (
	// ErrNilRenderer is returned by NewManager without a renderer.
	ErrNilRenderer = errors.New("tile renderer is required")
	// ErrNilView is returned when tiles are requested without a view.
	ErrNilView = errors.New("view is required")
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Renderer Renderer
	Logger   *slog.Logger
}

// Manager enumerates the tiles visible in a view and renders each of them
// on its own goroutine. Nothing is cached: every call renders again.
type Manager struct {
	renderer Renderer
	logger   *slog.Logger
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Renderer == nil {
		return nil, ErrNilRenderer
	}
	return &Manager{renderer: cfg.Renderer, logger: cfg.Logger}, nil
}

func (m *Manager) log() *slog.Logger {
	if m != nil && m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// TilesForArea starts rendering every grid cell whose pixel rect intersects
// p.ToRect(v) and returns one handle per cell. The view is snapshotted, so
// later changes to it do not affect the batch. All renders start
// immediately with no concurrency limit.
func (m *Manager) TilesForArea(ctx context.Context, p projection.Projection, v projection.View) ([]*Handle, error) {
	if p == nil {
		return nil, projection.ErrNilProjection
	}
	if v == nil {
		return nil, ErrNilView
	}

	view := projection.Snapshot(v)
	grid := NewGrid(p, view.ZoomLevel())
	mapRect := p.ToRect(view)
	coords := grid.Intersecting(mapRect)

	m.log().Debug("Scheduling tiles",
		"projection", p.Name(),
		"zoom", view.ZoomLevel(),
		"map_rect", mapRect.String(),
		"tiles", len(coords))

	handles := make([]*Handle, 0, len(coords))
	for _, c := range coords {
		h := newHandle(c, grid.Rect(c))
		handles = append(handles, h)
		go h.run(ctx, m.renderer, Request{
			Projection: p,
			View:       view,
			Coord:      c,
			Rect:       h.Rect,
		})
	}

	return handles, nil
}

// Drain delivers the result of every handle, together with the handle, to
// fn in completion order.
// It stops at the first render error, the first error from fn, or when ctx
// is done. Handles not yet delivered keep running in the background.
func Drain(ctx context.Context, handles []*Handle, fn func(*Handle, Drawing) error) error {
	completed := make(chan *Handle, len(handles))
	for _, h := range handles {
		go func() {
			<-h.Done()
			completed <- h
		}()
	}

	for range handles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h := <-completed:
			d, err := h.Result()
			if err != nil {
				return err
			}
			if err := fn(h, d); err != nil {
				return fmt.Errorf("place tile %s: %w", h.Coord, err)
			}
		}
	}

	return nil
}

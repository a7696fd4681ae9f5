package tile

import (
	"context"
	"fmt"

	"github.com/MeKo-Tech/discarta/internal/pixel"
)

// Handle is a tile render in flight.
type Handle struct {
	Coord Coord
	Rect  pixel.Rect

	done    chan struct{}
	drawing Drawing
	err     error
}

func newHandle(c Coord, r pixel.Rect) *Handle {
	return &Handle{Coord: c, Rect: r, done: make(chan struct{})}
}

func (h *Handle) run(ctx context.Context, r Renderer, req Request) {
	defer close(h.done)
	defer func() {
		if p := recover(); p != nil {
			h.err = fmt.Errorf("render tile %s: panic: %v", h.Coord, p)
		}
	}()

	d, err := r.Render(ctx, req)
	if err != nil {
		h.err = fmt.Errorf("render tile %s: %w", h.Coord, err)
		return
	}
	// the cell identity comes from the grid, not from the renderer
	h.drawing = NewDrawing(h.Coord, h.Rect, req.Projection.ToGeoArea(h.Rect, req.View), d.segments)
}

// Done is closed once the render has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome of a finished render. Calling it before Done is
// closed blocks until then.
func (h *Handle) Result() (Drawing, error) {
	<-h.done
	return h.drawing, h.err
}

// Wait blocks until the render finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Drawing, error) {
	select {
	case <-h.done:
		return h.drawing, h.err
	case <-ctx.Done():
		return Drawing{}, ctx.Err()
	}
}

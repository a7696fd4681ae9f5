// Package pixel holds the floating point pixel geometry used for absolute
// map space and screen space.
package pixel

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in pixels.
type Point struct {
	X, Y float64
}

// Add offsets p by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height float64
}

// Scale multiplies both dimensions by f.
func (s Size) Scale(f float64) Size { return Size{Width: s.Width * f, Height: s.Height * f} }

// Covers reports whether s is at least as large as other in both dimensions.
func (s Size) Covers(other Size) bool {
	return s.Width >= other.Width && s.Height >= other.Height
}

func (s Size) String() string { return fmt.Sprintf("%gx%g", s.Width, s.Height) }

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// EmptyRect is the result of intersecting disjoint rectangles.
var EmptyRect = Rect{
	X:      math.Inf(1),
	Y:      math.Inf(1),
	Width:  math.Inf(-1),
	Height: math.Inf(-1),
}

// NewRect creates a rect from a position and a size.
func NewRect(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
}

// RectFromPoints returns the normalized rect spanning two opposite corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// IsEmpty reports whether r is EmptyRect (or otherwise has a negative size).
func (r Rect) IsEmpty() bool { return r.Width < 0 || r.Height < 0 }

// Left edge.
func (r Rect) Left() float64 { return r.X }

// Top edge.
func (r Rect) Top() float64 { return r.Y }

// Right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// TopLeft corner.
func (r Rect) TopLeft() Point { return Point{X: r.X, Y: r.Y} }

// BottomRight corner.
func (r Rect) BottomRight() Point { return Point{X: r.Right(), Y: r.Bottom()} }

// Size of the rect.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Center of the rect.
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

// Offset translates r by d.
func (r Rect) Offset(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Intersects reports whether r and other overlap with a positive area.
// Rects that only share an edge do not intersect, nor do zero-sized rects.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return math.Min(r.Right(), other.Right())-math.Max(r.Left(), other.Left()) > 0 &&
		math.Min(r.Bottom(), other.Bottom())-math.Max(r.Top(), other.Top()) > 0
}

// Intersect returns the overlapping rect, or EmptyRect.
func (r Rect) Intersect(other Rect) Rect {
	if !r.Intersects(other) {
		return EmptyRect
	}
	left := math.Max(r.Left(), other.Left())
	top := math.Max(r.Top(), other.Top())
	return Rect{
		X:      left,
		Y:      top,
		Width:  math.Min(r.Right(), other.Right()) - left,
		Height: math.Min(r.Bottom(), other.Bottom()) - top,
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return !r.IsEmpty() && p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// Image rounds r to an integer image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(r.Left())), int(math.Round(r.Top())),
		int(math.Round(r.Right())), int(math.Round(r.Bottom())),
	)
}

func (r Rect) String() string {
	if r.IsEmpty() {
		return "Empty"
	}
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}

// Package raster turns tile drawings into images: a perlin-noise paper
// background with the drawing's line segments stroked on top.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/aquilax/go-perlin"
	"golang.org/x/image/vector"
)

// Style controls colors and stroke widths.
type Style struct {
	Paper          color.NRGBA
	Graticule      color.NRGBA
	Outline        color.NRGBA
	GraticuleWidth float64
	OutlineWidth   float64

	// NoiseScale is the paper noise wavelength in pixels; NoiseStrength is
	// the maximum brightness change (0..1). Zero strength disables noise.
	NoiseScale    float64
	NoiseStrength float64
	Seed          int64
}

// DefaultStyle is a light paper with thin red graticule lines.
func DefaultStyle() Style {
	return Style{
		Paper:          color.NRGBA{R: 244, G: 240, B: 232, A: 255},
		Graticule:      color.NRGBA{R: 200, G: 30, B: 30, A: 255},
		Outline:        color.NRGBA{R: 60, G: 60, B: 60, A: 255},
		GraticuleWidth: 1,
		OutlineWidth:   2,
		NoiseScale:     64,
		NoiseStrength:  0.06,
		Seed:           42,
	}
}

// Renderer rasterizes drawings. It is safe for concurrent use.
type Renderer struct {
	style Style
	noise *perlin.Perlin
}

// NewRenderer creates a renderer for style.
func NewRenderer(style Style) *Renderer {
	if style.NoiseScale <= 0 {
		style.NoiseScale = 64
	}
	return &Renderer{
		style: style,
		// alpha: persistence, beta: lacunarity, n: octaves
		noise: perlin.NewPerlin(2.0, 2.0, 3, style.Seed),
	}
}

// Render paints d into a new image the size of the tile. Noise is sampled in
// global map pixels so adjacent tiles join without seams.
func (r *Renderer) Render(d tile.Drawing) *image.NRGBA {
	bounds := d.Rect()
	w := int(math.Round(bounds.Width))
	h := int(math.Round(bounds.Height))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return dst
	}

	r.paintPaper(dst, bounds.X, bounds.Y)

	origin := bounds.TopLeft()
	r.stroke(dst, d.Segments(), tile.KindGraticule, origin, r.style.GraticuleWidth, r.style.Graticule)
	r.stroke(dst, d.Segments(), tile.KindOutline, origin, r.style.OutlineWidth, r.style.Outline)

	return dst
}

func (r *Renderer) paintPaper(dst *image.NRGBA, offsetX, offsetY float64) {
	b := dst.Bounds()
	base := r.style.Paper
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			shade := 1.0
			if r.style.NoiseStrength > 0 {
				nx := (offsetX + float64(x)) / r.style.NoiseScale
				ny := (offsetY + float64(y)) / r.style.NoiseScale
				// Noise2D is roughly in [-1, 1]
				shade += r.noise.Noise2D(nx, ny) * r.style.NoiseStrength
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = scale8(base.R, shade)
			dst.Pix[i+1] = scale8(base.G, shade)
			dst.Pix[i+2] = scale8(base.B, shade)
			dst.Pix[i+3] = base.A
		}
	}
}

// stroke draws every segment of kind as a filled quad of the given width.
func (r *Renderer) stroke(dst *image.NRGBA, segments []tile.Segment, kind tile.SegmentKind, origin pixel.Point, width float64, c color.NRGBA) {
	if width <= 0 {
		return
	}

	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	half := width / 2
	drawn := 0

	for _, s := range segments {
		if s.Kind != kind {
			continue
		}
		a := s.From.Sub(origin)
		e := s.To.Sub(origin)

		dx, dy := e.X-a.X, e.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// unit normal scaled to half the width
		nx, ny := -dy/length*half, dx/length*half

		ras.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		ras.LineTo(float32(e.X+nx), float32(e.Y+ny))
		ras.LineTo(float32(e.X-nx), float32(e.Y-ny))
		ras.LineTo(float32(a.X-nx), float32(a.Y-ny))
		ras.ClosePath()
		drawn++
	}

	if drawn == 0 {
		return
	}
	ras.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func scale8(v uint8, f float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)*f))))
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

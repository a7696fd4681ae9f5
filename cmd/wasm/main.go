//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
)

// TransformRequest is a coordinate conversion request from JS. Lat/Lon are
// used by discartaToPoint, X/Y by discartaToGeoPoint.
type TransformRequest struct {
	Projection string  `json:"projection"`
	Zoom       int     `json:"zoom"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// TileRequest names one tile of a projection's grid.
type TileRequest struct {
	Projection string `json:"projection"`
	Zoom       uint32 `json:"zoom"`
	X          uint32 `json:"x"`
	Y          uint32 `json:"y"`
}

func errorResult(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

func parseTransform(args []js.Value) (TransformRequest, projection.Projection, error) {
	var req TransformRequest
	if len(args) < 1 {
		return req, nil, fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return req, nil, fmt.Errorf("failed to parse request: %w", err)
	}
	p, err := projection.ByName(req.Projection)
	return req, p, err
}

// toPoint converts lat/lon to absolute map pixels of the whole world at zoom.
func toPoint(this js.Value, args []js.Value) any {
	req, p, err := parseTransform(args)
	if err != nil {
		return errorResult("%v", err)
	}
	pt := p.ToPoint(geo.NewGeoPoint(req.Lat, req.Lon), projection.At(req.Zoom, p.World()))
	return map[string]any{"x": pt.X, "y": pt.Y}
}

// toGeoPoint converts absolute map pixels back to lat/lon.
func toGeoPoint(this js.Value, args []js.Value) any {
	req, p, err := parseTransform(args)
	if err != nil {
		return errorResult("%v", err)
	}
	g := p.ToGeoPoint(pixel.Point{X: req.X, Y: req.Y}, projection.At(req.Zoom, p.World()))
	return map[string]any{"lat": g.Latitude, "lon": g.Longitude}
}

// tileURL returns the server path of a tile and the area it covers.
func tileURL(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing arguments")
	}
	var req TileRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return errorResult("failed to parse request: %v", err)
	}
	p, err := projection.ByName(req.Projection)
	if err != nil {
		return errorResult("%v", err)
	}

	c := tile.NewCoord(req.Zoom, req.X, req.Y)
	r, err := tile.NewRequest(p, c)
	if err != nil {
		return errorResult("%v", err)
	}
	area := p.ToGeoArea(r.Rect, r.View)
	b := area.Bound()

	return map[string]any{
		"path":   "/" + c.FilePath("tiles/"+projection.Slug(p), "png"),
		"width":  r.Rect.Width,
		"height": r.Rect.Height,
		"bounds": []any{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()},
	}
}

func projections(this js.Value, args []js.Value) any {
	names := projection.Names()
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func main() {
	c := make(chan struct{})

	js.Global().Set("discartaToPoint", js.FuncOf(toPoint))
	js.Global().Set("discartaToGeoPoint", js.FuncOf(toGeoPoint))
	js.Global().Set("discartaTileURL", js.FuncOf(tileURL))
	js.Global().Set("discartaProjections", js.FuncOf(projections))

	fmt.Println("Discarta WASM module loaded")
	<-c
}

// Package overlay maps normalized bounding boxes onto a display surface.
//
// Boxes are stored relative to the unscaled media frame (every coordinate in
// [0,1]). Zoom and container size are display-only transforms supplied by the
// render layer on each call, so the same box renders consistently at any zoom.
package overlay

import "math"

// NormalizedBox locates a detected feature within a media frame.
// All fields are fractions of the frame's width or height.
type NormalizedBox struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Point is a pointer position in screen pixels, relative to the container origin.
type Point struct {
	X float64
	Y float64
}

// ScreenRect is a box projected onto the container at a given zoom.
type ScreenRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Placed is a box with the identifier reported back by HitTest.
// Slices of Placed are interpreted in draw order: later entries are on top.
type Placed struct {
	ID  string
	Box NormalizedBox
}

// MinZoom is the smallest zoom factor accepted; lower values are raised to it.
const MinZoom = 1.0

// Valid reports whether every coordinate is in [0,1] and the box stays inside the frame.
func (b NormalizedBox) Valid() bool {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return b.X+b.Width <= 1+1e-9 && b.Y+b.Height <= 1+1e-9
}

// Clamp returns the box trimmed to the unit frame.
func (b NormalizedBox) Clamp() NormalizedBox {
	x0, y0 := clamp01(b.X), clamp01(b.Y)
	x1, y1 := clamp01(b.X+b.Width), clamp01(b.Y+b.Height)
	return NormalizedBox{X: x0, Y: y0, Width: math.Max(0, x1-x0), Height: math.Max(0, y1-y0)}
}

// Area returns the normalized area of the box.
func (b NormalizedBox) Area() float64 {
	return b.Width * b.Height
}

// FromPixels converts a detector's pixel rectangle into a normalized box for a
// frame of the given size. The result is clamped to the frame.
func FromPixels(r ScreenRect, frame Size) NormalizedBox {
	if frame.Width <= 0 || frame.Height <= 0 {
		return NormalizedBox{}
	}
	return NormalizedBox{
		X:      r.X / frame.Width,
		Y:      r.Y / frame.Height,
		Width:  r.Width / frame.Width,
		Height: r.Height / frame.Height,
	}.Clamp()
}

// ToScreenRect projects a box onto a container at the given zoom.
// Zoom is a uniform scalar; values below MinZoom are treated as MinZoom.
func ToScreenRect(box NormalizedBox, container Size, zoom float64) ScreenRect {
	z := normalizeZoom(zoom)
	return ScreenRect{
		X:      box.X * container.Width * z,
		Y:      box.Y * container.Height * z,
		Width:  box.Width * container.Width * z,
		Height: box.Height * container.Height * z,
	}
}

// Contains reports whether p lies within r. Edges are inclusive.
func (r ScreenRect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// HitTest returns the ID of the topmost box containing p.
// Boxes are checked from last to first so the most recently drawn box wins.
func HitTest(p Point, boxes []Placed, container Size, zoom float64) (string, bool) {
	for i := len(boxes) - 1; i >= 0; i-- {
		if ToScreenRect(boxes[i].Box, container, zoom).Contains(p) {
			return boxes[i].ID, true
		}
	}
	return "", false
}

// IoU returns the intersection over union of two boxes, in [0,1].
func IoU(a, b NormalizedBox) float64 {
	ix := math.Max(0, math.Min(a.X+a.Width, b.X+b.Width)-math.Max(a.X, b.X))
	iy := math.Max(0, math.Min(a.Y+a.Height, b.Y+b.Height)-math.Max(a.Y, b.Y))
	inter := ix * iy
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func normalizeZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || zoom < MinZoom {
		return MinZoom
	}
	return zoom
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

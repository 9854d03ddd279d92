// Package geom holds the screen-space rectangle type shared by the
// segmentation engine and its intersection-over-union helpers.
//
// Coordinates are CSS pixels relative to the page viewport: X grows rightward,
// Y grows downward. A Rect is stored by its edges rather than origin+size
// because every overlap computation works on edges.
package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in screen pixel coordinates.
type Rect struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// XYWH builds a Rect from an origin and a size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{XMin: x, XMax: x + w, YMin: y, YMax: y + h}
}

// Width returns XMax - XMin. It may be negative for malformed input.
func (r Rect) Width() float64 { return r.XMax - r.XMin }

// Height returns YMax - YMin. It may be negative for malformed input.
func (r Rect) Height() float64 { return r.YMax - r.YMin }

// Area returns Width * Height without clamping, matching how rendered
// bounding boxes are compared against each other.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Centroid returns the rectangle center.
func (r Rect) Centroid() (x, y float64) {
	return r.XMin + r.Width()/2, r.YMin + r.Height()/2
}

// Contains reports whether the point lies inside r (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

// Clip caps the max edges at the viewport size. Min edges are never moved, so
// a rectangle that starts below the fold keeps a negative height and
// contributes no overlap.
func (r Rect) Clip(vp Viewport) Rect {
	if r.XMax > vp.Width {
		r.XMax = vp.Width
	}
	if r.YMax > vp.Height {
		r.YMax = vp.Height
	}
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", r.XMin, r.XMax, r.YMin, r.YMax)
}

// Viewport is the visible screen area, in the same units as Rect.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Valid reports whether both dimensions are positive and finite.
func (vp Viewport) Valid() bool {
	return vp.Width > 0 && vp.Height > 0 &&
		!math.IsInf(vp.Width, 0) && !math.IsInf(vp.Height, 0)
}

// Point is a screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center returns the rectangle center as a Point.
func (r Rect) Center() Point {
	x, y := r.Centroid()
	return Point{X: x, Y: y}
}

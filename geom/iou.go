package geom

import "math"

// Overlap returns the length of the intersection of [amin,amax] and
// [bmin,bmax], or 0 when they are disjoint.
func Overlap(amin, amax, bmin, bmax float64) float64 {
	return math.Max(0, math.Min(amax, bmax)-math.Max(amin, bmin))
}

// IntersectionArea returns the overlap area of a and b, 0 when disjoint.
func IntersectionArea(a, b Rect) float64 {
	w := Overlap(a.XMin, a.XMax, b.XMin, b.XMax)
	h := Overlap(a.YMin, a.YMax, b.YMin, b.YMax)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union of a and b.
//
// The result is NaN when both areas are zero; use Finite before comparing.
func IoU(a, b Rect) float64 {
	overlap := IntersectionArea(a, b)
	union := a.Area() + b.Area() - overlap
	return overlap / union
}

// ClippedIoU is IoU after capping both rectangles at the viewport.
func ClippedIoU(a, b Rect, vp Viewport) float64 {
	return IoU(a.Clip(vp), b.Clip(vp))
}

// Finite maps NaN and infinities to 0, so degenerate geometry reads as
// "no overlap".
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

package layout

import (
	"math"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
)

const (
	// EdgeTolerance is the edge distance under which two candidates are
	// equally close.
	EdgeTolerance = 2
	// minOverlapShare is the share of the source's span a candidate must
	// cover on the perpendicular axis to count as overlapping.
	minOverlapShare = 0.1
)

type direction struct {
	// beyond reports whether c lies entirely on this side of src.
	beyond func(src, c geom.Rect) bool
	// edge is the coordinate of c facing src.
	edge func(c geom.Rect) float64
	// closer reports whether edge a is closer to src than edge b.
	closer func(a, b float64) bool
	// perp is the overlap of src and c on the perpendicular axis, and span
	// the extent of src on it.
	perp func(src, c geom.Rect) float64
	span func(src geom.Rect) float64
	pmin func(c geom.Rect) float64
}

func yOverlap(a, b geom.Rect) float64 { return geom.Overlap(a.YMin, a.YMax, b.YMin, b.YMax) }
func xOverlap(a, b geom.Rect) float64 { return geom.Overlap(a.XMin, a.XMax, b.XMin, b.XMax) }

var (
	leftward = direction{
		beyond: func(src, c geom.Rect) bool { return c.XMax <= src.XMin },
		edge:   func(c geom.Rect) float64 { return c.XMax },
		closer: func(a, b float64) bool { return a > b },
		perp:   yOverlap,
		span:   geom.Rect.Height,
		pmin:   func(c geom.Rect) float64 { return c.YMin },
	}
	rightward = direction{
		beyond: func(src, c geom.Rect) bool { return c.XMin >= src.XMax },
		edge:   func(c geom.Rect) float64 { return c.XMin },
		closer: func(a, b float64) bool { return a < b },
		perp:   yOverlap,
		span:   geom.Rect.Height,
		pmin:   func(c geom.Rect) float64 { return c.YMin },
	}
	upward = direction{
		beyond: func(src, c geom.Rect) bool { return c.YMax <= src.YMin },
		edge:   func(c geom.Rect) float64 { return c.YMax },
		closer: func(a, b float64) bool { return a > b },
		perp:   xOverlap,
		span:   geom.Rect.Width,
		pmin:   func(c geom.Rect) float64 { return c.XMin },
	}
	downward = direction{
		beyond: func(src, c geom.Rect) bool { return c.YMin >= src.YMax },
		edge:   func(c geom.Rect) float64 { return c.YMin },
		closer: func(a, b float64) bool { return a < b },
		perp:   xOverlap,
		span:   geom.Rect.Width,
		pmin:   func(c geom.Rect) float64 { return c.XMin },
	}
)

// prefer reports whether cand should replace cur as src's neighbor.
func (d direction) prefer(src, cur, cand geom.Rect) bool {
	if math.Abs(d.edge(cand)-d.edge(cur)) > EdgeTolerance {
		return d.closer(d.edge(cand), d.edge(cur))
	}
	span := d.span(src)
	po, no := d.perp(src, cur), d.perp(src, cand)
	curOver := po > 0 && po >= minOverlapShare*span
	candOver := no > 0 && no >= minOverlapShare*span
	switch {
	case curOver && candOver:
		return no > po || (no == po && d.pmin(cand) < d.pmin(cur))
	case candOver:
		return true
	}
	return false
}

func (d direction) nearest(s *screen.Screen, src screen.ID, siblings []screen.ID) screen.ID {
	best := screen.None
	rect := s.Get(src).Rect
	for _, id := range siblings {
		if id == src {
			continue
		}
		c := s.Get(id).Rect
		if !d.beyond(rect, c) {
			continue
		}
		if best == screen.None || d.prefer(rect, s.Get(best).Rect, c) {
			best = id
		}
	}
	return best
}

// Align sets up to one neighbor per direction for every placed segment,
// choosing among its siblings only.
func Align(s *screen.Screen) {
	var walk func(id screen.ID)
	walk = func(id screen.ID) {
		kids := s.Get(id).Children
		for _, k := range kids {
			seg := s.Get(k)
			seg.Left = leftward.nearest(s, k, kids)
			seg.Right = rightward.nearest(s, k, kids)
			seg.Top = upward.nearest(s, k, kids)
			seg.Bottom = downward.nearest(s, k, kids)
		}
		for _, k := range kids {
			walk(k)
		}
	}
	walk(s.Root().ID)
}

// Link attaches to every comments and chat-panel segment the first plain form
// found among its children, then among its top, bottom, left and right
// neighbors.
func Link(s *screen.Screen) {
	for _, id := range s.All() {
		seg := s.Get(id)
		data, ok := seg.Variant.(*screen.WidgetData)
		if !ok || !seg.Kind.Aggregate() {
			continue
		}
		data.MessageInput = screen.None
		candidates := append(append([]screen.ID(nil), seg.Children...), nonNone(seg.Neighbors())...)
		for _, c := range candidates {
			if s.Get(c).Kind == screen.KindForm {
				data.MessageInput = c
				break
			}
		}
	}
}

func nonNone(ids [4]screen.ID) []screen.ID {
	var out []screen.ID
	for _, id := range ids {
		if id != screen.None {
			out = append(out, id)
		}
	}
	return out
}

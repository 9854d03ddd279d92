package screen

import "github.com/hazyhaar/seamlis/vtree"

// SegmentsByLabel returns the top-level segments carrying label.
func (s *Screen) SegmentsByLabel(label string) []ID {
	var out []ID
	for _, id := range s.TopLevel() {
		if s.segs[id].Label == label {
			out = append(out, id)
		}
	}
	return out
}

// SegmentsByUIType returns the top-level segments of kind k.
func (s *Screen) SegmentsByUIType(k Kind) []ID {
	var out []ID
	for _, id := range s.TopLevel() {
		if s.segs[id].Kind == k {
			out = append(out, id)
		}
	}
	return out
}

// LargestSegment returns the segment of ids with the largest rectangle. The
// first one wins ties. It returns None for an empty list.
func (s *Screen) LargestSegment(ids []ID) ID {
	best, bestArea := None, 0.0
	for _, id := range ids {
		seg := s.Get(id)
		if seg == nil {
			continue
		}
		if a := seg.Rect.Area(); best == None || a > bestArea {
			best, bestArea = id, a
		}
	}
	return best
}

// SegmentsAt returns the placed segments whose node lies under the point,
// innermost first.
func (s *Screen) SegmentsAt(x, y float64) []ID {
	if s.Tree == nil {
		return nil
	}
	byNode := make(map[vtree.Node][]ID, len(s.all))
	for _, id := range s.all {
		if n := s.segs[id].Node; n != nil {
			byNode[n] = append(byNode[n], id)
		}
	}
	var out []ID
	for _, n := range s.Tree.NodesAt(x, y) {
		out = append(out, byNode[n]...)
	}
	return out
}

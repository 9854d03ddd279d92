// Package nms removes duplicate segment records: first among records of the
// same role, then across roles.
package nms

import (
	"sort"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/vtree"
)

const (
	// DistinctIoU is the overlap below which same-role records coexist.
	DistinctIoU = 0.05
	// MergeIoU is the overlap from which same-role records are duplicates.
	MergeIoU = 0.5
	// CollapseIoU is the overlap from which records of any role collapse
	// into the highest scored one.
	CollapseIoU = 0.7
)

// Suppress runs both stages. recs must be sorted by score, highest first.
// The order of the result is not meaningful.
func Suppress(recs []*screen.Record, vp geom.Viewport) []*screen.Record {
	return Collapse(ByRole(recs, vp), vp)
}

func overlap(a, b *screen.Record, vp geom.Viewport) float64 {
	if a.Matched.Node == nil || b.Matched.Node == nil {
		return 0
	}
	return vtree.IoU(a.Matched.Node, b.Matched.Node, &vp)
}

// ByRole keeps, within each role, the first remaining record and drops every
// record overlapping it by DistinctIoU or more. A duplicate whose node
// contains the kept record's node moves the kept record onto that node.
func ByRole(recs []*screen.Record, vp geom.Viewport) []*screen.Record {
	var out []*screen.Record
	for _, role := range screen.Roles {
		var group []*screen.Record
		for _, r := range recs {
			if r.Role == role {
				group = append(group, r)
			}
		}
		for len(group) > 0 {
			kept := group[0]
			var next []*screen.Record
			for _, other := range group[1:] {
				iou := overlap(kept, other, vp)
				switch {
				case iou < DistinctIoU:
					next = append(next, other)
				case iou >= MergeIoU:
					if vtree.Contains(other.Matched.Node, kept.Matched.Node) {
						kept.Matched = other.Matched
					}
				}
			}
			out = append(out, kept)
			group = next
		}
	}
	return out
}

// Collapse visits records from the highest score down. Each remaining
// record in turn is a source: every other record overlapping it by
// CollapseIoU or more is dropped. Equal scores keep their input order, so
// the earlier record wins a tie. Collapse(Collapse(x)) == Collapse(x).
func Collapse(recs []*screen.Record, vp geom.Viewport) []*screen.Record {
	rest := append([]*screen.Record(nil), recs...)
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Detection.Score > rest[j].Detection.Score
	})
	var out []*screen.Record
	for len(rest) > 0 {
		src := rest[0]
		rest = rest[1:]

		for i := len(rest) - 1; i >= 0; i-- {
			if overlap(src, rest[i], vp) >= CollapseIoU {
				rest = append(rest[:i], rest[i+1:]...)
			}
		}
		out = append(out, src)
	}
	return out
}

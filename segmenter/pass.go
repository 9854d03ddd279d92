package segmenter

import (
	"log/slog"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/segmenter/internal/collection"
	"github.com/hazyhaar/seamlis/segmenter/internal/match"
	"github.com/hazyhaar/seamlis/segmenter/internal/resolve"
	"github.com/hazyhaar/seamlis/vtree"
)

// Drop reasons.
const (
	DropLowScore     = "low_score"
	DropOverLimit    = "over_limit"
	DropUnknownLabel = "unknown_label"
	DropUnmatched    = "unmatched"
	DropNoInput      = "no_search_input"
)

// Drop records a detection the pass did not turn into a segment.
type Drop struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// segment builds the raw record of every detection, in input order.
// Detections that cannot be matched or resolved are dropped, never deferred.
func segment(t vtree.Tree, dets []indexed, vp geom.Viewport, logger *slog.Logger) ([]*screen.Record, []Drop) {
	var recs []*screen.Record
	var drops []Drop
	drop := func(d indexed, reason string) {
		drops = append(drops, Drop{Index: d.index, Label: d.Label, Reason: reason})
		logger.Debug("segmenter: detection dropped", "index", d.index, "label", d.Label, "reason", reason)
	}

	for _, d := range dets {
		role, ok := screen.RoleOf(d.Label)
		if !ok {
			logger.Warn("segmenter: unknown detection label", "index", d.index, "label", d.Label)
			drops = append(drops, Drop{Index: d.index, Label: d.Label, Reason: DropUnknownLabel})
			continue
		}
		node := match.Node(t, d.Box, vp)
		if node == nil {
			drop(d, DropUnmatched)
			continue
		}

		rec := &screen.Record{Detection: d.Detection, Role: role, Matched: screen.Ref(node)}
		kind := rec.Kind()
		switch {
		case role == screen.RoleNavigation:
			if tree := collection.FindNav(node, vp); tree != nil {
				rec.Nav = navCollection(tree)
			} else {
				logger.Debug("segmenter: no nav collection", "index", d.index, "label", d.Label)
			}
		case role == screen.RoleWidget || kind == screen.KindPosts:
			if info := collection.FindBasic(node, vp); info != nil {
				rec.Basic = basicCollection(info, kind)
			} else {
				logger.Debug("segmenter: no basic collection", "index", d.index, "label", d.Label)
			}
		case kind == screen.KindSearch:
			in := resolve.SearchInput(node)
			if in == nil {
				drop(d, DropNoInput)
				continue
			}
			ref := screen.Ref(in)
			rec.Input = &ref
		}
		recs = append(recs, rec)
	}
	return recs, drops
}

func navCollection(tree *collection.Tree) *screen.NavCollection {
	nc := &screen.NavCollection{
		Nested:          tree.Nested,
		Uniform:         tree.Uniform,
		DominantPattern: tree.DominantPattern,
	}
	last := len(tree.Layers) - 1
	for i, layer := range tree.Layers {
		var out []*screen.NavCollectionNode
		for _, info := range layer {
			cn := &screen.NavCollectionNode{Node: screen.Ref(info.Root), Pattern: info.Pattern}
			if i == last {
				cn.Items = navItems(info.Root)
			}
			out = append(out, cn)
		}
		nc.Layers = append(nc.Layers, out)
	}
	return nc
}

func navItems(root vtree.Node) []screen.NavItem {
	var items []screen.NavItem
	for _, c := range collection.ValidChildren(root) {
		it := screen.NavItem{Item: screen.Ref(c)}
		if l := resolve.Link(c); l != nil {
			ref := screen.Ref(l)
			it.Link = &ref
		}
		items = append(items, it)
	}
	return items
}

func basicCollection(info *collection.Info, owner screen.Kind) *screen.BasicCollection {
	bc := &screen.BasicCollection{Node: screen.Ref(info.Root), Label: screen.CollectionLabel(owner)}
	for _, c := range collection.ValidChildren(info.Root) {
		bc.Items = append(bc.Items, screen.Ref(c))
	}
	return bc
}

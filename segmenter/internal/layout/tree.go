// Package layout places instantiated segments into the screen tree in visual
// order, aligns siblings in four directions, and links aggregate widgets to
// their message-input forms.
package layout

import (
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/vtree"
)

// SameRegionIoU is the overlap from which a collection is treated as the
// same region as its owning segment and is not placed on its own.
const SameRegionIoU = 0.8

// Build places the top segments and their sub-segments, computes alignment
// and links message inputs. It returns the segments the visual tree never
// reached.
func Build(s *screen.Screen, top []screen.ID) []screen.ID {
	unplaced := Place(s, top)
	Align(s)
	Link(s)
	return unplaced
}

// Working returns the placement candidates for the top segments: each
// segment followed by its collections that are distinct regions and by its
// items.
func Working(s *screen.Screen, top []screen.ID) []screen.ID {
	var work []screen.ID
	for _, id := range top {
		seg := s.Get(id)
		if seg == nil {
			continue
		}
		work = append(work, id)

		var collections, items []screen.ID
		switch data := seg.Variant.(type) {
		case *screen.NavigationData:
			if data.Collection != screen.None {
				collections = append([]screen.ID{data.Collection}, data.SubCollections...)
			}
			for _, c := range collections {
				items = append(items, s.Get(c).Variant.(*screen.NavCollectionData).Items...)
			}
		case *screen.WidgetData:
			collections, items = basic(s, data.Collection)
		case *screen.ContentData:
			collections, items = basic(s, data.Collection)
		}
		for _, c := range collections {
			if distinct(s, seg, s.Get(c)) {
				work = append(work, c)
			}
		}
		work = append(work, items...)
	}
	return work
}

func basic(s *screen.Screen, id screen.ID) (collections, items []screen.ID) {
	if id == screen.None {
		return nil, nil
	}
	return []screen.ID{id}, s.Get(id).Variant.(*screen.CollectionData).Items
}

func distinct(s *screen.Screen, owner, c *screen.Segment) bool {
	if c.Node == nil || c.Node == owner.Node {
		return false
	}
	return vtree.IoU(owner.Node, c.Node, &s.Viewport) < SameRegionIoU
}

// Place attaches the working list of top to the screen tree by walking the
// visual tree in pre-order. The first working entry whose node is visited is
// attached under the nearest placed ancestor and removed from the list.
func Place(s *screen.Screen, top []screen.ID) []screen.ID {
	work := Working(s, top)
	if s.Tree == nil || s.Tree.Root() == nil {
		return work
	}

	var visit func(n vtree.Node, parent screen.ID)
	visit = func(n vtree.Node, parent screen.ID) {
		if len(work) == 0 {
			return
		}
		for i, id := range work {
			if s.Get(id).Node != n {
				continue
			}
			if err := s.Attach(parent, id); err == nil {
				parent = id
			}
			work = append(work[:i:i], work[i+1:]...)
			break
		}
		for _, c := range n.Children() {
			visit(c, parent)
		}
	}
	visit(s.Tree.Root(), s.Root().ID)
	return work
}

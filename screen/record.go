package screen

import (
	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

// NodeRef is a live reference into the visual tree. It is only valid for the
// parse that produced it and is never serialized.
type NodeRef struct {
	Node vtree.Node
	Rect geom.Rect
}

// Ref builds a live reference to n.
func Ref(n vtree.Node) NodeRef {
	return NodeRef{Node: n, Rect: n.Rect()}
}

// Valid reports whether the reference points at a live node.
func (r NodeRef) Valid() bool { return r.Node != nil }

// Store converts the reference into its serializable form.
func (r NodeRef) Store() NodePath {
	p := NodePath{Rect: r.Rect}
	if r.Node != nil {
		p.Path = vtree.PathOf(r.Node)
	}
	return p
}

// NodePath is the serializable form of a NodeRef: the node's path in the tree
// and the rectangle it had when it was recorded.
type NodePath struct {
	Path vtree.Path `json:"path"`
	Rect geom.Rect  `json:"rect"`
}

// Resolve re-queries t for the node at p. The recorded rectangle is kept when
// the path no longer resolves.
func (p NodePath) Resolve(t vtree.Tree) (NodeRef, bool) {
	if p.Path == "" {
		return NodeRef{Rect: p.Rect}, false
	}
	n, ok := t.Resolve(p.Path)
	if !ok {
		return NodeRef{Rect: p.Rect}, false
	}
	return Ref(n), true
}

// Record is the raw per-detection output of the segmentation pass. At most
// one of Nav, Basic and Input is set, depending on the detection's role.
type Record struct {
	Detection Detection
	Role      Role
	Matched   NodeRef
	Nav       *NavCollection
	Basic     *BasicCollection
	Input     *NodeRef
	Label     string
}

// Kind returns the record's UI type.
func (r *Record) Kind() Kind { return Kind(r.Detection.Label) }

// NavCollection is the collection tree found under a navigation detection.
// Layers[0] holds the collection root; Layers[1], when nested, holds the
// sub-collection roots. Items are resolved on the leaf layer only.
type NavCollection struct {
	Nested          bool
	Uniform         bool
	DominantPattern string
	Layers          [][]*NavCollectionNode
}

// Root returns the layer-0 collection node.
func (c *NavCollection) Root() *NavCollectionNode {
	if len(c.Layers) == 0 || len(c.Layers[0]) == 0 {
		return nil
	}
	return c.Layers[0][0]
}

// Leaves returns the nodes of the last layer.
func (c *NavCollection) Leaves() []*NavCollectionNode {
	if len(c.Layers) == 0 {
		return nil
	}
	return c.Layers[len(c.Layers)-1]
}

// NavCollectionNode is one collection root inside a NavCollection.
type NavCollectionNode struct {
	Node    NodeRef
	Pattern string
	Items   []NavItem
}

// NavItem is a collection member and its representative link, if any.
type NavItem struct {
	Item NodeRef
	Link *NodeRef
}

// BasicCollection is the collection found under a widget or posts detection.
type BasicCollection struct {
	Node  NodeRef
	Label string
	Items []NodeRef
}

// Store converts the record into its serializable form.
func (r *Record) Store() SegmentRecord {
	sr := SegmentRecord{
		Detection: r.Detection,
		Role:      r.Role,
		Matched:   r.Matched.Store(),
		Label:     r.Label,
	}
	if r.Nav != nil {
		nc := &StoredNavCollection{
			Nested:          r.Nav.Nested,
			Uniform:         r.Nav.Uniform,
			DominantPattern: r.Nav.DominantPattern,
		}
		for _, layer := range r.Nav.Layers {
			var out []StoredNavCollectionNode
			for _, cn := range layer {
				sn := StoredNavCollectionNode{Node: cn.Node.Store(), Pattern: cn.Pattern}
				for _, it := range cn.Items {
					si := StoredNavItem{Item: it.Item.Store()}
					if it.Link != nil {
						l := it.Link.Store()
						si.Link = &l
					}
					sn.Items = append(sn.Items, si)
				}
				out = append(out, sn)
			}
			nc.Layers = append(nc.Layers, out)
		}
		sr.Nav = nc
	}
	if r.Basic != nil {
		bc := &StoredBasicCollection{Node: r.Basic.Node.Store(), Label: r.Basic.Label}
		for _, it := range r.Basic.Items {
			bc.Items = append(bc.Items, it.Store())
		}
		sr.Basic = bc
	}
	if r.Input != nil {
		in := r.Input.Store()
		sr.Input = &in
	}
	return sr
}

// SegmentRecord is the serializable snapshot of a Record. Node identity is
// replaced by paths so the record can cross a process boundary and be
// resolved later against a live tree.
type SegmentRecord struct {
	Detection Detection              `json:"detection"`
	Role      Role                   `json:"role"`
	Matched   NodePath               `json:"matched"`
	Nav       *StoredNavCollection   `json:"nav_collection,omitempty"`
	Basic     *StoredBasicCollection `json:"basic_collection,omitempty"`
	Input     *NodePath              `json:"input,omitempty"`
	Label     string                 `json:"label,omitempty"`
}

// StoredNavCollection is the serializable form of a NavCollection.
type StoredNavCollection struct {
	Nested          bool                        `json:"nested"`
	Uniform         bool                        `json:"uniform"`
	DominantPattern string                      `json:"dominant_pattern"`
	Layers          [][]StoredNavCollectionNode `json:"layers"`
}

// StoredNavCollectionNode is the serializable form of a NavCollectionNode.
type StoredNavCollectionNode struct {
	Node    NodePath        `json:"node"`
	Pattern string          `json:"pattern"`
	Items   []StoredNavItem `json:"items,omitempty"`
}

// StoredNavItem is the serializable form of a NavItem.
type StoredNavItem struct {
	Item NodePath  `json:"item"`
	Link *NodePath `json:"link,omitempty"`
}

// StoredBasicCollection is the serializable form of a BasicCollection.
type StoredBasicCollection struct {
	Node  NodePath   `json:"node"`
	Label string     `json:"label"`
	Items []NodePath `json:"items,omitempty"`
}

// Resolve re-attaches the record to t. Every field is resolved
// independently; paths that no longer resolve are returned and the
// corresponding references are left without a node.
func (sr *SegmentRecord) Resolve(t vtree.Tree) (*Record, []vtree.Path) {
	var unresolved []vtree.Path
	res := func(p NodePath) NodeRef {
		ref, ok := p.Resolve(t)
		if !ok {
			unresolved = append(unresolved, p.Path)
		}
		return ref
	}

	r := &Record{
		Detection: sr.Detection,
		Role:      sr.Role,
		Matched:   res(sr.Matched),
		Label:     sr.Label,
	}
	if sr.Nav != nil {
		nc := &NavCollection{
			Nested:          sr.Nav.Nested,
			Uniform:         sr.Nav.Uniform,
			DominantPattern: sr.Nav.DominantPattern,
		}
		for _, layer := range sr.Nav.Layers {
			var out []*NavCollectionNode
			for _, sn := range layer {
				cn := &NavCollectionNode{Node: res(sn.Node), Pattern: sn.Pattern}
				for _, si := range sn.Items {
					it := NavItem{Item: res(si.Item)}
					if si.Link != nil {
						l := res(*si.Link)
						it.Link = &l
					}
					cn.Items = append(cn.Items, it)
				}
				out = append(out, cn)
			}
			nc.Layers = append(nc.Layers, out)
		}
		r.Nav = nc
	}
	if sr.Basic != nil {
		bc := &BasicCollection{Node: res(sr.Basic.Node), Label: sr.Basic.Label}
		for _, p := range sr.Basic.Items {
			bc.Items = append(bc.Items, res(p))
		}
		r.Basic = bc
	}
	if sr.Input != nil {
		in := res(*sr.Input)
		r.Input = &in
	}
	return r, unresolved
}

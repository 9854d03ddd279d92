package screen

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

// ID addresses a segment in its Screen's arena.
type ID int

// None is the zero link: no parent, no neighbor, no collection.
const None ID = -1

// ErrUnknownSegment is returned when an ID does not address a segment of the
// screen.
var ErrUnknownSegment = errors.New("screen: unknown segment")

// Segment is one recognized GUI region. Links to other segments are IDs into
// the owning Screen.
type Segment struct {
	ID    ID
	Kind  Kind
	Role  Role
	Label string
	Score float64

	Node vtree.Node
	Rect geom.Rect

	Parent   ID
	Children []ID

	Left, Right, Top, Bottom ID

	Variant Variant

	listeners listenerSet
	focused   bool
}

// Neighbors returns the alignment links in top, bottom, left, right order.
func (s *Segment) Neighbors() [4]ID {
	return [4]ID{s.Top, s.Bottom, s.Left, s.Right}
}

// Path returns the segment node's path, or "" for a segment without a node.
func (s *Segment) Path() vtree.Path {
	if s.Node == nil {
		return ""
	}
	return vtree.PathOf(s.Node)
}

// Variant is the role-specific payload of a segment. The set of variants is
// closed.
type Variant interface {
	variant()
}

// NavigationData is carried by tab-bar, menu-bar, menu-panel, content-list
// and content-grid segments.
type NavigationData struct {
	Nested          bool
	Uniform         bool
	DominantPattern string
	// Collection is the layer-0 nav-collection, or None.
	Collection ID
	// SubCollections are the layer-1 nav-collections of a nested tree.
	SubCollections []ID
}

// NavCollectionData is carried by nav-collection segments.
type NavCollectionData struct {
	Pattern string
	Items   []ID
}

// NavItemData is carried by nav-item segments.
type NavItemData struct {
	Link *NodeRef
}

// FormData is carried by login, form and search segments. Input is set for
// search segments only.
type FormData struct {
	Input *NodeRef
}

// WidgetData is carried by comments, chat-panel, tool-bar, options-panel and
// side-panel segments.
type WidgetData struct {
	Collection ID
	// MessageInput is the associated form of an aggregate widget, or None.
	MessageInput ID
}

// ContentData is carried by media, article, posts and contentsummary
// segments. Only posts has a collection.
type ContentData struct {
	Collection ID
}

// CollectionData is carried by basic-collection segments.
type CollectionData struct {
	Items []ID
}

// ItemData is carried by basic-item segments.
type ItemData struct{}

// RootData is carried by the screen root.
type RootData struct{}

func (*NavigationData) variant()    {}
func (*NavCollectionData) variant() {}
func (*NavItemData) variant()       {}
func (*FormData) variant()          {}
func (*WidgetData) variant()        {}
func (*ContentData) variant()       {}
func (*CollectionData) variant()    {}
func (*ItemData) variant()          {}
func (*RootData) variant()          {}

// Screen is the root of a segmented screen and the arena owning every
// segment of one parse.
type Screen struct {
	Tree     vtree.Tree
	Viewport geom.Viewport

	segs []*Segment
	all  []ID
}

// NewScreen returns an empty screen over t. The root segment has ID 0.
func NewScreen(t vtree.Tree, vp geom.Viewport) *Screen {
	s := &Screen{Tree: t, Viewport: vp}
	root := s.add(KindScreen, "", NodeRef{Rect: geom.Rect{XMax: vp.Width, YMax: vp.Height}})
	root.Variant = &RootData{}
	if t != nil {
		if n := t.Root(); n != nil {
			root.Node = n
		}
	}
	return s
}

// Root returns the root segment.
func (s *Screen) Root() *Segment { return s.segs[0] }

// Get returns the segment addressed by id, or nil.
func (s *Screen) Get(id ID) *Segment {
	if id < 0 || int(id) >= len(s.segs) {
		return nil
	}
	return s.segs[id]
}

// Lookup is Get with an error for unknown ids.
func (s *Screen) Lookup(id ID) (*Segment, error) {
	seg := s.Get(id)
	if seg == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSegment, id)
	}
	return seg, nil
}

// Len returns the number of segments in the arena, root included.
func (s *Screen) Len() int { return len(s.segs) }

// TopLevel returns the root's children in visual order.
func (s *Screen) TopLevel() []ID { return s.Root().Children }

// All returns the flat index of placed segments in placement order.
func (s *Screen) All() []ID { return s.all }

// Attach makes child the last child of parent and indexes it. A segment is
// attached at most once.
func (s *Screen) Attach(parent, child ID) error {
	p, c := s.Get(parent), s.Get(child)
	if p == nil || c == nil {
		return fmt.Errorf("screen: attach %d to %d: %w", child, parent, ErrUnknownSegment)
	}
	if c.Parent != None || child == 0 {
		return fmt.Errorf("screen: attach %d: already placed", child)
	}
	c.Parent = parent
	p.Children = append(p.Children, child)
	s.all = append(s.all, child)
	return nil
}

func (s *Screen) add(kind Kind, role Role, ref NodeRef) *Segment {
	seg := &Segment{
		ID:     ID(len(s.segs)),
		Kind:   kind,
		Role:   role,
		Node:   ref.Node,
		Rect:   ref.Rect,
		Parent: None,
		Left:   None,
		Right:  None,
		Top:    None,
		Bottom: None,
	}
	s.segs = append(s.segs, seg)
	return seg
}

// Instantiate builds the typed segment for rec, together with its collection
// and item sub-segments. The new segments are not placed in the tree.
func (s *Screen) Instantiate(rec *Record) (ID, error) {
	kind := rec.Kind()
	role, ok := RoleOf(rec.Detection.Label)
	if !ok {
		return None, fmt.Errorf("screen: instantiate %q: unknown label", rec.Detection.Label)
	}
	seg := s.add(kind, role, rec.Matched)
	seg.Label = rec.Label
	seg.Score = rec.Detection.Score

	switch kind {
	case KindTabBar, KindMenuBar, KindMenuPanel, KindContentList, KindContentGrid:
		seg.Variant = s.navigation(rec.Nav)
	case KindLogin, KindForm:
		seg.Variant = &FormData{}
	case KindSearch:
		data := &FormData{}
		if rec.Input != nil {
			in := *rec.Input
			data.Input = &in
		}
		seg.Variant = data
	case KindComments, KindChatPanel, KindToolBar, KindOptionsPanel, KindSidePanel:
		seg.Variant = &WidgetData{Collection: s.basic(rec.Basic), MessageInput: None}
	case KindPosts:
		seg.Variant = &ContentData{Collection: s.basic(rec.Basic)}
	case KindMedia, KindArticle, KindContentSummary:
		seg.Variant = &ContentData{Collection: None}
	default:
		s.segs = s.segs[:len(s.segs)-1]
		return None, fmt.Errorf("screen: instantiate %q: no variant", kind)
	}
	return seg.ID, nil
}

func (s *Screen) navigation(nc *NavCollection) *NavigationData {
	data := &NavigationData{Collection: None}
	if nc == nil || nc.Root() == nil {
		return data
	}
	data.Nested = nc.Nested
	data.Uniform = nc.Uniform
	data.DominantPattern = nc.DominantPattern

	collection := func(cn *NavCollectionNode) ID {
		seg := s.add(KindNavCollection, "", cn.Node)
		cd := &NavCollectionData{Pattern: cn.Pattern}
		seg.Variant = cd
		for _, it := range cn.Items {
			item := s.add(KindNavItem, "", it.Item)
			nd := &NavItemData{}
			if it.Link != nil {
				l := *it.Link
				nd.Link = &l
			}
			item.Variant = nd
			cd.Items = append(cd.Items, item.ID)
		}
		return seg.ID
	}

	data.Collection = collection(nc.Root())
	for _, layer := range nc.Layers[1:] {
		for _, cn := range layer {
			data.SubCollections = append(data.SubCollections, collection(cn))
		}
	}
	return data
}

func (s *Screen) basic(bc *BasicCollection) ID {
	if bc == nil {
		return None
	}
	seg := s.add(KindBasicCollection, "", bc.Node)
	seg.Label = bc.Label
	cd := &CollectionData{}
	seg.Variant = cd
	for _, it := range bc.Items {
		item := s.add(KindBasicItem, "", it)
		item.Variant = &ItemData{}
		cd.Items = append(cd.Items, item.ID)
	}
	return seg.ID
}

// CollectionLabel returns the label given to the basic collection owned by a
// segment of kind k.
func CollectionLabel(k Kind) string { return collectionLabels[k] }

package vtree

import (
	"strings"

	"github.com/hazyhaar/seamlis/geom"
)

// Element is an in-memory Node. Documents built from HTML fixtures and from
// live page snapshots are both made of Elements.
type Element struct {
	TagName     string
	Class       string
	Attrs       map[string]string
	Box         geom.Rect
	Hidden      bool // display:none
	Transparent bool // opacity:0

	parent *Element
	kids   []*Element
}

// El creates a detached element. The tag is upper-cased.
func El(tag string, box geom.Rect) *Element {
	return &Element{TagName: strings.ToUpper(tag), Box: box}
}

// WithClass sets the class attribute and returns e.
func (e *Element) WithClass(class string) *Element {
	e.Class = class
	return e
}

// WithAttr sets an attribute and returns e.
func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

// Hide marks e as display:none.
func (e *Element) Hide() *Element {
	e.Hidden = true
	return e
}

// Add appends children and returns e.
func (e *Element) Add(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
		e.kids = append(e.kids, c)
	}
	return e
}

func (e *Element) Tag() string       { return e.TagName }
func (e *Element) ClassName() string { return e.Class }
func (e *Element) Rect() geom.Rect   { return e.Box }
func (e *Element) Visible() bool     { return !e.Hidden && !e.Transparent }

func (e *Element) Attr(name string) (string, bool) {
	if name == "class" {
		return e.Class, e.Class != ""
	}
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Element) Children() []Node {
	out := make([]Node, len(e.kids))
	for i, k := range e.kids {
		out[i] = k
	}
	return out
}

type point struct{ x, y float64 }

// Document is an in-memory Tree over Elements.
//
// Hit-testing uses precomputed hit lists when the host supplied them (a live
// page answers elementsFromPoint) and falls back to geometry otherwise: every
// displayed element whose box contains the point, in reverse document order,
// which puts descendants and later siblings first.
type Document struct {
	root  *Element
	frame *Element
	order []*Element // pre-order
	paths map[Path]*Element
	hits  map[point][]Node
}

// NewDocument indexes the tree under root. The frame is the first BODY child
// of root, if any.
func NewDocument(root *Element) *Document {
	d := &Document{
		root:  root,
		paths: make(map[Path]*Element),
		hits:  make(map[point][]Node),
	}
	for _, k := range root.kids {
		if k.TagName == "BODY" {
			d.frame = k
			break
		}
	}
	var index func(e *Element)
	index = func(e *Element) {
		d.order = append(d.order, e)
		d.paths[PathOf(e)] = e
		for _, k := range e.kids {
			index(k)
		}
	}
	index(root)
	return d
}

func (d *Document) Root() Node { return d.root }

func (d *Document) Frame() Node {
	if d.frame == nil {
		return nil
	}
	return d.frame
}

// SetFrame overrides the outer frame node.
func (d *Document) SetFrame(e *Element) { d.frame = e }

// SetHits records the host's answer for a point.
func (d *Document) SetHits(x, y float64, nodes []*Element) {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	d.hits[point{x, y}] = out
}

func (d *Document) NodesAt(x, y float64) []Node {
	if h, ok := d.hits[point{x, y}]; ok {
		return h
	}
	var out []Node
	for i := len(d.order) - 1; i >= 0; i-- {
		e := d.order[i]
		if e.Hidden || hiddenAncestor(e) {
			continue
		}
		if e.Box.Contains(x, y) {
			out = append(out, e)
		}
	}
	return out
}

func hiddenAncestor(e *Element) bool {
	for p := e.parent; p != nil; p = p.parent {
		if p.Hidden {
			return true
		}
	}
	return false
}

func (d *Document) Resolve(p Path) (Node, bool) {
	e, ok := d.paths[p]
	if !ok {
		return nil, false
	}
	return e, true
}

// Elements returns every element in pre-order.
func (d *Document) Elements() []*Element { return d.order }

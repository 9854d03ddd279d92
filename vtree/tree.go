// Package vtree is the read-only view of the host's rendered node tree that
// the segmentation engine works against.
//
// The engine never mutates or owns nodes. A Node is a live handle that is only
// valid for the duration of one parse; a Path is its serializable form and is
// turned back into a Node with Tree.Resolve, which may fail once the page has
// changed.
package vtree

import (
	"strings"

	"github.com/hazyhaar/seamlis/geom"
)

// Node is a live handle into the visual tree. Implementations must be
// comparable (pointer types) so nodes can be matched by identity, and must
// return an untyped nil from Parent at the root.
type Node interface {
	// Tag is the upper-case element name, e.g. "DIV", "LI", "A".
	Tag() string
	// ClassName is the raw class attribute.
	ClassName() string
	// Attr returns an attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Rect is the rendered bounding box in viewport coordinates.
	Rect() geom.Rect
	// Visible is false for display:none and zero-opacity nodes.
	Visible() bool
	Parent() Node
	// Children returns element children in document order.
	Children() []Node
}

// Tree is the host tree for one parse.
type Tree interface {
	// Root is the document element.
	Root() Node
	// Frame is the outer frame node (the body) that detections never match.
	// It may be nil.
	Frame() Node
	// NodesAt returns every node under the point, innermost/topmost first.
	NodesAt(x, y float64) []Node
	// Resolve turns a serialized path back into a live node.
	Resolve(p Path) (Node, bool)
}

// Area is the rendered area of n.
func Area(n Node) float64 {
	return n.Rect().Area()
}

// Renderable reports whether n is visible and covers more than minArea px².
func Renderable(n Node, minArea float64) bool {
	return n.Visible() && Area(n) > minArea
}

// IoU compares two nodes by their rendered boxes. Invisible nodes never
// overlap anything. When vp is non-nil both boxes are clipped to it first.
// Non-finite results are reported as 0.
func IoU(a, b Node, vp *geom.Viewport) float64 {
	if !a.Visible() || !b.Visible() {
		return 0
	}
	ra, rb := a.Rect(), b.Rect()
	if vp != nil {
		ra, rb = ra.Clip(*vp), rb.Clip(*vp)
	}
	return geom.Finite(geom.IoU(ra, rb))
}

// Contains reports whether anc is a strict ancestor of n.
func Contains(anc, n Node) bool {
	if anc == nil || n == nil {
		return false
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == anc {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// HasTag reports whether n's tag equals one of tags (case-insensitive).
func HasTag(n Node, tags ...string) bool {
	tag := n.Tag()
	for _, t := range tags {
		if strings.EqualFold(tag, t) {
			return true
		}
	}
	return false
}

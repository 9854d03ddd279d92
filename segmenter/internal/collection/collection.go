// Package collection detects repeating sibling structures (lists, grids,
// menus) in the visual tree and builds nested collection trees from them.
package collection

import (
	"math"
	"strings"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

const (
	minLength   = 2
	maxScan     = 20
	minItemArea = 5
	minNesting  = 0.5
	minNavScore = 0.001
)

// Info is a collection root, the structural signature its items share and
// the items themselves.
type Info struct {
	Root     vtree.Node
	Pattern  string
	Children []vtree.Node
}

// Tree is a collection tree. Layers[0] is always the root collection;
// Layers[1], present when Nested, holds the sub-collections.
type Tree struct {
	Nested          bool
	Uniform         bool
	DominantPattern string
	Layers          [][]*Info
}

// Root returns the layer-0 collection.
func (t *Tree) Root() *Info { return t.Layers[0][0] }

// Leaves returns the last layer.
func (t *Tree) Leaves() []*Info { return t.Layers[len(t.Layers)-1] }

// Signature is the coarse similarity key of a node: its tag followed by its
// first class token.
func Signature(n vtree.Node) string {
	return n.Tag() + strings.Split(n.ClassName(), " ")[0]
}

// ValidChildren returns the children of n that can be collection items:
// visible, not scripts, and covering more than a few pixels.
func ValidChildren(n vtree.Node) []vtree.Node {
	var out []vtree.Node
	for _, c := range n.Children() {
		if c.Tag() == "SCRIPT" || !vtree.Renderable(c, minItemArea) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isListItem(n vtree.Node) bool {
	if n.Tag() == "LI" {
		return true
	}
	role, _ := n.Attr("role")
	return role == "listitem"
}

func withPattern(nodes []vtree.Node, pattern string) []vtree.Node {
	var out []vtree.Node
	for _, n := range nodes {
		if Signature(n) == pattern {
			out = append(out, n)
		}
	}
	return out
}

// Is reports whether the children of n repeat a structural pattern. List
// elements with a list-item child are accepted outright; otherwise the first
// valid children are histogrammed and a signature shared by at least two of
// them and at least half of the scanned ones wins, the most frequent first.
func Is(n vtree.Node) *Info {
	if !n.Visible() {
		return nil
	}
	if vtree.HasTag(n, "UL", "OL") {
		kids := n.Children()
		for _, c := range kids {
			if isListItem(c) {
				p := Signature(c)
				return &Info{Root: n, Pattern: p, Children: withPattern(kids, p)}
			}
		}
	}

	valid := ValidChildren(n)
	scan := valid[:min(len(valid), maxScan)]
	counts := make(map[string]int, len(scan))
	var order []string
	for _, c := range scan {
		sig := Signature(c)
		if counts[sig] == 0 {
			order = append(order, sig)
		}
		counts[sig]++
	}

	var pattern string
	best := 0
	for _, sig := range order {
		c := counts[sig]
		if c < minLength || float64(c) < float64(len(scan))/2 {
			continue
		}
		if c > best {
			pattern, best = sig, c
		}
	}
	if best == 0 {
		return nil
	}
	return &Info{Root: n, Pattern: pattern, Children: withPattern(valid, pattern)}
}

// firstCollection searches breadth-first from n, n included, for the first
// node that is itself a collection.
func firstCollection(n vtree.Node) *Info {
	queue := []vtree.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if info := Is(cur); info != nil {
			return info
		}
		queue = append(queue, cur.Children()...)
	}
	return nil
}

// TreeOf builds the collection tree rooted at n, or returns nil when n is
// not a collection. Each item contributes the first collection found under
// it; the tree is nested when those sub-collections cover n well enough, and
// uniform only when they all share one pattern.
func TreeOf(n vtree.Node) *Tree {
	root := Is(n)
	if root == nil {
		return nil
	}
	t := &Tree{DominantPattern: root.Pattern, Layers: [][]*Info{{root}}}

	var subs []*Info
	for _, c := range root.Children {
		if sub := firstCollection(c); sub != nil {
			subs = append(subs, sub)
		}
	}
	sum := 0.0
	for _, sub := range subs {
		sum += vtree.IoU(n, sub.Root, nil)
	}
	if sum < minNesting {
		return t
	}

	t.Nested = true
	t.Layers = append(t.Layers, subs)
	for _, sub := range subs[1:] {
		if sub.Pattern != subs[0].Pattern {
			return t
		}
	}
	t.Uniform = true
	t.DominantPattern = subs[0].Pattern
	return t
}

// FindNav searches breadth-first down from matched for the collection tree
// that best fits it. A tree whose root is at least as large as matched is
// accepted at once; otherwise trees are scored by the summed clipped IoU of
// matched against each child of their root.
func FindNav(matched vtree.Node, vp geom.Viewport) *Tree {
	var best *Tree
	bestScore := math.Inf(-1)
	area := vtree.Area(matched)

	queue := []vtree.Node{matched}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cand := TreeOf(cur); cand != nil {
			root := cand.Root().Root
			if vtree.Area(root) >= area {
				return cand
			}
			score := 0.0
			for _, c := range root.Children() {
				score += vtree.IoU(matched, c, &vp)
			}
			if score > minNavScore && score > bestScore {
				best, bestScore = cand, score
			}
		}
		queue = append(queue, cur.Children()...)
	}
	return best
}

// FindBasic searches breadth-first down from matched for the collection
// whose root best overlaps it. A branch is not expanded once its unclipped
// IoU with matched falls below the best clipped score found so far.
func FindBasic(matched vtree.Node, vp geom.Viewport) *Info {
	var best *Info
	bestScore := math.Inf(-1)

	queue := []vtree.Node{matched}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if vtree.IoU(matched, cur, nil) < bestScore {
			continue
		}
		if cand := Is(cur); cand != nil {
			if score := vtree.IoU(matched, cur, &vp); score > bestScore {
				best, bestScore = cand, score
			}
		}
		queue = append(queue, cur.Children()...)
	}
	return best
}

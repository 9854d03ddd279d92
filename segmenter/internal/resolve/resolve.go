// Package resolve picks the actionable node inside a segment: the link that
// represents a collection item, or the text input of a search control.
package resolve

import (
	"math"

	"github.com/hazyhaar/seamlis/vtree"
)

const (
	minLinkArea  = 5
	minInputArea = 4
)

var emphasis = map[string]float64{
	"H1": 6.6, "H2": 6.5, "H3": 6.4, "H4": 6.3, "H5": 6.2, "H6": 6.1,
	"STRONG": 3, "B": 3, "EM": 3, "I": 3,
}

// Link returns the hyperlink that best represents item: item itself when it
// is a link, otherwise the descendant link with the strongest heading or
// emphasis around it. Equal scores go to the larger link, then to the first.
func Link(item vtree.Node) vtree.Node {
	if item.Tag() == "A" {
		return item
	}
	var best vtree.Node
	bestScore := math.Inf(-1)
	for _, link := range descendantLinks(item) {
		score := linkScore(item, link)
		switch {
		case score > bestScore:
			best, bestScore = link, score
		case score == bestScore && vtree.Area(link) > vtree.Area(best):
			best = link
		}
	}
	return best
}

func descendantLinks(item vtree.Node) []vtree.Node {
	var out []vtree.Node
	for _, c := range item.Children() {
		vtree.Walk(c, func(n vtree.Node) bool {
			if n.Tag() == "A" && vtree.Renderable(n, minLinkArea) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

func linkScore(item, link vtree.Node) float64 {
	score := 0.0
	vtree.Walk(link, func(n vtree.Node) bool {
		score = math.Max(score, emphasis[n.Tag()])
		return true
	})
	for p := link.Parent(); p != nil && p != item; p = p.Parent() {
		score = math.Max(score, emphasis[p.Tag()])
	}
	return score
}

// SearchInput returns the node under matched, matched included, that looks
// most like a search text field, or nil when nothing scores above zero.
func SearchInput(matched vtree.Node) vtree.Node {
	var best vtree.Node
	bestScore := 0.0
	vtree.Walk(matched, func(n vtree.Node) bool {
		if s := inputScore(n); s > bestScore {
			best, bestScore = n, s
		}
		return true
	})
	return best
}

func inputScore(n vtree.Node) float64 {
	typ, hasType := n.Attr("type")
	if !n.Visible() || typ == "hidden" || vtree.Area(n) <= minInputArea {
		return math.Inf(-1)
	}
	if aria, _ := n.Attr("aria-hidden"); aria == "true" {
		return math.Inf(-1)
	}

	score := 0.0
	switch n.Tag() {
	case "INPUT", "TEXTAREA":
		score += 3
	}
	if hasType && typ != "" {
		switch typ {
		case "search":
			score += 2
		case "text":
			score++
		default:
			return math.Inf(-1)
		}
	}
	if v, _ := n.Attr("contenteditable"); v == "true" {
		score += 0.5
	}
	if v, _ := n.Attr("placeholder"); v != "" {
		score += 0.5
	}
	return score
}

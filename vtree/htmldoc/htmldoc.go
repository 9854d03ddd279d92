// Package htmldoc builds a vtree.Tree from an HTML document whose elements
// carry their rendered geometry in a data-rect="x,y,w,h" attribute.
//
// It is the offline stand-in for a live page: fixtures saved from a browser
// (or written by hand for tests) can be segmented without Chrome. Elements
// without data-rect get a zero box and never match a detection.
package htmldoc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

// RectAttr is the attribute holding an element's geometry.
const RectAttr = "data-rect"

// Document is a vtree.Tree backed by a parsed HTML document.
type Document struct {
	*vtree.Document
	root  *html.Node
	byDOM map[*html.Node]*vtree.Element
}

// Parse reads HTML and builds the tree.
func Parse(data []byte) (*Document, error) {
	root, err := htmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return FromNode(root)
}

// FromNode builds the tree from an already parsed document node.
func FromNode(root *html.Node) (*Document, error) {
	htmlEl := findElement(root, atom.Html)
	if htmlEl == nil {
		return nil, fmt.Errorf("htmldoc: no <html> element")
	}
	d := &Document{root: root, byDOM: make(map[*html.Node]*vtree.Element)}
	top, err := d.convert(htmlEl)
	if err != nil {
		return nil, err
	}
	d.Document = vtree.NewDocument(top)
	return d, nil
}

// Resolve evaluates p as an XPath against the parsed document. Any XPath the
// query engine accepts works, not only paths produced by vtree.PathOf.
func (d *Document) Resolve(p vtree.Path) (vtree.Node, bool) {
	n, err := htmlquery.Query(d.root, string(p))
	if err != nil || n == nil {
		return nil, false
	}
	e, ok := d.byDOM[n]
	if !ok {
		return nil, false
	}
	return e, true
}

func (d *Document) convert(n *html.Node) (*vtree.Element, error) {
	e := vtree.El(n.Data, geom.Rect{})
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			e.Class = a.Val
		case RectAttr:
			box, err := parseRect(a.Val)
			if err != nil {
				return nil, fmt.Errorf("htmldoc: <%s %s=%q>: %w", n.Data, RectAttr, a.Val, err)
			}
			e.Box = box
		case "hidden":
			e.Hidden = true
		case "style":
			hidden, transparent := parseStyle(a.Val)
			e.Hidden = e.Hidden || hidden
			e.Transparent = transparent
		}
		if a.Key != "class" {
			e.WithAttr(a.Key, a.Val)
		}
	}
	d.byDOM[n] = e

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		child, err := d.convert(c)
		if err != nil {
			return nil, err
		}
		e.Add(child)
	}
	return e, nil
}

func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("want x,y,w,h")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, err
		}
		v[i] = f
	}
	return geom.XYWH(v[0], v[1], v[2], v[3]), nil
}

// parseStyle reads the two inline declarations that affect visibility.
func parseStyle(style string) (hidden, transparent bool) {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		switch k {
		case "display":
			hidden = v == "none"
		case "opacity":
			if f, err := strconv.ParseFloat(v, 64); err == nil && f == 0 {
				transparent = true
			}
		}
	}
	return hidden, transparent
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

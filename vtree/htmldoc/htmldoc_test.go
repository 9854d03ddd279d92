package htmldoc

import (
	"testing"

	"github.com/hazyhaar/seamlis/vtree"
)

var testHTML = []byte(`<!DOCTYPE html>
<html data-rect="0,0,800,600">
<body data-rect="0,0,800,600">
<nav class="top bar" data-rect="0,0,800,40">
  <a href="/" data-rect="0,0,80,40">Home</a>
  <a href="/about" data-rect="80,0,80,40">About</a>
</nav>
<div class="ghost" style="display: none" data-rect="0,50,10,10"></div>
<div class="fade" style="opacity:0" data-rect="0,60,10,10"></div>
</body>
</html>`)

func TestParse(t *testing.T) {
	doc, err := Parse(testHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Root().Tag(); got != "HTML" {
		t.Fatalf("root tag = %q", got)
	}
	if doc.Frame() == nil || doc.Frame().Tag() != "BODY" {
		t.Fatalf("frame = %v", doc.Frame())
	}

	hits := doc.NodesAt(100, 20)
	if len(hits) < 2 || hits[0].Tag() != "A" || hits[1].Tag() != "NAV" {
		t.Fatalf("hits = %v", hits)
	}
	if hits[1].ClassName() != "top bar" {
		t.Errorf("class = %q", hits[1].ClassName())
	}
	if r := hits[0].Rect(); r.XMin != 80 || r.XMax != 160 {
		t.Errorf("rect = %v", r)
	}
}

func TestParse_Visibility(t *testing.T) {
	doc, err := Parse(testHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ghost, ok := doc.Resolve("//div[@class='ghost']")
	if !ok {
		t.Fatal("ghost div not resolved")
	}
	if ghost.Visible() {
		t.Error("display:none div reported visible")
	}
	fade, ok := doc.Resolve("//div[@class='fade']")
	if !ok {
		t.Fatal("fade div not resolved")
	}
	if fade.Visible() {
		t.Error("opacity:0 div reported visible")
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	doc, err := Parse(testHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, e := range doc.Elements() {
		p := vtree.PathOf(e)
		n, ok := doc.Resolve(p)
		if !ok {
			t.Errorf("Resolve(%q) failed", p)
			continue
		}
		if n != vtree.Node(e) {
			t.Errorf("Resolve(%q) returned a different node", p)
		}
	}
}

func TestResolve_Missing(t *testing.T) {
	doc, err := Parse(testHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := doc.Resolve("/html/body/main"); ok {
		t.Fatal("missing path resolved")
	}
	if _, ok := doc.Resolve("///["); ok {
		t.Fatal("invalid xpath resolved")
	}
}

func TestParse_BadRect(t *testing.T) {
	_, err := Parse([]byte(`<html><body><div data-rect="1,2,3"></div></body></html>`))
	if err == nil {
		t.Fatal("expected error for malformed data-rect")
	}
}

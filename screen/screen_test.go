package screen

import (
	"encoding/json"
	"testing"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

var vp = geom.Viewport{Width: 800, Height: 600}

func fixture() (*vtree.Document, map[string]*vtree.Element) {
	nav := vtree.El("nav", geom.XYWH(0, 0, 800, 40))
	ul := vtree.El("ul", geom.XYWH(0, 0, 800, 40))
	li1 := vtree.El("li", geom.XYWH(0, 0, 100, 40))
	li2 := vtree.El("li", geom.XYWH(100, 0, 100, 40))
	a := vtree.El("a", geom.XYWH(110, 5, 80, 30))
	li2.Add(a)
	ul.Add(li1, li2)
	nav.Add(ul)
	form := vtree.El("form", geom.XYWH(0, 50, 300, 40))
	input := vtree.El("input", geom.XYWH(10, 55, 200, 30)).WithAttr("type", "search")
	form.Add(input)
	body := vtree.El("body", geom.XYWH(0, 0, 800, 600)).Add(nav, form)
	html := vtree.El("html", geom.XYWH(0, 0, 800, 600)).Add(body)
	return vtree.NewDocument(html), map[string]*vtree.Element{
		"nav": nav, "ul": ul, "li1": li1, "li2": li2, "a": a, "form": form, "input": input, "body": body,
	}
}

func navRecord(els map[string]*vtree.Element) *Record {
	link := Ref(els["a"])
	return &Record{
		Detection: Detection{Label: "menu-bar", Score: 0.9, Box: els["nav"].Box},
		Role:      RoleNavigation,
		Matched:   Ref(els["nav"]),
		Nav: &NavCollection{
			DominantPattern: "LI",
			Layers: [][]*NavCollectionNode{{{
				Node:    Ref(els["ul"]),
				Pattern: "LI",
				Items: []NavItem{
					{Item: Ref(els["li1"])},
					{Item: Ref(els["li2"]), Link: &link},
				},
			}}},
		},
	}
}

func searchRecord(els map[string]*vtree.Element) *Record {
	in := Ref(els["input"])
	return &Record{
		Detection: Detection{Label: "search", Score: 0.8, Box: els["form"].Box},
		Role:      RoleForm,
		Matched:   Ref(els["form"]),
		Input:     &in,
	}
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		label string
		want  Role
		ok    bool
	}{
		{"tab-bar", RoleNavigation, true},
		{"content-grid", RoleNavigation, true},
		{"search", RoleForm, true},
		{"chat-panel", RoleWidget, true},
		{"posts", RoleContent, true},
		{"nav-item", "", false},
		{"banner", "", false},
	}
	for _, tt := range tests {
		got, ok := RoleOf(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("RoleOf(%q) = %q, %v, want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLabelForClass_CoversRoleTable(t *testing.T) {
	for id := 1; id <= 17; id++ {
		label, ok := LabelForClass(id)
		if !ok {
			t.Fatalf("class %d has no label", id)
		}
		if _, ok := RoleOf(label); !ok {
			t.Errorf("class %d label %q has no role", id, label)
		}
	}
	if _, ok := LabelForClass(0); ok {
		t.Error("class 0 has a label")
	}
}

func TestDecodeModelOutput(t *testing.T) {
	out := ModelOutput{
		Boxes:   [][4]float64{{0, 0, 0.5, 0.25}, {0.5, 0.5, 1, 1}, {0, 0, 1, 1}},
		Classes: []int{15, 8, 1},
		Scores:  []float64{0.9, 0.4, 0.2},
	}
	dets, err := DecodeModelOutput(out, 800, 600, DefaultScoreThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if len(dets) != 2 {
		t.Fatalf("len = %d, want 2", len(dets))
	}
	if dets[0].Label != "search" || dets[1].Label != "content-list" {
		t.Fatalf("labels = %q, %q", dets[0].Label, dets[1].Label)
	}
	want := geom.Rect{XMin: 0, XMax: 200, YMin: 0, YMax: 300}
	if dets[0].Box != want {
		t.Errorf("box = %v, want %v", dets[0].Box, want)
	}
}

func TestDecodeModelOutput_Errors(t *testing.T) {
	if _, err := DecodeModelOutput(ModelOutput{Boxes: make([][4]float64, 1)}, 1, 1, 0); err == nil {
		t.Error("expected length mismatch error")
	}
	bad := ModelOutput{Boxes: make([][4]float64, 1), Classes: []int{99}, Scores: []float64{1}}
	if _, err := DecodeModelOutput(bad, 1, 1, 0); err == nil {
		t.Error("expected unknown class error")
	}
}

func TestRecord_StoreResolve(t *testing.T) {
	doc, els := fixture()
	rec := navRecord(els)

	stored := rec.Store()
	data, err := json.Marshal(stored)
	if err != nil {
		t.Fatal(err)
	}
	var back SegmentRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Matched.Path != "/html/body/nav" {
		t.Fatalf("matched path = %q", back.Matched.Path)
	}

	got, unresolved := back.Resolve(doc)
	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v", unresolved)
	}
	if got.Matched.Node != vtree.Node(els["nav"]) {
		t.Error("matched node not re-resolved")
	}
	items := got.Nav.Root().Items
	if len(items) != 2 || items[1].Link == nil || items[1].Link.Node != vtree.Node(els["a"]) {
		t.Fatalf("items not re-resolved: %+v", items)
	}
}

func TestRecord_ResolvePartialFailure(t *testing.T) {
	doc, els := fixture()
	stored := navRecord(els).Store()
	stored.Nav.Layers[0][0].Items[1].Link.Path = "/html/body/nav/ul/li[2]/span"

	got, unresolved := stored.Resolve(doc)
	if len(unresolved) != 1 || unresolved[0] != "/html/body/nav/ul/li[2]/span" {
		t.Fatalf("unresolved = %v", unresolved)
	}
	link := got.Nav.Root().Items[1].Link
	if link.Valid() {
		t.Error("broken link resolved")
	}
	if link.Rect != els["a"].Box {
		t.Errorf("recorded rect lost: %v", link.Rect)
	}
	if !got.Matched.Valid() || !got.Nav.Root().Items[1].Item.Valid() {
		t.Error("sibling fields should still resolve")
	}
}

func TestInstantiate_Variants(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)

	navID, err := s.Instantiate(navRecord(els))
	if err != nil {
		t.Fatal(err)
	}
	nav := s.Get(navID)
	data, ok := nav.Variant.(*NavigationData)
	if !ok {
		t.Fatalf("variant = %T", nav.Variant)
	}
	coll := s.Get(data.Collection)
	if coll == nil || coll.Kind != KindNavCollection {
		t.Fatalf("collection = %+v", coll)
	}
	items := coll.Variant.(*NavCollectionData).Items
	if len(items) != 2 || s.Get(items[1]).Kind != KindNavItem {
		t.Fatalf("items = %v", items)
	}

	tests := []struct {
		label string
		check func(Variant) bool
	}{
		{"login", func(v Variant) bool { f, ok := v.(*FormData); return ok && f.Input == nil }},
		{"comments", func(v Variant) bool { w, ok := v.(*WidgetData); return ok && w.MessageInput == None }},
		{"article", func(v Variant) bool { c, ok := v.(*ContentData); return ok && c.Collection == None }},
	}
	for _, tt := range tests {
		id, err := s.Instantiate(&Record{Detection: Detection{Label: tt.label}, Matched: Ref(els["form"])})
		if err != nil {
			t.Fatalf("%s: %v", tt.label, err)
		}
		if v := s.Get(id).Variant; !tt.check(v) {
			t.Errorf("%s: variant = %#v", tt.label, v)
		}
	}

	before := s.Len()
	if _, err := s.Instantiate(&Record{Detection: Detection{Label: "banner"}}); err == nil {
		t.Error("expected error for unknown label")
	}
	if s.Len() != before {
		t.Error("failed instantiation left a segment in the arena")
	}
}

func TestInstantiate_BasicCollectionLabel(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	rec := &Record{
		Detection: Detection{Label: "posts"},
		Matched:   Ref(els["ul"]),
		Basic: &BasicCollection{
			Node:  Ref(els["ul"]),
			Label: CollectionLabel(KindPosts),
			Items: []NodeRef{Ref(els["li1"]), Ref(els["li2"])},
		},
	}
	id, err := s.Instantiate(rec)
	if err != nil {
		t.Fatal(err)
	}
	coll := s.Get(s.Get(id).Variant.(*ContentData).Collection)
	if coll.Label != "posts" || len(coll.Variant.(*CollectionData).Items) != 2 {
		t.Fatalf("collection = %+v", coll)
	}
}

func TestAttach(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	id, _ := s.Instantiate(searchRecord(els))
	if err := s.Attach(0, id); err != nil {
		t.Fatal(err)
	}
	if err := s.Attach(0, id); err == nil {
		t.Error("second attach succeeded")
	}
	if err := s.Attach(0, 42); err == nil {
		t.Error("attach of unknown id succeeded")
	}
	if got := s.TopLevel(); len(got) != 1 || got[0] != id {
		t.Errorf("TopLevel = %v", got)
	}
	if _, err := s.Lookup(42); err == nil {
		t.Error("Lookup(42) succeeded")
	}
}

type recorder struct{ calls []string }

func (r *recorder) Click(geom.Rect)      { r.calls = append(r.calls, "click") }
func (r *recorder) TypeText(text string) { r.calls = append(r.calls, "type:"+text) }
func (r *recorder) Enter()               { r.calls = append(r.calls, "enter") }

func TestDispatch_SearchFocus(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	id, _ := s.Instantiate(searchRecord(els))
	d := &recorder{}

	steps := []*Event{
		{Type: EventKeyInput, Text: "g"},
		{Type: EventKeyInput, Text: "o"},
		{Type: EventSubmit},
		{Type: EventSubmit},
	}
	for _, ev := range steps {
		if _, err := s.Dispatch(id, ev, d); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"click", "type:g", "type:o", "enter", "click", "enter"}
	if len(d.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
	for i := range want {
		if d.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", d.calls, want)
		}
	}
	if s.Get(id).Focused() {
		t.Error("focus should clear on submit")
	}
}

func TestDispatch_PreventDefault(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	id, _ := s.Instantiate(searchRecord(els))
	seg := s.Get(id)

	var order []int
	seg.AddListener(EventSelect, func(_ *Segment, e *Event) { order = append(order, 1) })
	lid := seg.AddListener(EventSelect, func(_ *Segment, e *Event) {
		order = append(order, 2)
		e.PreventDefault()
	})
	d := &recorder{}
	ran, err := s.Dispatch(id, &Event{Type: EventSelect}, d)
	if err != nil {
		t.Fatal(err)
	}
	if ran || len(d.calls) != 0 {
		t.Fatalf("default ran: %v", d.calls)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listener order = %v", order)
	}

	if !seg.RemoveListener(EventSelect, lid) {
		t.Fatal("RemoveListener = false")
	}
	ran, _ = s.Dispatch(id, &Event{Type: EventSelect}, d)
	if !ran || len(d.calls) != 1 {
		t.Fatalf("default did not run after removal: %v", d.calls)
	}
}

func TestDispatch_NavItemClicksLink(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	navID, _ := s.Instantiate(navRecord(els))
	coll := s.Get(s.Get(navID).Variant.(*NavigationData).Collection)
	items := coll.Variant.(*NavCollectionData).Items

	var target geom.Rect
	s.Get(items[1]).AddListener(EventSelect, func(_ *Segment, e *Event) { target = e.Target })
	ran, err := s.Dispatch(items[1], &Event{Type: EventSelect}, &recorder{})
	if err != nil || !ran {
		t.Fatalf("Dispatch = %v, %v", ran, err)
	}
	if target != els["a"].Box {
		t.Errorf("target = %v, want link rect %v", target, els["a"].Box)
	}

	ev := &Event{Type: EventSelect}
	s.Dispatch(items[0], ev, &recorder{})
	if ev.Target != els["li1"].Box {
		t.Errorf("linkless target = %v, want item rect", ev.Target)
	}
}

func TestQueries(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	navID, _ := s.Instantiate(navRecord(els))
	rec := searchRecord(els)
	rec.Label = "query"
	searchID, _ := s.Instantiate(rec)
	s.Attach(0, navID)
	s.Attach(0, searchID)

	if got := s.SegmentsByLabel("query"); len(got) != 1 || got[0] != searchID {
		t.Errorf("SegmentsByLabel = %v", got)
	}
	if got := s.SegmentsByUIType(KindMenuBar); len(got) != 1 || got[0] != navID {
		t.Errorf("SegmentsByUIType = %v", got)
	}
	if got := s.LargestSegment([]ID{searchID, navID}); got != navID {
		t.Errorf("LargestSegment = %d, want %d", got, navID)
	}
	if got := s.LargestSegment(nil); got != None {
		t.Errorf("LargestSegment(nil) = %d", got)
	}
	if got := s.SegmentsAt(20, 60); len(got) != 1 || got[0] != searchID {
		t.Errorf("SegmentsAt = %v", got)
	}
}

func TestOutline(t *testing.T) {
	doc, els := fixture()
	s := NewScreen(doc, vp)
	navID, _ := s.Instantiate(navRecord(els))
	searchID, _ := s.Instantiate(searchRecord(els))
	s.Attach(0, navID)
	s.Attach(0, searchID)
	s.Get(navID).Bottom = searchID

	o := s.Outline()
	if o.UIType != KindScreen || len(o.Children) != 2 {
		t.Fatalf("outline root = %+v", o)
	}
	nav := o.Children[0]
	if nav.Bottom == nil || *nav.Bottom != searchID || nav.Top != nil {
		t.Errorf("alignment links = %+v", nav)
	}
	if nav.Path != "/html/body/nav" {
		t.Errorf("path = %q", nav.Path)
	}
	n := 0
	o.Walk(func(*Outline) { n++ })
	if n != 3 {
		t.Errorf("walk visited %d, want 3", n)
	}
}

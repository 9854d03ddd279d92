package livepage

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/segmenter"
	"github.com/hazyhaar/seamlis/vtree"
)

var (
	_ segmenter.Browser = (*Manager)(nil)
	_ segmenter.Page    = (*Tab)(nil)
)

func TestRunner_Order(t *testing.T) {
	r := newRunner(slog.Default())
	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if !r.do("step", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}) {
			t.Fatalf("step %d rejected", i)
		}
	}
	r.close()

	if len(got) != 10 {
		t.Fatalf("ran %d steps, want 10", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("step %d ran at position %d", v, i)
		}
	}
}

func TestRunner_ErrorsDoNotStop(t *testing.T) {
	r := newRunner(slog.Default())
	ran := 0
	r.do("fail", func() error { return errors.New("boom") })
	r.do("ok", func() error { ran++; return nil })
	r.close()
	if ran != 1 {
		t.Fatalf("action after a failure ran %d times", ran)
	}
}

func TestRunner_DropAfterClose(t *testing.T) {
	r := newRunner(slog.Default())
	r.close()
	if r.do("late", func() error { t.Error("ran after close"); return nil }) {
		t.Fatal("accepted after close")
	}
	r.close() // idempotent
}

func TestRunner_QueueFull(t *testing.T) {
	r := newRunner(slog.Default())
	block := make(chan struct{})
	r.do("block", func() error { <-block; return nil })

	// Wait for the worker to pick up the blocking job.
	deadline := time.Now().Add(time.Second)
	for len(r.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < runnerQueue; i++ {
		if !r.do("fill", func() error { return nil }) {
			t.Fatalf("fill %d rejected", i)
		}
	}
	if r.do("overflow", func() error { return nil }) {
		t.Fatal("overflow accepted")
	}
	close(block)
	r.close()
}

func TestShouldBlock(t *testing.T) {
	set := map[string]bool{"images": true, "fonts": true, "xhr": true}
	tests := []struct {
		typ  string
		want bool
	}{
		{"Image", true},
		{"Font", true},
		{"Stylesheet", false},
		{"Media", false},
		{"XHR", true},
		{"Document", false},
	}
	for _, tt := range tests {
		if got := shouldBlock(set, tt.typ); got != tt.want {
			t.Errorf("shouldBlock(%q): got %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	bc := segmenter.DefaultConfig().Browser
	bc.Remote = "ws://127.0.0.1:9222/devtools/browser/abc"
	bc.ResourceBlocking = []string{"images"}

	cfg := FromConfig(bc, nil)
	if cfg.RemoteURL != bc.Remote || !cfg.Stealth || cfg.Headful {
		t.Fatalf("config: %+v", cfg)
	}
	if len(cfg.ResourceBlocking) != 1 {
		t.Fatalf("blocking: %v", cfg.ResourceBlocking)
	}

	bc.NoStealth = true
	if FromConfig(bc, nil).Stealth {
		t.Fatal("no_stealth should disable stealth")
	}

	m := NewManager(Config{})
	if m.cfg.NavigateTimeout != 30*time.Second || m.cfg.Settle != 500*time.Millisecond || m.cfg.Logger == nil {
		t.Fatalf("defaults: %+v", m.cfg)
	}
	if m.Browser() != nil {
		t.Fatal("browser started before Start")
	}
}

func TestManager_OpenAfterClose(t *testing.T) {
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Open(t.Context(), "https://example.test/", segmenter.DefaultConfig().Viewport); err == nil {
		t.Fatal("open on a closed manager should fail")
	}
}

// snapshotOutput is what snapshotJS returns for a small page.
const snapshotOutput = `{
	"url": "https://example.test/",
	"viewport": {"width": 1280, "height": 800},
	"frame": 2,
	"nodes": [
		{"p": -1, "t": "HTML", "r": [0, 1280, 0, 800]},
		{"p": 0, "t": "HEAD", "r": [0, 0, 0, 0], "h": true},
		{"p": 0, "t": "BODY", "r": [0, 1280, 0, 800]},
		{"p": 2, "t": "INPUT", "a": {"type": "search"}, "r": [10, 310, 10, 40]},
		{"p": 2, "t": "DIV", "c": "ghost", "r": [0, 100, 100, 200], "o": true}
	]
}`

func TestSnapshotContract(t *testing.T) {
	snap, err := vtree.DecodeSnapshot([]byte(snapshotOutput))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := snap.Document()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Frame().Tag() != "BODY" {
		t.Fatalf("frame: got %s", doc.Frame().Tag())
	}
	kids := doc.Frame().Children()
	if len(kids) != 2 {
		t.Fatalf("body children: got %d", len(kids))
	}
	if v, _ := kids[0].Attr("type"); v != "search" {
		t.Fatalf("input type: got %q", v)
	}
	if kids[1].Visible() {
		t.Fatal("transparent div reported visible")
	}
	if hits := doc.NodesAt(20, 20); len(hits) == 0 || hits[0].Tag() != "INPUT" {
		t.Fatalf("hits at input: %v", hits)
	}
}

// overlayOutput has a banner DIV later in document order covering the
// input, while the browser stacks the input above it (z-index).
const overlayOutput = `{
	"url": "https://example.test/",
	"viewport": {"width": 1280, "height": 800},
	"frame": 1,
	"nodes": [
		{"p": -1, "t": "HTML", "r": [0, 1280, 0, 800]},
		{"p": 0, "t": "BODY", "r": [0, 1280, 0, 800]},
		{"p": 1, "t": "INPUT", "r": [10, 310, 10, 40]},
		{"p": 1, "t": "DIV", "c": "banner", "r": [0, 1280, 0, 100]}
	],
	"hits": [
		{"x": 160.00000000000003, "y": 25, "n": [2, 3, 1, 0]},
		{"x": 640, "y": 900, "n": []}
	]
}`

func TestDecodeSnapshot_HitOrder(t *testing.T) {
	input := geom.Point{X: 160, Y: 25}
	below := geom.Point{X: 640, Y: 900}
	tree, err := decodeSnapshot([]byte(overlayOutput), []geom.Point{input, below}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	hits := tree.NodesAt(input.X, input.Y)
	if len(hits) != 4 || hits[0].Tag() != "INPUT" || hits[1].Tag() != "DIV" {
		t.Fatalf("hits at input: %v", tags(hits))
	}

	// Without the browser's answer the banner would be topmost.
	snap, err := vtree.DecodeSnapshot([]byte(overlayOutput))
	if err != nil {
		t.Fatal(err)
	}
	snap.Hits = nil
	doc, err := snap.Document()
	if err != nil {
		t.Fatal(err)
	}
	if geo := doc.NodesAt(input.X, input.Y); len(geo) == 0 || geo[0].Tag() != "DIV" {
		t.Fatalf("geometric hits at input: %v", tags(geo))
	}

	// An empty answer falls back to the geometric scan.
	if got := tree.NodesAt(below.X, below.Y); len(got) != 0 {
		t.Fatalf("hits below the fold: %v", tags(got))
	}
}

func TestDecodeSnapshot_ExtraHitsIgnored(t *testing.T) {
	tree, err := decodeSnapshot([]byte(overlayOutput), nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if hits := tree.NodesAt(160, 25); len(hits) == 0 || hits[0].Tag() != "DIV" {
		t.Fatalf("hits with no points sent: %v", tags(hits))
	}
}

func tags(nodes []vtree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Tag()
	}
	return out
}

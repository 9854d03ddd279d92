package segmenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/vtree"
	"github.com/hazyhaar/seamlis/vtree/htmldoc"
)

// Page is a live rendered page.
type Page interface {
	io.Closer
	// Snapshot captures the current visual tree. The page hit-tests each of
	// points and the tree answers NodesAt there in the page's stacking order.
	Snapshot(ctx context.Context, points []geom.Point) (vtree.Tree, error)
	// Dispatcher injects input into the page.
	Dispatcher() screen.Dispatcher
}

// Browser opens live pages.
type Browser interface {
	Open(ctx context.Context, url string, vp geom.Viewport) (Page, error)
}

// Service keeps page contexts across parses and exposes parsing, restoring
// and acting on pages.
type Service struct {
	parser  *Parser
	cache   *ContextCache
	browser Browser
	logger  *slog.Logger

	mu sync.Mutex
}

// NewService builds a Service. browser may be nil, in which case live page
// operations fail with ErrNoBrowser.
func NewService(cfg *Config, browser Browser, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := NewParser(cfg, opts...)
	cache, err := NewContextCache(cfg.Cache.Size, p.logger)
	if err != nil {
		return nil, err
	}
	return &Service{parser: p, cache: cache, browser: browser, logger: p.logger}, nil
}

// Close drops every page context.
func (s *Service) Close() {
	s.cache.Close()
}

// ParseOutput is the serializable result of a parse.
type ParseOutput struct {
	SessionID string                 `json:"session_id"`
	URL       string                 `json:"url"`
	Outline   *screen.Outline        `json:"outline"`
	Records   []screen.SegmentRecord `json:"records"`
	Dropped   []Drop                 `json:"dropped,omitempty"`
	Unplaced  []screen.ID            `json:"unplaced,omitempty"`
}

func output(res *Result) *ParseOutput {
	return &ParseOutput{
		SessionID: res.Session.ID,
		URL:       res.Session.URL,
		Outline:   res.Session.Screen.Outline(),
		Records:   res.Session.Records,
		Dropped:   res.Dropped,
		Unplaced:  res.Unplaced,
	}
}

// ParseTree parses dets over t and remembers the result under url.
func (s *Service) ParseTree(url string, t vtree.Tree, dets []screen.Detection, vp geom.Viewport, prev string) (*ParseOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.parseLocked(url, t, dets, vp, prev, nil)
	if err != nil {
		return nil, err
	}
	return output(res), nil
}

func (s *Service) parseLocked(url string, t vtree.Tree, dets []screen.Detection, vp geom.Viewport, prev string, page Page) (*Result, error) {
	req := Request{URL: url, Detections: dets, Tree: t, Viewport: vp, PreviousActionTarget: prev}
	old, ok := s.cache.Get(url)
	if ok {
		req.Previous = old.Session
		if page == nil {
			page = old.Page
		}
	}
	res, err := s.parser.Parse(req)
	if err != nil {
		return nil, err
	}
	s.cache.Put(&PageContext{URL: url, Session: res.Session, Tree: t, Page: page})
	return res, nil
}

// ParseHTML parses dets over an HTML rendering of the page.
func (s *Service) ParseHTML(url string, html []byte, dets []screen.Detection, vp geom.Viewport, prev string) (*ParseOutput, error) {
	doc, err := htmldoc.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("segmenter: parse html: %w", err)
	}
	return s.ParseTree(url, doc, dets, vp, prev)
}

// ParsePage snapshots the live page at url, opening it if needed, and
// parses dets over it.
func (s *Service) ParsePage(ctx context.Context, url string, dets []screen.Detection, vp geom.Viewport, prev string) (*ParseOutput, error) {
	if s.browser == nil {
		return nil, ErrNoBrowser
	}
	vp, err := s.parser.viewport(vp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var page Page
	opened := false
	if pc, ok := s.cache.Get(url); ok && pc.Page != nil {
		page = pc.Page
	} else {
		page, err = s.browser.Open(ctx, url, vp)
		if err != nil {
			return nil, fmt.Errorf("segmenter: open %s: %w", url, err)
		}
		opened = true
	}
	res, err := s.snapshotAndParse(ctx, page, url, dets, vp, prev)
	if err != nil {
		if opened {
			page.Close()
		}
		return nil, err
	}
	return output(res), nil
}

func (s *Service) snapshotAndParse(ctx context.Context, page Page, url string, dets []screen.Detection, vp geom.Viewport, prev string) (*Result, error) {
	t, err := page.Snapshot(ctx, centroids(dets))
	if err != nil {
		return nil, fmt.Errorf("segmenter: snapshot %s: %w", url, err)
	}
	return s.parseLocked(url, t, dets, vp, prev, page)
}

func centroids(dets []screen.Detection) []geom.Point {
	pts := make([]geom.Point, len(dets))
	for i, d := range dets {
		pts[i] = d.Box.Center()
	}
	return pts
}

// RestoreOutput reports a restore.
type RestoreOutput struct {
	SessionID  string          `json:"session_id"`
	Records    int             `json:"records"`
	Segments   int             `json:"segments"`
	Unresolved []vtree.Path    `json:"unresolved,omitempty"`
	Outline    *screen.Outline `json:"outline"`
}

// Restore re-resolves the last parse of url against a new rendering: t when
// non-nil, otherwise a fresh snapshot of the live page.
func (s *Service) Restore(ctx context.Context, url string, t vtree.Tree) (*RestoreOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.cache.Get(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, url)
	}
	if t == nil {
		if pc.Page == nil {
			return nil, ErrNoTree
		}
		var err error
		if t, err = pc.Page.Snapshot(ctx, nil); err != nil {
			return nil, fmt.Errorf("segmenter: snapshot %s: %w", url, err)
		}
	}
	res, unresolved, err := s.parser.Restore(pc.Session, t)
	if err != nil {
		return nil, err
	}
	s.cache.Put(&PageContext{URL: url, Session: res.Session, Tree: t, Page: pc.Page})
	return &RestoreOutput{
		SessionID:  res.Session.ID,
		Records:    len(pc.Session.Records),
		Segments:   len(res.Session.Records),
		Unresolved: unresolved,
		Outline:    res.Session.Screen.Outline(),
	}, nil
}

// RestoreHTML is Restore over an HTML rendering.
func (s *Service) RestoreHTML(ctx context.Context, url string, html []byte) (*RestoreOutput, error) {
	doc, err := htmldoc.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("segmenter: parse html: %w", err)
	}
	return s.Restore(ctx, url, doc)
}

// ActOutput reports a dispatched event.
type ActOutput struct {
	SegmentID  screen.ID   `json:"segment_id"`
	UIType     screen.Kind `json:"ui_type"`
	Target     string      `json:"target"`
	DefaultRan bool        `json:"default_ran"`
	Actions    []Action    `json:"actions"`
}

// Act dispatches a semantic event to a segment of the last parse of url and
// records the segment's top-level UI type as the page's last action.
func (s *Service) Act(url string, id screen.ID, ev *screen.Event) (*ActOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.cache.Get(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, url)
	}
	scr := pc.Session.Screen
	target, err := ActionTarget(scr, id)
	if err != nil {
		return nil, err
	}

	rec := &Recorder{}
	var d screen.Dispatcher = rec
	if pc.Page != nil {
		if pd := pc.Page.Dispatcher(); pd != nil {
			d = tee{rec, pd}
		}
	}
	ran, err := scr.Dispatch(id, ev, d)
	if err != nil {
		return nil, err
	}
	pc.Session.LastAction = target
	s.logger.Info("segmenter: act", "url", url, "segment", id, "event", ev.Type, "target", target, "default_ran", ran)

	return &ActOutput{
		SegmentID:  id,
		UIType:     scr.Get(id).Kind,
		Target:     target,
		DefaultRan: ran,
		Actions:    rec.Actions(),
	}, nil
}

// SegmentHit is one segment found under a point.
type SegmentHit struct {
	ID     screen.ID   `json:"id"`
	UIType screen.Kind `json:"ui_type"`
	Label  string      `json:"label,omitempty"`
	Rect   geom.Rect   `json:"rect"`
}

// SegmentsAt returns the segments of the last parse of url under the point,
// innermost first.
func (s *Service) SegmentsAt(url string, x, y float64) ([]SegmentHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.cache.Get(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, url)
	}
	scr := pc.Session.Screen
	hits := []SegmentHit{}
	for _, id := range scr.SegmentsAt(x, y) {
		seg := scr.Get(id)
		hits = append(hits, SegmentHit{ID: id, UIType: seg.Kind, Label: seg.Label, Rect: seg.Rect})
	}
	return hits, nil
}

// Session returns the last parse session of url.
func (s *Service) Session(url string) (*ParseSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.cache.Get(url)
	if !ok {
		return nil, false
	}
	return pc.Session, true
}

// Package segmenter turns object-detection boxes drawn over a rendered page
// into a semantic segment tree of that page.
//
// A parse is synchronous and holds no state between calls: everything a
// later parse or action needs is carried by the ParseSession it returns.
package segmenter

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/idgen"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/segmenter/internal/label"
	"github.com/hazyhaar/seamlis/segmenter/internal/layout"
	"github.com/hazyhaar/seamlis/segmenter/internal/nms"
	"github.com/hazyhaar/seamlis/vtree"
)

var (
	// ErrNoTree is returned when a request carries no visual tree.
	ErrNoTree = errors.New("segmenter: no visual tree")
	// ErrBadViewport is returned when no usable viewport is available.
	ErrBadViewport = errors.New("segmenter: invalid viewport")
	// ErrNoBrowser is returned for live page operations without a browser.
	ErrNoBrowser = errors.New("segmenter: no browser configured")
	// ErrUnknownPage is returned when no page context exists for a URL.
	ErrUnknownPage = errors.New("segmenter: unknown page")
)

// Request is one parse request.
type Request struct {
	URL        string
	Detections []screen.Detection
	Tree       vtree.Tree
	// Viewport defaults to the configured one when zero.
	Viewport geom.Viewport
	// PreviousActionTarget is the label of the segment the user last acted
	// on. It defaults to the previous session's last action.
	PreviousActionTarget string
	Previous             *ParseSession
}

// ParseSession is the state of one parse that later calls build on.
type ParseSession struct {
	ID       string
	URL      string
	Viewport geom.Viewport
	Parsed   time.Time

	Screen  *screen.Screen
	Records []screen.SegmentRecord

	// LastAction is the label of the last segment acted on in this session.
	LastAction string
}

// Result is the outcome of a parse.
type Result struct {
	Session *ParseSession
	// Dropped lists detections that produced no segment.
	Dropped []Drop
	// Unplaced lists segments the visual tree traversal never reached.
	Unplaced []screen.ID
}

// Parser runs the segmentation pipeline.
type Parser struct {
	cfg    ParseConfig
	vp     geom.Viewport
	ids    idgen.Generator
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithIDGenerator sets the session id generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Parser) { p.ids = gen }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser returns a Parser for cfg. A nil cfg uses the defaults.
func NewParser(cfg *Config, opts ...Option) *Parser {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Parser{
		cfg:    cfg.Parse,
		vp:     cfg.Viewport,
		ids:    idgen.Session,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type indexed struct {
	screen.Detection
	index int
}

func (p *Parser) viewport(vp geom.Viewport) (geom.Viewport, error) {
	if vp == (geom.Viewport{}) {
		vp = p.vp
	}
	if !vp.Valid() {
		return vp, fmt.Errorf("%w: %gx%g", ErrBadViewport, vp.Width, vp.Height)
	}
	return vp, nil
}

// Parse runs segmentation, suppression, labelling, instantiation, placement,
// alignment and linking over req.
func (p *Parser) Parse(req Request) (*Result, error) {
	if req.Tree == nil || req.Tree.Root() == nil {
		return nil, ErrNoTree
	}
	vp, err := p.viewport(req.Viewport)
	if err != nil {
		return nil, err
	}
	prev := req.PreviousActionTarget
	if prev == "" && req.Previous != nil {
		prev = req.Previous.LastAction
	}

	dets, dropped := p.admit(req.Detections)
	recs, drops := segment(req.Tree, dets, vp, p.logger)
	dropped = append(dropped, drops...)

	recs = nms.Suppress(recs, vp)
	if l := label.Apply(recs, prev); l != nil {
		p.logger.Debug("segmenter: task label", "label", l.Label, "ui_type", l.Detection.Label)
	}

	res := p.build(req.Tree, vp, req.URL, recs)
	res.Dropped = dropped
	p.logger.Info("segmenter: parsed",
		"session", res.Session.ID,
		"url", req.URL,
		"detections", len(req.Detections),
		"segments", len(res.Session.Records),
		"dropped", len(res.Dropped),
		"unplaced", len(res.Unplaced),
	)
	return res, nil
}

// admit orders detections by score, highest first, and applies the score
// floor and the detection cap.
func (p *Parser) admit(in []screen.Detection) ([]indexed, []Drop) {
	var dets []indexed
	var dropped []Drop
	for i, d := range in {
		if d.Score < p.cfg.MinScore {
			dropped = append(dropped, Drop{Index: i, Label: d.Label, Reason: DropLowScore})
			continue
		}
		dets = append(dets, indexed{Detection: d, index: i})
	}
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Score > dets[j].Score })
	if len(dets) > p.cfg.MaxDetections {
		for _, d := range dets[p.cfg.MaxDetections:] {
			dropped = append(dropped, Drop{Index: d.index, Label: d.Label, Reason: DropOverLimit})
		}
		dets = dets[:p.cfg.MaxDetections]
	}
	return dets, dropped
}

func (p *Parser) build(t vtree.Tree, vp geom.Viewport, url string, recs []*screen.Record) *Result {
	s := screen.NewScreen(t, vp)
	var top []screen.ID
	var stored []screen.SegmentRecord
	for _, rec := range recs {
		id, err := s.Instantiate(rec)
		if err != nil {
			p.logger.Warn("segmenter: instantiate", "ui_type", rec.Detection.Label, "error", err)
			continue
		}
		top = append(top, id)
		stored = append(stored, rec.Store())
	}

	unplaced := layout.Build(s, top)
	if len(unplaced) > 0 {
		p.logger.Debug("segmenter: unplaced segments", "count", len(unplaced))
	}
	return &Result{
		Session: &ParseSession{
			ID:       p.ids(),
			URL:      url,
			Viewport: vp,
			Parsed:   time.Now(),
			Screen:   s,
			Records:  stored,
		},
		Unplaced: unplaced,
	}
}

// Restore re-resolves the records of sess against t, a new rendering of the
// same page, and rebuilds the screen from the records whose matched node
// still resolves. Paths that no longer resolve are returned.
func (p *Parser) Restore(sess *ParseSession, t vtree.Tree) (*Result, []vtree.Path, error) {
	if t == nil || t.Root() == nil {
		return nil, nil, ErrNoTree
	}
	var recs []*screen.Record
	var unresolved []vtree.Path
	for i := range sess.Records {
		rec, missing := sess.Records[i].Resolve(t)
		unresolved = append(unresolved, missing...)
		if !rec.Matched.Valid() {
			continue
		}
		recs = append(recs, rec)
	}
	res := p.build(t, sess.Viewport, sess.URL, recs)
	res.Session.LastAction = sess.LastAction
	p.logger.Info("segmenter: restored",
		"session", res.Session.ID,
		"from", sess.ID,
		"records", len(sess.Records),
		"segments", len(res.Session.Records),
		"unresolved", len(unresolved),
	)
	return res, unresolved, nil
}

// ActionTarget returns the label the next parse should treat as the previous
// action target when the user acts on id: the UI type of its top-level
// segment.
func ActionTarget(s *screen.Screen, id screen.ID) (string, error) {
	seg, err := s.Lookup(id)
	if err != nil {
		return "", err
	}
	for seg.Parent != screen.None && seg.Parent != s.Root().ID {
		seg = s.Get(seg.Parent)
	}
	return string(seg.Kind), nil
}

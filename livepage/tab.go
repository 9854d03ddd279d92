package livepage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/vtree"
)

// Tab is one open page. It implements segmenter.Page.
type Tab struct {
	Page    *rod.Page
	PageURL string

	logger *slog.Logger
	input  *runner
}

func openTab(ctx context.Context, b *rod.Browser, pageURL string, vp geom.Viewport, cfg Config) (*Tab, error) {
	var page *rod.Page
	var err error
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("livepage: create tab: %w", err)
	}

	if len(cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, cfg.ResourceBlocking); err != nil {
			cfg.Logger.Warn("livepage: resource blocking failed", "error", err)
		}
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             int(vp.Width),
		Height:            int(vp.Height),
		DeviceScaleFactor: 1,
	}).Call(page); err != nil {
		cfg.Logger.Warn("livepage: set viewport failed", "error", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("livepage: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		cfg.Logger.Warn("livepage: wait load timeout", "url", pageURL, "error", err)
	}

	select {
	case <-time.After(cfg.Settle):
	case <-ctx.Done():
		page.Close()
		return nil, ctx.Err()
	}

	cfg.Logger.Debug("livepage: tab open", "url", pageURL, "width", vp.Width, "height", vp.Height)
	return &Tab{
		Page:    page,
		PageURL: pageURL,
		logger:  cfg.Logger,
		input:   newRunner(cfg.Logger),
	}, nil
}

// Snapshot captures the rendered element tree with its geometry and
// visibility in a single evaluation. Each point in points is hit-tested by
// the browser and the stacking order it reports is attached to the tree.
func (t *Tab) Snapshot(ctx context.Context, points []geom.Point) (vtree.Tree, error) {
	if points == nil {
		points = []geom.Point{}
	}
	res, err := t.Page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      snapshotJS,
		JSArgs:  []any{points},
		ByValue: true,
	})
	if err != nil {
		return nil, fmt.Errorf("livepage: snapshot %s: %w", t.PageURL, err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("livepage: snapshot %s: %w", t.PageURL, err)
	}
	return decodeSnapshot(raw, points, t.logger)
}

// decodeSnapshot builds the tree from the page's answer. Hit lists come back
// in point order; they are re-keyed on the exact points sent so lookups do
// not depend on float round-tripping through the page. Empty lists (points
// outside the viewport) are dropped so the geometric scan answers them.
func decodeSnapshot(raw []byte, points []geom.Point, logger *slog.Logger) (vtree.Tree, error) {
	snap, err := vtree.DecodeSnapshot(raw)
	if err != nil {
		return nil, err
	}
	hits := snap.Hits[:0]
	for i, h := range snap.Hits {
		if i >= len(points) || len(h.Nodes) == 0 {
			continue
		}
		h.X, h.Y = points[i].X, points[i].Y
		hits = append(hits, h)
	}
	snap.Hits = hits
	doc, err := snap.Document()
	if err != nil {
		return nil, err
	}
	logger.Debug("livepage: snapshot", "url", snap.URL, "nodes", len(snap.Nodes), "hits", len(hits))
	return doc, nil
}

// Dispatcher returns the input injector of the tab. Inputs run in order on
// a single worker.
func (t *Tab) Dispatcher() screen.Dispatcher {
	return &dispatcher{tab: t}
}

// Close stops input injection and closes the tab.
func (t *Tab) Close() error {
	t.input.close()
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}

type dispatcher struct {
	tab *Tab
}

func (d *dispatcher) Click(r geom.Rect) {
	x, y := r.Centroid()
	page := d.tab.Page
	d.tab.input.do("click", func() error {
		if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
			return err
		}
		return page.Mouse.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (d *dispatcher) TypeText(text string) {
	page := d.tab.Page
	d.tab.input.do("type", func() error { return page.InsertText(text) })
}

func (d *dispatcher) Enter() {
	page := d.tab.Page
	d.tab.input.do("enter", func() error { return page.Keyboard.Type(input.Enter) })
}

// snapshotJS walks the document in pre-order, then hit-tests each point with
// elementsFromPoint. Rects are [xmin, xmax, ymin, ymax] in viewport pixels.
// hits[i] answers points[i] with node indices, topmost first.
const snapshotJS = `(points) => {
	const keep = ["id", "role", "type", "href", "placeholder", "contenteditable", "aria-hidden", "aria-label", "name"];
	const nodes = [];
	const index = new Map();
	let frame = 0;
	const walk = (el, parent) => {
		const idx = nodes.length;
		const r = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		const attrs = {};
		for (const k of keep) {
			const v = el.getAttribute(k);
			if (v !== null) attrs[k] = v;
		}
		const cls = el.getAttribute("class");
		nodes.push({
			p: parent,
			t: el.tagName,
			c: cls || undefined,
			a: Object.keys(attrs).length ? attrs : undefined,
			r: [r.left, r.right, r.top, r.bottom],
			h: cs.display === "none" || cs.visibility === "hidden" || undefined,
			o: parseFloat(cs.opacity) === 0 || undefined,
		});
		index.set(el, idx);
		if (el === document.body) frame = idx;
		for (const c of el.children) walk(c, idx);
	};
	walk(document.documentElement, -1);
	const hits = (points || []).map((pt) => ({
		x: pt.x,
		y: pt.y,
		n: document.elementsFromPoint(pt.x, pt.y).filter((el) => index.has(el)).map((el) => index.get(el)),
	}));
	return {
		url: location.href,
		viewport: {width: window.innerWidth, height: window.innerHeight},
		frame: frame,
		nodes: nodes,
		hits: hits,
	};
}`

package segmenter

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/idgen"
	"github.com/hazyhaar/seamlis/kit"
	"github.com/hazyhaar/seamlis/screen"
)

// RegisterMCP registers the seamlis tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerParseHTMLTool(srv)
	s.registerParsePageTool(srv)
	s.registerRestoreTool(srv)
	s.registerActTool(srv)
	s.registerSegmentsAtTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var (
	rectSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"xmin": map[string]any{"type": "number"},
			"xmax": map[string]any{"type": "number"},
			"ymin": map[string]any{"type": "number"},
			"ymax": map[string]any{"type": "number"},
		},
	}
	detectionsSchema = map[string]any{
		"type":        "array",
		"description": "Detections in screen pixels",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label": map[string]any{"type": "string"},
				"score": map[string]any{"type": "number"},
				"box":   rectSchema,
			},
		},
	}
	modelSchema = map[string]any{
		"type":        "object",
		"description": "Raw detector output: normalized [ymin,xmin,ymax,xmax] boxes, class ids, descending scores",
		"properties": map[string]any{
			"boxes":   map[string]any{"type": "array", "items": map[string]any{"type": "array", "items": map[string]any{"type": "number"}}},
			"classes": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"scores":  map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
		},
	}
	viewportSchema = map[string]any{
		"type":        "object",
		"description": "Viewport size (default from config)",
		"properties": map[string]any{
			"width":  map[string]any{"type": "number"},
			"height": map[string]any{"type": "number"},
		},
	}
)

func (s *Service) wrap(name string, ep kit.Endpoint) kit.Endpoint {
	enrich := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			return next(kit.WithRequestID(ctx, idgen.UUIDv7()()), req)
		}
	}
	return kit.Chain(enrich, kit.Logging(s.logger, name))(ep)
}

type detectionInput struct {
	Detections []screen.Detection  `json:"detections,omitempty"`
	Model      *screen.ModelOutput `json:"model,omitempty"`
	Viewport   *geom.Viewport      `json:"viewport,omitempty"`
}

func (in *detectionInput) resolve(p *Parser) ([]screen.Detection, geom.Viewport, error) {
	var vp geom.Viewport
	if in.Viewport != nil {
		vp = *in.Viewport
	}
	vp, err := p.viewport(vp)
	if err != nil {
		return nil, vp, err
	}
	if in.Model == nil {
		return in.Detections, vp, nil
	}
	dets, err := screen.DecodeModelOutput(*in.Model, vp.Width, vp.Height, p.cfg.MinScore)
	if err != nil {
		return nil, vp, err
	}
	return append(in.Detections, dets...), vp, nil
}

// --- parse_html ---

type parseHTMLRequest struct {
	detectionInput
	URL                  string `json:"url,omitempty"`
	HTML                 string `json:"html"`
	PreviousActionTarget string `json:"previous_action_target,omitempty"`
}

func (s *Service) registerParseHTMLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "seamlis_parse_html",
		Description: "Segment an HTML rendering (elements carry data-rect=\"x,y,w,h\") from detector boxes. Returns the segment outline and serializable records.",
		InputSchema: inputSchema(map[string]any{
			"url":                    map[string]any{"type": "string", "description": "Page URL used as context key (default about:blank)"},
			"html":                   map[string]any{"type": "string", "description": "HTML document with geometry"},
			"detections":             detectionsSchema,
			"model":                  modelSchema,
			"viewport":               viewportSchema,
			"previous_action_target": map[string]any{"type": "string", "description": "UI type of the last acted-on segment, e.g. search"},
		}, []string{"html"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*parseHTMLRequest)
		dets, vp, err := r.resolve(s.parser)
		if err != nil {
			return nil, err
		}
		url := r.URL
		if url == "" {
			url = "about:blank"
		}
		return s.ParseHTML(url, []byte(r.HTML), dets, vp, r.PreviousActionTarget)
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name, endpoint), kit.DecodeJSON[parseHTMLRequest]())
}

// --- parse_page ---

type parsePageRequest struct {
	detectionInput
	URL                  string `json:"url"`
	PreviousActionTarget string `json:"previous_action_target,omitempty"`
}

func (s *Service) registerParsePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "seamlis_parse_page",
		Description: "Open or reuse a live browser tab on url, snapshot it and segment it from detector boxes.",
		InputSchema: inputSchema(map[string]any{
			"url":                    map[string]any{"type": "string", "description": "Page URL"},
			"detections":             detectionsSchema,
			"model":                  modelSchema,
			"viewport":               viewportSchema,
			"previous_action_target": map[string]any{"type": "string"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*parsePageRequest)
		if r.URL == "" {
			return nil, errors.New("url is required")
		}
		dets, vp, err := r.resolve(s.parser)
		if err != nil {
			return nil, err
		}
		return s.ParsePage(ctx, r.URL, dets, vp, r.PreviousActionTarget)
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name, endpoint), kit.DecodeJSON[parsePageRequest]())
}

// --- restore ---

type restoreRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

func (s *Service) registerRestoreTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "seamlis_restore",
		Description: "Re-resolve the last parse of url against a new rendering (html, or a fresh snapshot of the live tab) and rebuild its segments.",
		InputSchema: inputSchema(map[string]any{
			"url":  map[string]any{"type": "string", "description": "Page URL of a previous parse"},
			"html": map[string]any{"type": "string", "description": "New HTML rendering; omit to snapshot the live tab"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*restoreRequest)
		if r.HTML == "" {
			return s.Restore(ctx, r.URL, nil)
		}
		return s.RestoreHTML(ctx, r.URL, []byte(r.HTML))
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name, endpoint), kit.DecodeJSON[restoreRequest]())
}

// --- act ---

type actRequest struct {
	URL       string `json:"url"`
	SegmentID int    `json:"segment_id"`
	Event     string `json:"event"`
	Text      string `json:"text,omitempty"`
}

func (s *Service) registerActTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "seamlis_act",
		Description: "Dispatch a semantic event to a segment of the last parse of url and run its default action.",
		InputSchema: inputSchema(map[string]any{
			"url":        map[string]any{"type": "string"},
			"segment_id": map[string]any{"type": "integer", "description": "Segment id from the outline"},
			"event":      map[string]any{"type": "string", "enum": []any{"select", "keyinput", "submit"}},
			"text":       map[string]any{"type": "string", "description": "Input of a keyinput event"},
		}, []string{"url", "segment_id", "event"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*actRequest)
		typ, err := screen.ParseEventType(r.Event)
		if err != nil {
			return nil, err
		}
		return s.Act(r.URL, screen.ID(r.SegmentID), &screen.Event{Type: typ, Text: r.Text})
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name, endpoint), kit.DecodeJSON[actRequest]())
}

// --- segments_at ---

type segmentsAtRequest struct {
	URL string  `json:"url"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

func (s *Service) registerSegmentsAtTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "seamlis_segments_at",
		Description: "List the segments of the last parse of url under a screen point, innermost first.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string"},
			"x":   map[string]any{"type": "number"},
			"y":   map[string]any{"type": "number"},
		}, []string{"url", "x", "y"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*segmentsAtRequest)
		return s.SegmentsAt(r.URL, r.X, r.Y)
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name, endpoint), kit.DecodeJSON[segmentsAtRequest]())
}

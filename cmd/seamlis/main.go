// Command seamlis segments rendered pages from object-detection boxes.
//
// Usage:
//
//	seamlis -html page.html -detections dets.json            # segment a saved rendering
//	seamlis -html page.html -model model.json -viewport 1280x800
//	seamlis -url https://example.com -detections dets.json   # segment a live page
//	seamlis -mcp                                             # serve MCP tools on stdio
//	seamlis -config seamlis.yaml -mcp -mcp-transport quic    # serve MCP tools over QUIC
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/livepage"
	"github.com/hazyhaar/seamlis/mcpquic"
	"github.com/hazyhaar/seamlis/screen"
	"github.com/hazyhaar/seamlis/segmenter"
)

const version = "0.1.0"

var errUsage = errors.New("usage: seamlis -html <file> | -url <url> [-detections <file>] [-model <file>] | -mcp")

type options struct {
	configPath   string
	htmlPath     string
	url          string
	detsPath     string
	modelPath    string
	viewport     string
	prev         string
	serveMCP     bool
	mcpTransport string
	browser      bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to seamlis.yaml config file")
	flag.StringVar(&o.htmlPath, "html", "", "HTML rendering with data-rect geometry")
	flag.StringVar(&o.url, "url", "", "page URL (live page unless -html is set)")
	flag.StringVar(&o.detsPath, "detections", "", "JSON array of detections in screen pixels")
	flag.StringVar(&o.modelPath, "model", "", "raw detector output JSON (boxes, classes, scores)")
	flag.StringVar(&o.viewport, "viewport", "", "viewport as WIDTHxHEIGHT (default from config)")
	flag.StringVar(&o.prev, "prev", "", "UI type of the previously acted-on segment")
	flag.BoolVar(&o.serveMCP, "mcp", false, "serve MCP tools until interrupted")
	flag.StringVar(&o.mcpTransport, "mcp-transport", "", "MCP transport: stdio or quic (default from config)")
	flag.BoolVar(&o.browser, "browser", false, "enable the live browser")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("seamlis: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}

	var browser segmenter.Browser
	if cfg.Browser.Enabled {
		mgr := livepage.NewManager(livepage.FromConfig(cfg.Browser, logger))
		defer mgr.Close()
		browser = mgr
	}

	svc, err := segmenter.NewService(cfg, browser, segmenter.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	if o.serveMCP {
		return serveMCP(ctx, logger, cfg, svc)
	}

	dets, err := loadDetections(o.detsPath, o.modelPath, cfg)
	if err != nil {
		return err
	}

	var out *segmenter.ParseOutput
	switch {
	case o.htmlPath != "":
		html, err := os.ReadFile(o.htmlPath)
		if err != nil {
			return err
		}
		url := o.url
		if url == "" {
			url = "file://" + o.htmlPath
		}
		out, err = svc.ParseHTML(url, html, dets, cfg.Viewport, o.prev)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
	case o.url != "":
		out, err = svc.ParsePage(ctx, o.url, dets, cfg.Viewport, o.prev)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
	default:
		return errUsage
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func resolveConfig(o options) (*segmenter.Config, error) {
	cfg := segmenter.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = segmenter.LoadConfigFile(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.viewport != "" {
		vp, err := parseViewport(o.viewport)
		if err != nil {
			return nil, err
		}
		cfg.Viewport = vp
	}
	if o.mcpTransport != "" {
		cfg.MCP.Transport = o.mcpTransport
	}
	if o.browser || (o.url != "" && o.htmlPath == "") {
		cfg.Browser.Enabled = true
	}
	return cfg, nil
}

func parseViewport(s string) (geom.Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return geom.Viewport{}, fmt.Errorf("viewport %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return geom.Viewport{}, fmt.Errorf("viewport %q: %w", s, err)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return geom.Viewport{}, fmt.Errorf("viewport %q: %w", s, err)
	}
	vp := geom.Viewport{Width: width, Height: height}
	if !vp.Valid() {
		return geom.Viewport{}, fmt.Errorf("viewport %q: %w", s, segmenter.ErrBadViewport)
	}
	return vp, nil
}

func loadDetections(detsPath, modelPath string, cfg *segmenter.Config) ([]screen.Detection, error) {
	var dets []screen.Detection
	if detsPath != "" {
		data, err := os.ReadFile(detsPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &dets); err != nil {
			return nil, fmt.Errorf("detections %s: %w", detsPath, err)
		}
	}
	if modelPath != "" {
		data, err := os.ReadFile(modelPath)
		if err != nil {
			return nil, err
		}
		var out screen.ModelOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("model %s: %w", modelPath, err)
		}
		decoded, err := screen.DecodeModelOutput(out, cfg.Viewport.Width, cfg.Viewport.Height, cfg.Parse.MinScore)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", modelPath, err)
		}
		dets = append(dets, decoded...)
	}
	return dets, nil
}

func serveMCP(ctx context.Context, logger *slog.Logger, cfg *segmenter.Config, svc *segmenter.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "seamlis", Version: version}, nil)
	svc.RegisterMCP(srv)

	switch cfg.MCP.Transport {
	case "stdio":
		logger.Info("seamlis: serving MCP", "transport", "stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "quic":
		tlsCfg, err := quicTLS(cfg.MCP)
		if err != nil {
			return fmt.Errorf("mcp quic tls: %w", err)
		}
		l, err := mcpquic.NewListener(cfg.MCP.QUICAddr, tlsCfg, srv, logger)
		if err != nil {
			return fmt.Errorf("mcp quic listen: %w", err)
		}
		defer l.Close()
		logger.Info("seamlis: serving MCP", "transport", "quic", "addr", l.Addr().String())
		if err := l.Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("seamlis: shutting down")
		return nil
	default:
		return fmt.Errorf("unknown MCP transport %q", cfg.MCP.Transport)
	}
}

func quicTLS(c segmenter.MCPConfig) (*tls.Config, error) {
	if c.TLSCert != "" && c.TLSKey != "" {
		return mcpquic.ServerTLSConfig(c.TLSCert, c.TLSKey)
	}
	return mcpquic.SelfSignedTLSConfig()
}

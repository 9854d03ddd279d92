// Package livepage drives a Chrome instance through Rod to supply live pages
// to the segmenter: it opens a tab per URL, captures the rendered visual tree
// in one script evaluation, and injects clicks and keystrokes.
package livepage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/segmenter"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headful launches the local Chrome with a window.
	Headful bool

	// Stealth opens tabs through go-rod/stealth.
	Stealth bool

	// NavigateTimeout bounds navigation and load. Default: 30s.
	NavigateTimeout time.Duration

	// Settle is waited after load so late layout lands before a snapshot.
	// Default: 500ms.
	Settle time.Duration

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Settle <= 0 {
		c.Settle = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// FromConfig maps the segmenter browser settings onto a manager Config.
func FromConfig(bc segmenter.BrowserConfig, logger *slog.Logger) Config {
	return Config{
		RemoteURL:        bc.Remote,
		Headful:          bc.Headful,
		Stealth:          !bc.NoStealth,
		NavigateTimeout:  bc.NavigateTimeout,
		Settle:           bc.Settle,
		ResourceBlocking: bc.ResourceBlocking,
		Logger:           logger,
	}
}

// Manager owns the Chrome connection and opens tabs on it. It implements
// segmenter.Browser.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Chrome is started by Start, or lazily by the
// first Open.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.startLocked(ctx)
	return err
}

func (m *Manager) startLocked(ctx context.Context) (*rod.Browser, error) {
	if m.closed {
		return nil, fmt.Errorf("livepage: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	return b, nil
}

// Browser returns the current Rod browser handle, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Close shuts down Chrome.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Warn("livepage: close browser", "error", err)
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	wsURL := m.cfg.RemoteURL
	if wsURL != "" {
		log.Info("livepage: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(!m.cfg.Headful)

		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("livepage: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("livepage: launched local chrome", "url", wsURL, "headful", m.cfg.Headful)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("livepage: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("livepage: ignore cert errors failed", "error", err)
	}
	return b, nil
}

// Open opens a tab on url sized to vp.
func (m *Manager) Open(ctx context.Context, url string, vp geom.Viewport) (segmenter.Page, error) {
	m.mu.Lock()
	b, err := m.startLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	tab, err := openTab(ctx, b, url, vp, m.cfg)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

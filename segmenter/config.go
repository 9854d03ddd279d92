package segmenter

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
)

// Config holds all seamlis configuration.
type Config struct {
	Viewport geom.Viewport `yaml:"viewport"`
	Parse    ParseConfig   `yaml:"parse"`
	Cache    CacheConfig   `yaml:"cache"`
	Browser  BrowserConfig `yaml:"browser"`
	MCP      MCPConfig     `yaml:"mcp"`
}

// MCPConfig selects how the MCP tools are served.
type MCPConfig struct {
	// Transport is "stdio" or "quic".
	Transport string `yaml:"transport"`
	// QUICAddr is the UDP listen address of the QUIC transport.
	QUICAddr string `yaml:"quic_addr"`
	// TLSCert and TLSKey name the listener's key pair. Empty generates a
	// self-signed certificate.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// ParseConfig bounds the work of one parse.
type ParseConfig struct {
	// MinScore drops detections below the detector confidence floor.
	MinScore float64 `yaml:"min_score"`
	// MaxDetections keeps only the highest scored detections.
	MaxDetections int `yaml:"max_detections"`
}

// CacheConfig sizes the page-context cache.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// BrowserConfig controls the live Chrome used for page parses.
type BrowserConfig struct {
	// Enabled turns on live page parsing.
	Enabled bool `yaml:"enabled"`
	// Remote is the WebSocket URL of an external Chrome. Empty launches a
	// local one.
	Remote string `yaml:"remote"`
	// Headful runs the local Chrome with a window.
	Headful bool `yaml:"headful"`
	// NoStealth opens plain pages instead of stealth pages.
	NoStealth       bool          `yaml:"no_stealth"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
	// Settle is how long to wait after load before snapshotting.
	Settle time.Duration `yaml:"settle"`
	// ResourceBlocking lists resource types the tabs never load
	// (images, fonts, media, stylesheets).
	ResourceBlocking []string `yaml:"resource_blocking"`
}

func (c *Config) defaults() {
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = 1280
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = 800
	}
	if c.Parse.MinScore <= 0 {
		c.Parse.MinScore = screen.DefaultScoreThreshold
	}
	if c.Parse.MaxDetections <= 0 {
		c.Parse.MaxDetections = 100
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 64
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Browser.Settle <= 0 {
		c.Browser.Settle = 500 * time.Millisecond
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = "stdio"
	}
	if c.MCP.QUICAddr == "" {
		c.MCP.QUICAddr = ":9444"
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("segmenter: config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}

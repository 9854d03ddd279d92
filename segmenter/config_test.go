package segmenter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/seamlis/screen"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Viewport.Width != 1280 || cfg.Viewport.Height != 800 {
		t.Fatalf("viewport: got %+v", cfg.Viewport)
	}
	if cfg.Parse.MinScore != screen.DefaultScoreThreshold {
		t.Fatalf("min score: got %v", cfg.Parse.MinScore)
	}
	if cfg.Parse.MaxDetections != 100 || cfg.Cache.Size != 64 {
		t.Fatalf("limits: max=%d cache=%d", cfg.Parse.MaxDetections, cfg.Cache.Size)
	}
	if cfg.Browser.NavigateTimeout != 30*time.Second || cfg.Browser.Settle != 500*time.Millisecond {
		t.Fatalf("browser timings: %+v", cfg.Browser)
	}
	if cfg.Browser.Enabled {
		t.Fatal("browser should be off by default")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seamlis.yaml")
	data := `
viewport:
  width: 1920
parse:
  min_score: 0.5
browser:
  enabled: true
  remote: ws://127.0.0.1:9222/devtools/browser/x
  navigate_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Viewport.Width != 1920 || cfg.Viewport.Height != 800 {
		t.Fatalf("viewport: got %+v", cfg.Viewport)
	}
	if cfg.Parse.MinScore != 0.5 || cfg.Parse.MaxDetections != 100 {
		t.Fatalf("parse: got %+v", cfg.Parse)
	}
	if !cfg.Browser.Enabled || cfg.Browser.Remote == "" {
		t.Fatalf("browser: got %+v", cfg.Browser)
	}
	if cfg.Browser.NavigateTimeout != 5*time.Second || cfg.Browser.Settle != 500*time.Millisecond {
		t.Fatalf("browser timings: %+v", cfg.Browser)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("viewport: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

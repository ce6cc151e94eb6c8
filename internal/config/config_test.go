package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("FSVIZ_TEST_SNAPDIR", "/var/tmp/snaps")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  log_file: viz.log
scan:
  workers: 4
  xdev: true
view:
  mode: tree
  fps: 60
snapshots:
  dir: ${FSVIZ_TEST_SNAPDIR}
  retention: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Snapshots.Dir != "/var/tmp/snaps" {
		t.Errorf("snapshot dir = %q, want expanded env value", cfg.Snapshots.Dir)
	}
	if cfg.View.Mode != ModeTree || cfg.View.FPS != 60 {
		t.Errorf("view = %+v", cfg.View)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Scan.Workers)
	}
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
view:
  mode: spiral
  fps: 30
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err == nil {
		t.Error("unknown view mode passed validation")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.View.FPS != 30 {
		t.Errorf("fps = %d, want default 30", cfg.View.FPS)
	}
}

func TestScanOptionsFromConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Scan.Exclude = []string{`/\.git(/|$)`}
	opts, err := cfg.Scan.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if !opts.ShouldExclude("/home/x/.git/objects") {
		t.Error("configured exclude pattern not applied")
	}
	if opts.Workers != cfg.Scan.Workers {
		t.Errorf("workers = %d, want %d", opts.Workers, cfg.Scan.Workers)
	}

	cfg.Scan.Exclude = []string{`([`}
	if _, err := cfg.Scan.Options(); err == nil {
		t.Error("invalid exclude pattern did not fail")
	}
}

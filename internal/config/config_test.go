package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
jobs: 4
verbose: true
color: never
cache: .yuni/cache.db
language: "~0.1"
domain: {min: 0, max: 100}
`), "/project/yuni.yaml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Jobs != 4 || !cfg.Verbose || cfg.Color != ColorNever {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Cache != filepath.Join("/project", ".yuni/cache.db") {
		t.Errorf("cache path not resolved: %q", cfg.Cache)
	}
	if cfg.Domain == nil || cfg.Domain.Max != 100 {
		t.Errorf("domain = %+v", cfg.Domain)
	}
	lc := cfg.Languages()
	if lc == nil || !lc.Check(semver.MustParse("0.1.3")) || lc.Check(semver.MustParse("0.2.0")) {
		t.Errorf("language constraint = %v", lc)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"), "yuni.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Color != ColorAuto || cfg.Jobs != 0 || cfg.Cache != "" || cfg.Languages() != nil {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"negative jobs", "jobs: -1", "jobs must not be negative"},
		{"bad color", "color: sometimes", "color must be auto, always or never"},
		{"bad language", "language: \"not a version\"", "invalid language constraint"},
		{"bad domain", "domain: {min: 5, max: 1}", "domain min 5 exceeds max 1"},
		{"bad yaml", "jobs: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "yuni.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	if path, err := Find(sub); err != nil || path != "" {
		// a yuni.yaml above the temp dir would make this ambiguous
		if path != "" && !strings.HasPrefix(path, root) {
			t.Skipf("found unrelated config %s", path)
		}
		t.Fatalf("unexpected result %q, %v", path, err)
	}

	cfgPath := filepath.Join(root, "yuni.yaml")
	if err := os.WriteFile(cfgPath, []byte("jobs: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := Find(sub)
	if err != nil || path != cfgPath {
		t.Fatalf("Find = %q, %v; want %q", path, err, cfgPath)
	}

	cfg, err := Discover(sub)
	if err != nil || cfg.Jobs != 2 || cfg.Path != cfgPath {
		t.Errorf("Discover = %+v, %v", cfg, err)
	}
}

func TestApply(t *testing.T) {
	base := &Config{Jobs: 2, Color: ColorAuto, Cache: "a.db"}
	jobs, color, verbose := 8, ColorAlways, true

	got, err := base.Apply(Overrides{Jobs: &jobs, Color: &color, Verbose: &verbose})
	if err != nil {
		t.Fatal(err)
	}
	if got.Jobs != 8 || got.Color != ColorAlways || !got.Verbose || got.Cache != "a.db" {
		t.Errorf("unexpected result %+v", got)
	}
	if base.Jobs != 2 {
		t.Error("Apply modified the receiver")
	}

	bad := "rainbow"
	if _, err := base.Apply(Overrides{Color: &bad}); err == nil {
		t.Error("invalid color override accepted")
	}
}

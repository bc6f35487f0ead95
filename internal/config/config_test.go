package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quizmill/scoring-core/internal/engine"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	raw := `
log_mode: dev
db_path: /tmp/scoring.db
context:
  ttl_seconds: 60
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogMode != "dev" || cfg.DBPath != "/tmp/scoring.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Context.TTLSeconds != 60 {
		t.Fatalf("ttl = %d, want 60", cfg.Context.TTLSeconds)
	}
	// Untouched sections keep their defaults.
	if got := cfg.Registry.Tiers["premium"].Versions[engine.TypePace]; got != engine.V2 {
		t.Fatalf("premium pace = %s, want v2", got)
	}
	if len(cfg.Segment.Weights) != 5 {
		t.Fatalf("weights = %v", cfg.Segment.Weights)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	raw := `
segment:
  weights:
    success_rate: 0.9
    speed_consistency: 0.9
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a weight-sum validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

package replay

import (
	"context"
	"testing"
)

func TestFixturesPass(t *testing.T) {
	fixtures, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatal("no fixtures found under testdata")
	}

	h := NewHarness(nil)
	for _, f := range fixtures {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			mismatches, err := h.Run(context.Background(), f)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, m := range mismatches {
				t.Errorf("%s", m)
			}
		})
	}
}

func TestLoadFixtureDefaultsName(t *testing.T) {
	f, err := LoadFixture("testdata/retention_new.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Name != "retention-new-topic" {
		t.Fatalf("name = %q", f.Name)
	}
	if len(f.Steps) == 0 {
		t.Fatal("fixture has no steps")
	}
}

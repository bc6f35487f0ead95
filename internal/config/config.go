package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/registry"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region config

// Config is the whole scoring core's configuration surface.
type Config struct {
	LogMode string `yaml:"log_mode"` // "prod" or "dev"
	DBPath  string `yaml:"db_path"`

	Segment  segment.Config     `yaml:"segment"`
	Registry registry.Config    `yaml:"registry"`
	Context  contextdata.Config `yaml:"context"`
}

// Default returns the built-in configuration: prod logging, in-memory
// store, default weight table and tiers, 300-second context TTL.
func Default() Config {
	return Config{
		LogMode:  "prod",
		DBPath:   ":memory:",
		Segment:  segment.DefaultConfig(),
		Registry: registry.DefaultConfig(),
		Context:  contextdata.DefaultConfig(),
	}
}

// #endregion config

// #region load

// Load reads a YAML file over the defaults. Sections absent from the file
// keep their built-in values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fails fast on configuration that would corrupt scoring: a bad
// weight table or band layout, or a tier naming unknown engines.
func (c Config) Validate() error {
	if _, err := segment.NewClassifier(c.Segment); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if c.LogMode != "prod" && c.LogMode != "dev" {
		return fmt.Errorf("config: unknown log_mode %q", c.LogMode)
	}
	return nil
}

// #endregion load

package segment

import (
	"fmt"
	"math"
	"sort"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region config

// Band maps a half-open score range [Min, Max) to a level. The final band
// is closed at 100.
type Band struct {
	Level Level   `yaml:"level"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// LevelCap lowers a classification to MaxLevel when the triggering counter
// crosses Threshold. Caps only ever lower a level, never raise it.
type LevelCap struct {
	Threshold int   `yaml:"threshold"`
	MaxLevel  Level `yaml:"max_level"`
}

// Config holds the weight table, score bands, and override caps.
type Config struct {
	Weights       map[string]float64 `yaml:"weights"`
	Bands         []Band             `yaml:"bands"`
	OverdueCap    LevelCap           `yaml:"overdue_cap"`     // overdue topics >= Threshold
	LowHistoryCap LevelCap           `yaml:"low_history_cap"` // test count < Threshold
	ColdStartMin  int                `yaml:"cold_start_min"`  // tests required to run the weighted formula
}

// DefaultConfig returns the built-in weight table and bands.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			SignalSuccessRate:           0.35,
			SignalSpeedConsistency:      0.20,
			SignalDifficultyProgression: 0.20,
			SignalRetentionHealth:       0.15,
			SignalTestFrequency:         0.10,
		},
		Bands: []Band{
			{Level: L1, Min: 0, Max: 25},
			{Level: L2, Min: 25, Max: 40},
			{Level: L3, Min: 40, Max: 55},
			{Level: L4, Min: 55, Max: 70},
			{Level: L5, Min: 70, Max: 82},
			{Level: L6, Min: 82, Max: 92},
			{Level: L7, Min: 92, Max: 100},
		},
		OverdueCap:    LevelCap{Threshold: 5, MaxLevel: L4},
		LowHistoryCap: LevelCap{Threshold: 5, MaxLevel: L3},
		ColdStartMin:  3,
	}
}

// #endregion config

// #region classifier

const (
	weightSumTolerance = 1e-9
	coldStartScore     = 20.0
	coldStartConf      = 0.3
	baseConfidence     = 0.3
	volatilityPenalty  = 0.85
)

// Classifier converts normalized student signals into a level plus a
// confidence value.
type Classifier struct {
	cfg   Config
	bands []Band // sorted by Min
}

// NewClassifier validates the configuration and returns a classifier.
// A weight table that does not sum to 1.0 is a configuration error and is
// rejected here — it would silently corrupt every score downstream.
func NewClassifier(cfg Config) (*Classifier, error) {
	if len(cfg.Weights) == 0 {
		return nil, fmt.Errorf("segment: empty weight table")
	}
	var sum float64
	for name, w := range cfg.Weights {
		if w < 0 {
			return nil, fmt.Errorf("segment: negative weight %.4f for %q", w, name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("segment: weights sum to %.6f, want 1.0", sum)
	}
	if len(cfg.Bands) == 0 {
		return nil, fmt.Errorf("segment: no score bands configured")
	}

	bands := make([]Band, len(cfg.Bands))
	copy(bands, cfg.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	for i := 1; i < len(bands); i++ {
		if bands[i].Min != bands[i-1].Max {
			return nil, fmt.Errorf("segment: bands not contiguous at %.1f", bands[i].Min)
		}
	}

	return &Classifier{cfg: cfg, bands: bands}, nil
}

// #endregion classifier

// #region classify

// Classify runs the weighted formula. Fewer than ColdStartMin total tests
// short-circuits to the fixed cold-start response regardless of signals.
func (c *Classifier) Classify(in Input) Segment {
	if in.TestCount < c.cfg.ColdStartMin {
		return Segment{
			Level:          c.bands[0].Level,
			Score:          coldStartScore,
			Confidence:     coldStartConf,
			MissingSignals: c.missingFrom(in.Signals),
			SignalsUsed:    c.presentIn(in.Signals),
			ColdStart:      true,
		}
	}

	// Weighted score over present signals only. Missing signals are excluded
	// from the denominator, never zero-filled.
	var weightedSum, weightPresent float64
	for name, w := range c.cfg.Weights {
		v, ok := in.Signals[name]
		if !ok {
			continue
		}
		weightedSum += w * engine.Clamp01(v)
		weightPresent += w
	}

	var score float64
	if weightPresent > 0 {
		score = 100 * weightedSum / weightPresent
	}
	score = engine.Clamp(score, 0, 100)

	level := c.levelFor(score)
	level, capName := c.applyCaps(level, in)

	return Segment{
		Level:          level,
		Score:          score,
		Confidence:     c.confidence(in, weightPresent),
		SignalsUsed:    c.presentIn(in.Signals),
		MissingSignals: c.missingFrom(in.Signals),
		CapApplied:     capName,
	}
}

// #endregion classify

// #region level-mapping

// levelFor maps a score onto the sorted half-open bands.
func (c *Classifier) levelFor(score float64) Level {
	for _, b := range c.bands {
		if score >= b.Min && score < b.Max {
			return b.Level
		}
	}
	// score == top boundary (100)
	return c.bands[len(c.bands)-1].Level
}

// applyCaps lowers the level per the configured overrides. Returns the
// (possibly lowered) level and the name of the cap that fired.
func (c *Classifier) applyCaps(level Level, in Input) (Level, string) {
	capName := ""
	if c.cfg.OverdueCap.Threshold > 0 && in.OverdueCount >= c.cfg.OverdueCap.Threshold {
		if level.Rank() > c.cfg.OverdueCap.MaxLevel.Rank() {
			level = c.cfg.OverdueCap.MaxLevel
			capName = "overdue"
		}
	}
	if c.cfg.LowHistoryCap.Threshold > 0 && in.TestCount < c.cfg.LowHistoryCap.Threshold {
		if level.Rank() > c.cfg.LowHistoryCap.MaxLevel.Rank() {
			level = c.cfg.LowHistoryCap.MaxLevel
			capName = "low_history"
		}
	}
	return level, capName
}

// #endregion level-mapping

// #region confidence

// confidence starts at a fixed base, gains from signal coverage and from
// test-count maturity, and takes a volatility penalty when speed consistency
// is low.
func (c *Classifier) confidence(in Input, weightPresent float64) float64 {
	conf := baseConfidence
	conf += 0.5 * weightPresent // weights sum to 1.0, so coverage == present weight
	maturity := float64(in.TestCount) / 10.0
	if maturity > 1 {
		maturity = 1
	}
	conf += 0.5 * maturity
	if conf > 1 {
		conf = 1
	}
	if sc, ok := in.Signals[SignalSpeedConsistency]; ok && sc < 0.3 {
		conf *= volatilityPenalty
	}
	return conf
}

// #endregion confidence

// #region helpers

func (c *Classifier) presentIn(signals map[string]float64) []string {
	var out []string
	for name := range c.cfg.Weights {
		if _, ok := signals[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Classifier) missingFrom(signals map[string]float64) []string {
	var out []string
	for name := range c.cfg.Weights {
		if _, ok := signals[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// #endregion helpers

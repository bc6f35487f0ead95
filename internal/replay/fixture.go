package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region fixture

// Fixture is one recorded scenario: seeded student and topics plus a
// sequence of scored submissions with expected outcomes.
type Fixture struct {
	Name    string      `json:"name"`
	Student StudentSeed `json:"student"`
	Topics  []TopicSeed `json:"topics"`
	Steps   []Step      `json:"steps"`
}

// StudentSeed seeds the student's signals and tier before the first step.
type StudentSeed struct {
	ID      string             `json:"id"`
	Tier    string             `json:"tier"`
	Signals map[string]float64 `json:"signals,omitempty"`
}

// TopicSeed seeds one topic row plus its prerequisite links.
type TopicSeed struct {
	ID            string       `json:"id"`
	Archetype     string       `json:"archetype"`
	Baseline      float64      `json:"baseline"`
	Weight        float64      `json:"weight"`
	Importance    float64      `json:"importance"`
	Prerequisites []PrereqSeed `json:"prerequisites,omitempty"`
}

// PrereqSeed is one prerequisite link.
type PrereqSeed struct {
	TopicID  string  `json:"topic_id"`
	Strength float64 `json:"strength"`
	Mastery  float64 `json:"mastery"`
}

// Step is one submission and its expectations. At must be RFC3339 when set;
// steps without it run at a fixed synthetic clock advancing one day per step.
type Step struct {
	TopicID string `json:"topic_id"`
	At      string `json:"at,omitempty"`

	Correct         int     `json:"correct"`
	Wrong           int     `json:"wrong"`
	Blank           int     `json:"blank"`
	Total           int     `json:"total"`
	DurationMinutes float64 `json:"duration_minutes"`
	DifficultyHint  int     `json:"difficulty_hint"`

	Expect Expect `json:"expect"`
}

// Expect holds the per-engine assertions. Zero-valued fields are not
// checked; range fields check only when Max > 0.
type Expect struct {
	SegmentLevel    string   `json:"segment_level,omitempty"`
	RetentionStatus string   `json:"retention_status,omitempty"`
	EaseMin         float64  `json:"ease_min,omitempty"`
	EaseMax         float64  `json:"ease_max,omitempty"`
	IntervalDays    *float64 `json:"interval_days,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
	PaceCategory    string   `json:"pace_category,omitempty"`
	PaceModifier    *float64 `json:"pace_modifier,omitempty"`
	PriorityLevel   string   `json:"priority_level,omitempty"`
	NormalizedMax   float64  `json:"normalized_max,omitempty"`
	FallbackUsed    *bool    `json:"fallback_used,omitempty"`
	VersionUsed     string   `json:"version_used,omitempty"`
}

// #endregion fixture

// #region loading

// LoadFixture parses one fixture file.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = filepath.Base(path)
	}
	return f, nil
}

// LoadDir loads every *.json fixture under dir, sorted by filename.
func LoadDir(dir string) ([]Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	fixtures := make([]Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := LoadFixture(p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// #endregion loading

// #region sample

// sample converts a step to the engine input. The synthetic clock starts
// thirty days back so seeded results land inside the history window, and
// advances one day per step.
var replayEpoch = time.Now().UTC().AddDate(0, 0, -30).Truncate(24 * time.Hour).Add(9 * time.Hour)

func (s Step) sample(stepIndex int) (engine.PerformanceSample, error) {
	at := replayEpoch.AddDate(0, 0, stepIndex)
	if s.At != "" {
		parsed, err := time.Parse(time.RFC3339, s.At)
		if err != nil {
			return engine.PerformanceSample{}, fmt.Errorf("step %d: bad timestamp %q: %w", stepIndex, s.At, err)
		}
		at = parsed
	}
	return engine.PerformanceSample{
		Correct:         s.Correct,
		Wrong:           s.Wrong,
		Blank:           s.Blank,
		Total:           s.Total,
		DurationSeconds: s.DurationMinutes * 60,
		DifficultyHint:  s.DifficultyHint,
		Timestamp:       at,
	}, nil
}

// #endregion sample

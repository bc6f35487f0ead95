package replay

import (
	"context"
	"fmt"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/difficulty"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/logging"
	"github.com/quizmill/scoring-core/internal/orchestrator"
	"github.com/quizmill/scoring-core/internal/pace"
	"github.com/quizmill/scoring-core/internal/priority"
	"github.com/quizmill/scoring-core/internal/registry"
	"github.com/quizmill/scoring-core/internal/retention"
	"github.com/quizmill/scoring-core/internal/runner"
	"github.com/quizmill/scoring-core/internal/segment"
	"github.com/quizmill/scoring-core/internal/store"
)

// #region mismatch

// Mismatch is one failed expectation.
type Mismatch struct {
	Fixture string
	Step    int
	Field   string
	Want    string
	Got     string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s step %d: %s: want %s, got %s", m.Fixture, m.Step, m.Field, m.Want, m.Got)
}

// #endregion

// #region harness

// Harness replays fixtures through a fully wired orchestrator over an
// in-memory store.
type Harness struct {
	log *logging.Logger
}

// NewHarness builds a harness. log may be nil.
func NewHarness(log *logging.Logger) *Harness {
	if log == nil {
		log = logging.NewNop()
	}
	return &Harness{log: log}
}

// Run replays one fixture and returns every expectation mismatch. A fresh
// in-memory store is built per fixture so runs cannot contaminate each other.
func (h *Harness) Run(ctx context.Context, f Fixture) ([]Mismatch, error) {
	st, err := store.NewSQLStore(":memory:")
	if err != nil {
		return nil, fmt.Errorf("replay store: %w", err)
	}
	defer st.Close()

	if err := h.seed(ctx, st, f); err != nil {
		return nil, err
	}

	classifier, err := segment.NewClassifier(segment.DefaultConfig())
	if err != nil {
		return nil, err
	}
	reg := registry.New(registry.DefaultConfig())
	run := runner.New(reg, st, h.log)

	var mismatches []Mismatch
	for i, step := range f.Steps {
		sample, err := step.sample(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}

		// A fresh provider per step: the cache must not serve history from
		// before the step's own recorded results.
		provider := contextdata.NewProvider(st, contextdata.DefaultConfig(), h.log)
		orch := orchestrator.New(provider, classifier, run, st, h.log)
		res := orch.ScoreSubmission(ctx, orchestrator.SubmissionInput{
			StudentID: f.Student.ID,
			TopicID:   step.TopicID,
			Tier:      f.Student.Tier,
			Sample:    sample,
		})
		mismatches = append(mismatches, check(f.Name, i, step.Expect, res)...)

		if err := st.RecordTestResult(ctx, f.Student.ID, step.TopicID, sample); err != nil {
			return nil, fmt.Errorf("%s step %d: record result: %w", f.Name, i, err)
		}
	}
	return mismatches, nil
}

func (h *Harness) seed(ctx context.Context, st *store.SQLStore, f Fixture) error {
	for _, t := range f.Topics {
		if err := st.UpsertTopic(ctx, t.ID, contextdata.Archetype(t.Archetype), t.Baseline, t.Weight, t.Importance); err != nil {
			return fmt.Errorf("seed topic %s: %w", t.ID, err)
		}
		for _, p := range t.Prerequisites {
			if err := st.LinkPrerequisite(ctx, t.ID, p.TopicID, p.Strength, p.Mastery); err != nil {
				return fmt.Errorf("seed prerequisite %s->%s: %w", t.ID, p.TopicID, err)
			}
		}
	}
	for name, value := range f.Student.Signals {
		if err := st.SetSignal(ctx, f.Student.ID, name, value); err != nil {
			return fmt.Errorf("seed signal %s: %w", name, err)
		}
	}
	return nil
}

// #endregion harness

// #region checks

func check(fixture string, step int, want Expect, res orchestrator.SubmissionResult) []Mismatch {
	var out []Mismatch
	fail := func(field, w, g string) {
		out = append(out, Mismatch{Fixture: fixture, Step: step, Field: field, Want: w, Got: g})
	}

	if want.SegmentLevel != "" && string(res.Segment.Level) != want.SegmentLevel {
		fail("segment_level", want.SegmentLevel, string(res.Segment.Level))
	}

	if status, ease, interval, ok := retentionView(res.Retention); ok {
		if want.RetentionStatus != "" && string(status) != want.RetentionStatus {
			fail("retention_status", want.RetentionStatus, string(status))
		}
		if want.EaseMax > 0 && (ease < want.EaseMin || ease > want.EaseMax) {
			fail("ease_factor", fmt.Sprintf("[%.2f, %.2f]", want.EaseMin, want.EaseMax), fmt.Sprintf("%.2f", ease))
		}
		if want.IntervalDays != nil && interval != *want.IntervalDays {
			fail("interval_days", fmt.Sprintf("%.1f", *want.IntervalDays), fmt.Sprintf("%.1f", interval))
		}
	} else if want.RetentionStatus != "" {
		fail("retention_status", want.RetentionStatus, "no retention result")
	}

	if level, ok := difficultyView(res.Difficulty); ok {
		if want.DifficultyLevel != "" && string(level) != want.DifficultyLevel {
			fail("difficulty_level", want.DifficultyLevel, string(level))
		}
	}

	if cat, mod, ok := paceView(res.Pace); ok {
		if want.PaceCategory != "" && string(cat) != want.PaceCategory {
			fail("pace_category", want.PaceCategory, string(cat))
		}
		if want.PaceModifier != nil && mod != *want.PaceModifier {
			fail("pace_modifier", fmt.Sprintf("%.2f", *want.PaceModifier), fmt.Sprintf("%.2f", mod))
		}
	}

	if level, norm, ok := priorityView(res.Priority); ok {
		if want.PriorityLevel != "" && string(level) != want.PriorityLevel {
			fail("priority_level", want.PriorityLevel, string(level))
		}
		if want.NormalizedMax > 0 && norm > want.NormalizedMax {
			fail("normalized_score", fmt.Sprintf("<= %.1f", want.NormalizedMax), fmt.Sprintf("%.1f", norm))
		}
	}

	if want.FallbackUsed != nil && res.Retention.FallbackUsed != *want.FallbackUsed {
		fail("fallback_used", fmt.Sprintf("%t", *want.FallbackUsed), fmt.Sprintf("%t", res.Retention.FallbackUsed))
	}
	if want.VersionUsed != "" && string(res.Retention.VersionUsed) != want.VersionUsed {
		fail("version_used", want.VersionUsed, string(res.Retention.VersionUsed))
	}
	return out
}

// retentionView reads the status and state out of either result shape.
func retentionView(env engine.Envelope) (retention.Status, float64, float64, bool) {
	switch data := env.Data.(type) {
	case retention.Result:
		return data.Status, data.EaseFactor, data.IntervalDays, true
	case retention.V2Result:
		return data.Status, data.Base.EaseFactor, data.Base.IntervalDays, true
	default:
		return "", 0, 0, false
	}
}

func difficultyView(env engine.Envelope) (difficulty.Level, bool) {
	switch data := env.Data.(type) {
	case difficulty.Result:
		return data.Level, true
	case difficulty.V2Result:
		return data.AdjustedLevel, true
	default:
		return "", false
	}
}

func paceView(env engine.Envelope) (pace.Category, float64, bool) {
	switch data := env.Data.(type) {
	case pace.Result:
		return data.Category, data.Modifier, true
	case pace.V2Result:
		return data.Base.Category, data.Base.Modifier, true
	default:
		return "", 0, false
	}
}

// priorityView reads the top-ranked topic.
func priorityView(env engine.Envelope) (priority.Level, float64, bool) {
	switch data := env.Data.(type) {
	case []priority.TopicScore:
		if len(data) == 0 {
			return "", 0, false
		}
		return data[0].Level, data[0].NormalizedScore, true
	case []priority.EnrichedTopic:
		if len(data) == 0 {
			return "", 0, false
		}
		return data[0].Level, data[0].NormalizedScore, true
	default:
		return "", 0, false
	}
}

// #endregion checks

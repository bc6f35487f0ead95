package retention

import (
	"math"
	"testing"

	"github.com/quizmill/scoring-core/internal/engine"
)

func TestScoreV1NewTopic(t *testing.T) {
	got := ScoreV1(Input{
		Sample: engine.PerformanceSample{Correct: 7, Wrong: 2, Blank: 1, Total: 10, DifficultyHint: 3},
	})
	if got.Status != StatusNew {
		t.Fatalf("status = %s, want NEW", got.Status)
	}
	if math.Abs(got.EaseFactor-2.2) > 1e-9 {
		t.Fatalf("ease = %f, want 2.2", got.EaseFactor)
	}
	if got.IntervalDays != 1 {
		t.Fatalf("interval = %f, want 1", got.IntervalDays)
	}
	if got.RepetitionCount != 1 {
		t.Fatalf("repetitions = %d, want 1", got.RepetitionCount)
	}
}

func TestScoreV1Hero(t *testing.T) {
	prior := &engine.RetentionState{EaseFactor: 2.0, IntervalDays: 4, RepetitionCount: 3}
	got := ScoreV1(Input{
		Sample:              engine.PerformanceSample{Correct: 9, Wrong: 1, Total: 10},
		Prior:               prior,
		DaysSinceLastReview: 9, // later than the scheduled 4 days
	})
	if got.Status != StatusHero {
		t.Fatalf("status = %s, want HERO", got.Status)
	}
	if math.Abs(got.EaseFactor-2.1) > 1e-9 {
		t.Fatalf("ease = %f, want 2.1", got.EaseFactor)
	}
	want := 4 * 2.1 * 1.2
	if math.Abs(got.IntervalDays-want) > 1e-9 {
		t.Fatalf("interval = %f, want %f", got.IntervalDays, want)
	}
}

func TestScoreV1Reset(t *testing.T) {
	prior := &engine.RetentionState{EaseFactor: 2.0, IntervalDays: 10, RepetitionCount: 5}
	got := ScoreV1(Input{
		Sample:              engine.PerformanceSample{Correct: 2, Wrong: 6, Blank: 2, Total: 10},
		Prior:               prior,
		DaysSinceLastReview: 10,
	})
	if got.Status != StatusReset {
		t.Fatalf("status = %s, want RESET", got.Status)
	}
	if got.IntervalDays != 1 || got.RepetitionCount != 1 {
		t.Fatalf("schedule not reset: interval %f, repetitions %d", got.IntervalDays, got.RepetitionCount)
	}
	if math.Abs(got.EaseFactor-1.8) > 1e-9 {
		t.Fatalf("ease = %f, want 1.8", got.EaseFactor)
	}
}

func TestScoreV1Normal(t *testing.T) {
	prior := &engine.RetentionState{EaseFactor: 2.0, IntervalDays: 4, RepetitionCount: 2}
	got := ScoreV1(Input{
		Sample:              engine.PerformanceSample{Correct: 6, Wrong: 4, Total: 10},
		Prior:               prior,
		DaysSinceLastReview: 3, // on schedule, no HERO
	})
	if got.Status != StatusNormal {
		t.Fatalf("status = %s, want NORMAL", got.Status)
	}
	if got.RepetitionCount != 3 {
		t.Fatalf("repetitions = %d, want 3", got.RepetitionCount)
	}
	if got.IntervalDays < 1 {
		t.Fatalf("interval = %f, want >= 1", got.IntervalDays)
	}
}

func TestScoreV1InvalidSample(t *testing.T) {
	got := ScoreV1(Input{Sample: engine.PerformanceSample{Total: 0}})
	if got.Status != StatusNormal || got.EaseFactor != EaseDefault {
		t.Fatalf("invalid sample: got %s/%f, want NORMAL/%f", got.Status, got.EaseFactor, EaseDefault)
	}
}

// Ease must stay in bounds for any sample and any prior state.
func TestEaseBounds(t *testing.T) {
	priors := []*engine.RetentionState{
		nil,
		{EaseFactor: EaseMin, IntervalDays: 1, RepetitionCount: 1},
		{EaseFactor: EaseMax, IntervalDays: 50, RepetitionCount: 20},
		{EaseFactor: 1.9, IntervalDays: 7, RepetitionCount: 4},
	}
	for _, prior := range priors {
		for correct := 0; correct <= 12; correct++ {
			for _, days := range []float64{0, 1, 5, 30, 365} {
				got := ScoreV1(Input{
					Sample:              engine.PerformanceSample{Correct: correct, Wrong: 12 - correct, Total: 12, DifficultyHint: 5},
					Prior:               prior,
					DaysSinceLastReview: days,
				})
				if got.EaseFactor < EaseMin || got.EaseFactor > EaseMax {
					t.Fatalf("ease %f out of [%f, %f] (correct=%d days=%f)", got.EaseFactor, EaseMin, EaseMax, correct, days)
				}
				if got.IntervalDays < 0 {
					t.Fatalf("negative interval %f", got.IntervalDays)
				}
			}
		}
	}
}

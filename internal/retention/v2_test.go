package retention

import (
	"testing"
	"time"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/segment"
)

func twelveQuestionSample(correct int) engine.PerformanceSample {
	return engine.PerformanceSample{
		Correct:   correct,
		Wrong:     12 - correct,
		Total:     12,
		Timestamp: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestScoreV2Gates(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		firstOfDay bool
		wantReason string
	}{
		{"eleven questions", 11, true, SkipNotTwelveQuestions},
		{"thirteen questions", 13, true, SkipNotTwelveQuestions},
		{"second test of day", 12, false, SkipNotFirstOfDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := V2Input{
				Input: Input{Sample: engine.PerformanceSample{Correct: tt.total, Total: tt.total}},

				FirstTestOfDay: tt.firstOfDay,
			}
			got, err := ScoreV2(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != StatusSkipped {
				t.Fatalf("status = %s, want SKIPPED", got.Status)
			}
			if got.SkipReason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", got.SkipReason, tt.wantReason)
			}
			if got.Features != nil {
				t.Fatal("skipped result must carry no features")
			}
		})
	}
}

func TestScoreV2EmbedsBaseUnmodified(t *testing.T) {
	in := V2Input{
		Input:          Input{Sample: twelveQuestionSample(9)},
		Topic:          contextdata.TopicContext{TopicID: "t1", Archetype: contextdata.ArchetypeMixed},
		History:        contextdata.StudentHistory{TestCount: 8},
		Segment:        segment.Segment{Level: segment.L4},
		FirstTestOfDay: true,
	}
	got, err := ScoreV2(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := ScoreV1(in.Input)
	if got.Base != base {
		t.Fatalf("base result modified: %+v != %+v", got.Base, base)
	}
	if got.Status != base.Status {
		t.Fatalf("status = %s, want %s", got.Status, base.Status)
	}
	if got.Features == nil {
		t.Fatal("missing feature block")
	}
}

func TestScoreV2SegmentRisk(t *testing.T) {
	prior := &engine.RetentionState{EaseFactor: 2.0, IntervalDays: 4, RepetitionCount: 2}
	mk := func(level segment.Level) V2Input {
		return V2Input{
			Input: Input{
				Sample:              twelveQuestionSample(8),
				Prior:               prior,
				DaysSinceLastReview: 3,
			},
			Topic:          contextdata.TopicContext{TopicID: "t1"},
			History:        contextdata.StudentHistory{TestCount: 10, RecentScores: []float64{0.6, 0.6, 0.7}},
			Segment:        segment.Segment{Level: level},
			FirstTestOfDay: true,
		}
	}

	weak, err := ScoreV2(mk(segment.L1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strong, err := ScoreV2(mk(segment.L7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if weak.Features.AdjustedIntervalDays >= strong.Features.AdjustedIntervalDays {
		t.Fatalf("L1 interval %.2f should be shorter than L7 interval %.2f",
			weak.Features.AdjustedIntervalDays, strong.Features.AdjustedIntervalDays)
	}
}

func TestScoreV2IntegrityCapsGrowth(t *testing.T) {
	prior := &engine.RetentionState{EaseFactor: 2.4, IntervalDays: 5, RepetitionCount: 4}
	in := V2Input{
		Input: Input{
			Sample:              twelveQuestionSample(12), // perfect score after a weak run
			Prior:               prior,
			DaysSinceLastReview: 8,
		},
		Topic:          contextdata.TopicContext{TopicID: "t1"},
		History:        contextdata.StudentHistory{TestCount: 10, RecentScores: []float64{0.3, 0.35, 0.3}},
		Segment:        segment.Segment{Level: segment.L5},
		FirstTestOfDay: true,
		AnomalyFlags:   []string{"suspicious_duration"},
	}
	got, err := ScoreV2(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Features.ScoreSpike {
		t.Fatal("expected a score spike against the trailing average")
	}
	if got.Features.IntegrityScore >= 0.85 {
		t.Fatalf("integrity = %f, want < 0.85 with spike plus anomaly flag", got.Features.IntegrityScore)
	}
	if !got.Features.GrowthCapped {
		t.Fatal("expected interval growth to be capped")
	}
	if max := prior.IntervalDays * 1.25; got.Features.AdjustedIntervalDays > max+1e-9 {
		t.Fatalf("adjusted interval %f exceeds cap %f", got.Features.AdjustedIntervalDays, max)
	}
}

func TestScoreV2ForgettingRateBounds(t *testing.T) {
	for _, level := range []segment.Level{segment.L1, segment.L4, segment.L7} {
		for _, prev := range []float64{0, 0.01, 0.1, 0.2} {
			for _, score := range []float64{0, 0.5, 1} {
				got := nextForgettingRate(prev, level, score)
				if got < forgetRateMin || got > forgetRateMax {
					t.Fatalf("rate %f out of bounds (level=%s prev=%f score=%f)", got, level, prev, score)
				}
			}
		}
	}
}

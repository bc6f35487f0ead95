package priority

import (
	"testing"

	"github.com/quizmill/scoring-core/internal/engine"
)

func TestRankBatchSortedAndBounded(t *testing.T) {
	topics := []TopicInput{
		{TopicID: "a", Sample: engine.PerformanceSample{Correct: 2, Wrong: 4, Blank: 6, Total: 12}, SuccessRate: 0.3, TopicWeight: 1.5, CourseImportance: 1.2},
		{TopicID: "b", Sample: engine.PerformanceSample{Correct: 10, Wrong: 2, Total: 12}, SuccessRate: 0.85, TopicWeight: 1.0, CourseImportance: 1.0},
		{TopicID: "c", Sample: engine.PerformanceSample{Correct: 6, Wrong: 3, Blank: 3, Total: 12}, SuccessRate: 0.5, TopicWeight: 1.0, CourseImportance: 1.0},
	}
	got := RankBatch(topics)
	if len(got) != 3 {
		t.Fatalf("got %d scores, want 3", len(got))
	}
	for i, s := range got {
		if s.NormalizedScore < 0 || s.NormalizedScore > 100 {
			t.Fatalf("normalized score %f out of [0, 100]", s.NormalizedScore)
		}
		if s.RawScore < 0 || s.RawScore > 10000 {
			t.Fatalf("raw score %f out of [0, 10000]", s.RawScore)
		}
		if i > 0 && got[i-1].NormalizedScore < s.NormalizedScore {
			t.Fatalf("batch not sorted descending at index %d", i)
		}
	}
	if got[0].TopicID != "a" {
		t.Fatalf("top topic = %s, want a", got[0].TopicID)
	}
}

func TestAbsoluteFloorGuard(t *testing.T) {
	// Topic "weakest" tops the batch (normalized 100) but its raw score is
	// 10, under the floor of 15: a uniformly strong student's weakest topic.
	topics := []TopicInput{
		{TopicID: "weakest", Sample: engine.PerformanceSample{Correct: 39, Blank: 1, Total: 40}, SuccessRate: 1.0},
		{TopicID: "mid", Sample: engine.PerformanceSample{Correct: 39, Wrong: 1, Total: 40}, SuccessRate: 1.0},
		{TopicID: "clean", Sample: engine.PerformanceSample{Correct: 40, Total: 40}, SuccessRate: 1.0},
	}
	got := RankBatch(topics)

	var weakest TopicScore
	for _, s := range got {
		if s.TopicID == "weakest" {
			weakest = s
		}
	}
	if weakest.RawScore >= AbsoluteFloor {
		t.Fatalf("test setup: raw %f should sit under the floor", weakest.RawScore)
	}
	if !weakest.FloorGuardApplied {
		t.Fatal("floor guard did not fire")
	}
	if weakest.Level != LevelLow {
		t.Fatalf("level = %s, want LOW", weakest.Level)
	}
	if weakest.NormalizedScore > 45 {
		t.Fatalf("normalized = %f, want capped at 45", weakest.NormalizedScore)
	}
}

func TestCriticalPromotion(t *testing.T) {
	topics := []TopicInput{
		{TopicID: "urgent", Sample: engine.PerformanceSample{Wrong: 2, Blank: 10, Total: 12}, SuccessRate: 0.1, TopicWeight: 2.0, CourseImportance: 1.5},
		{TopicID: "fine", Sample: engine.PerformanceSample{Correct: 12, Total: 12}, SuccessRate: 0.95},
	}
	got := RankBatch(topics)
	if got[0].TopicID != "urgent" {
		t.Fatalf("top topic = %s, want urgent", got[0].TopicID)
	}
	if got[0].Level != LevelCritical {
		t.Fatalf("level = %s, want CRITICAL (raw %f)", got[0].Level, got[0].RawScore)
	}
}

func TestSpeedMultiplier(t *testing.T) {
	tests := []struct {
		name string
		in   TopicInput
		want float64
	}{
		{"slow", TopicInput{DurationMinutes: 30, QuestionCount: 10, SuccessRate: 0.5}, 1.25},
		{"fast and strong", TopicInput{DurationMinutes: 8, QuestionCount: 10, SuccessRate: 0.9}, 0.8},
		{"fast but weak", TopicInput{DurationMinutes: 8, QuestionCount: 10, SuccessRate: 0.5}, 1.0},
		{"no timing data", TopicInput{}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := speedMultiplier(tt.in); got != tt.want {
				t.Fatalf("multiplier = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSingleTopicBatch(t *testing.T) {
	got := RankBatch([]TopicInput{
		{TopicID: "only", Sample: engine.PerformanceSample{Correct: 4, Wrong: 4, Blank: 4, Total: 12}, SuccessRate: 0.4},
	})
	if got[0].NormalizedScore != 50 {
		t.Fatalf("uniform batch normalizes to 50, got %f", got[0].NormalizedScore)
	}
}

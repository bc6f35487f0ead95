package pace

import (
	"math"
	"testing"
)

func TestAnalyzeV1FastAndAccurate(t *testing.T) {
	got := AnalyzeV1(Input{DurationMinutes: 10, QuestionCount: 12, SuccessRate: 0.9})
	if got.Category != CategoryFast {
		t.Fatalf("category = %s, want FAST", got.Category)
	}
	if math.Abs(got.Ratio-10.0/18.0) > 1e-9 {
		t.Fatalf("ratio = %f, want %f", got.Ratio, 10.0/18.0)
	}
	if got.Modifier != 0.9 {
		t.Fatalf("modifier = %f, want 0.9", got.Modifier)
	}
	if got.Careless {
		t.Fatal("careless flag set for an accurate student")
	}
}

func TestAnalyzeV1FastButCareless(t *testing.T) {
	got := AnalyzeV1(Input{DurationMinutes: 10, QuestionCount: 12, SuccessRate: 0.5})
	if got.Category != CategoryFast {
		t.Fatalf("category = %s, want FAST", got.Category)
	}
	if got.Modifier != 1.0 {
		t.Fatalf("modifier = %f, want 1.0 without the success bar", got.Modifier)
	}
	if !got.Careless {
		t.Fatal("careless flag not set")
	}
}

func TestAnalyzeV1Slow(t *testing.T) {
	got := AnalyzeV1(Input{DurationMinutes: 24, QuestionCount: 12, SuccessRate: 0.6})
	if got.Category != CategorySlow {
		t.Fatalf("category = %s, want SLOW (ratio %f)", got.Category, got.Ratio)
	}
	if got.Modifier != 1.15 {
		t.Fatalf("modifier = %f, want 1.15", got.Modifier)
	}
}

func TestAnalyzeV1Neutral(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"too few questions", Input{DurationMinutes: 10, QuestionCount: 5, SuccessRate: 0.8}},
		{"too many questions", Input{DurationMinutes: 30, QuestionCount: 25, SuccessRate: 0.8}},
		{"zero duration", Input{DurationMinutes: 0, QuestionCount: 12, SuccessRate: 0.8}},
		{"negative duration", Input{DurationMinutes: -3, QuestionCount: 12, SuccessRate: 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeV1(tt.in)
			if !got.Neutral {
				t.Fatal("neutral flag not set")
			}
			if got.Ratio != 1.0 || got.Modifier != 1.0 {
				t.Fatalf("got ratio %f modifier %f, want 1.0/1.0", got.Ratio, got.Modifier)
			}
			if got.Category != CategoryNeutral {
				t.Fatalf("category = %s, want NEUTRAL", got.Category)
			}
		})
	}
}

func TestDurationCaps(t *testing.T) {
	// 30 reported minutes compress to 27.5; 60 truncate to 40 then 32.5.
	if got := capDuration(30); math.Abs(got-27.5) > 1e-9 {
		t.Fatalf("capDuration(30) = %f, want 27.5", got)
	}
	if got := capDuration(60); math.Abs(got-32.5) > 1e-9 {
		t.Fatalf("capDuration(60) = %f, want 32.5", got)
	}
	if got := capDuration(20); got != 20 {
		t.Fatalf("capDuration(20) = %f, want 20", got)
	}
}

func TestApplyToDifficulty(t *testing.T) {
	if got := ApplyToDifficulty(90, 1.15); got != 100 {
		t.Fatalf("ApplyToDifficulty(90, 1.15) = %f, want clamped 100", got)
	}
	if got := ApplyToDifficulty(50, 0.9); got != 45 {
		t.Fatalf("ApplyToDifficulty(50, 0.9) = %f, want 45", got)
	}
}

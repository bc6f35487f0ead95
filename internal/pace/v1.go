package pace

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region constants

const (
	IdealMinutesPerQuestion = 1.5
	baselineQuestions       = 12

	// Reported durations above the soft cap are compressed, and above the
	// hard cap truncated, before the ratio is computed. Blunts manipulation
	// via absurd timings.
	softCapMinutes = 25.0
	hardCapMinutes = 40.0

	fastBar        = 0.7
	slowBar        = 1.3
	fastSuccessBar = 0.8

	fastModifier = 0.9
	slowModifier = 1.15

	questionCountMin = 8
	questionCountMax = 20
)

// #endregion

// #region analyze-v1

// AnalyzeV1 computes a test's pace ratio and difficulty modifier. Out-of-range
// question counts and non-positive inputs yield the neutral response, never
// an error.
func AnalyzeV1(in Input) Result {
	if in.QuestionCount <= 0 || in.DurationMinutes <= 0 ||
		in.QuestionCount < questionCountMin || in.QuestionCount > questionCountMax {
		return neutral("question count or duration outside the analyzable range")
	}

	capped := capDuration(in.DurationMinutes)
	ideal := float64(in.QuestionCount) * IdealMinutesPerQuestion
	ratio := capped / ideal

	r := Result{
		Ratio:                 ratio,
		Modifier:              1.0,
		IdealMinutes:          ideal,
		CappedMinutes:         capped,
		AvgMinutesPerQuestion: capped / float64(in.QuestionCount),
	}

	switch {
	case ratio < fastBar:
		r.Category = CategoryFast
		if in.SuccessRate >= fastSuccessBar {
			r.Modifier = fastModifier
			r.Explanation = fmt.Sprintf("fast and accurate (ratio %.2f): difficulty eased to %.2f", ratio, fastModifier)
		} else {
			r.Careless = true
			r.Explanation = fmt.Sprintf("fast but inaccurate (ratio %.2f): likely rushing, no easing applied", ratio)
		}
	case ratio > slowBar:
		r.Category = CategorySlow
		r.Modifier = slowModifier
		r.Explanation = fmt.Sprintf("slow (ratio %.2f): difficulty raised to %.2f", ratio, slowModifier)
	default:
		r.Category = CategoryNormal
		r.Explanation = fmt.Sprintf("normal pace (ratio %.2f)", ratio)
	}
	return r
}

func neutral(reason string) Result {
	return Result{
		Ratio:       1.0,
		Category:    CategoryNeutral,
		Modifier:    1.0,
		Neutral:     true,
		Explanation: "neutral pace: " + reason,
	}
}

// capDuration compresses minutes past the soft cap and truncates at the hard
// cap.
func capDuration(minutes float64) float64 {
	if minutes > hardCapMinutes {
		minutes = hardCapMinutes
	}
	if minutes > softCapMinutes {
		minutes = softCapMinutes + (minutes-softCapMinutes)*0.5
	}
	return minutes
}

// ApplyToDifficulty applies a pace modifier to a difficulty score.
func ApplyToDifficulty(base, modifier float64) float64 {
	return engine.Clamp(base*modifier, 0, 100)
}

// #endregion analyze-v1

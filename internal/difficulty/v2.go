package difficulty

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region constants

const (
	// AdjustedScore pulls the observed score a quarter of the way toward
	// the topic's archetype baseline (0-10 scale mapped to 0-100).
	observedWeight = 0.75
	baselineWeight = 0.25
)

// #endregion

// #region score-v2

// ScoreV2 wraps the v1 score with context enrichment. The v1 score is never
// overridden; the blended AdjustedScore sits beside it. Missing context
// degrades to the bare v1 result tagged enrichment_failed.
func ScoreV2(in V2Input) (V2Result, error) {
	// Prefer real history over the caller-supplied rates for volatility.
	if len(in.History.RecentScores) >= volatilityMinSamples {
		in.RecentSuccessRates = in.History.RecentScores
	}
	base := ScoreV1(in.Input)

	if in.Topic.Defaulted {
		return V2Result{
			Base:             base,
			AdjustedScore:    base.Score,
			AdjustedLevel:    base.Level,
			IntegrityScore:   1.0,
			EnrichmentFailed: true,
			Explanation:      "topic context unavailable; reporting unadjusted difficulty",
		}, nil
	}

	adjusted := engine.Clamp(observedWeight*base.Score+baselineWeight*in.Topic.DifficultyBaseline*10, 0, 100)

	integrity, spike := sampleIntegrity(in)

	return V2Result{
		Base:           base,
		AdjustedScore:  adjusted,
		AdjustedLevel:  LevelFor(adjusted),
		IntegrityScore: integrity,
		ScoreSpike:     spike,
		Explanation:    explainV2(base, adjusted, in.Segment.Level),
	}, nil
}

// #endregion score-v2

// #region integrity

// sampleIntegrity flags a success rate far above the trailing-3 average.
func sampleIntegrity(in V2Input) (float64, bool) {
	n := float64(in.Sample.EffectiveTotal())
	success := float64(in.Sample.Correct) / n

	trailing := in.History.RecentScores
	if len(trailing) > 3 {
		trailing = trailing[:3]
	}
	avg := engine.Mean(trailing)
	if avg > 0 && success >= avg*1.5 {
		return 0.85, true
	}
	return 1.0, false
}

// #endregion integrity

// #region explanation

func explainV2(base Result, adjusted float64, level segment.Level) string {
	direction := "matches"
	if adjusted > base.Score+1 {
		direction = "is above"
	} else if adjusted < base.Score-1 {
		direction = "is below"
	}
	return fmt.Sprintf("observed difficulty %.0f %s the topic baseline for a %s student", base.Score, direction, level)
}

// #endregion explanation

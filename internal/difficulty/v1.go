package difficulty

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region weights

// Weighted-rate terms of the difficulty score.
const (
	weightBlank         = 0.55
	weightWrong         = 0.30
	weightVolatility    = 0.10
	weightMisconception = 0.05

	misconceptionCap      = 0.3
	misconceptionWrongBar = 0.3
	volatilityMinSamples  = 3
)

// #endregion

// #region score-v1

// ScoreV1 computes a topic's current difficulty for the student from one
// sample. Pure function: identical inputs yield identical scores. Invalid
// samples return the neutral MEDIUM/50 response.
func ScoreV1(in Input) Result {
	if !in.Sample.Valid() {
		return Result{
			Score:       50,
			Level:       LevelMedium,
			Neutral:     true,
			Explanation: "neutral difficulty: sample had no questions",
		}
	}

	rates := engine.SampleRates(in.Sample)
	comp := Components{
		BlankRate:     rates.Blank,
		WrongRate:     rates.Wrong,
		Volatility:    volatility(in.RecentSuccessRates),
		Misconception: misconception(rates),
	}

	score := 100 * engine.Clamp01(engine.WeightedSum([]engine.WeightedTerm{
		{Weight: weightBlank, Value: comp.BlankRate},
		{Weight: weightWrong, Value: comp.WrongRate},
		{Weight: weightVolatility, Value: comp.Volatility},
		{Weight: weightMisconception, Value: comp.Misconception},
	}))

	return Result{
		Score:       score,
		Level:       LevelFor(score),
		Components:  comp,
		Explanation: fmt.Sprintf("difficulty %.0f/100 from %.0f%% blank, %.0f%% wrong", score, comp.BlankRate*100, comp.WrongRate*100),
	}
}

// #endregion score-v1

// #region terms

// volatility is the clamped standard deviation of recent success rates.
func volatility(recent []float64) float64 {
	if len(recent) < volatilityMinSamples {
		return 0
	}
	return engine.Clamp01(engine.StdDev(recent))
}

// misconception fires when wrong answers dominate blanks: the student is
// answering confidently and incorrectly rather than leaving gaps.
func misconception(r engine.Rates) float64 {
	if r.Wrong <= r.Blank || r.Wrong <= misconceptionWrongBar {
		return 0
	}
	m := r.Wrong - r.Blank
	if m > misconceptionCap {
		m = misconceptionCap
	}
	return m
}

// LevelFor bands a difficulty score.
func LevelFor(score float64) Level {
	switch {
	case score < 25:
		return LevelLow
	case score < 50:
		return LevelMedium
	case score < 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// #endregion terms

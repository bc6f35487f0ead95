package difficulty

import (
	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region level

// Level bands a difficulty score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// #endregion

// #region v1-input

// Input is the v1 difficulty call. RecentSuccessRates (in [0, 1]) feeds the
// volatility term; fewer than 3 entries zeroes it.
type Input struct {
	Sample             engine.PerformanceSample
	RecentSuccessRates []float64
}

// #endregion

// #region v1-result

// Components breaks the score into its weighted terms.
type Components struct {
	BlankRate     float64 `json:"blank_rate"`
	WrongRate     float64 `json:"wrong_rate"`
	Volatility    float64 `json:"volatility"`
	Misconception float64 `json:"misconception"`
}

// Result is the v1 difficulty output.
type Result struct {
	Score       float64    `json:"score"` // [0, 100]
	Level       Level      `json:"level"`
	Components  Components `json:"components"`
	Neutral     bool       `json:"neutral"` // invalid-input neutral response
	Explanation string     `json:"explanation"`
}

// #endregion

// #region v2-input

// V2Input enriches the v1 call with topic context, history, and the
// student's segment.
type V2Input struct {
	Input

	Topic   contextdata.TopicContext
	History contextdata.StudentHistory
	Segment segment.Segment
}

// #endregion

// #region v2-result

// V2Result embeds the unmodified v1 result. AdjustedScore blends in the
// topic's archetype baseline; it never replaces the v1 score.
type V2Result struct {
	Base             Result  `json:"base"`
	AdjustedScore    float64 `json:"adjusted_score"` // [0, 100]
	AdjustedLevel    Level   `json:"adjusted_level"`
	IntegrityScore   float64 `json:"integrity_score"` // [0.6, 1.0]
	ScoreSpike       bool    `json:"score_spike"`
	EnrichmentFailed bool    `json:"enrichment_failed"`
	Explanation      string  `json:"explanation"`
}

// #endregion

package retention

import (
	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region status

// Status is the mutually exclusive outcome of a retention review.
type Status string

const (
	StatusNew     Status = "NEW"
	StatusHero    Status = "HERO"
	StatusReset   Status = "RESET"
	StatusNormal  Status = "NORMAL"
	StatusSkipped Status = "SKIPPED"
)

// #endregion

// #region ease-bounds

// SM-2-style ease factor bounds.
const (
	EaseMin     = 1.3
	EaseMax     = 2.5
	EaseDefault = 2.5
)

// #endregion

// #region v1-input

// Input is the v1 retention call: one sample plus the prior persisted state.
type Input struct {
	Sample engine.PerformanceSample
	Prior  *engine.RetentionState // nil on the first review of a topic

	// DaysSinceLastReview is the actual gap between this review and the
	// previous one. 0 means unknown or same day.
	DaysSinceLastReview float64
}

// #endregion

// #region v1-result

// Result is the full v1 output. State fields feed the next persisted
// RetentionState.
type Result struct {
	Status          Status  `json:"status"`
	EaseFactor      float64 `json:"ease_factor"`   // [1.3, 2.5]
	IntervalDays    float64 `json:"interval_days"` // >= 0
	RepetitionCount int     `json:"repetition_count"`
	Score           float64 `json:"score"` // [0, 1]
	Explanation     string  `json:"explanation"`
}

// State converts the result back into a persistable RetentionState.
func (r Result) State() engine.RetentionState {
	return engine.RetentionState{
		EaseFactor:      r.EaseFactor,
		IntervalDays:    r.IntervalDays,
		RepetitionCount: r.RepetitionCount,
	}
}

// #endregion

// #region v2-input

// V2Input enriches the v1 call with topic context, student history, the
// student's segment, and the gating flags.
type V2Input struct {
	Input

	Topic          contextdata.TopicContext
	History        contextdata.StudentHistory
	Segment        segment.Segment
	FirstTestOfDay bool

	// AnomalyFlags carries upstream anti-gaming signals (for example a
	// suspicious duration from the pace engine).
	AnomalyFlags []string
}

// #endregion

// #region v2-result

// V2Features is the enrichment block attached to a non-skipped v2 result.
type V2Features struct {
	ForgettingRate       float64 `json:"forgetting_rate"`       // [0.01, 0.20]
	EvidenceConfidence   float64 `json:"evidence_confidence"`   // [0.2, 1.0]
	IntegrityScore       float64 `json:"integrity_score"`       // [0.6, 1.0]
	BehavioralMultiplier float64 `json:"behavioral_multiplier"`
	SegmentRiskFactor    float64 `json:"segment_risk_factor"`
	AdjustedIntervalDays float64 `json:"adjusted_interval_days"`
	GrowthCapped         bool    `json:"growth_capped"`
	ScoreSpike           bool    `json:"score_spike"`
}

// V2Result embeds the unmodified v1 result plus the v2 feature block.
// Skipped calls carry the gate reason verbatim and no features.
type V2Result struct {
	Base        Result      `json:"base"`
	Status      Status      `json:"status"`
	SkipReason  string      `json:"skip_reason,omitempty"`
	Features    *V2Features `json:"v2_features,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
}

// #endregion

package priority

import (
	"github.com/quizmill/scoring-core/internal/engine"
)

// #region level

// Level bands a topic's normalized priority.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Urgency adjustments and interpretations produced by v2 enrichment.
type (
	Adjustment string
	Urgency    string
)

const (
	AdjustElevated Adjustment = "ELEVATED"
	AdjustNeutral  Adjustment = "NEUTRAL"
	AdjustRelaxed  Adjustment = "RELAXED"

	UrgencyLow      Urgency = "LOW"
	UrgencyModerate Urgency = "MODERATE"
	UrgencyHigh     Urgency = "HIGH"
)

// #endregion

// #region topic-input

// TopicInput is one topic's slice of a ranking batch.
type TopicInput struct {
	TopicID          string
	Sample           engine.PerformanceSample
	TopicWeight      float64 // 0 → 1.0
	CourseImportance float64 // 0 → 1.0
	SuccessRate      float64 // historical, [0, 1]
	DurationMinutes  float64
	QuestionCount    int
}

// #endregion

// #region topic-score

// TopicScore is one ranked topic. NormalizedScore is min-max scaled within
// the batch; RawScore is the absolute pre-normalization value the guards
// key on.
type TopicScore struct {
	TopicID           string  `json:"topic_id"`
	RawScore          float64 `json:"raw_score"`        // [0, 10000]
	NormalizedScore   float64 `json:"normalized_score"` // [0, 100]
	Level             Level   `json:"level"`
	GapScore          float64 `json:"gap_score"`
	StrategicValue    float64 `json:"strategic_value"`
	SpeedMultiplier   float64 `json:"speed_multiplier"`
	FloorGuardApplied bool    `json:"floor_guard_applied"`
}

// #endregion

// #region enriched-topic

// EnrichedTopic is a v2 result: the untouched v1 score plus advisory
// context. Enrichment never changes the v1 numbers.
type EnrichedTopic struct {
	TopicScore

	UrgencyAdjustment       Adjustment `json:"urgency_adjustment"`
	InterpretedUrgency      Urgency    `json:"interpreted_urgency"`
	MessageTone             string     `json:"message_tone"`
	SuggestedSessionMinutes int        `json:"suggested_session_minutes"`
	SuggestedQuestionCount  int        `json:"suggested_question_count"`
	Notes                   []string   `json:"notes,omitempty"`
	EnrichmentFailed        bool       `json:"enrichment_failed"`
}

// #endregion

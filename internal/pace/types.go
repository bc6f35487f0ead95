package pace

import (
	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region category

// Category bands a test's pace ratio.
type Category string

const (
	CategoryFast    Category = "FAST"
	CategoryNormal  Category = "NORMAL"
	CategorySlow    Category = "SLOW"
	CategoryNeutral Category = "NEUTRAL"
)

// #endregion

// #region input

// Input is one test's timing slice.
type Input struct {
	DurationMinutes float64
	QuestionCount   int
	SuccessRate     float64 // [0, 1]
}

// #endregion

// #region result

// Result is the v1 pace analysis. AvgMinutesPerQuestion and
// AvgDaysBetweenTests are distinct fields; neither stands in for the other.
type Result struct {
	Ratio                 float64  `json:"pace_ratio"`
	Category              Category `json:"category"`
	Modifier              float64  `json:"difficulty_modifier"`
	IdealMinutes          float64  `json:"ideal_minutes"`
	CappedMinutes         float64  `json:"capped_minutes"`
	AvgMinutesPerQuestion float64  `json:"avg_minutes_per_question"`
	AvgDaysBetweenTests   float64  `json:"avg_days_between_tests,omitempty"`
	Careless              bool     `json:"careless"`
	Neutral               bool     `json:"neutral"`
	Explanation           string   `json:"explanation"`
}

// #endregion

// #region v2

// V2Input adds the context the enriched analysis keys on.
type V2Input struct {
	Input
	Topic   contextdata.TopicContext
	History contextdata.StudentHistory
	Segment segment.Segment
}

// V2Result is the enriched analysis. Base is the untouched v1 result; the
// archetype-aware numbers sit beside it.
type V2Result struct {
	Base Result `json:"base"`

	ArchetypeRatio    float64  `json:"archetype_ratio"`
	ArchetypeCategory Category `json:"archetype_category"`
	ArchetypeModifier float64  `json:"archetype_modifier"`
	ToleranceNote     string   `json:"tolerance_note,omitempty"`
	RushingPattern    bool     `json:"rushing_pattern"`
	EnrichmentFailed  bool     `json:"enrichment_failed"`
	Explanation       string   `json:"explanation"`
}

// #endregion

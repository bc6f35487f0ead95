package contextdata

import (
	"context"
	"time"
)

// #region archetype

// Archetype is a topic's pedagogical category.
type Archetype string

const (
	ArchetypeFoundational   Archetype = "foundational"
	ArchetypeSynthesis      Archetype = "synthesis"
	ArchetypeConceptBased   Archetype = "concept_based"
	ArchetypeFormulaHeavy   Archetype = "formula_heavy"
	ArchetypeProblemSolving Archetype = "problem_solving"
	ArchetypeMixed          Archetype = "mixed"
)

// #endregion

// #region trend

// Trend summarizes the direction of a student's recent success rates.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendUnknown   Trend = "unknown"
)

// #endregion

// #region topic-context

// Prerequisite links a topic to one of its prerequisites with a strength
// in [0, 1]. Mastery is the student-independent course-level mastery signal
// when known; ok=false means no mastery data exists.
type Prerequisite struct {
	TopicID    string  `json:"topic_id"`
	Strength   float64 `json:"strength"`
	Mastery    float64 `json:"mastery"` // [0, 100]
	HasMastery bool    `json:"has_mastery"`
}

// TopicContext is the per-topic metadata the v2 engines enrich with.
type TopicContext struct {
	TopicID            string         `json:"topic_id"`
	Archetype          Archetype      `json:"archetype"`
	DifficultyBaseline float64        `json:"difficulty_baseline"` // [0, 10]
	TopicWeight        float64        `json:"topic_weight"`
	CourseImportance   float64        `json:"course_importance"`
	Prerequisites      []Prerequisite `json:"prerequisites"`
	Defaulted          bool           `json:"defaulted"` // true when substituted on miss/failure
}

// DefaultTopicContext is substituted when the backing store is unavailable.
func DefaultTopicContext(topicID string) TopicContext {
	return TopicContext{
		TopicID:            topicID,
		Archetype:          ArchetypeMixed,
		DifficultyBaseline: 5.0,
		TopicWeight:        1.0,
		CourseImportance:   1.0,
		Defaulted:          true,
	}
}

// #endregion

// #region student-history

// StudentHistory is the per-student (optionally per-topic) aggregate the
// v2 engines consume.
type StudentHistory struct {
	TestCount           int        `json:"test_count"`
	AvgSuccessRate      float64    `json:"avg_success_rate"` // [0, 100]
	Trend               Trend      `json:"trend"`
	LastTestAt          *time.Time `json:"last_test_at,omitempty"`
	RecentScores        []float64  `json:"recent_scores"`          // newest first, [0, 1]
	RecentPaceRatios    []float64  `json:"recent_pace_ratios"`     // newest first
	AvgDaysBetweenTests float64    `json:"avg_days_between_tests"` // 0 = unknown
	ForgettingRate      float64    `json:"forgetting_rate"` // [0.01, 0.20]; 0 = unknown
	OverdueTopics       int        `json:"overdue_topics"`
	Defaulted           bool       `json:"defaulted"`
}

// DefaultStudentHistory is substituted when the backing store is unavailable.
func DefaultStudentHistory() StudentHistory {
	return StudentHistory{Trend: TrendUnknown, Defaulted: true}
}

// #endregion

// #region reader

// Reader is the read side of the data-access interface the provider consumes.
// Implementations live outside this package (see internal/store). Every read
// must be safe to fail: the provider substitutes documented defaults.
type Reader interface {
	TopicMetadata(ctx context.Context, topicID string) (TopicContext, error)
	Prerequisites(ctx context.Context, topicID string) ([]Prerequisite, error)
	StudentHistory(ctx context.Context, studentID, topicID string, daysBack int) (StudentHistory, error)
	StudentSignals(ctx context.Context, studentID string, windowDays int) (map[string]float64, error)
}

// #endregion

// #region config

// Config tunes the provider's cache and fetch bounds.
type Config struct {
	TTLSeconds     int `yaml:"ttl_seconds"`
	FetchTimeoutMS int `yaml:"fetch_timeout_ms"`
}

// DefaultConfig returns the 300-second TTL the scoring core documents.
func DefaultConfig() Config {
	return Config{TTLSeconds: 300, FetchTimeoutMS: 750}
}

// #endregion

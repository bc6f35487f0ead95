package engine

import "time"

// #region engine-type

// Type identifies one of the four scoring engines.
type Type string

const (
	TypeRetention  Type = "retention"
	TypeDifficulty Type = "difficulty"
	TypePriority   Type = "priority"
	TypePace       Type = "pace"
)

// AllTypes lists every engine type in orchestration order.
var AllTypes = []Type{TypeRetention, TypeDifficulty, TypePriority, TypePace}

// #endregion

// #region version

// Version identifies a concrete engine implementation.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// #endregion

// #region performance-sample

// PerformanceSample is one topic test submission. Immutable; passed by value.
// Correct+Wrong+Blank need not equal Total — engines use EffectiveTotal as
// the defensive denominator.
type PerformanceSample struct {
	Correct         int       `json:"correct"`
	Wrong           int       `json:"wrong"`
	Blank           int       `json:"blank"`
	Total           int       `json:"total"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	DifficultyHint  int       `json:"difficulty_hint"` // 1..5
	Timestamp       time.Time `json:"timestamp"`
}

// EffectiveTotal returns max(Total, Correct+Wrong+Blank, 1).
func (s PerformanceSample) EffectiveTotal() int {
	n := s.Total
	if sum := s.Correct + s.Wrong + s.Blank; sum > n {
		n = sum
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Valid reports whether the sample has a positive answer count.
func (s PerformanceSample) Valid() bool {
	return s.Total > 0
}

// #endregion

// #region retention-state

// RetentionState is the persisted spaced-repetition state for one
// (student, topic) pair. Mutated only by the retention engine.
type RetentionState struct {
	EaseFactor      float64 `json:"ease_factor"`      // [1.3, 2.5]
	IntervalDays    float64 `json:"interval_days"`    // >= 0
	RepetitionCount int     `json:"repetition_count"` // >= 0
}

// #endregion

// #region envelope

// Envelope is the only object the wrapper returns to callers. Data is the
// engine-specific result payload and is never nil on a successful call.
type Envelope struct {
	Data           any     `json:"data"`
	VersionUsed    Version `json:"version_used"`
	FallbackUsed   bool    `json:"fallback_used"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	Tier           string  `json:"tier"`
}

// #endregion

// #region engine-error

// Error annotates a per-engine failure inside a merged submission result.
// Engine failures are collected, never propagated as Go errors to callers.
type Error struct {
	Engine  Type   `json:"engine"`
	Version Version `json:"version"`
	Message string `json:"message"`
}

// #endregion

// #region execution-record

// ExecutionRecord is one row of the execution audit log. Writing it must
// never block or fail the scoring call that produced it.
type ExecutionRecord struct {
	Engine       Type
	Version      Version
	Tier         string
	DurationMS   int64
	FallbackUsed bool
	Success      bool
	ErrorText    string
	CreatedAt    time.Time
}

// #endregion

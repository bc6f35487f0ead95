package segment

// #region level

// Level is a discrete student skill/risk tier.
type Level string

const (
	L1 Level = "L1"
	L2 Level = "L2"
	L3 Level = "L3"
	L4 Level = "L4"
	L5 Level = "L5"
	L6 Level = "L6"
	L7 Level = "L7"
)

// levelOrder maps a level to its rank so caps can compare levels.
var levelOrder = map[Level]int{
	L1: 1, L2: 2, L3: 3, L4: 4, L5: 5, L6: 6, L7: 7,
}

// Rank returns the numeric rank of the level (L1=1 .. L7=7), 0 if unknown.
func (l Level) Rank() int {
	return levelOrder[l]
}

// #endregion

// #region signal-names

// Canonical signal names. Every signal value is normalized to [0, 1]
// before it reaches the classifier.
const (
	SignalSuccessRate           = "success_rate"
	SignalSpeedConsistency      = "speed_consistency"
	SignalDifficultyProgression = "difficulty_progression"
	SignalRetentionHealth       = "retention_health"
	SignalTestFrequency         = "test_frequency"
)

// #endregion

// #region input

// Input carries the normalized signals plus the raw counters the override
// rules key on. Missing map entries are treated as missing signals, never
// as zeros.
type Input struct {
	Signals      map[string]float64
	TestCount    int
	OverdueCount int
}

// #endregion

// #region segment

// Segment is the classification output. Recomputed per call; never persisted
// by this subsystem.
type Segment struct {
	Level          Level    `json:"level"`
	Score          float64  `json:"score"`      // [0, 100]
	Confidence     float64  `json:"confidence"` // [0, 1]
	SignalsUsed    []string `json:"signals_used"`
	MissingSignals []string `json:"missing_signals"`
	ColdStart      bool     `json:"cold_start"`
	CapApplied     string   `json:"cap_applied,omitempty"` // which override lowered the level, if any
}

// #endregion

package retention

import (
	"fmt"
	"math"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region gates

// Gate reasons are returned verbatim in the SKIPPED result.
const (
	SkipNotTwelveQuestions = "requires exactly 12 questions"
	SkipNotFirstOfDay      = "not the first test of the day for this topic"
)

const gateQuestionCount = 12

// #endregion

// #region policy-tables

// forgetting-rate policy targets by segment level.
const (
	forgetTargetStruggling = 0.90 // L1, L2
	forgetTargetAdvanced   = 0.88 // L6, L7
	forgetTargetDefault    = 0.80
	forgetRateDefault      = 0.05
	forgetRateMin          = 0.01
	forgetRateMax          = 0.20
	forgetRateStep         = 0.03
)

// segmentRiskFactors scale the review interval by the student's segment:
// weaker segments review sooner, stronger segments can wait longer.
var segmentRiskFactors = map[segment.Level]float64{
	segment.L1: 0.85,
	segment.L2: 0.90,
	segment.L3: 0.95,
	segment.L4: 1.00,
	segment.L5: 1.05,
	segment.L6: 1.10,
	segment.L7: 1.15,
}

// archetypeFactors bias the interval by the topic's pedagogical category.
var archetypeFactors = map[contextdata.Archetype]float64{
	contextdata.ArchetypeFoundational: 1.05,
	contextdata.ArchetypeSynthesis:    0.95,
}

const (
	prereqBrake        = 0.90 // applied when half or more prerequisites are weak
	prereqWeakMastery  = 60.0
	integrityCapGrowth = 1.25 // max interval growth under a low integrity score
	integrityLowBar    = 0.85
)

// #endregion policy-tables

// #region score-v2

// ScoreV2 wraps the v1 function with context enrichment. The v1 result is
// embedded unmodified; only the adjusted interval differs. Calls outside
// the 12-question gate or after the day's first test are skipped without
// touching state.
func ScoreV2(in V2Input) (V2Result, error) {
	if in.Sample.Total != gateQuestionCount {
		return V2Result{Status: StatusSkipped, SkipReason: SkipNotTwelveQuestions}, nil
	}
	if !in.FirstTestOfDay {
		return V2Result{Status: StatusSkipped, SkipReason: SkipNotFirstOfDay}, nil
	}

	base := ScoreV1(in.Input)

	feats := V2Features{
		ForgettingRate:       nextForgettingRate(in.History.ForgettingRate, in.Segment.Level, base.Score),
		EvidenceConfidence:   evidenceConfidence(in),
		BehavioralMultiplier: behavioralMultiplier(in.Topic),
		SegmentRiskFactor:    riskFactor(in.Segment.Level),
	}
	feats.IntegrityScore, feats.ScoreSpike = integrityScore(base.Score, in.History.RecentScores, in.AnomalyFlags)

	// Interval adjustment: risk and behavior scale the base, low integrity
	// caps growth, and weak evidence regresses toward the unadjusted base.
	adjusted := base.IntervalDays * feats.SegmentRiskFactor * feats.BehavioralMultiplier
	priorInterval := priorState(in.Prior).IntervalDays
	if feats.IntegrityScore < integrityLowBar {
		limit := priorInterval * integrityCapGrowth
		if priorInterval == 0 {
			limit = base.IntervalDays
		}
		if adjusted > limit {
			adjusted = limit
			feats.GrowthCapped = true
		}
	}
	adjusted = base.IntervalDays + (adjusted-base.IntervalDays)*feats.EvidenceConfidence
	if adjusted < 0 {
		adjusted = 0
	}
	feats.AdjustedIntervalDays = adjusted

	return V2Result{
		Base:        base,
		Status:      base.Status,
		Features:    &feats,
		Explanation: explain(base, feats, in),
	}, nil
}

// #endregion score-v2

// #region forgetting-rate

// nextForgettingRate nudges the personal forgetting rate toward the
// segment policy target.
func nextForgettingRate(prev float64, level segment.Level, score float64) float64 {
	if prev == 0 {
		prev = forgetRateDefault
	}
	target := forgetTargetDefault
	switch level {
	case segment.L1, segment.L2:
		target = forgetTargetStruggling
	case segment.L6, segment.L7:
		target = forgetTargetAdvanced
	}
	return engine.Clamp(prev+forgetRateStep*(target-score), forgetRateMin, forgetRateMax)
}

// #endregion forgetting-rate

// #region evidence-confidence

// evidenceConfidence weighs test-count maturity (60%) against recency (40%).
// Thin histories default to 0.5.
func evidenceConfidence(in V2Input) float64 {
	if in.History.TestCount < 3 {
		return 0.5
	}
	maturity := math.Min(float64(in.History.TestCount)/10.0, 1.0)

	recency := 1.0
	if in.History.LastTestAt != nil {
		days := in.Sample.Timestamp.Sub(*in.History.LastTestAt).Hours() / 24.0
		if days < 0 {
			days = 0
		}
		recency = math.Exp(-days / 30.0)
	}
	return engine.Clamp(0.6*maturity+0.4*recency, 0.2, 1.0)
}

// #endregion evidence-confidence

// #region integrity

// integrityScore detects score spikes against the trailing three tests and
// compounds with upstream anomaly flags.
func integrityScore(score float64, recentScores []float64, anomalies []string) (float64, bool) {
	integrity := 1.0
	spike := false

	trailing := recentScores
	if len(trailing) > 3 {
		trailing = trailing[:3]
	}
	if avg := engine.Mean(trailing); avg > 0 && score >= avg*1.5 {
		spike = true
		integrity = 0.85
	}

	flags := len(anomalies)
	if spike {
		flags++
	}
	if flags >= 2 {
		integrity = 0.70
	}
	return engine.Clamp(integrity, 0.6, 1.0), spike
}

// #endregion integrity

// #region behavioral

// behavioralMultiplier combines the archetype factor with the
// prerequisite brake.
func behavioralMultiplier(topic contextdata.TopicContext) float64 {
	m := 1.0
	if f, ok := archetypeFactors[topic.Archetype]; ok {
		m = f
	}
	if weakPrereqShare(topic.Prerequisites) >= 0.5 {
		m *= prereqBrake
	}
	return m
}

// weakPrereqShare returns the fraction of prerequisites with known mastery
// under the weak bar. Prerequisites without mastery data are not counted.
func weakPrereqShare(prereqs []contextdata.Prerequisite) float64 {
	if len(prereqs) == 0 {
		return 0
	}
	weak := 0
	for _, p := range prereqs {
		if p.HasMastery && p.Mastery < prereqWeakMastery {
			weak++
		}
	}
	return float64(weak) / float64(len(prereqs))
}

func riskFactor(level segment.Level) float64 {
	if f, ok := segmentRiskFactors[level]; ok {
		return f
	}
	return 1.0
}

// #endregion behavioral

// #region explanation

func explain(base Result, feats V2Features, in V2Input) string {
	delta := feats.AdjustedIntervalDays - base.IntervalDays
	switch {
	case delta > 0.05:
		return fmt.Sprintf("interval lengthened %.1f → %.1f days: %s segment standing and %s topic profile",
			base.IntervalDays, feats.AdjustedIntervalDays, in.Segment.Level, in.Topic.Archetype)
	case delta < -0.05:
		reason := fmt.Sprintf("%s segment standing", in.Segment.Level)
		if feats.GrowthCapped {
			reason = "integrity check capped interval growth"
		}
		return fmt.Sprintf("interval shortened %.1f → %.1f days: %s",
			base.IntervalDays, feats.AdjustedIntervalDays, reason)
	default:
		return fmt.Sprintf("interval held at %.1f days", base.IntervalDays)
	}
}

// #endregion explanation

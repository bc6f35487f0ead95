package pace

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/contextdata"
)

// #region constants

const (
	rushingStreakMin     = 3
	rushingSuccessBar    = 0.7
	toleranceSegmentRank = 2 // L1/L2 students get the wider tolerance note
)

// archetypeIdealMinutes overrides the flat per-question ideal for topic
// archetypes whose questions genuinely take longer or shorter.
var archetypeIdealMinutes = map[contextdata.Archetype]float64{
	contextdata.ArchetypeFormulaHeavy:   1.8,
	contextdata.ArchetypeProblemSolving: 1.8,
	contextdata.ArchetypeConceptBased:   1.2,
}

// #endregion

// #region analyze-v2

// AnalyzeV2 wraps the v1 analysis with archetype-aware ideal times and a
// rushing-streak detector. The v1 result is reported untouched; missing
// context degrades to it with enrichment_failed set.
func AnalyzeV2(in V2Input) (V2Result, error) {
	base := AnalyzeV1(in.Input)
	base.AvgDaysBetweenTests = in.History.AvgDaysBetweenTests

	if in.Topic.Defaulted {
		return V2Result{
			Base:              base,
			ArchetypeRatio:    base.Ratio,
			ArchetypeCategory: base.Category,
			ArchetypeModifier: base.Modifier,
			EnrichmentFailed:  true,
			Explanation:       "topic context unavailable; reporting flat-ideal pace",
		}, nil
	}

	out := V2Result{Base: base, RushingPattern: rushingStreak(in.History)}

	if base.Neutral {
		out.ArchetypeRatio = base.Ratio
		out.ArchetypeCategory = base.Category
		out.ArchetypeModifier = base.Modifier
		out.Explanation = base.Explanation
		return out, nil
	}

	ideal := idealFor(in.Topic.Archetype)
	ratio := base.CappedMinutes / (float64(in.QuestionCount) * ideal)
	out.ArchetypeRatio = ratio
	out.ArchetypeCategory, out.ArchetypeModifier = categorize(ratio, in.SuccessRate)

	if in.Segment.Level.Rank() <= toleranceSegmentRank && out.ArchetypeCategory == CategorySlow {
		out.ToleranceNote = "slow pace is expected at this level; no pressure to speed up"
	}

	out.Explanation = fmt.Sprintf("pace ratio %.2f against the %s ideal of %.1f min/question", ratio, in.Topic.Archetype, ideal)
	if out.RushingPattern {
		out.Explanation += "; recent tests show a rushing pattern"
	}
	return out, nil
}

// #endregion analyze-v2

// #region helpers

func idealFor(a contextdata.Archetype) float64 {
	if m, ok := archetypeIdealMinutes[a]; ok {
		return m
	}
	return IdealMinutesPerQuestion
}

func categorize(ratio, successRate float64) (Category, float64) {
	switch {
	case ratio < fastBar:
		if successRate >= fastSuccessBar {
			return CategoryFast, fastModifier
		}
		return CategoryFast, 1.0
	case ratio > slowBar:
		return CategorySlow, slowModifier
	default:
		return CategoryNormal, 1.0
	}
}

// rushingStreak fires when the newest tests are all fast and the student is
// not succeeding: speed without accuracy, sustained.
func rushingStreak(h contextdata.StudentHistory) bool {
	if len(h.RecentPaceRatios) < rushingStreakMin {
		return false
	}
	for _, r := range h.RecentPaceRatios[:rushingStreakMin] {
		if r >= fastBar {
			return false
		}
	}
	return h.AvgSuccessRate < rushingSuccessBar*100
}

// #endregion helpers

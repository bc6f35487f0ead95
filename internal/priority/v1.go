package priority

import (
	"sort"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region constants

const (
	gapWeightBlank   = 4.0
	gapWeightWrong   = 2.5
	gapWeightFailure = 1.5
	gapMax           = 8.0

	strategicMax = 10.0
	rawMax       = 10000.0

	idealMinutesPerQuestion = 1.5
	fastPaceBar             = 0.7  // below 70% of ideal time per question
	slowPaceBar             = 1.3  // above 130%
	fastSuccessBar          = 0.8  // fast only discounts for successful students
	fastMultiplier          = 0.8
	slowMultiplier          = 1.25

	// AbsoluteFloor keeps a uniformly strong student's weakest topic from
	// reading as urgent: high normalized rank with a raw score under the
	// floor is forced to LOW.
	AbsoluteFloor = 15.0
)

// #endregion

// #region rank-batch

// RankBatch scores every topic, min-max normalizes within the batch, applies
// the floor guard and the critical promotion, and returns the batch sorted
// descending by normalized score.
func RankBatch(topics []TopicInput) []TopicScore {
	scores := make([]TopicScore, len(topics))
	raws := make([]float64, len(topics))
	for i, t := range topics {
		scores[i] = scoreTopic(t)
		raws[i] = scores[i].RawScore
	}

	normalized := engine.MinMaxNormalize(raws)
	for i := range scores {
		scores[i].NormalizedScore = normalized[i]
		scores[i].Level = levelFor(normalized[i])
		applyGuards(&scores[i])
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].NormalizedScore != scores[j].NormalizedScore {
			return scores[i].NormalizedScore > scores[j].NormalizedScore
		}
		if scores[i].RawScore != scores[j].RawScore {
			return scores[i].RawScore > scores[j].RawScore
		}
		return scores[i].TopicID < scores[j].TopicID
	})
	return scores
}

// #endregion rank-batch

// #region score-topic

// scoreTopic computes one topic's raw priority.
func scoreTopic(t TopicInput) TopicScore {
	rates := engine.SampleRates(t.Sample)
	failureRate := engine.Clamp01(1 - t.SuccessRate)

	gap := engine.WeightedSum([]engine.WeightedTerm{
		{Weight: gapWeightBlank, Value: rates.Blank},
		{Weight: gapWeightWrong, Value: rates.Wrong},
		{Weight: gapWeightFailure, Value: failureRate},
	})
	if gap > gapMax {
		gap = gapMax
	}

	weight := t.TopicWeight
	if weight <= 0 {
		weight = 1.0
	}
	importance := t.CourseImportance
	if importance <= 0 {
		importance = 1.0
	}
	strategic := weight * importance
	if strategic > strategicMax {
		strategic = strategicMax
	}

	speed := speedMultiplier(t)

	raw := gap * strategic * speed * 100
	if raw > rawMax {
		raw = rawMax
	}

	return TopicScore{
		TopicID:         t.TopicID,
		RawScore:        raw,
		GapScore:        gap,
		StrategicValue:  strategic,
		SpeedMultiplier: speed,
	}
}

// speedMultiplier raises priority for slow workers and discounts topics a
// strong student races through.
func speedMultiplier(t TopicInput) float64 {
	if t.QuestionCount <= 0 || t.DurationMinutes <= 0 {
		return 1.0
	}
	perQuestion := t.DurationMinutes / float64(t.QuestionCount)
	ratio := perQuestion / idealMinutesPerQuestion
	switch {
	case ratio > slowPaceBar:
		return slowMultiplier
	case ratio < fastPaceBar && t.SuccessRate > fastSuccessBar:
		return fastMultiplier
	default:
		return 1.0
	}
}

// #endregion score-topic

// #region guards

// levelFor bands a normalized priority score.
func levelFor(normalized float64) Level {
	switch {
	case normalized < 40:
		return LevelLow
	case normalized < 75:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// applyGuards enforces the absolute floor and the critical promotion.
func applyGuards(s *TopicScore) {
	if s.NormalizedScore >= 70 && s.RawScore < AbsoluteFloor {
		s.Level = LevelLow
		if s.NormalizedScore > 45 {
			s.NormalizedScore = 45
		}
		s.FloorGuardApplied = true
		return
	}
	if s.Level == LevelHigh && s.RawScore > 2*AbsoluteFloor {
		s.Level = LevelCritical
	}
}

// #endregion guards

package retention

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region constants

const (
	heroScoreMin      = 0.7  // minimum score to qualify for HERO
	resetScoreMax     = 0.35 // below this the schedule resets
	heroEaseBonus     = 0.1
	resetEasePenalty  = 0.2
	normalEaseSlope   = 0.15
	heroIntervalBoost = 1.2
	hintEaseStep      = 0.1 // ease reduction per difficulty-hint point on NEW
)

// #endregion

// #region score-v1

// ScoreV1 is the pure v1 spaced-repetition function. The four states are
// evaluated in precedence order NEW → HERO → RESET → NORMAL. Invalid
// samples return a fixed neutral response, never an error.
func ScoreV1(in Input) Result {
	if !in.Sample.Valid() {
		return Result{
			Status:          StatusNormal,
			EaseFactor:      EaseDefault,
			IntervalDays:    1,
			RepetitionCount: repetitions(in.Prior),
			Score:           0.5,
			Explanation:     "neutral schedule: sample had no questions",
		}
	}

	score := sampleScore(in.Sample)
	prior := priorState(in.Prior)

	// 1. NEW — first ever review of this topic.
	if prior.RepetitionCount == 0 {
		hint := engine.Clamp(float64(in.Sample.DifficultyHint), 0, 5)
		ease := engine.Clamp(EaseDefault-hint*hintEaseStep, EaseMin, EaseMax)
		return Result{
			Status:          StatusNew,
			EaseFactor:      ease,
			IntervalDays:    1,
			RepetitionCount: 1,
			Score:           score,
			Explanation:     fmt.Sprintf("first review: ease seeded at %.2f from difficulty hint", ease),
		}
	}

	// 2. HERO — strong recall after reviewing later than scheduled.
	if score >= heroScoreMin && in.DaysSinceLastReview > prior.IntervalDays {
		ease := engine.Clamp(prior.EaseFactor+heroEaseBonus, EaseMin, EaseMax)
		interval := prior.IntervalDays * ease * heroIntervalBoost
		return Result{
			Status:          StatusHero,
			EaseFactor:      ease,
			IntervalDays:    interval,
			RepetitionCount: prior.RepetitionCount + 1,
			Score:           score,
			Explanation: fmt.Sprintf("recalled after a %.0f-day gap (scheduled %.0f): interval boosted to %.1f days",
				in.DaysSinceLastReview, prior.IntervalDays, interval),
		}
	}

	// 3. RESET — recall failed badly enough to restart the schedule.
	if score < resetScoreMax {
		ease := engine.Clamp(prior.EaseFactor-resetEasePenalty, EaseMin, EaseMax)
		return Result{
			Status:          StatusReset,
			EaseFactor:      ease,
			IntervalDays:    1,
			RepetitionCount: 1,
			Score:           score,
			Explanation:     fmt.Sprintf("score %.2f below %.2f: schedule reset to 1 day", score, resetScoreMax),
		}
	}

	// 4. NORMAL — routine adjustment around the 0.5 midpoint.
	ease := engine.Clamp(prior.EaseFactor+(score-0.5)*normalEaseSlope, EaseMin, EaseMax)
	interval := prior.IntervalDays * ease
	if interval < 1 {
		interval = 1
	}
	return Result{
		Status:          StatusNormal,
		EaseFactor:      ease,
		IntervalDays:    interval,
		RepetitionCount: prior.RepetitionCount + 1,
		Score:           score,
		Explanation:     fmt.Sprintf("next review in %.1f days at ease %.2f", interval, ease),
	}
}

// #endregion score-v1

// #region helpers

// sampleScore penalizes wrong answers at a quarter of a correct answer.
func sampleScore(s engine.PerformanceSample) float64 {
	raw := float64(s.Correct) - 0.25*float64(s.Wrong)
	if raw < 0 {
		raw = 0
	}
	return raw / float64(s.EffectiveTotal())
}

func priorState(p *engine.RetentionState) engine.RetentionState {
	if p == nil {
		return engine.RetentionState{EaseFactor: EaseDefault}
	}
	st := *p
	if st.EaseFactor == 0 {
		st.EaseFactor = EaseDefault
	}
	return st
}

func repetitions(p *engine.RetentionState) int {
	if p == nil {
		return 0
	}
	return p.RepetitionCount
}

// #endregion helpers

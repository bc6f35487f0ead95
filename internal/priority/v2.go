package priority

import (
	"fmt"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region features

// Feature flags recognized by the enricher.
const (
	FeaturePrereqCascade = "prerequisite_cascade"
	FeatureCrossSynergy  = "cross_subject_synergy"
)

// #endregion

// #region enricher

// TopicLookup resolves a topic's context. Implementations are expected to
// be failure-safe and return a defaulted context when data is missing.
type TopicLookup func(topicID string) contextdata.TopicContext

// Enricher adds v2 advisory context on top of v1 scores. One Enricher is
// built per request; its topic cache prevents duplicate lookups within a
// batch. v1 scores are never modified.
type Enricher struct {
	lookup   TopicLookup
	features map[string]bool
	cache    map[string]contextdata.TopicContext
}

// NewEnricher builds a per-request enricher.
func NewEnricher(lookup TopicLookup, features map[string]bool) *Enricher {
	return &Enricher{
		lookup:   lookup,
		features: features,
		cache:    make(map[string]contextdata.TopicContext),
	}
}

func (e *Enricher) topic(topicID string) contextdata.TopicContext {
	if tc, ok := e.cache[topicID]; ok {
		return tc
	}
	tc := e.lookup(topicID)
	e.cache[topicID] = tc
	return tc
}

// #endregion enricher

// #region enrich-batch

// EnrichBatch enriches every ranked topic. A failure for one topic degrades
// that topic to its bare v1 score; it never aborts the batch.
func (e *Enricher) EnrichBatch(scores []TopicScore, seg segment.Segment) []EnrichedTopic {
	out := make([]EnrichedTopic, len(scores))
	for i, s := range scores {
		out[i] = e.enrichOne(s, seg)
	}
	return out
}

func (e *Enricher) enrichOne(s TopicScore, seg segment.Segment) EnrichedTopic {
	et := EnrichedTopic{
		TopicScore:        s,
		UrgencyAdjustment: AdjustNeutral,
		MessageTone:       toneFor(seg.Level),
	}

	tc := e.topic(s.TopicID)
	if tc.Defaulted {
		et.InterpretedUrgency = interpret(s.Level, AdjustNeutral)
		et.SuggestedSessionMinutes, et.SuggestedQuestionCount = suggest(s.Level)
		et.EnrichmentFailed = true
		return et
	}

	et.UrgencyAdjustment = adjustmentFor(s.Level, seg.Level, tc.Archetype)
	et.InterpretedUrgency = interpret(s.Level, et.UrgencyAdjustment)
	et.SuggestedSessionMinutes, et.SuggestedQuestionCount = suggest(s.Level)

	if e.features[FeaturePrereqCascade] {
		et.Notes = append(et.Notes, cascadeNotes(s, tc)...)
	}
	if e.features[FeatureCrossSynergy] {
		et.Notes = append(et.Notes, synergyNotes(s, tc)...)
	}
	return et
}

// #endregion enrich-batch

// #region adjustment

// adjustmentFor biases urgency by segment and archetype: struggling students
// see foundational gaps elevated, strong students see minor topics relaxed.
func adjustmentFor(level Level, seg segment.Level, arch contextdata.Archetype) Adjustment {
	switch {
	case seg.Rank() <= 2 && arch == contextdata.ArchetypeFoundational &&
		(level == LevelHigh || level == LevelCritical):
		return AdjustElevated
	case seg.Rank() >= 6 && level == LevelLow:
		return AdjustRelaxed
	default:
		return AdjustNeutral
	}
}

// interpret collapses the v1 level plus the adjustment into the simplified
// urgency signal.
func interpret(level Level, adj Adjustment) Urgency {
	base := UrgencyModerate
	switch level {
	case LevelLow:
		base = UrgencyLow
	case LevelHigh, LevelCritical:
		base = UrgencyHigh
	}
	switch {
	case adj == AdjustElevated && base == UrgencyLow:
		return UrgencyModerate
	case adj == AdjustElevated && base == UrgencyModerate:
		return UrgencyHigh
	case adj == AdjustRelaxed && base == UrgencyHigh:
		return UrgencyModerate
	case adj == AdjustRelaxed && base == UrgencyModerate:
		return UrgencyLow
	default:
		return base
	}
}

// toneFor keys the message tone to the student's segment.
func toneFor(seg segment.Level) string {
	switch {
	case seg.Rank() <= 2:
		return "encouraging"
	case seg.Rank() >= 6:
		return "challenge"
	default:
		return "direct"
	}
}

// suggest proposes a session length and question count per priority level.
func suggest(level Level) (minutes, questions int) {
	switch level {
	case LevelCritical:
		return 30, 12
	case LevelHigh:
		return 25, 12
	case LevelMedium:
		return 20, 12
	default:
		return 15, 8
	}
}

// #endregion adjustment

// #region detectors

// cascadeNotes warns when an urgent topic sits on weak prerequisites.
func cascadeNotes(s TopicScore, tc contextdata.TopicContext) []string {
	if s.Level != LevelHigh && s.Level != LevelCritical {
		return nil
	}
	var notes []string
	for _, p := range tc.Prerequisites {
		if p.HasMastery && p.Mastery < 60 {
			notes = append(notes, fmt.Sprintf("prerequisite %s mastery %.0f: review it before %s", p.TopicID, p.Mastery, s.TopicID))
		}
	}
	return notes
}

// synergyNotes is an extension point for cross-subject synergy hints. The
// mastery data it needs is not populated yet, so it emits nothing.
func synergyNotes(TopicScore, contextdata.TopicContext) []string {
	return nil
}

// #endregion detectors

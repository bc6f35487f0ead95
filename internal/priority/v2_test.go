package priority

import (
	"testing"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/segment"
)

func staticLookup(contexts map[string]contextdata.TopicContext) TopicLookup {
	return func(topicID string) contextdata.TopicContext {
		if tc, ok := contexts[topicID]; ok {
			return tc
		}
		return contextdata.DefaultTopicContext(topicID)
	}
}

func TestEnrichPreservesScores(t *testing.T) {
	scores := []TopicScore{
		{TopicID: "a", RawScore: 900, NormalizedScore: 100, Level: LevelHigh},
		{TopicID: "b", RawScore: 100, NormalizedScore: 0, Level: LevelLow},
	}
	e := NewEnricher(staticLookup(map[string]contextdata.TopicContext{
		"a": {TopicID: "a", Archetype: contextdata.ArchetypeMixed},
		"b": {TopicID: "b", Archetype: contextdata.ArchetypeMixed},
	}), nil)
	got := e.EnrichBatch(scores, segment.Segment{Level: segment.L4})
	for i := range got {
		if got[i].TopicScore != scores[i] {
			t.Fatalf("enrichment modified score %d: %+v", i, got[i].TopicScore)
		}
	}
}

func TestEnrichUrgencyAdjustment(t *testing.T) {
	contexts := map[string]contextdata.TopicContext{
		"found": {TopicID: "found", Archetype: contextdata.ArchetypeFoundational},
		"extra": {TopicID: "extra", Archetype: contextdata.ArchetypeSynthesis},
	}

	// A struggling student's foundational high-priority gap is elevated.
	e := NewEnricher(staticLookup(contexts), nil)
	got := e.EnrichBatch([]TopicScore{{TopicID: "found", Level: LevelHigh}}, segment.Segment{Level: segment.L1})
	if got[0].UrgencyAdjustment != AdjustElevated {
		t.Fatalf("adjustment = %s, want ELEVATED", got[0].UrgencyAdjustment)
	}
	if got[0].InterpretedUrgency != UrgencyHigh {
		t.Fatalf("urgency = %s, want HIGH", got[0].InterpretedUrgency)
	}
	if got[0].MessageTone != "encouraging" {
		t.Fatalf("tone = %q, want encouraging", got[0].MessageTone)
	}

	// A strong student's low-priority topic is relaxed.
	e = NewEnricher(staticLookup(contexts), nil)
	got = e.EnrichBatch([]TopicScore{{TopicID: "extra", Level: LevelLow}}, segment.Segment{Level: segment.L7})
	if got[0].UrgencyAdjustment != AdjustRelaxed {
		t.Fatalf("adjustment = %s, want RELAXED", got[0].UrgencyAdjustment)
	}
	if got[0].MessageTone != "challenge" {
		t.Fatalf("tone = %q, want challenge", got[0].MessageTone)
	}
}

func TestEnrichDefaultedContextDegrades(t *testing.T) {
	e := NewEnricher(staticLookup(nil), nil)
	got := e.EnrichBatch([]TopicScore{{TopicID: "missing", Level: LevelMedium}}, segment.Segment{Level: segment.L3})
	if !got[0].EnrichmentFailed {
		t.Fatal("enrichment_failed not set for a defaulted context")
	}
	if got[0].UrgencyAdjustment != AdjustNeutral {
		t.Fatalf("adjustment = %s, want NEUTRAL", got[0].UrgencyAdjustment)
	}
}

func TestCascadeNotesFeatureFlagged(t *testing.T) {
	contexts := map[string]contextdata.TopicContext{
		"calc": {
			TopicID:   "calc",
			Archetype: contextdata.ArchetypeFormulaHeavy,
			Prerequisites: []contextdata.Prerequisite{
				{TopicID: "algebra", Strength: 0.9, Mastery: 40, HasMastery: true},
			},
		},
	}
	scores := []TopicScore{{TopicID: "calc", Level: LevelCritical}}

	// Off by default.
	e := NewEnricher(staticLookup(contexts), nil)
	got := e.EnrichBatch(scores, segment.Segment{Level: segment.L3})
	if len(got[0].Notes) != 0 {
		t.Fatalf("notes = %v, want none with the flag off", got[0].Notes)
	}

	// On: the weak prerequisite is called out.
	e = NewEnricher(staticLookup(contexts), map[string]bool{FeaturePrereqCascade: true})
	got = e.EnrichBatch(scores, segment.Segment{Level: segment.L3})
	if len(got[0].Notes) != 1 {
		t.Fatalf("notes = %v, want one cascade note", got[0].Notes)
	}
}

func TestEnrichCachesLookups(t *testing.T) {
	calls := 0
	lookup := func(topicID string) contextdata.TopicContext {
		calls++
		return contextdata.TopicContext{TopicID: topicID}
	}
	e := NewEnricher(lookup, nil)
	scores := []TopicScore{{TopicID: "same"}, {TopicID: "same"}, {TopicID: "same"}}
	e.EnrichBatch(scores, segment.Segment{Level: segment.L4})
	if calls != 1 {
		t.Fatalf("lookup called %d times, want 1", calls)
	}
}

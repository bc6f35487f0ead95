package contextdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quizmill/scoring-core/internal/logging"
)

// fakeReader counts calls and optionally fails every read.
type fakeReader struct {
	fail    bool
	topicN  int
	histN   int
	signalN int
}

func (f *fakeReader) TopicMetadata(_ context.Context, topicID string) (TopicContext, error) {
	f.topicN++
	if f.fail {
		return TopicContext{}, errors.New("store down")
	}
	return TopicContext{TopicID: topicID, Archetype: ArchetypeFoundational, DifficultyBaseline: 4}, nil
}

func (f *fakeReader) Prerequisites(_ context.Context, topicID string) ([]Prerequisite, error) {
	if f.fail {
		return nil, errors.New("store down")
	}
	return []Prerequisite{{TopicID: "base-" + topicID, Strength: 0.8}}, nil
}

func (f *fakeReader) StudentHistory(_ context.Context, _, _ string, _ int) (StudentHistory, error) {
	f.histN++
	if f.fail {
		return StudentHistory{}, errors.New("store down")
	}
	return StudentHistory{TestCount: 7, AvgSuccessRate: 72, Trend: TrendImproving}, nil
}

func (f *fakeReader) StudentSignals(_ context.Context, _ string, _ int) (map[string]float64, error) {
	f.signalN++
	if f.fail {
		return nil, errors.New("store down")
	}
	return map[string]float64{"success_rate": 0.72}, nil
}

func newTestProvider(r Reader) *Provider {
	return NewProvider(r, DefaultConfig(), logging.NewNop())
}

func TestTopicCached(t *testing.T) {
	reader := &fakeReader{}
	p := newTestProvider(reader)
	ctx := context.Background()

	first := p.Topic(ctx, "t1")
	second := p.Topic(ctx, "t1")
	if reader.topicN != 1 {
		t.Fatalf("reader hit %d times, want 1", reader.topicN)
	}
	if first.TopicID != second.TopicID || len(first.Prerequisites) != 1 {
		t.Fatalf("cached topic mismatch: %+v vs %+v", first, second)
	}
	if first.Defaulted {
		t.Fatal("healthy read flagged as defaulted")
	}
}

func TestTopicFailureSubstitutesDefault(t *testing.T) {
	p := newTestProvider(&fakeReader{fail: true})
	got := p.Topic(context.Background(), "t9")
	if !got.Defaulted {
		t.Fatal("defaulted flag not set")
	}
	if got.Archetype != ArchetypeMixed || got.DifficultyBaseline != 5.0 {
		t.Fatalf("default context = %+v", got)
	}
	if got.TopicID != "t9" {
		t.Fatalf("topic id = %q", got.TopicID)
	}
}

func TestHistoryFailureSubstitutesDefault(t *testing.T) {
	p := newTestProvider(&fakeReader{fail: true})
	got := p.History(context.Background(), "stu-1", "", 90)
	if !got.Defaulted {
		t.Fatal("defaulted flag not set")
	}
	if got.Trend != TrendUnknown {
		t.Fatalf("trend = %s, want unknown", got.Trend)
	}
}

func TestSignalsFailureFlagged(t *testing.T) {
	p := newTestProvider(&fakeReader{fail: true})
	sig, ok := p.Signals(context.Background(), "stu-1", 30)
	if ok {
		t.Fatal("ok = true for a failing store")
	}
	if len(sig) != 0 {
		t.Fatalf("signals = %v, want empty", sig)
	}
}

func TestFailedReadsAreNotCached(t *testing.T) {
	reader := &fakeReader{fail: true}
	p := newTestProvider(reader)
	ctx := context.Background()

	p.Topic(ctx, "t1")
	reader.fail = false
	got := p.Topic(ctx, "t1")
	if got.Defaulted {
		t.Fatal("recovered store still serving the default")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTTLCache(300 * time.Second)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.put("k", 1)
	if _, ok := c.get("k"); !ok {
		t.Fatal("fresh entry missing")
	}

	c.now = func() time.Time { return base.Add(301 * time.Second) }
	if _, ok := c.get("k"); ok {
		t.Fatal("entry served past its TTL")
	}
}

package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/difficulty"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/logging"
	"github.com/quizmill/scoring-core/internal/pace"
	"github.com/quizmill/scoring-core/internal/priority"
	"github.com/quizmill/scoring-core/internal/retention"
	"github.com/quizmill/scoring-core/internal/runner"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region state-store

// StateStore is the retention-state persistence the orchestrator needs.
// ok=false from RetentionState means no prior state exists for the pair.
type StateStore interface {
	RetentionState(ctx context.Context, studentID, topicID string) (engine.RetentionState, bool, error)
	SaveRetentionState(ctx context.Context, studentID, topicID string, st engine.RetentionState, forgettingRate float64) error
}

// #endregion

// #region types

// SubmissionInput is one scored test submission.
type SubmissionInput struct {
	StudentID string
	TopicID   string
	Tier      string
	Sample    engine.PerformanceSample
}

// SubmissionResult is the merged four-engine result. Engines fill separate
// fields; merge order never depends on completion order. Errors annotates
// per-engine degradations without failing the submission.
type SubmissionResult struct {
	SubmissionID string          `json:"submission_id"`
	StudentID    string          `json:"student_id"`
	TopicID      string          `json:"topic_id"`
	Tier         string          `json:"tier"`
	Segment      segment.Segment `json:"segment"`

	Retention  engine.Envelope `json:"retention"`
	Difficulty engine.Envelope `json:"difficulty"`
	Priority   engine.Envelope `json:"priority"`
	Pace       engine.Envelope `json:"pace"`

	Errors           []engine.Error `json:"errors,omitempty"`
	ContextDefaulted bool           `json:"context_defaulted"`
	ElapsedMS        int64          `json:"elapsed_ms"`
}

// #endregion types

// #region orchestrator

const (
	historyDaysBack   = 90
	signalsWindowDays = 30
)

// Orchestrator fans one submission out to the four engines. Shared context
// is fetched once per submission, not once per engine.
type Orchestrator struct {
	provider   *contextdata.Provider
	classifier *segment.Classifier
	runner     *runner.Runner
	states     StateStore
	log        *logging.Logger
}

// New wires an orchestrator. states may be nil when retention state is not
// persisted (replay and dry-run paths).
func New(provider *contextdata.Provider, classifier *segment.Classifier, r *runner.Runner, states StateStore, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Orchestrator{
		provider:   provider,
		classifier: classifier,
		runner:     r,
		states:     states,
		log:        log,
	}
}

// #endregion orchestrator

// #region score-submission

// ScoreSubmission runs all four engines for one submission and merges their
// envelopes. A failing engine degrades its own field and adds an error
// annotation; it never aborts the others.
func (o *Orchestrator) ScoreSubmission(ctx context.Context, in SubmissionInput) SubmissionResult {
	start := time.Now()

	topic := o.provider.Topic(ctx, in.TopicID)
	// Retention's gates and forgetting rate are per (student, topic); the
	// classifier and the other engines read the student-wide aggregate.
	history := o.provider.History(ctx, in.StudentID, "", historyDaysBack)
	topicHistory := o.provider.History(ctx, in.StudentID, in.TopicID, historyDaysBack)
	signals, signalsOK := o.provider.Signals(ctx, in.StudentID, signalsWindowDays)

	seg := o.classifier.Classify(segment.Input{
		Signals:      signals,
		TestCount:    history.TestCount,
		OverdueCount: history.OverdueTopics,
	})

	prior, hadPrior := o.priorState(ctx, in)

	res := SubmissionResult{
		SubmissionID:     uuid.NewString(),
		StudentID:        in.StudentID,
		TopicID:          in.TopicID,
		Tier:             in.Tier,
		Segment:          seg,
		ContextDefaulted: topic.Defaulted || history.Defaulted || !signalsOK,
	}

	paceIn := pace.V2Input{
		Input: pace.Input{
			DurationMinutes: in.Sample.DurationSeconds / 60,
			QuestionCount:   in.Sample.Total,
			SuccessRate:     successRate(in.Sample),
		},
		Topic:   topic,
		History: history,
		Segment: seg,
	}

	// The pure v1 pace pass runs up front so its careless flag reaches
	// retention's integrity check; the pace engine still runs in the fan-out.
	var anomalies []string
	if pace.AnalyzeV1(paceIn.Input).Careless {
		anomalies = append(anomalies, "careless_speed")
	}

	retIn := retention.V2Input{
		Input: retention.Input{
			Sample:              in.Sample,
			Prior:               prior,
			DaysSinceLastReview: daysSince(topicHistory.LastTestAt, in.Sample.Timestamp),
		},
		Topic:          topic,
		History:        topicHistory,
		Segment:        seg,
		FirstTestOfDay: firstTestOfDay(topicHistory.LastTestAt, in.Sample.Timestamp),
		AnomalyFlags:   anomalies,
	}
	diffIn := difficulty.V2Input{
		Input: difficulty.Input{
			Sample:             in.Sample,
			RecentSuccessRates: history.RecentScores,
		},
		Topic:   topic,
		History: history,
		Segment: seg,
	}
	prioTopics := []priority.TopicInput{topicInput(in, topic)}

	lookup := func(topicID string) contextdata.TopicContext {
		return o.provider.Topic(ctx, topicID)
	}

	// The four invocations share no mutable state: each writes its own
	// result field. The runner never returns an error, so the group exists
	// for the fan-out, not for error short-circuiting.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Retention = o.runner.ScoreRetention(gctx, in.StudentID, in.Tier, retIn)
		return nil
	})
	g.Go(func() error {
		res.Difficulty = o.runner.ScoreDifficulty(gctx, in.StudentID, in.Tier, diffIn)
		return nil
	})
	g.Go(func() error {
		res.Priority = o.runner.RankPriority(gctx, in.StudentID, in.Tier, prioTopics, seg, lookup)
		return nil
	})
	g.Go(func() error {
		res.Pace = o.runner.AnalyzePace(gctx, in.StudentID, in.Tier, paceIn)
		return nil
	})
	g.Wait()

	res.Errors = collectErrors(res)
	o.persistRetention(ctx, in, res.Retention, hadPrior)

	res.ElapsedMS = time.Since(start).Milliseconds()
	return res
}

// #endregion score-submission

// #region rank-topics

// RankTopics runs the priority engine alone over a topic batch.
func (o *Orchestrator) RankTopics(ctx context.Context, studentID, tier string, topics []priority.TopicInput) engine.Envelope {
	history := o.provider.History(ctx, studentID, "", historyDaysBack)
	signals, _ := o.provider.Signals(ctx, studentID, signalsWindowDays)
	seg := o.classifier.Classify(segment.Input{
		Signals:      signals,
		TestCount:    history.TestCount,
		OverdueCount: history.OverdueTopics,
	})
	lookup := func(topicID string) contextdata.TopicContext {
		return o.provider.Topic(ctx, topicID)
	}
	return o.runner.RankPriority(ctx, studentID, tier, topics, seg, lookup)
}

// #endregion rank-topics

// #region derivations

func (o *Orchestrator) priorState(ctx context.Context, in SubmissionInput) (*engine.RetentionState, bool) {
	if o.states == nil {
		return nil, false
	}
	st, ok, err := o.states.RetentionState(ctx, in.StudentID, in.TopicID)
	if err != nil {
		o.log.Warn("retention state read failed, treating topic as new",
			"student_id", in.StudentID, "topic_id", in.TopicID, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &st, true
}

// persistRetention writes the engine's next state back. A write failure is
// logged and dropped; the submission result already left the engines.
func (o *Orchestrator) persistRetention(ctx context.Context, in SubmissionInput, env engine.Envelope, hadPrior bool) {
	if o.states == nil {
		return
	}
	st, rate, ok := nextState(env)
	if !ok {
		return
	}
	if err := o.states.SaveRetentionState(ctx, in.StudentID, in.TopicID, st, rate); err != nil {
		o.log.Warn("retention state write failed",
			"student_id", in.StudentID, "topic_id", in.TopicID, "had_prior", hadPrior, "err", err)
	}
}

// nextState extracts the persistable state from a retention envelope.
// Skipped v2 calls produce no state change.
func nextState(env engine.Envelope) (engine.RetentionState, float64, bool) {
	switch data := env.Data.(type) {
	case retention.Result:
		return data.State(), 0, true
	case retention.V2Result:
		if data.Status == retention.StatusSkipped {
			return engine.RetentionState{}, 0, false
		}
		st := data.Base.State()
		var rate float64
		if data.Features != nil {
			st.IntervalDays = data.Features.AdjustedIntervalDays
			rate = data.Features.ForgettingRate
		}
		return st, rate, true
	default:
		return engine.RetentionState{}, 0, false
	}
}

// collectErrors turns fallback envelopes into the per-engine error list.
func collectErrors(res SubmissionResult) []engine.Error {
	var errs []engine.Error
	for _, e := range []struct {
		t   engine.Type
		env engine.Envelope
	}{
		{engine.TypeRetention, res.Retention},
		{engine.TypeDifficulty, res.Difficulty},
		{engine.TypePriority, res.Priority},
		{engine.TypePace, res.Pace},
	} {
		if e.env.FallbackUsed {
			errs = append(errs, engine.Error{
				Engine:  e.t,
				Version: e.env.VersionUsed,
				Message: e.env.FallbackReason,
			})
		}
	}
	return errs
}

// firstTestOfDay compares the previous test's calendar day (UTC) to the
// sample's.
func firstTestOfDay(last *time.Time, at time.Time) bool {
	if last == nil {
		return true
	}
	if at.IsZero() {
		at = time.Now()
	}
	ly, lm, ld := last.UTC().Date()
	y, m, d := at.UTC().Date()
	return ly != y || lm != m || ld != d
}

// daysSince returns the gap in fractional days, 0 when unknown.
func daysSince(last *time.Time, at time.Time) float64 {
	if last == nil {
		return 0
	}
	if at.IsZero() {
		at = time.Now()
	}
	days := at.Sub(*last).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

func successRate(s engine.PerformanceSample) float64 {
	return float64(s.Correct) / float64(s.EffectiveTotal())
}

func topicInput(in SubmissionInput, tc contextdata.TopicContext) priority.TopicInput {
	return priority.TopicInput{
		TopicID:          in.TopicID,
		Sample:           in.Sample,
		TopicWeight:      tc.TopicWeight,
		CourseImportance: tc.CourseImportance,
		SuccessRate:      successRate(in.Sample),
		DurationMinutes:  in.Sample.DurationSeconds / 60,
		QuestionCount:    in.Sample.Total,
	}
}

// #endregion derivations

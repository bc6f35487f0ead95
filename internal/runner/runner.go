package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/quizmill/scoring-core/internal/difficulty"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/logging"
	"github.com/quizmill/scoring-core/internal/pace"
	"github.com/quizmill/scoring-core/internal/priority"
	"github.com/quizmill/scoring-core/internal/registry"
	"github.com/quizmill/scoring-core/internal/retention"
	"github.com/quizmill/scoring-core/internal/segment"
)

// #region logger

// ExecutionLogger is the audit write the runner emits after every call.
// Implementations must tolerate failure; the runner never lets a logging
// error reach the scoring caller.
type ExecutionLogger interface {
	LogExecution(ctx context.Context, rec engine.ExecutionRecord) error
}

// #endregion

// #region runner

// Runner is the execution wrapper around the four engines. It resolves the
// version through the registry, degrades v2 failures to v1, and keeps an
// emergency v1 path that bypasses the registry when dispatch itself fails.
// No call path out of the Runner panics.
type Runner struct {
	reg   *registry.Registry
	audit ExecutionLogger
	log   *logging.Logger
}

// New builds a runner. audit may be nil when no execution log is wired.
func New(reg *registry.Registry, audit ExecutionLogger, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{reg: reg, audit: audit, log: log}
}

// #endregion runner

// #region call

// call is the per-engine request the shared dispatch operates on. runV1 must
// be total: it returns a valid result for any input. runV2 may fail.
type call struct {
	engine         engine.Type
	tier           string
	userID         string
	contextMissing bool
	runV1          func() any
	runV2          func() (any, error)
}

// dispatch runs one engine call through version resolution, fallback, and
// the emergency path.
func (r *Runner) dispatch(ctx context.Context, c call) (env engine.Envelope) {
	start := time.Now()
	var errText string

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("engine dispatch panicked, engaging emergency path",
				"engine", c.engine, "tier", c.tier, "panic", p)
			env = r.emergency(c, fmt.Sprintf("dispatch failure: %v", p))
			errText = fmt.Sprintf("panic: %v", p)
		}
		r.record(ctx, c, env, time.Since(start), errText)
	}()

	res := r.reg.Resolve(c.engine, c.tier, c.userID)

	if res.Version == engine.V1 || c.runV2 == nil {
		return engine.Envelope{
			Data:        c.runV1(),
			VersionUsed: engine.V1,
			Tier:        c.tier,
		}
	}

	if c.contextMissing {
		return engine.Envelope{
			Data:           c.runV1(),
			VersionUsed:    engine.V1,
			FallbackUsed:   true,
			FallbackReason: "required context unavailable",
			Tier:           c.tier,
		}
	}

	data, err := c.runV2()
	if err == nil {
		return engine.Envelope{
			Data:        data,
			VersionUsed: engine.V2,
			Tier:        c.tier,
		}
	}
	errText = err.Error()

	if !res.Tier.FallbackEnabled {
		r.log.Warn("v2 failed with fallback disabled, degrading anyway",
			"engine", c.engine, "tier", c.tier, "error", err)
	}
	r.log.Warn("v2 engine failed, falling back to v1",
		"engine", c.engine, "tier", c.tier, "error", err)
	return engine.Envelope{
		Data:           c.runV1(),
		VersionUsed:    engine.V1,
		FallbackUsed:   true,
		FallbackReason: err.Error(),
		Tier:           c.tier,
	}
}

// emergency calls v1 directly, bypassing the registry. Last line of defense;
// swallows its own panic rather than propagating one.
func (r *Runner) emergency(c call, reason string) (env engine.Envelope) {
	env = engine.Envelope{
		VersionUsed:    engine.V1,
		FallbackUsed:   true,
		FallbackReason: reason,
		Tier:           c.tier,
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("emergency path panicked", "engine", c.engine, "panic", p)
			env.FallbackReason = fmt.Sprintf("%s; emergency path failed: %v", reason, p)
		}
	}()
	env.Data = c.runV1()
	return env
}

// record writes the audit row. It runs after the envelope is final and never
// blocks or fails the caller.
func (r *Runner) record(ctx context.Context, c call, env engine.Envelope, elapsed time.Duration, errText string) {
	if r.audit == nil {
		return
	}
	rec := engine.ExecutionRecord{
		Engine:       c.engine,
		Version:      env.VersionUsed,
		Tier:         c.tier,
		DurationMS:   elapsed.Milliseconds(),
		FallbackUsed: env.FallbackUsed,
		Success:      errText == "",
		ErrorText:    errText,
		CreatedAt:    time.Now().UTC(),
	}
	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := r.audit.LogExecution(wctx, rec); err != nil {
			r.log.Warn("execution log write failed", "engine", c.engine, "error", err)
		}
	}()
}

// #endregion call

// #region engine-calls

// ScoreRetention runs the retention engine for one sample.
func (r *Runner) ScoreRetention(ctx context.Context, userID, tier string, in retention.V2Input) engine.Envelope {
	return r.dispatch(ctx, call{
		engine:         engine.TypeRetention,
		tier:           tier,
		userID:         userID,
		contextMissing: in.Topic.Defaulted && in.History.Defaulted,
		runV1:          func() any { return retention.ScoreV1(in.Input) },
		runV2: func() (any, error) {
			res, err := retention.ScoreV2(in)
			return res, err
		},
	})
}

// ScoreDifficulty runs the difficulty engine for one sample.
func (r *Runner) ScoreDifficulty(ctx context.Context, userID, tier string, in difficulty.V2Input) engine.Envelope {
	return r.dispatch(ctx, call{
		engine:         engine.TypeDifficulty,
		tier:           tier,
		userID:         userID,
		contextMissing: in.Topic.Defaulted && in.History.Defaulted,
		runV1:          func() any { return difficulty.ScoreV1(in.Input) },
		runV2: func() (any, error) {
			res, err := difficulty.ScoreV2(in)
			return res, err
		},
	})
}

// RankPriority ranks a batch of topics. lookup feeds the v2 enricher; seg is
// the student's current segment.
func (r *Runner) RankPriority(ctx context.Context, userID, tier string, topics []priority.TopicInput, seg segment.Segment, lookup priority.TopicLookup) engine.Envelope {
	res := r.reg.Resolve(engine.TypePriority, tier, userID)
	return r.dispatch(ctx, call{
		engine:         engine.TypePriority,
		tier:           tier,
		userID:         userID,
		contextMissing: lookup == nil,
		runV1:          func() any { return priority.RankBatch(topics) },
		runV2: func() (any, error) {
			scores := priority.RankBatch(topics)
			enricher := priority.NewEnricher(lookup, res.Tier.Features)
			return enricher.EnrichBatch(scores, seg), nil
		},
	})
}

// AnalyzePace runs the pace engine for one sample.
func (r *Runner) AnalyzePace(ctx context.Context, userID, tier string, in pace.V2Input) engine.Envelope {
	return r.dispatch(ctx, call{
		engine:         engine.TypePace,
		tier:           tier,
		userID:         userID,
		contextMissing: in.Topic.Defaulted && in.History.Defaulted,
		runV1:          func() any { return pace.AnalyzeV1(in.Input) },
		runV2: func() (any, error) {
			res, err := pace.AnalyzeV2(in)
			return res, err
		},
	})
}

// #endregion engine-calls

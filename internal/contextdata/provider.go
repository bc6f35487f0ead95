package contextdata

import (
	"context"
	"sync"
	"time"

	"github.com/quizmill/scoring-core/internal/logging"
)

// #region cache

// cacheEntry pairs a cached value with its expiry instant.
type cacheEntry struct {
	value   any
	expires time.Time
}

// ttlCache is a mutex-guarded map with timestamp expiry. Writes are
// idempotent re-derivations of the same backing data, so last-writer-wins
// is an acceptable conflict resolution.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *ttlCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

// #endregion cache

// #region provider

// Provider supplies topic metadata and student history to the v2 engines,
// with an in-process TTL cache and safe defaults when the backing store
// fails or times out.
type Provider struct {
	reader Reader
	cache  *ttlCache
	cfg    Config
	log    *logging.Logger
}

// NewProvider wires a provider over the given reader.
func NewProvider(reader Reader, cfg Config, log *logging.Logger) *Provider {
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = DefaultConfig().TTLSeconds
	}
	if cfg.FetchTimeoutMS <= 0 {
		cfg.FetchTimeoutMS = DefaultConfig().FetchTimeoutMS
	}
	return &Provider{
		reader: reader,
		cache:  newTTLCache(time.Duration(cfg.TTLSeconds) * time.Second),
		cfg:    cfg,
		log:    log,
	}
}

// fetchCtx bounds one backing-store read so a slow store cannot stall a
// whole submission.
func (p *Provider) fetchCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(p.cfg.FetchTimeoutMS)*time.Millisecond)
}

// #endregion provider

// #region topic

// Topic returns the topic's context, merging in its prerequisite links.
// On cache miss with a failing store the default context is substituted
// and flagged via TopicContext.Defaulted.
func (p *Provider) Topic(ctx context.Context, topicID string) TopicContext {
	key := "topic:" + topicID
	if v, ok := p.cache.get(key); ok {
		return v.(TopicContext)
	}

	fctx, cancel := p.fetchCtx(ctx)
	defer cancel()

	tc, err := p.reader.TopicMetadata(fctx, topicID)
	if err != nil {
		p.log.Warn("topic metadata unavailable, using default", "topic_id", topicID, "err", err)
		return DefaultTopicContext(topicID)
	}
	prereqs, err := p.reader.Prerequisites(fctx, topicID)
	if err != nil {
		p.log.Warn("prerequisites unavailable", "topic_id", topicID, "err", err)
	} else {
		tc.Prerequisites = prereqs
	}

	p.cache.put(key, tc)
	return tc
}

// #endregion topic

// #region history

// History returns the student's aggregate history for a topic (or across
// all topics when topicID is empty). Failure substitutes the flagged default.
func (p *Provider) History(ctx context.Context, studentID, topicID string, daysBack int) StudentHistory {
	key := "history:" + studentID + ":" + topicID
	if v, ok := p.cache.get(key); ok {
		return v.(StudentHistory)
	}

	fctx, cancel := p.fetchCtx(ctx)
	defer cancel()

	h, err := p.reader.StudentHistory(fctx, studentID, topicID, daysBack)
	if err != nil {
		p.log.Warn("student history unavailable, using default",
			"student_id", studentID, "topic_id", topicID, "err", err)
		return DefaultStudentHistory()
	}

	p.cache.put(key, h)
	return h
}

// #endregion history

// #region signals

// Signals returns the student's normalized signal map for the segmentation
// classifier. The second return is false when the store failed and an empty
// map was substituted.
func (p *Provider) Signals(ctx context.Context, studentID string, windowDays int) (map[string]float64, bool) {
	key := "signals:" + studentID
	if v, ok := p.cache.get(key); ok {
		return v.(map[string]float64), true
	}

	fctx, cancel := p.fetchCtx(ctx)
	defer cancel()

	sig, err := p.reader.StudentSignals(fctx, studentID, windowDays)
	if err != nil {
		p.log.Warn("student signals unavailable", "student_id", studentID, "err", err)
		return map[string]float64{}, false
	}

	p.cache.put(key, sig)
	return sig, true
}

// #endregion signals

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS topics (
	topic_id            TEXT PRIMARY KEY,
	archetype           TEXT NOT NULL DEFAULT 'mixed',
	difficulty_baseline REAL NOT NULL DEFAULT 5.0,
	topic_weight        REAL NOT NULL DEFAULT 1.0,
	course_importance   REAL NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS topic_prerequisites (
	topic_id   TEXT NOT NULL,
	prereq_id  TEXT NOT NULL,
	strength   REAL NOT NULL DEFAULT 1.0,
	mastery    REAL,
	PRIMARY KEY (topic_id, prereq_id),
	FOREIGN KEY (topic_id) REFERENCES topics(topic_id)
);

CREATE TABLE IF NOT EXISTS test_results (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id       TEXT NOT NULL,
	topic_id         TEXT NOT NULL,
	correct          INTEGER NOT NULL,
	wrong            INTEGER NOT NULL,
	blank            INTEGER NOT NULL,
	total            INTEGER NOT NULL,
	duration_seconds REAL NOT NULL DEFAULT 0,
	difficulty_hint  INTEGER NOT NULL DEFAULT 3,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_lookup
ON test_results(student_id, topic_id, created_at);

CREATE TABLE IF NOT EXISTS student_signals (
	student_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      REAL NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (student_id, name)
);

CREATE TABLE IF NOT EXISTS retention_state (
	student_id       TEXT NOT NULL,
	topic_id         TEXT NOT NULL,
	ease_factor      REAL NOT NULL,
	interval_days    REAL NOT NULL,
	repetition_count INTEGER NOT NULL,
	forgetting_rate  REAL NOT NULL DEFAULT 0,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (student_id, topic_id)
);

CREATE TABLE IF NOT EXISTS execution_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	engine_type   TEXT NOT NULL,
	version       TEXT NOT NULL,
	tier          TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	fallback_used INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL DEFAULT 1,
	error_text    TEXT,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// SQLStore is the SQLite reference implementation of the data-access
// surface: the contextdata.Reader reads plus the execution-log write.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens a SQLite database and runs migrations.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region topic-metadata

// TopicMetadata reads a topic row. Missing topics are an error; the provider
// substitutes the documented default.
func (s *SQLStore) TopicMetadata(ctx context.Context, topicID string) (contextdata.TopicContext, error) {
	var tc contextdata.TopicContext
	var arch string
	err := s.db.QueryRowContext(ctx,
		`SELECT topic_id, archetype, difficulty_baseline, topic_weight, course_importance
		 FROM topics WHERE topic_id = ?`, topicID,
	).Scan(&tc.TopicID, &arch, &tc.DifficultyBaseline, &tc.TopicWeight, &tc.CourseImportance)
	if err != nil {
		return contextdata.TopicContext{}, fmt.Errorf("topic %s: %w", topicID, err)
	}
	tc.Archetype = contextdata.Archetype(arch)
	return tc, nil
}

// Prerequisites reads a topic's prerequisite links.
func (s *SQLStore) Prerequisites(ctx context.Context, topicID string) ([]contextdata.Prerequisite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT prereq_id, strength, mastery FROM topic_prerequisites WHERE topic_id = ?`, topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("prerequisites %s: %w", topicID, err)
	}
	defer rows.Close()

	var out []contextdata.Prerequisite
	for rows.Next() {
		var p contextdata.Prerequisite
		var mastery sql.NullFloat64
		if err := rows.Scan(&p.TopicID, &p.Strength, &mastery); err != nil {
			return nil, fmt.Errorf("scan prerequisite: %w", err)
		}
		if mastery.Valid {
			p.Mastery = mastery.Float64
			p.HasMastery = true
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion topic-metadata

// #region student-history

// recentLimit caps the number of per-test rows folded into the aggregate.
const recentLimit = 10

// StudentHistory aggregates test_results into the history shape the v2
// engines consume. topicID may be empty to aggregate across all topics.
func (s *SQLStore) StudentHistory(ctx context.Context, studentID, topicID string, daysBack int) (contextdata.StudentHistory, error) {
	if daysBack <= 0 {
		daysBack = 90
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack).Format(time.RFC3339Nano)

	query := `SELECT correct, wrong, blank, total, duration_seconds, created_at
		FROM test_results
		WHERE student_id = ? AND created_at >= ?`
	args := []any{studentID, cutoff}
	if topicID != "" {
		query += ` AND topic_id = ?`
		args = append(args, topicID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return contextdata.StudentHistory{}, fmt.Errorf("history %s: %w", studentID, err)
	}
	defer rows.Close()

	var scores []float64 // newest first
	var paces []float64
	var times []time.Time
	var lastAt *time.Time
	for rows.Next() {
		var correct, wrong, blank, total int
		var duration float64
		var createdStr string
		if err := rows.Scan(&correct, &wrong, &blank, &total, &duration, &createdStr); err != nil {
			return contextdata.StudentHistory{}, fmt.Errorf("scan result: %w", err)
		}
		n := total
		if n < 1 {
			n = 1
		}
		scores = append(scores, float64(correct)/float64(n))
		if duration > 0 && total > 0 {
			ideal := float64(total) * 90 // 1.5 min per question, in seconds
			paces = append(paces, duration/ideal)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdStr); err == nil {
			times = append(times, t)
		}
	}
	if len(times) > 0 {
		newest := times[0]
		lastAt = &newest
	}
	if err := rows.Err(); err != nil {
		return contextdata.StudentHistory{}, err
	}

	h := contextdata.StudentHistory{
		TestCount:  len(scores),
		Trend:      trendOf(scores),
		LastTestAt: lastAt,
	}
	if len(scores) > 0 {
		var sum float64
		for _, sc := range scores {
			sum += sc
		}
		h.AvgSuccessRate = 100 * sum / float64(len(scores))
	}
	h.RecentScores = firstN(scores, recentLimit)
	h.RecentPaceRatios = firstN(paces, recentLimit)
	if len(times) >= 2 {
		span := times[0].Sub(times[len(times)-1]).Hours() / 24
		h.AvgDaysBetweenTests = span / float64(len(times)-1)
	}

	if topicID != "" {
		var k float64
		err := s.db.QueryRowContext(ctx,
			`SELECT forgetting_rate FROM retention_state WHERE student_id = ? AND topic_id = ?`,
			studentID, topicID,
		).Scan(&k)
		if err == nil {
			h.ForgettingRate = k
		}
	}

	return h, nil
}

// trendOf compares the newer half of scores against the older half.
// Fewer than 4 tests is unknown.
func trendOf(scores []float64) contextdata.Trend {
	if len(scores) < 4 {
		return contextdata.TrendUnknown
	}
	mid := len(scores) / 2
	newer := avg(scores[:mid]) // scores are newest first
	older := avg(scores[mid:])
	switch {
	case newer-older >= 0.05:
		return contextdata.TrendImproving
	case older-newer >= 0.05:
		return contextdata.TrendDeclining
	default:
		return contextdata.TrendStable
	}
}

func avg(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func firstN(vals []float64, n int) []float64 {
	if len(vals) <= n {
		return vals
	}
	return vals[:n]
}

// #endregion student-history

// #region student-signals

// StudentSignals reads the normalized signal map for the classifier.
func (s *SQLStore) StudentSignals(ctx context.Context, studentID string, windowDays int) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM student_signals WHERE student_id = ?`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("signals %s: %w", studentID, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// #endregion student-signals

// #region retention-state

// RetentionState reads the persisted spaced-repetition state for one
// (student, topic) pair. ok=false when no state exists yet.
func (s *SQLStore) RetentionState(ctx context.Context, studentID, topicID string) (engine.RetentionState, bool, error) {
	var st engine.RetentionState
	err := s.db.QueryRowContext(ctx,
		`SELECT ease_factor, interval_days, repetition_count
		 FROM retention_state WHERE student_id = ? AND topic_id = ?`,
		studentID, topicID,
	).Scan(&st.EaseFactor, &st.IntervalDays, &st.RepetitionCount)
	if err == sql.ErrNoRows {
		return engine.RetentionState{}, false, nil
	}
	if err != nil {
		return engine.RetentionState{}, false, fmt.Errorf("retention state: %w", err)
	}
	return st, true, nil
}

// SaveRetentionState upserts the spaced-repetition state after a scoring call.
func (s *SQLStore) SaveRetentionState(ctx context.Context, studentID, topicID string, st engine.RetentionState, forgettingRate float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO retention_state
		 (student_id, topic_id, ease_factor, interval_days, repetition_count, forgetting_rate, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(student_id, topic_id) DO UPDATE SET
		   ease_factor = excluded.ease_factor,
		   interval_days = excluded.interval_days,
		   repetition_count = excluded.repetition_count,
		   forgetting_rate = excluded.forgetting_rate,
		   updated_at = excluded.updated_at`,
		studentID, topicID, st.EaseFactor, st.IntervalDays, st.RepetitionCount,
		forgettingRate, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save retention state: %w", err)
	}
	return nil
}

// #endregion retention-state

// #region execution-log

// LogExecution appends one execution audit row. Callers treat a failed
// write as non-fatal.
func (s *SQLStore) LogExecution(ctx context.Context, rec engine.ExecutionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_log
		 (engine_type, version, tier, duration_ms, fallback_used, success, error_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Engine),
		string(rec.Version),
		rec.Tier,
		rec.DurationMS,
		boolInt(rec.FallbackUsed),
		boolInt(rec.Success),
		nullIfEmpty(rec.ErrorText),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log execution: %w", err)
	}
	return nil
}

// #endregion execution-log

// #region seed-writes

// UpsertTopic inserts or replaces a topic row. Used by seeding tools and tests.
func (s *SQLStore) UpsertTopic(ctx context.Context, topicID string, archetype contextdata.Archetype, baseline, weight, importance float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (topic_id, archetype, difficulty_baseline, topic_weight, course_importance)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(topic_id) DO UPDATE SET
		   archetype = excluded.archetype,
		   difficulty_baseline = excluded.difficulty_baseline,
		   topic_weight = excluded.topic_weight,
		   course_importance = excluded.course_importance`,
		topicID, string(archetype), baseline, weight, importance,
	)
	if err != nil {
		return fmt.Errorf("upsert topic: %w", err)
	}
	return nil
}

// LinkPrerequisite records a prerequisite edge. mastery < 0 stores NULL.
func (s *SQLStore) LinkPrerequisite(ctx context.Context, topicID, prereqID string, strength, mastery float64) error {
	var masteryPtr any
	if mastery >= 0 {
		masteryPtr = mastery
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topic_prerequisites (topic_id, prereq_id, strength, mastery)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(topic_id, prereq_id) DO UPDATE SET
		   strength = excluded.strength, mastery = excluded.mastery`,
		topicID, prereqID, strength, masteryPtr,
	)
	if err != nil {
		return fmt.Errorf("link prerequisite: %w", err)
	}
	return nil
}

// RecordTestResult appends one submission row to test_results.
func (s *SQLStore) RecordTestResult(ctx context.Context, studentID, topicID string, sample engine.PerformanceSample) error {
	at := sample.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_results
		 (student_id, topic_id, correct, wrong, blank, total, duration_seconds, difficulty_hint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		studentID, topicID, sample.Correct, sample.Wrong, sample.Blank, sample.Total,
		sample.DurationSeconds, sample.DifficultyHint, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record test result: %w", err)
	}
	return nil
}

// SetSignal upserts one normalized signal value for a student.
func (s *SQLStore) SetSignal(ctx context.Context, studentID, name string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO student_signals (student_id, name, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(student_id, name) DO UPDATE SET
		   value = excluded.value, updated_at = excluded.updated_at`,
		studentID, name, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set signal: %w", err)
	}
	return nil
}

// #endregion seed-writes

// #region helpers

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

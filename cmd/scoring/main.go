package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quizmill/scoring-core/internal/config"
	"github.com/quizmill/scoring-core/internal/contextdata"
	"github.com/quizmill/scoring-core/internal/engine"
	"github.com/quizmill/scoring-core/internal/logging"
	"github.com/quizmill/scoring-core/internal/orchestrator"
	"github.com/quizmill/scoring-core/internal/registry"
	"github.com/quizmill/scoring-core/internal/runner"
	"github.com/quizmill/scoring-core/internal/segment"
	"github.com/quizmill/scoring-core/internal/store"
)

// #region request

// request is one line of input: a submission to score.
type request struct {
	StudentID       string  `json:"student_id"`
	TopicID         string  `json:"topic_id"`
	Tier            string  `json:"tier"`
	Correct         int     `json:"correct"`
	Wrong           int     `json:"wrong"`
	Blank           int     `json:"blank"`
	Total           int     `json:"total"`
	DurationMinutes float64 `json:"duration_minutes"`
	DifficultyHint  int     `json:"difficulty_hint"`
}

// #endregion

// #region main

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (optional)")
	dbPath := flag.String("db", "", "sqlite path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := store.NewSQLStore(cfg.DBPath)
	if err != nil {
		log.Fatal("open store", "path", cfg.DBPath, "err", err)
	}
	defer st.Close()

	classifier, err := segment.NewClassifier(cfg.Segment)
	if err != nil {
		log.Fatal("segment config", "err", err)
	}

	provider := contextdata.NewProvider(st, cfg.Context, log)
	reg := registry.New(cfg.Registry)
	run := runner.New(reg, st, log)
	orch := orchestrator.New(provider, classifier, run, st, log)

	fmt.Println("Scoring core ready.")
	fmt.Printf("  DB: %s\n", cfg.DBPath)
	fmt.Println(`Paste a submission as JSON (or "quit"):`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			fmt.Fprintf(os.Stderr, "bad request: %v\n", err)
			continue
		}
		if req.Tier == "" {
			req.Tier = registry.TierFree
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sample := engine.PerformanceSample{
			Correct:         req.Correct,
			Wrong:           req.Wrong,
			Blank:           req.Blank,
			Total:           req.Total,
			DurationSeconds: req.DurationMinutes * 60,
			DifficultyHint:  req.DifficultyHint,
			Timestamp:       time.Now().UTC(),
		}
		res := orch.ScoreSubmission(ctx, orchestrator.SubmissionInput{
			StudentID: req.StudentID,
			TopicID:   req.TopicID,
			Tier:      req.Tier,
			Sample:    sample,
		})
		if err := st.RecordTestResult(ctx, req.StudentID, req.TopicID, sample); err != nil {
			log.Warn("record test result", "err", err)
		}
		cancel()

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Error("marshal result", "err", err)
			continue
		}
		fmt.Println(string(out))
	}
}

// #endregion main

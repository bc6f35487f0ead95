package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quizmill/scoring-core/internal/logging"
	"github.com/quizmill/scoring-core/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to one fixture JSON")
	dirPath := flag.String("dir", "", "directory of fixture JSON files")
	flag.Parse()

	if (*fixturePath == "" && *dirPath == "") || (*fixturePath != "" && *dirPath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --dir path/to/fixtures/")
		os.Exit(2)
	}

	var fixtures []replay.Fixture
	if *fixturePath != "" {
		f, err := replay.LoadFixture(*fixturePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load: %v\n", err)
			os.Exit(1)
		}
		fixtures = []replay.Fixture{f}
	} else {
		loaded, err := replay.LoadDir(*dirPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load: %v\n", err)
			os.Exit(1)
		}
		fixtures = loaded
	}

	harness := replay.NewHarness(logging.NewNop())
	ctx := context.Background()

	failed := 0
	for _, f := range fixtures {
		mismatches, err := harness.Run(ctx, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Name, err)
			failed++
			continue
		}
		if len(mismatches) == 0 {
			fmt.Printf("PASS %s (%d steps)\n", f.Name, len(f.Steps))
			continue
		}
		failed++
		fmt.Printf("FAIL %s\n", f.Name)
		for _, m := range mismatches {
			fmt.Printf("  %s\n", m)
		}
	}

	if failed > 0 {
		fmt.Printf("%d of %d fixtures failed\n", failed, len(fixtures))
		os.Exit(1)
	}
	fmt.Printf("%d fixtures passed\n", len(fixtures))
}

// #endregion main

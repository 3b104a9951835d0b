package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brensch/demonsnake/store"
)

func main() {
	roots := flag.String("roots", getEnvOrDefault("SNAKE_ARCHIVE", "data/runs"), "Comma separated directories of parquet run archives")
	limit := flag.Int("limit", 10, "Number of runs to list")
	source := flag.String("source", "", "Only runs from this source: human or autopilot")
	difficulty := flag.String("difficulty", "any", "any, normal or hard")
	importLog := flag.String("import-log", "", "Export this JSON-lines score history into the first root before ranking")
	flag.Parse()

	rootList := splitRoots(*roots)
	if len(rootList) == 0 {
		log.Fatalf("At least one root is required")
	}

	var hard *bool
	switch strings.ToLower(*difficulty) {
	case "any", "":
	case "normal":
		v := false
		hard = &v
	case "hard":
		v := true
		hard = &v
	default:
		log.Fatalf("Unknown difficulty %q", *difficulty)
	}

	if *importLog != "" {
		if err := importHistory(*importLog, rootList[0]); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	}

	lb, err := store.OpenLeaderboard(rootList)
	if err != nil {
		log.Fatalf("Failed to open leaderboard: %v", err)
	}
	defer lb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sum, err := lb.Summary(ctx)
	if err != nil {
		log.Fatalf("Summary query failed: %v", err)
	}
	top, err := lb.Top(ctx, store.TopQuery{Limit: *limit, Source: *source, HighDifficulty: hard})
	if err != nil {
		log.Fatalf("Top query failed: %v", err)
	}

	fmt.Printf("%d runs in %d files, best %d, mean %.1f, %d won\n\n", sum.Runs, len(lb.Files()), sum.BestScore, sum.MeanScore, sum.Won)
	fmt.Printf("%-4s %8s %6s %-8s %-10s %-5s %10s  %s\n", "#", "SCORE", "LEN", "OUTCOME", "SOURCE", "MODE", "DURATION", "STARTED")
	for i, r := range top {
		mode := "norm"
		if r.HighDifficulty {
			mode = "hard"
		}
		d := (time.Duration(r.DurationMs) * time.Millisecond).Round(100 * time.Millisecond)
		fmt.Printf("%-4d %8d %6d %-8s %-10s %-5s %10s  %s\n",
			i+1, r.Score, r.SnakeLen, r.Outcome, r.Source, mode, d, r.StartedAt().Local().Format(time.DateTime))
	}
}

func splitRoots(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// importHistory copies every run in the history file into one parquet file.
// Runs already archived are deduplicated by the leaderboard view.
func importHistory(path, outDir string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("history %s: %w", path, err)
	}
	history, err := store.OpenRunLog(path)
	if err != nil {
		return err
	}
	defer history.Close()

	runs := history.Runs()
	if len(runs) == 0 {
		log.Printf("History %s is empty; nothing to import", path)
		return nil
	}
	for i := range runs {
		if runs[i].Source == "" {
			runs[i].Source = store.SourceHuman
		}
	}
	outPath, err := store.WriteRunsParquetAtomic(outDir, runs)
	if err != nil {
		return err
	}
	log.Printf("Imported %d runs (%d malformed lines skipped) into %s", len(runs), history.Skipped(), outPath)
	return nil
}

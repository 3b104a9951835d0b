package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brensch/demonsnake/autopilot"
	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/logging"
	"github.com/brensch/demonsnake/session"
	"github.com/brensch/demonsnake/store"
)

// frameStep is the simulated time between Tick calls. Matching the terminal
// frame rate keeps autopilot runs comparable with interactive ones.
const frameStep = 10 * time.Millisecond

var (
	totalGames  atomic.Int64
	totalTicks  atomic.Int64
	bestScore   atomic.Int64
	totalWins   atomic.Int64
	totalErrors atomic.Int64
)

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("SNAKE_ARCHIVE", "data/runs"), "Output directory for parquet run batches")
	workers := flag.Int("workers", getEnvIntOrDefault("SNAKE_WORKERS", runtime.NumCPU()), "Number of parallel games")
	maxGames := flag.Int64("max-games", int64(getEnvIntOrDefault("SNAKE_MAX_GAMES", 0)), "If > 0, stop after this many games across all workers")
	flushRows := flag.Int("flush-rows", getEnvIntOrDefault("SNAKE_FLUSH_ROWS", store.DefaultFlushRows), "Runs per parquet file")
	maxDuration := flag.Duration("max-game-duration", getEnvDurationOrDefault("SNAKE_MAX_GAME_DURATION", 30*time.Minute), "Simulated time after which a game is quit")
	hard := flag.Bool("hard", getEnvBoolOrDefault("SNAKE_HARD", false), "Impossible mode")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("SNAKE_SEED", 0)), "Base seed (0 uses the clock)")
	logLevel := flag.String("log-level", getEnvOrDefault("SNAKE_LOG_LEVEL", "warn"), "Session log level")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.NewCompact(os.Stderr, level)

	cfg := session.DefaultConfig()
	cfg.HighDifficulty = *hard
	cfg.PursuerCount = session.PursuersFor(*hard)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid game settings: %v", err)
	}

	archive, err := store.NewArchive(*outDir, *flushRows)
	if err != nil {
		log.Fatalf("Failed to prepare archive: %v", err)
	}

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	log.Printf("Starting self-play with %d workers", *workers)
	log.Printf("  Out Dir: %s", *outDir)
	log.Printf("  Flush Rows: %d", *flushRows)
	log.Printf("  Base Seed: %d", baseSeed)

	records := make(chan session.RunRecord, (*workers)*4)
	writerDone := make(chan struct{})
	go func() {
		archiveWriterLoop(archive, records)
		close(writerDone)
	}()

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			for n := int64(0); ; n++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				c := cfg
				c.Seed = baseSeed + int64(workerID)*1000003 + n
				playGame(ctx, c, *maxDuration, logger, records)

				if total := totalGames.Add(1); *maxGames > 0 && total >= *maxGames {
					cancel()
				}
			}
		}(i)
	}

	startTime := time.Now()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutdown requested; waiting for workers to finish current games...")
			workerWG.Wait()
			close(records)
			<-writerDone
			log.Printf("Shutdown complete: games=%d wins=%d errors=%d best=%d files=%d",
				totalGames.Load(), totalWins.Load(), totalErrors.Load(), bestScore.Load(), len(archive.Files()))
			return
		case <-ticker.C:
			secs := time.Since(startTime).Seconds()
			log.Printf("Stats: games=%d (%.2f/s) ticks/s=%.0f best=%d wins=%d",
				totalGames.Load(), float64(totalGames.Load())/secs, float64(totalTicks.Load())/secs, bestScore.Load(), totalWins.Load())
		}
	}
}

// playGame runs one session to completion on a manual clock. Cancelling ctx
// quits the game so its record is still written.
func playGame(ctx context.Context, cfg session.Config, maxDuration time.Duration, logger *slog.Logger, records chan<- session.RunRecord) {
	clock := session.NewManualClock(time.Now())
	s, err := session.New(cfg,
		session.WithClock(clock),
		session.WithLogger(logger),
		session.WithRecorder(session.RecorderFunc(func(r session.RunRecord) error {
			records <- r
			return nil
		})),
	)
	if err != nil {
		logger.Warn("session setup failed", "seed", cfg.Seed, "err", err)
		totalErrors.Add(1)
		return
	}
	pilot := autopilot.New(s, cfg.Grid())

	deadline := clock.Now().Add(maxDuration)
	lastTicks := 0
	for {
		if ctx.Err() != nil || !clock.Now().Before(deadline) {
			s.Tick(game.Quit)
			break
		}
		clock.Advance(frameStep)
		if s.Tick(pilot.PollDirection()).Terminal() {
			break
		}
		if snap := s.Snapshot(); snap.Ticks != lastTicks {
			totalTicks.Add(int64(snap.Ticks - lastTicks))
			lastTicks = snap.Ticks
		}
	}

	rec := s.Record()
	switch rec.Outcome {
	case session.OutcomeWon:
		totalWins.Add(1)
	case session.OutcomeError:
		totalErrors.Add(1)
		logger.Warn("game aborted", "seed", cfg.Seed, "err", s.Err())
	}
	for {
		best := bestScore.Load()
		if int64(rec.Score) <= best || bestScore.CompareAndSwap(best, int64(rec.Score)) {
			break
		}
	}
}

func archiveWriterLoop(archive *store.Archive, in <-chan session.RunRecord) {
	for rec := range in {
		if err := archive.Add(store.RowFromRecord(rec, store.SourceAutopilot)); err != nil {
			log.Printf("Archive write failed (run=%s): %v", rec.ID, err)
		}
	}
	if err := archive.Close(); err != nil {
		log.Printf("Archive final flush failed: %v", err)
		return
	}
	log.Printf("Archive final flush ok: files=%d rows=%d", len(archive.Files()), archive.Rows())
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/demonsnake/audio"
	"github.com/brensch/demonsnake/logging"
	"github.com/brensch/demonsnake/session"
	"github.com/brensch/demonsnake/spectate"
	"github.com/brensch/demonsnake/store"
	"github.com/brensch/demonsnake/tui"
)

func main() {
	os.Exit(run())
}

// run is the program body. main exits with its result after the defers ran.
func run() int {
	width := flag.Int("width", getEnvIntOrDefault("SNAKE_WIDTH", 25), "Board width in cells")
	height := flag.Int("height", getEnvIntOrDefault("SNAKE_HEIGHT", 25), "Board height in cells")
	hard := flag.Bool("hard", getEnvBoolOrDefault("SNAKE_HARD", false), "Impossible mode: a hundred demons with an axis bias")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("SNAKE_SEED", 0)), "RNG seed (0 picks one from the clock for every game)")
	fat := flag.Int("fat", getEnvIntOrDefault("SNAKE_FAT", 0), "Starting fat reserve")
	historyPath := flag.String("history", getEnvOrDefault("SNAKE_HISTORY", "data/scores.jsonl"), "Append-only JSON-lines score history")
	archiveDir := flag.String("archive", getEnvOrDefault("SNAKE_ARCHIVE", "data/runs"), "Directory for parquet run archives (empty disables)")
	spectateAddr := flag.String("spectate", getEnvOrDefault("SNAKE_SPECTATE", ""), "Listen address for the websocket spectator stream, e.g. :8090")
	sound := flag.Bool("audio", getEnvBoolOrDefault("SNAKE_AUDIO", true), "Play sound cues")
	volume := flag.Float64("volume", 0.6, "Cue volume in (0, 1]")
	autopilot := flag.Bool("autopilot", getEnvBoolOrDefault("SNAKE_AUTOPILOT", false), "Start under autopilot (toggle with p)")
	logPath := flag.String("log-path", getEnvOrDefault("SNAKE_LOG", "data/snake.log"), "Log file (the terminal belongs to the game)")
	logLevel := flag.String("log-level", getEnvOrDefault("SNAKE_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Printf("Invalid log level: %v", err)
		return 2
	}
	logFile, err := logging.OpenFile(*logPath)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return 1
	}
	defer logFile.Close()
	// fail reports a startup error on the terminal rather than the log file.
	fail := func(format string, args ...any) int {
		log.SetOutput(os.Stderr)
		log.Printf(format, args...)
		return 1
	}
	log.SetOutput(logFile)
	logger := logging.NewCompact(logFile, level)
	slog.SetDefault(logger)

	cfg := session.DefaultConfig()
	cfg.GridWidth = *width
	cfg.GridHeight = *height
	cfg.HighDifficulty = *hard
	cfg.PursuerCount = session.PursuersFor(*hard)
	cfg.StartingFat = *fat
	if err := cfg.Validate(); err != nil {
		return fail("Invalid game settings: %v", err)
	}

	history, err := store.OpenRunLog(*historyPath)
	if err != nil {
		return fail("Failed to open score history: %v", err)
	}
	defer history.Close()
	if n := history.Skipped(); n > 0 {
		logger.Warn("skipped malformed history lines", "path", *historyPath, "lines", n)
	}

	recorder := &store.Recorder{Source: store.SourceHuman, Log: history}
	if *archiveDir != "" {
		archive, err := store.NewArchive(*archiveDir, store.DefaultFlushRows)
		if err != nil {
			return fail("Failed to prepare archive: %v", err)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Error("archive flush failed", "err", err)
			}
		}()
		recorder.Archive = archive
	}

	var sinks session.MultiSink
	var opts tui.Options
	opts.Autopilot = *autopilot

	if *sound {
		sp, err := audio.OpenSpeaker()
		if err != nil {
			logger.Warn("audio disabled", "err", err)
		} else {
			defer sp.Close()
			cues := audio.NewSink(sp, *volume)
			sinks = append(sinks, cues)
			opts.ToggleMute = func() bool {
				cues.SetMuted(!cues.Muted())
				return cues.Muted()
			}
		}
	}

	if *spectateAddr != "" {
		hub := spectate.NewHub(logger)
		defer hub.Close()
		mux := http.NewServeMux()
		spectate.NewServer(hub, []string{*archiveDir}).RegisterRoutes(mux)
		srv := &http.Server{Addr: *spectateAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("spectator server stopped", "addr", *spectateAddr, "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		sinks = append(sinks, hub)
		opts.Publish = hub.Publish
		logger.Info("spectator server listening", "addr", *spectateAddr, "stream", "/ws", "leaderboard", "/api/leaderboard")
	}

	games := 0
	factory := func(feed session.NotificationSink) (*session.Session, error) {
		games++
		c := cfg
		c.Seed = *seed
		if c.Seed == 0 {
			c.Seed = time.Now().UnixNano()
		} else {
			c.Seed += int64(games - 1)
		}
		return session.New(c,
			session.WithSink(append(session.MultiSink{feed}, sinks...)),
			session.WithRecorder(recorder),
			session.WithLogger(logger),
		)
	}

	model, err := tui.New(factory, opts)
	if err != nil {
		return fail("Failed to start game: %v", err)
	}
	code := 0
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("terminal program failed", "err", err)
		code = 1
	}
	if err := model.Err(); err != nil {
		logger.Error("game aborted", "err", err)
		code = 1
	}

	best := history.Best(5)
	if len(best) == 0 {
		return code
	}
	fmt.Println("Best runs:")
	for i, r := range best {
		fmt.Printf("%d. %6d  len %-4d %-7s %s\n", i+1, r.Score, r.SnakeLen, r.Outcome, r.StartedAt().Local().Format(time.DateTime))
	}
	return code
}

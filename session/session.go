// Package session runs one demon snake game: it owns the board, the rules
// state and the random source, and multiplexes the snake tick, the demon
// substep and the survival award against a single clock.
//
// A Session is not safe for concurrent use. Exactly one goroutine calls Tick.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/rules"
)

// Snapshot is a read-only copy of the visible state.
type Snapshot struct {
	Snake       []game.Point
	Food        []game.Point
	Pursuers    []game.Vec
	Score       int
	Fat         int
	DemonActive bool
	Outcome     Outcome
	Ticks       int
}

// Option configures the collaborators of a Session.
type Option func(*Session)

// WithClock sets the time source. The default is SystemClock.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithSink sets the notification sink.
func WithSink(sink NotificationSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithRecorder sets where the finished run is reported.
func WithRecorder(r RunRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is one run.
type Session struct {
	cfg  Config
	grid game.Grid
	rng  *rand.Rand

	clock    Clock
	sink     NotificationSink
	recorder RunRecorder
	log      *slog.Logger

	body    game.Body
	heading game.Direction
	engine  *rules.Engine
	food    *rules.FoodSpawner
	demons  *rules.Pursuers
	sched   *Scheduler

	ticks     int
	outcome   Outcome
	err       error
	startedAt time.Time
	endedAt   time.Time
}

// New validates cfg and sets up the board: a one cell snake in the centre
// heading right, a full food set, and the demons parked off the board.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		grid:     cfg.Grid(),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		clock:    SystemClock{},
		sink:     nopSink{},
		recorder: RecorderFunc(func(RunRecord) error { return nil }),
		heading:  game.Right,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.sink == nil {
		s.sink = nopSink{}
	}
	if s.recorder == nil {
		s.recorder = RecorderFunc(func(RunRecord) error { return nil })
	}

	s.body = game.NewBody(s.grid)
	s.engine = rules.NewEngine(cfg.StartingFat)
	s.food = rules.NewFoodSpawner(s.grid)
	if err := s.food.Fill(s.body, s.rng); err != nil {
		return nil, fmt.Errorf("place initial food: %w", err)
	}
	s.demons = rules.NewPursuers(s.grid, cfg.PursuerCount, cfg.ActivationThreshold, cfg.HighDifficulty, s.rng)

	s.startedAt = s.clock.Now()
	s.sched = NewScheduler(s.startedAt, cfg, len(s.body))

	s.log.Info("session started",
		"seed", cfg.Seed,
		"grid", fmt.Sprintf("%dx%d", cfg.GridWidth, cfg.GridHeight),
		"pursuers", cfg.PursuerCount,
		"high_difficulty", cfg.HighDifficulty,
	)
	return s, nil
}

// Tick runs one loop iteration against a single clock read.
//
// Quit wins over everything. Otherwise loss is re-checked every call, the
// demons advance when their substep is due, the survival award is paid when
// due, and the snake steps once its tick interval has elapsed. A non-move
// direction keeps the previous heading.
func (s *Session) Tick(dir game.Direction) Outcome {
	if s.outcome.Terminal() {
		return s.outcome
	}
	now := s.clock.Now()

	if dir == game.Quit {
		s.finish(now, OutcomeQuit)
		return s.outcome
	}
	if dir.IsMove() {
		s.heading = dir
	}

	if s.lost() {
		s.finish(now, OutcomeLost)
		return s.outcome
	}

	if s.sched.SubstepDue(now) {
		s.demons.Step(s.body, s.rng)
		s.notify(EventPursuerSubstep)
		if s.lost() {
			s.finish(now, OutcomeLost)
			return s.outcome
		}
	}

	if s.sched.ScoreDue(now) {
		s.engine.AddPeriodicScore()
	}

	if s.sched.TickDue(now) {
		if err := s.step(); err != nil {
			s.fail(now, err)
			return s.outcome
		}
		s.sched.Reschedule(now, len(s.body))

		switch {
		case s.lost():
			s.finish(now, OutcomeLost)
		case s.engine.IsWon(s.body, s.grid):
			s.finish(now, OutcomeWon)
		default:
			if err := s.food.Rebalance(s.body, s.rng); err != nil {
				s.fail(now, err)
			}
		}
	}
	return s.outcome
}

// step moves the snake one cell: move, eat, notify, then burn fat or drop the
// tail.
func (s *Session) step() error {
	head := game.ResolveMove(s.heading, s.body)
	s.body = game.GrowOrShift(s.body, head, true)
	s.ticks++

	if i, ok := s.engine.EatsFood(s.body, s.food.Food()); ok {
		if err := s.food.Relocate(i, s.body, s.rng); err != nil {
			return fmt.Errorf("relocate eaten food: %w", err)
		}
		s.notify(EventFoodEaten)
	} else if s.demons.Active(len(s.body)) {
		s.notify(EventDemonMove)
	}

	if !s.engine.BurnFat() {
		s.body = s.body[:len(s.body)-1]
	}
	return nil
}

func (s *Session) lost() bool {
	return s.engine.IsLost(s.body, s.demons.Positions(), s.grid)
}

func (s *Session) notify(kind EventKind) {
	s.sink.Notify(Event{
		Kind:        kind,
		DemonActive: s.demons.Active(len(s.body)),
		SnakeLen:    len(s.body),
		Score:       s.engine.Score,
	})
}

func (s *Session) fail(now time.Time, err error) {
	s.err = err
	s.log.Error("session aborted", "err", err, "snake_len", len(s.body), "ticks", s.ticks)
	s.finish(now, OutcomeError)
}

func (s *Session) finish(now time.Time, o Outcome) {
	s.outcome = o
	s.endedAt = now

	switch o {
	case OutcomeLost:
		s.notify(EventGameLost)
	case OutcomeWon:
		s.notify(EventGameWon)
	case OutcomeQuit:
		s.notify(EventGameQuit)
	}

	rec := s.Record()
	s.log.Info("session finished",
		"outcome", o.String(),
		"score", rec.Score,
		"snake_len", rec.SnakeLen,
		"duration", rec.Duration,
	)
	if err := s.recorder.RecordRun(rec); err != nil {
		s.log.Warn("record run failed", "err", err, "run_id", rec.ID)
	}
}

// Record summarises the run so far. After a terminal outcome it is the record
// handed to the RunRecorder.
func (s *Session) Record() RunRecord {
	end := s.endedAt
	if !s.outcome.Terminal() {
		end = s.clock.Now()
	}
	return RunRecord{
		ID:             fmt.Sprintf("run_%d_%d", s.startedAt.UnixNano(), s.cfg.Seed),
		Version:        GameVersion,
		Seed:           s.cfg.Seed,
		Score:          s.engine.Score,
		SnakeLen:       len(s.body),
		Outcome:        s.outcome,
		HighDifficulty: s.cfg.HighDifficulty,
		StartedAt:      s.startedAt,
		Duration:       end.Sub(s.startedAt),
	}
}

// Snapshot copies the visible state. It does not touch the clock or the
// random source.
func (s *Session) Snapshot() Snapshot {
	food := s.food.Food()
	pursuers := s.demons.Positions()
	return Snapshot{
		Snake:       s.body.Clone(),
		Food:        append([]game.Point(nil), food...),
		Pursuers:    append([]game.Vec(nil), pursuers...),
		Score:       s.engine.Score,
		Fat:         s.engine.Fat,
		DemonActive: s.demons.Active(len(s.body)),
		Outcome:     s.outcome,
		Ticks:       s.ticks,
	}
}

// Outcome is the current state of the run.
func (s *Session) Outcome() Outcome {
	return s.outcome
}

// Err is the internal error behind OutcomeError, or nil.
func (s *Session) Err() error {
	return s.err
}

// Config returns the configuration the session was built with.
func (s *Session) Config() Config {
	return s.cfg
}

// Run drives Tick from input until the run ends. Input is polled every
// PollInterval; cancelling ctx quits the run.
func (s *Session) Run(ctx context.Context, input InputProvider) (Outcome, error) {
	poll := s.cfg.PollInterval
	if poll <= 0 {
		poll = DefaultConfig().PollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if o := s.Tick(input.PollDirection()); o.Terminal() {
			return o, s.err
		}
		select {
		case <-ctx.Done():
			return s.Tick(game.Quit), s.err
		case <-ticker.C:
		}
	}
}

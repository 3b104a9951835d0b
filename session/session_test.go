package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/rules"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Notify(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recordingSink) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingSink) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type harness struct {
	s       *Session
	clock   *ManualClock
	sink    *recordingSink
	records []RunRecord
}

var testStart = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newHarness(t *testing.T, cfg Config, food []game.Point) *harness {
	t.Helper()
	h := &harness{clock: NewManualClock(testStart), sink: &recordingSink{}}
	s, err := New(cfg,
		WithClock(h.clock),
		WithSink(h.sink),
		WithRecorder(RecorderFunc(func(r RunRecord) error {
			h.records = append(h.records, r)
			return nil
		})),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if food != nil {
		if err := s.food.Reset(s.body, food); err != nil {
			t.Fatalf("reset food: %v", err)
		}
	}
	h.s = s
	return h
}

// step jumps the clock to the next snake boundary and ticks once.
func (h *harness) step(dir game.Direction) Outcome {
	h.clock.Set(h.s.sched.NextTick())
	return h.s.Tick(dir)
}

func dumpSnapshot(s Snapshot) string {
	return fmt.Sprintf("snake=%v food=%v demons=%v score=%d fat=%d outcome=%s ticks=%d",
		s.Snake, s.Food, s.Pursuers, s.Score, s.Fat, s.Outcome, s.Ticks)
}

func TestNew_InitialBoard(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil)
	snap := h.s.Snapshot()
	if len(snap.Snake) != 1 || snap.Snake[0] != (game.Point{X: 12, Y: 12}) {
		t.Fatalf("snake=%v want [(12,12)]", snap.Snake)
	}
	if len(snap.Food) != 1 || snap.Food[0] == snap.Snake[0] {
		t.Fatalf("food=%v", snap.Food)
	}
	if len(snap.Pursuers) != 1 {
		t.Fatalf("pursuers=%v", snap.Pursuers)
	}
	p := snap.Pursuers[0]
	if p.X >= 0 && p.X <= 25 && p.Y >= 0 && p.Y <= 25 {
		t.Fatalf("pursuer spawned on the board at %v", p)
	}
	if snap.DemonActive || snap.Outcome != OutcomeOngoing || snap.Score != 0 {
		t.Fatalf("unexpected start state: %s", dumpSnapshot(snap))
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpeedBounds = SpeedBounds{Lower: time.Second, Upper: time.Millisecond}
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
}

func TestTick_StepsOnlyAtBoundary(t *testing.T) {
	h := newHarness(t, DefaultConfig(), []game.Point{{X: 0, Y: 0}})

	h.clock.Advance(299 * time.Millisecond)
	h.s.Tick(game.None)
	if got := h.s.Snapshot(); got.Ticks != 0 || got.Snake[0] != (game.Point{X: 12, Y: 12}) {
		t.Fatalf("stepped before the boundary: %s", dumpSnapshot(got))
	}

	h.clock.Advance(time.Millisecond)
	h.s.Tick(game.Right)
	got := h.s.Snapshot()
	if got.Ticks != 1 || len(got.Snake) != 1 || got.Snake[0] != (game.Point{X: 13, Y: 12}) {
		t.Fatalf("after boundary: %s", dumpSnapshot(got))
	}
	if got.Score != 0 || got.Fat != 0 {
		t.Fatalf("plain move changed score/fat: %s", dumpSnapshot(got))
	}
}

func TestTick_ReversalContinuesForward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingFat = 1
	h := newHarness(t, cfg, []game.Point{{X: 0, Y: 0}})

	h.step(game.None)
	if got := h.s.Snapshot().Snake; len(got) != 2 || got[0] != (game.Point{X: 13, Y: 12}) {
		t.Fatalf("snake=%v", got)
	}

	h.step(game.Left)
	got := h.s.Snapshot()
	if got.Snake[0] != (game.Point{X: 14, Y: 12}) {
		t.Fatalf("reverse request moved head to %v\n%s", got.Snake[0], dumpSnapshot(got))
	}
	if got.Outcome != OutcomeOngoing {
		t.Fatalf("outcome=%s", got.Outcome)
	}
}

func TestTick_FatBurnGrowsOnePerTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingFat = 5
	h := newHarness(t, cfg, []game.Point{{X: 0, Y: 0}})

	for i := 1; i <= 5; i++ {
		h.step(game.None)
		got := h.s.Snapshot()
		if len(got.Snake) != 1+i || got.Fat != 5-i {
			t.Fatalf("tick %d: %s", i, dumpSnapshot(got))
		}
	}
	for i := 0; i < 3; i++ {
		h.step(game.None)
		if got := h.s.Snapshot(); len(got.Snake) != 6 || got.Fat != 0 {
			t.Fatalf("length changed without fat: %s", dumpSnapshot(got))
		}
	}
}

func TestTick_EatRelocatesFood(t *testing.T) {
	h := newHarness(t, DefaultConfig(), []game.Point{{X: 13, Y: 12}})

	h.step(game.Right)
	got := h.s.Snapshot()

	ev, ok := h.sink.last(EventFoodEaten)
	if !ok {
		t.Fatalf("no food_eaten event: %s", dumpSnapshot(got))
	}
	// 150 + floor(2/10)*5 with the head prepended.
	if ev.Score != 150 || ev.DemonActive {
		t.Fatalf("food event=%+v", ev)
	}
	// The meal's 8 fat burns straight away: (8/5)*5 + 20.
	if got.Score != 175 || got.Fat != 7 || len(got.Snake) != 2 {
		t.Fatalf("after meal: %s", dumpSnapshot(got))
	}
	for _, f := range got.Food {
		for _, p := range got.Snake {
			if f == p {
				t.Fatalf("food relocated onto snake: %s", dumpSnapshot(got))
			}
		}
	}
}

func TestTick_PeriodicScoreIgnoresTickBoundaries(t *testing.T) {
	h := newHarness(t, DefaultConfig(), []game.Point{{X: 0, Y: 0}})
	for elapsed := time.Duration(0); elapsed < 3*time.Second; elapsed += 50 * time.Millisecond {
		h.clock.Advance(50 * time.Millisecond)
		h.s.Tick(game.None)
	}
	got := h.s.Snapshot()
	if got.Score != 5 {
		t.Fatalf("score=%d want=5 after 3s: %s", got.Score, dumpSnapshot(got))
	}
	if h.sink.count(EventPursuerSubstep) != 30 {
		t.Fatalf("substeps=%d want=30", h.sink.count(EventPursuerSubstep))
	}
}

func TestTick_WallLoss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 5, 5
	h := newHarness(t, cfg, []game.Point{{X: 0, Y: 0}})

	for i := 0; i < 2; i++ {
		if o := h.step(game.Right); o != OutcomeOngoing {
			t.Fatalf("step %d outcome=%s", i, o)
		}
	}
	if o := h.step(game.Right); o != OutcomeLost {
		t.Fatalf("outcome=%s want lost: %s", o, dumpSnapshot(h.s.Snapshot()))
	}
	ev, ok := h.sink.last(EventGameLost)
	if !ok || ev.SnakeLen != 1 {
		t.Fatalf("game_lost event=%+v ok=%v", ev, ok)
	}
	if len(h.records) != 1 || h.records[0].Outcome != OutcomeLost {
		t.Fatalf("records=%+v", h.records)
	}
	if o := h.step(game.Up); o != OutcomeLost || len(h.records) != 1 {
		t.Fatalf("terminal session advanced: outcome=%s records=%d", o, len(h.records))
	}
}

func TestTick_Win(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 3, 1
	cfg.StartingFat = 1
	h := newHarness(t, cfg, nil)

	if o := h.step(game.Right); o != OutcomeWon {
		t.Fatalf("outcome=%s want won: %s", o, dumpSnapshot(h.s.Snapshot()))
	}
	if h.sink.count(EventGameWon) != 1 {
		t.Fatalf("game_won events=%d", h.sink.count(EventGameWon))
	}
	if len(h.records) != 1 || h.records[0].Outcome != OutcomeWon || h.records[0].SnakeLen != 2 {
		t.Fatalf("records=%+v", h.records)
	}
}

// rowBoard is a 1-row board with no demons and a snake filling x=from..width-1,
// head at from and heading left.
func rowBoard(t *testing.T, width, from int, food []game.Point) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = width, 1
	cfg.PursuerCount = 0
	h := newHarness(t, cfg, nil)

	body := make(game.Body, 0, width-from)
	for x := from; x < width; x++ {
		body = append(body, game.Point{X: x, Y: 0})
	}
	h.s.body = body
	h.s.heading = game.Left
	if err := h.s.food.Reset(h.s.body, food); err != nil {
		t.Fatalf("reset food: %v", err)
	}
	return h
}

func TestTick_EatingLastFreeCellsWins(t *testing.T) {
	h := rowBoard(t, 100, 2, []game.Point{{X: 1, Y: 0}, {X: 0, Y: 0}})

	if o := h.step(game.Left); o != OutcomeWon {
		t.Fatalf("outcome=%s err=%v want won: %s", o, h.s.Err(), dumpSnapshot(h.s.Snapshot()))
	}
	if h.s.Err() != nil {
		t.Fatalf("err=%v", h.s.Err())
	}
	if len(h.records) != 1 || h.records[0].Outcome != OutcomeWon || h.records[0].SnakeLen != 99 {
		t.Fatalf("records=%+v", h.records)
	}
}

func TestTick_NearFullBoardPlaysOutToWin(t *testing.T) {
	h := rowBoard(t, 100, 4, []game.Point{{X: 3, Y: 0}, {X: 2, Y: 0}})

	var o Outcome
	for i := 0; i < 10 && !o.Terminal(); i++ {
		o = h.step(game.Left)
		snap := h.s.Snapshot()
		if want := h.s.food.Want(h.s.body); !o.Terminal() && len(snap.Food) != want {
			t.Fatalf("step %d food=%v want %d items: %s", i, snap.Food, want, dumpSnapshot(snap))
		}
	}
	if o != OutcomeWon {
		t.Fatalf("outcome=%s err=%v want won: %s", o, h.s.Err(), dumpSnapshot(h.s.Snapshot()))
	}
	if got := h.sink.count(EventFoodEaten); got != 3 {
		t.Fatalf("food_eaten events=%d want=3", got)
	}
}

func TestTick_QuitWinsAndRecordsOnce(t *testing.T) {
	h := newHarness(t, DefaultConfig(), []game.Point{{X: 0, Y: 0}})
	h.clock.Advance(1500 * time.Millisecond)

	if o := h.s.Tick(game.Quit); o != OutcomeQuit {
		t.Fatalf("outcome=%s want quit", o)
	}
	if h.s.Snapshot().Ticks != 0 {
		t.Fatalf("quit tick still stepped the snake")
	}
	if h.s.Tick(game.Right) != OutcomeQuit {
		t.Fatalf("terminal outcome changed")
	}
	if len(h.records) != 1 {
		t.Fatalf("records=%d want=1", len(h.records))
	}
	rec := h.records[0]
	if rec.Duration != 1500*time.Millisecond || !rec.StartedAt.Equal(testStart) || rec.Version != GameVersion {
		t.Fatalf("record=%+v", rec)
	}
	if h.sink.count(EventGameQuit) != 1 {
		t.Fatalf("game_quit events=%d", h.sink.count(EventGameQuit))
	}
}

func TestFail_SurfacesPlacementExhaustion(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil)
	h.s.fail(h.clock.Now(), fmt.Errorf("relocate eaten food: %w", rules.ErrPlacementExhausted))

	if h.s.Outcome() != OutcomeError {
		t.Fatalf("outcome=%s want error", h.s.Outcome())
	}
	if !errors.Is(h.s.Err(), rules.ErrPlacementExhausted) {
		t.Fatalf("err=%v", h.s.Err())
	}
	if h.s.Tick(game.Right) != OutcomeError {
		t.Fatalf("error outcome not terminal")
	}
	if len(h.records) != 1 || h.records[0].Outcome != OutcomeError {
		t.Fatalf("records=%+v", h.records)
	}
}

func TestSnapshot_DoesNotAlias(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil)
	snap := h.s.Snapshot()
	snap.Snake[0] = game.Point{X: -5, Y: -5}
	snap.Food[0] = game.Point{X: -5, Y: -5}
	snap.Pursuers[0] = game.Vec{}
	again := h.s.Snapshot()
	if again.Snake[0] == snap.Snake[0] || again.Food[0] == snap.Food[0] || again.Pursuers[0] == snap.Pursuers[0] {
		t.Fatalf("snapshot aliases session state")
	}
}

func TestDeterminism_SameSeedSameRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.ActivationThreshold = 0
	cfg.PursuerCount = 3

	a := newHarness(t, cfg, nil)
	b := newHarness(t, cfg, nil)
	script := []game.Direction{game.None, game.Up, game.None, game.Left, game.None, game.Down, game.None, game.Right}

	for i := 0; i < 2000; i++ {
		dir := script[(i/7)%len(script)]
		a.clock.Advance(20 * time.Millisecond)
		b.clock.Advance(20 * time.Millisecond)
		oa, ob := a.s.Tick(dir), b.s.Tick(dir)

		sa, sb := a.s.Snapshot(), b.s.Snapshot()
		if oa != ob || !reflect.DeepEqual(sa, sb) {
			t.Fatalf("diverged at iteration %d:\n a: %s\n b: %s", i, dumpSnapshot(sa), dumpSnapshot(sb))
		}
		if oa.Terminal() {
			return
		}
	}
}

func TestRun_ContextCancelQuits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	s, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	o, err := s.Run(ctx, InputFunc(func() game.Direction { return game.None }))
	if o != OutcomeQuit || err != nil {
		t.Fatalf("outcome=%s err=%v", o, err)
	}
}

func TestRun_InputQuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	s, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	polls := 0
	input := InputFunc(func() game.Direction {
		polls++
		if polls == 3 {
			return game.Quit
		}
		return game.Down
	})
	o, err := s.Run(context.Background(), input)
	if o != OutcomeQuit || err != nil {
		t.Fatalf("outcome=%s err=%v", o, err)
	}
	if polls != 3 {
		t.Fatalf("polls=%d want=3", polls)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.GridWidth = 0 },
		func(c *Config) { c.GridWidth, c.GridHeight = 1, 1 },
		func(c *Config) { c.CellSize = 0 },
		func(c *Config) { c.PursuerCount = -1 },
		func(c *Config) { c.StartingFat = -1 },
		func(c *Config) { c.SpeedBounds.Lower = 0 },
		func(c *Config) { c.ActivationThreshold = -1 },
		func(c *Config) { c.SubstepPeriod = 0 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: err=%v want ErrInvalidConfig", i, err)
		}
	}
}

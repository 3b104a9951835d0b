package session

import (
	"time"

	"github.com/brensch/demonsnake/game"
)

// Outcome is the state of a run. Everything but OutcomeOngoing is terminal.
type Outcome uint8

const (
	OutcomeOngoing Outcome = iota
	OutcomeLost
	OutcomeWon
	OutcomeQuit
	OutcomeError
)

var outcomeNames = [...]string{"ongoing", "lost", "won", "quit", "error"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Terminal reports whether the run is over.
func (o Outcome) Terminal() bool {
	return o != OutcomeOngoing
}

// EventKind names a notification for renderers and audio.
type EventKind uint8

const (
	EventFoodEaten EventKind = iota + 1
	EventPursuerSubstep
	EventDemonMove
	EventGameLost
	EventGameWon
	EventGameQuit
)

var eventNames = map[EventKind]string{
	EventFoodEaten:      "food_eaten",
	EventPursuerSubstep: "pursuer_substep_advanced",
	EventDemonMove:      "demon_move",
	EventGameLost:       "game_lost",
	EventGameWon:        "game_won",
	EventGameQuit:       "game_quit",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one notification. DemonActive and SnakeLen are filled on every
// event; the sink picks what it needs.
type Event struct {
	Kind        EventKind
	DemonActive bool
	SnakeLen    int
	Score       int
}

// InputProvider is polled once per loop iteration by Run.
type InputProvider interface {
	PollDirection() game.Direction
}

// InputFunc adapts a function to InputProvider.
type InputFunc func() game.Direction

func (f InputFunc) PollDirection() game.Direction { return f() }

// NotificationSink receives events synchronously from Tick. Implementations
// must not block.
type NotificationSink interface {
	Notify(Event)
}

// MultiSink fans events out in order.
type MultiSink []NotificationSink

func (m MultiSink) Notify(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(ev)
		}
	}
}

type nopSink struct{}

func (nopSink) Notify(Event) {}

// RunRecord summarises a finished run.
type RunRecord struct {
	ID             string
	Version        string
	Seed           int64
	Score          int
	SnakeLen       int
	Outcome        Outcome
	HighDifficulty bool
	StartedAt      time.Time
	Duration       time.Duration
}

// RunRecorder receives exactly one record per terminated session. Errors are
// logged by the session and otherwise ignored.
type RunRecorder interface {
	RecordRun(RunRecord) error
}

// RecorderFunc adapts a function to RunRecorder.
type RecorderFunc func(RunRecord) error

func (f RecorderFunc) RecordRun(r RunRecord) error { return f(r) }

package tui

import (
	"fmt"
	"sync"

	"github.com/brensch/demonsnake/session"
)

const feedSize = 6

// Feed keeps the last few notable events for the side panel. Substeps are
// too frequent to show and are only counted.
type Feed struct {
	mu       sync.Mutex
	recent   []string
	substeps int
}

var _ session.NotificationSink = (*Feed)(nil)

func (f *Feed) Notify(ev session.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Kind == session.EventPursuerSubstep {
		f.substeps++
		return
	}
	line := fmt.Sprintf("%-10s len=%-3d score=%d", describe(ev), ev.SnakeLen, ev.Score)
	f.recent = append([]string{line}, f.recent...)
	if len(f.recent) > feedSize {
		f.recent = f.recent[:feedSize]
	}
}

// Recent returns the newest events first.
func (f *Feed) Recent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.recent...)
}

func (f *Feed) Substeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.substeps
}

func describe(ev session.Event) string {
	switch ev.Kind {
	case session.EventFoodEaten:
		if ev.DemonActive {
			return "gulp!"
		}
		return "nom"
	case session.EventDemonMove:
		return "demon"
	case session.EventGameLost:
		return "caught"
	case session.EventGameWon:
		return "victory"
	case session.EventGameQuit:
		return "quit"
	}
	return ev.Kind.String()
}

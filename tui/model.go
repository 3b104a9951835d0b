// Package tui is the interactive terminal front end: a bubbletea program
// that feeds key presses into a session and draws its snapshots.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/demonsnake/autopilot"
	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/session"
)

// FrameInterval is how often the model calls Session.Tick.
const FrameInterval = 10 * time.Millisecond

// Factory builds a fresh session that reports to sink. It is called at start
// and on every restart.
type Factory func(sink session.NotificationSink) (*session.Session, error)

// Options wires optional collaborators into the model.
type Options struct {
	// Publish receives a snapshot whenever the visible state changed.
	Publish func(session.Snapshot)
	// ToggleMute is bound to the m key when set.
	ToggleMute func() bool
	// Autopilot starts the game under autopilot control.
	Autopilot bool
}

type frameMsg time.Time

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Model is the bubbletea model of one player's sitting, across restarts.
type Model struct {
	factory Factory
	opts    Options

	sess    *session.Session
	feed    *Feed
	pilot   *autopilot.Pilot
	pending game.Direction
	auto    bool
	muted   bool
	games   int
	best    int

	snap    session.Snapshot
	lastPub publishKey
	err     error
}

type publishKey struct {
	ticks   int
	score   int
	outcome session.Outcome
	substep int
}

// New starts the first session.
func New(factory Factory, opts Options) (*Model, error) {
	m := &Model{factory: factory, opts: opts, auto: opts.Autopilot}
	if err := m.restart(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) restart() error {
	feed := &Feed{}
	sess, err := m.factory(feed)
	if err != nil {
		return err
	}
	m.sess = sess
	m.feed = feed
	m.pilot = autopilot.New(sess, sess.Config().Grid())
	m.pending = game.None
	m.games++
	m.snap = sess.Snapshot()
	m.lastPub = publishKey{ticks: -1}
	m.publish()
	return nil
}

func (m *Model) Init() tea.Cmd {
	return frameCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case frameMsg:
		m.advance()
		return m, frameCmd()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q", "esc":
		if !m.sess.Outcome().Terminal() {
			m.sess.Tick(game.Quit)
			m.afterTick()
		}
		return m, tea.Quit
	case "p":
		m.auto = !m.auto
		return m, nil
	case "m":
		if m.opts.ToggleMute != nil {
			m.muted = m.opts.ToggleMute()
		}
		return m, nil
	case "r", "enter":
		if m.sess.Outcome().Terminal() {
			if err := m.restart(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, nil
	}
	if dir := keyDirection(key); dir != game.None {
		m.pending = dir
	}
	return m, nil
}

func keyDirection(key string) game.Direction {
	switch key {
	case "up", "w", "k":
		return game.Up
	case "down", "s", "j":
		return game.Down
	case "left", "a", "h":
		return game.Left
	case "right", "d", "l":
		return game.Right
	}
	return game.None
}

// advance runs one session loop iteration with the latest input.
func (m *Model) advance() {
	if m.sess.Outcome().Terminal() {
		return
	}
	dir := m.pending
	if m.auto {
		dir = m.pilot.PollDirection()
	}
	m.pending = game.None
	m.sess.Tick(dir)
	m.afterTick()
}

func (m *Model) afterTick() {
	m.snap = m.sess.Snapshot()
	if m.snap.Score > m.best {
		m.best = m.snap.Score
	}
	m.publish()
}

func (m *Model) publish() {
	if m.opts.Publish == nil {
		return
	}
	key := publishKey{
		ticks:   m.snap.Ticks,
		score:   m.snap.Score,
		outcome: m.snap.Outcome,
	}
	if m.snap.DemonActive {
		key.substep = m.feed.Substeps()
	}
	if key == m.lastPub {
		return
	}
	m.lastPub = key
	m.opts.Publish(m.snap)
}

// Err is the restart failure that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Session is the current session.
func (m *Model) Session() *session.Session {
	return m.sess
}

package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/session"
)

var (
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	foodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	demonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))

	boardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	hotBoard   = boardStyle.BorderForeground(lipgloss.Color("160"))
	panelStyle = lipgloss.NewStyle().PaddingLeft(2)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellFood
	cellBody
	cellHead
	cellDemon
)

func (m *Model) View() string {
	board := renderBoard(m.snap, m.sess.Config().Grid())
	frame := boardStyle
	if m.snap.DemonActive {
		frame = hotBoard
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, frame.Render(board), panelStyle.Render(m.panel()))
}

func (m *Model) panel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DEMON SNAKE") + "\n\n")
	fmt.Fprintf(&b, "Score   %d\n", m.snap.Score)
	fmt.Fprintf(&b, "Best    %d\n", m.best)
	fmt.Fprintf(&b, "Length  %d\n", len(m.snap.Snake))
	fmt.Fprintf(&b, "Fat     %d\n", m.snap.Fat)
	fmt.Fprintf(&b, "Speed   %s\n", session.TickInterval(len(m.snap.Snake), m.sess.Config().SpeedBounds))
	fmt.Fprintf(&b, "Game    #%d\n", m.games)
	if m.snap.DemonActive {
		b.WriteString(demonStyle.Render("THE DEMONS HUNT") + "\n")
	} else {
		fmt.Fprintf(&b, "Demons wake at length %d\n", m.sess.Config().ActivationThreshold+1)
	}
	if m.auto {
		b.WriteString(dimStyle.Render("autopilot on") + "\n")
	}
	if m.muted {
		b.WriteString(dimStyle.Render("muted") + "\n")
	}

	b.WriteString("\n")
	for _, line := range m.feed.Recent() {
		b.WriteString(dimStyle.Render(line) + "\n")
	}

	b.WriteString("\n")
	switch m.snap.Outcome {
	case session.OutcomeOngoing:
		b.WriteString(dimStyle.Render("arrows/wasd move  p autopilot  m mute  q quit"))
	case session.OutcomeError:
		b.WriteString(overStyle.Render("GAME ABORTED") + "\n")
		if err := m.sess.Err(); err != nil {
			b.WriteString(dimStyle.Render(err.Error()) + "\n")
		}
		b.WriteString(dimStyle.Render("r restart  q quit"))
	default:
		b.WriteString(overStyle.Render(outcomeBanner(m.snap.Outcome)) + "\n")
		b.WriteString(dimStyle.Render("r restart  q quit"))
	}
	return b.String()
}

func outcomeBanner(o session.Outcome) string {
	switch o {
	case session.OutcomeWon:
		return "YOU FILLED THE BOARD"
	case session.OutcomeLost:
		return "GAME OVER"
	}
	return strings.ToUpper(o.String())
}

// layoutCells maps every board cell to what is drawn there. Demons draw over
// everything, the head over the body, the body over food.
func layoutCells(snap session.Snapshot, grid game.Grid) []cellKind {
	cells := make([]cellKind, grid.Cells())
	put := func(p game.Point, k cellKind) {
		if grid.Contains(p) && cells[grid.Index(p)] < k {
			cells[grid.Index(p)] = k
		}
	}
	for _, f := range snap.Food {
		put(f, cellFood)
	}
	for i, p := range snap.Snake {
		if i == 0 {
			put(p, cellHead)
		} else {
			put(p, cellBody)
		}
	}
	for _, d := range snap.Pursuers {
		put(game.Point{X: int(math.Floor(d.X)), Y: int(math.Floor(d.Y))}, cellDemon)
	}
	return cells
}

func renderBoard(snap session.Snapshot, grid game.Grid) string {
	cells := layoutCells(snap, grid)
	var b strings.Builder
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			switch cells[grid.Index(game.Point{X: x, Y: y})] {
			case cellHead:
				b.WriteString(headStyle.Render("██"))
			case cellBody:
				b.WriteString(bodyStyle.Render("▓▓"))
			case cellFood:
				b.WriteString(foodStyle.Render("<>"))
			case cellDemon:
				b.WriteString(demonStyle.Render("}{"))
			default:
				b.WriteString(emptyStyle.Render(" ."))
			}
		}
		if y < grid.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

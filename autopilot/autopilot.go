// Package autopilot steers a snake without a human: it is a session
// InputProvider that heads for the nearest food along safe moves.
package autopilot

import (
	"math"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/rules"
	"github.com/brensch/demonsnake/session"
)

// StateSource is what the pilot reads each poll. *session.Session satisfies
// it.
type StateSource interface {
	Snapshot() session.Snapshot
}

// demonRadius is how close, in cells, the pilot lets an active demon get to
// the next head before it treats the move as unsafe.
const demonRadius = 1.5

// Pilot picks a direction from the current snapshot. It is deterministic for
// a given snapshot.
type Pilot struct {
	src  StateSource
	grid game.Grid
}

var _ session.InputProvider = (*Pilot)(nil)

func New(src StateSource, grid game.Grid) *Pilot {
	return &Pilot{src: src, grid: grid}
}

// PollDirection scores every safe move. A move that leaves less room than the
// snake needs loses to one that does; within a class the nearest food wins,
// and ties keep the earlier heading in Up, Down, Left, Right order. With no
// safe move it returns None and the snake carries on.
func (p *Pilot) PollDirection() game.Direction {
	snap := p.src.Snapshot()
	return Choose(snap, p.grid)
}

// Choose is PollDirection for an explicit snapshot.
func Choose(snap session.Snapshot, grid game.Grid) game.Direction {
	body := game.Body(snap.Snake)
	if len(body) == 0 || snap.Outcome.Terminal() {
		return game.None
	}

	best := game.None
	bestRoomy := false
	bestDist := math.MaxInt
	for _, dir := range rules.SafeMoves(body, grid) {
		dx, dy := dir.Delta()
		next := body.Head().Add(dx, dy)
		if snap.DemonActive && nearDemon(next, snap.Pursuers) {
			continue
		}

		roomy := reachable(next, body, grid, len(body)) >= len(body)
		dist := nearestFood(next, snap.Food)
		switch {
		case best == game.None,
			roomy && !bestRoomy,
			roomy == bestRoomy && dist < bestDist:
			best, bestRoomy, bestDist = dir, roomy, dist
		}
	}
	return best
}

func nearDemon(p game.Point, pursuers []game.Vec) bool {
	cx, cy := float64(p.X)+0.5, float64(p.Y)+0.5
	for _, d := range pursuers {
		if math.Abs(d.X-cx) < demonRadius && math.Abs(d.Y-cy) < demonRadius {
			return true
		}
	}
	return false
}

func nearestFood(p game.Point, food []game.Point) int {
	best := math.MaxInt
	for _, f := range food {
		if d := abs(f.X-p.X) + abs(f.Y-p.Y); d < best {
			best = d
		}
	}
	return best
}

// reachable flood fills free cells from start, stopping once limit cells are
// found. The body occupies its cells except the tail, which will have moved.
func reachable(start game.Point, body game.Body, grid game.Grid, limit int) int {
	blocked := make([]bool, grid.Cells())
	for _, c := range body[:len(body)-1] {
		if grid.Contains(c) {
			blocked[grid.Index(c)] = true
		}
	}
	if !grid.Contains(start) || blocked[grid.Index(start)] {
		return 0
	}

	queue := []game.Point{start}
	blocked[grid.Index(start)] = true
	count := 0
	for len(queue) > 0 && count < limit {
		c := queue[0]
		queue = queue[1:]
		count++
		for _, dir := range [...]game.Direction{game.Up, game.Down, game.Left, game.Right} {
			dx, dy := dir.Delta()
			n := c.Add(dx, dy)
			if !grid.Contains(n) || blocked[grid.Index(n)] {
				continue
			}
			blocked[grid.Index(n)] = true
			queue = append(queue, n)
		}
	}
	return count
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

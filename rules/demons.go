package rules

import (
	"math"

	"github.com/brensch/demonsnake/game"
)

const (
	// DefaultActivationLength is the snake length the demons wait for.
	DefaultActivationLength = 50

	minDemonSpeed    = 2  // units per substep, inclusive
	demonSpeedDiv    = 12 // body length / 12 bounds the speed draw
	hardModeBias     = 2  // units added on the near axis in hard mode
	spawnMarginUnits = 50
	spawnStackUnits  = 10
)

// Pursuers are the demons. Positions are fractional cell coordinates and are
// not clamped to the board.
type Pursuers struct {
	grid      game.Grid
	pos       []game.Vec
	threshold int
	hard      bool
}

// NewPursuers places count demons just outside a random corner of the board.
// Each one is stacked a little lower than the previous so they do not overlap.
func NewPursuers(grid game.Grid, count, threshold int, hard bool, rng Rand) *Pursuers {
	p := &Pursuers{
		grid:      grid,
		pos:       make([]game.Vec, 0, count),
		threshold: threshold,
		hard:      hard,
	}
	w := grid.ToUnits(float64(grid.Width))
	h := grid.ToUnits(float64(grid.Height))
	for i := range count {
		x := -spawnMarginUnits + (w+2*spawnMarginUnits)*float64(rng.Intn(2))
		y := -spawnMarginUnits + float64(spawnStackUnits*i) + (h+2*spawnMarginUnits)*float64(rng.Intn(2))
		p.pos = append(p.pos, game.Vec{X: grid.ToCells(x), Y: grid.ToCells(y)})
	}
	return p
}

// Positions returns the demon positions. The slice must not be modified.
func (p *Pursuers) Positions() []game.Vec {
	return p.pos
}

// Active reports whether a snake of bodyLen has woken the demons.
func (p *Pursuers) Active(bodyLen int) bool {
	return bodyLen > p.threshold
}

// Step moves every demon one substep toward the head. It returns false and
// leaves the demons in place while they are inactive.
//
// Speeds are drawn per axis in display units. The axis with the larger gap is
// halved, and in hard mode the other axis gets a fixed bias, so a demon slides
// in along the far axis while closing the near one.
func (p *Pursuers) Step(body game.Body, rng Rand) bool {
	if !p.Active(len(body)) {
		return false
	}
	head := body.Head()
	hx, hy := float64(head.X), float64(head.Y)

	upper := len(body) / demonSpeedDiv
	if upper < minDemonSpeed+1 {
		upper = minDemonSpeed + 1
	}

	for i := range p.pos {
		d := &p.pos[i]

		moveX := float64(minDemonSpeed + rng.Intn(upper-minDemonSpeed))
		moveY := float64(minDemonSpeed + rng.Intn(upper-minDemonSpeed))

		if math.Abs(d.X-hx) > math.Abs(d.Y-hy) {
			moveX /= 2
			if p.hard {
				moveY += hardModeBias
			}
		} else {
			moveY /= 2
			if p.hard {
				moveX += hardModeBias
			}
		}

		stepX, stepY := p.grid.ToCells(moveX), p.grid.ToCells(moveY)
		if hx+0.5 > d.X {
			d.X += stepX
		} else {
			d.X -= stepX
		}
		if hy+0.5 > d.Y {
			d.Y += stepY
		} else {
			d.Y -= stepY
		}
	}
	return true
}

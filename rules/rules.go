// Package rules implements scoring, fat reserve, loss and win evaluation,
// food placement and pursuer movement for the demon snake simulation.
//
// Nothing in this package reads the clock or owns a random source: callers
// pass a Rand on every call so a seeded run replays exactly.
package rules

import (
	"github.com/brensch/demonsnake/game"
)

// Rand is the subset of *math/rand.Rand the rules draw from.
type Rand interface {
	Intn(n int) int
}

// Meal, burn and survival scoring.
const (
	FoodBaseScore   = 150
	FoodLengthBonus = 5
	FoodLengthStep  = 10
	FoodBaseFat     = 8
	FatCompoundDiv  = 4
	FatScoreDiv     = 500
	BurnBonus       = 20
	BurnStep        = 5
	PeriodicScore   = 5
)

// Engine owns the score and the fat reserve for one run.
type Engine struct {
	Score int
	Fat   int
}

// NewEngine starts a run with the given fat reserve. Negative values clamp to 0.
func NewEngine(startingFat int) *Engine {
	if startingFat < 0 {
		startingFat = 0
	}
	return &Engine{Fat: startingFat}
}

// EatsFood looks for a food cell under the head. On a hit it applies the meal
// score and fat, and returns the index of the eaten item so the caller can
// relocate it.
func (e *Engine) EatsFood(body game.Body, food []game.Point) (int, bool) {
	head := body.Head()
	for i, f := range food {
		if f != head {
			continue
		}
		// Fat is compounded on the score before this meal.
		before := e.Score
		e.Score += FoodBaseScore + (len(body)/FoodLengthStep)*FoodLengthBonus
		e.Fat += FoodBaseFat + e.Fat/FatCompoundDiv + before/FatScoreDiv
		return i, true
	}
	return -1, false
}

// IsLost reports a wall hit, a self hit, or a pursuer strictly inside the
// head cell.
func (e *Engine) IsLost(body game.Body, pursuers []game.Vec, grid game.Grid) bool {
	head := body.Head()
	if !grid.Contains(head) {
		return true
	}
	if body.HitsSelf() {
		return true
	}
	for _, p := range pursuers {
		if p.Within(head) {
			return true
		}
	}
	return false
}

// IsWon reports whether the snake fills every cell but one.
func (e *Engine) IsWon(body game.Body, grid game.Grid) bool {
	return len(body) >= grid.Cells()-1
}

// BurnFat spends one unit of fat for bonus score. It returns true when the
// tail should be kept this tick.
func (e *Engine) BurnFat() bool {
	if e.Fat <= 0 {
		return false
	}
	e.Score += (e.Fat/BurnStep)*BurnStep + BurnBonus
	e.Fat--
	return true
}

// AddPeriodicScore is the fixed survival award.
func (e *Engine) AddPeriodicScore() {
	e.Score += PeriodicScore
}

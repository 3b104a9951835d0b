package rules

import (
	"github.com/brensch/demonsnake/game"
)

var headings = [...]game.Direction{game.Up, game.Down, game.Left, game.Right}

// SafeMoves returns the headings that keep the head on the board and off the
// body. The tail cell counts as blocked even though it usually moves away.
func SafeMoves(body game.Body, grid game.Grid) []game.Direction {
	if len(body) == 0 {
		return nil
	}
	head := body.Head()
	moves := make([]game.Direction, 0, len(headings))
	for _, dir := range headings {
		dx, dy := dir.Delta()
		next := head.Add(dx, dy)
		if isSafe(next, body, grid) {
			moves = append(moves, dir)
		}
	}
	return moves
}

func isSafe(p game.Point, body game.Body, grid game.Grid) bool {
	// 1. Bounds
	if !grid.Contains(p) {
		return false
	}

	// 2. Body, neck included
	return !body.Contains(p)
}

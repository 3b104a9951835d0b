package rules

import (
	"fmt"

	"github.com/brensch/demonsnake/game"
)

const (
	// FoodPerLength adds one food item per this many segments.
	FoodPerLength = 80

	placementAttemptsPerFreeCell = 4
	minPlacementAttempts         = 16
)

// FoodTarget is the number of food items wanted for a snake of bodyLen.
func FoodTarget(bodyLen int) int {
	return 1 + bodyLen/FoodPerLength
}

// FoodSpawner keeps the active food cells disjoint from the snake and from
// each other.
type FoodSpawner struct {
	grid game.Grid
	food []game.Point
}

// NewFoodSpawner returns an empty spawner for grid. Call Fill before use.
func NewFoodSpawner(grid game.Grid) *FoodSpawner {
	return &FoodSpawner{grid: grid}
}

// Food returns the active food cells. The slice must not be modified.
func (f *FoodSpawner) Food() []game.Point {
	return f.food
}

// Want is the food count for body: the target, capped by the free cells once
// the board gets too full to honour it.
func (f *FoodSpawner) Want(body game.Body) int {
	target := FoodTarget(len(body))
	free := f.grid.Cells() - len(body)
	if free > target {
		return target
	}
	if free < 0 {
		return 0
	}
	return free
}

// Fill discards any existing food and places a full set.
func (f *FoodSpawner) Fill(body game.Body, rng Rand) error {
	f.food = f.food[:0]
	return f.Rebalance(body, rng)
}

// Reset replaces the food set with cells, which must be on the board, off the
// snake and distinct. It is used to set up scripted boards.
func (f *FoodSpawner) Reset(body game.Body, cells []game.Point) error {
	seen := make(map[game.Point]bool, len(cells))
	for _, p := range cells {
		switch {
		case !f.grid.Contains(p):
			return fmt.Errorf("food %v is off the board", p)
		case body.Contains(p):
			return fmt.Errorf("food %v is on the snake", p)
		case seen[p]:
			return fmt.Errorf("food %v listed twice", p)
		}
		seen[p] = true
	}
	f.food = append(f.food[:0], cells...)
	return nil
}

// Relocate replaces the eaten item i with a freshly placed cell and then
// rebalances the set size. When every free cell already holds food the eaten
// item is dropped instead.
func (f *FoodSpawner) Relocate(i int, body game.Body, rng Rand) error {
	if i < 0 || i >= len(f.food) {
		return fmt.Errorf("relocate food %d of %d: index out of range", i, len(f.food))
	}
	occupied, free := f.occupancy(body, i)
	if free == 0 {
		f.food = append(f.food[:i], f.food[i+1:]...)
		return f.Rebalance(body, rng)
	}
	p, err := f.place(occupied, free, rng)
	if err != nil {
		return err
	}
	f.food[i] = p
	return f.Rebalance(body, rng)
}

// Rebalance grows or trims the set to Want(body). Existing items keep their
// cells.
func (f *FoodSpawner) Rebalance(body game.Body, rng Rand) error {
	want := f.Want(body)
	if len(f.food) > want {
		f.food = f.food[:want]
	}
	if len(f.food) == want {
		return nil
	}

	occupied, free := f.occupancy(body, -1)
	for len(f.food) < want {
		p, err := f.place(occupied, free, rng)
		if err != nil {
			return err
		}
		f.food = append(f.food, p)
		occupied[f.grid.Index(p)] = true
		free--
	}
	return nil
}

// occupancy marks every on-board snake and food cell, skipping food item
// skip. It also returns the number of unmarked cells.
func (f *FoodSpawner) occupancy(body game.Body, skip int) ([]bool, int) {
	occupied := make([]bool, f.grid.Cells())
	free := len(occupied)
	mark := func(p game.Point) {
		if !f.grid.Contains(p) {
			return
		}
		i := f.grid.Index(p)
		if !occupied[i] {
			occupied[i] = true
			free--
		}
	}
	for _, p := range body {
		mark(p)
	}
	for i, p := range f.food {
		if i != skip {
			mark(p)
		}
	}
	return occupied, free
}

// place draws cells uniformly until one is free. After a bounded number of
// misses it falls back to choosing among an exhaustive list of free cells so
// placement always terminates.
func (f *FoodSpawner) place(occupied []bool, free int, rng Rand) (game.Point, error) {
	if free <= 0 {
		return game.Point{}, fmt.Errorf("%w: board %dx%d has no free cell", ErrPlacementExhausted, f.grid.Width, f.grid.Height)
	}

	attempts := free * placementAttemptsPerFreeCell
	if attempts < minPlacementAttempts {
		attempts = minPlacementAttempts
	}
	for range attempts {
		p := game.Point{X: rng.Intn(f.grid.Width), Y: rng.Intn(f.grid.Height)}
		if !occupied[f.grid.Index(p)] {
			return p, nil
		}
	}

	available := make([]int, 0, free)
	for i, taken := range occupied {
		if !taken {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		return game.Point{}, fmt.Errorf("%w: scan found no free cell after %d draws", ErrPlacementExhausted, attempts)
	}
	return f.grid.At(available[rng.Intn(len(available))]), nil
}

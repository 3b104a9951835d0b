package rules

import (
	"math"
	"testing"

	"github.com/brensch/demonsnake/game"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewPursuers_SpawnOffBoard(t *testing.T) {
	g := game.DefaultGrid
	p := NewPursuers(g, 3, DefaultActivationLength, false, &seqRand{vals: []int{1}})
	pos := p.Positions()
	if len(pos) != 3 {
		t.Fatalf("pursuers=%d want=3", len(pos))
	}
	for i, v := range pos {
		wantX := (-50.0 + 700) / 24
		wantY := (-50.0 + 10*float64(i) + 700) / 24
		if !almostEqual(v.X, wantX) || !almostEqual(v.Y, wantY) {
			t.Fatalf("pursuer %d at %v want (%v,%v)", i, v, wantX, wantY)
		}
		if v.X < float64(g.Width) && v.Y < float64(g.Height) {
			t.Fatalf("pursuer %d spawned on the board: %v", i, v)
		}
	}

	q := NewPursuers(g, 1, DefaultActivationLength, false, &seqRand{vals: []int{0}})
	if v := q.Positions()[0]; !almostEqual(v.X, -50.0/24) || !almostEqual(v.Y, -50.0/24) {
		t.Fatalf("top-left spawn at %v", v)
	}
}

func TestStep_InertUntilActivated(t *testing.T) {
	g := game.DefaultGrid
	p := NewPursuers(g, 1, DefaultActivationLength, false, &seqRand{vals: []int{0}})
	start := p.Positions()[0]

	body := snakeOfLen(g, 50)
	if p.Active(len(body)) {
		t.Fatalf("active at length 50")
	}
	if p.Step(body, &seqRand{vals: []int{1}}) {
		t.Fatalf("inactive step reported movement")
	}
	if p.Positions()[0] != start {
		t.Fatalf("inactive pursuer moved from %v to %v", start, p.Positions()[0])
	}
	if !p.Active(51) {
		t.Fatalf("inactive at length 51")
	}
}

func TestStep_HalvesFarAxisOnTie(t *testing.T) {
	g := game.Grid{Width: 40, Height: 40, CellSize: 24}
	p := &Pursuers{grid: g, pos: []game.Vec{{X: 0, Y: 0}}, threshold: DefaultActivationLength}

	// Length 60 draws from [2, 5); a draw of 1 gives speed 3 on both axes.
	body := game.Body{{X: 12, Y: 12}}
	for len(body) < 60 {
		body = append(body, game.Point{X: 12, Y: 12 + len(body)})
	}
	if !p.Step(body, &seqRand{vals: []int{1}}) {
		t.Fatalf("active step reported no movement")
	}
	got := p.Positions()[0]
	// |dx| == |dy| takes the y-halving branch.
	if !almostEqual(got.X, 3.0/24) || !almostEqual(got.Y, 1.5/24) {
		t.Fatalf("pursuer at %v want (%v,%v)", got, 3.0/24, 1.5/24)
	}
}

func TestStep_HardModeBiasesNearAxis(t *testing.T) {
	g := game.Grid{Width: 40, Height: 40, CellSize: 24}
	p := &Pursuers{grid: g, pos: []game.Vec{{X: 30, Y: 12}}, threshold: 0, hard: true}

	body := game.Body{{X: 12, Y: 12}}
	if !p.Step(body, &seqRand{vals: []int{0}}) {
		t.Fatalf("step reported no movement")
	}
	got := p.Positions()[0]
	// Gap is all on x: x halves (2 -> 1) and moves left, y gets +2 and moves
	// toward the head centre (down).
	if !almostEqual(got.X, 30-1.0/24) || !almostEqual(got.Y, 12+4.0/24) {
		t.Fatalf("pursuer at %v", got)
	}
}

func TestStep_ShortSnakeSpeedFloor(t *testing.T) {
	g := game.Grid{Width: 40, Height: 40, CellSize: 24}
	p := &Pursuers{grid: g, pos: []game.Vec{{X: 0, Y: 20}}, threshold: 0}
	body := game.Body{{X: 20, Y: 20}}

	// len/12 == 0 so the draw range is [2, 3): always 2.
	p.Step(body, &seqRand{vals: []int{5}})
	got := p.Positions()[0]
	if !almostEqual(got.X, 1.0/24) || !almostEqual(got.Y, 20+2.0/24) {
		t.Fatalf("pursuer at %v", got)
	}
}

// Package game defines the board types for the demon snake simulation.
//
// Coordinates are in grid cells with (0,0) at the top-left: Up decreases Y,
// Down increases it. Display units (the original 24px cells) only appear where
// the pursuers need sub-cell precision.
package game

// Point is a grid cell.
type Point struct {
	X int
	Y int
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Vec is a fractional position in cell units. Pursuers live here.
type Vec struct {
	X float64
	Y float64
}

// Within reports whether v lies strictly inside cell p. Points on the cell
// border are outside.
func (v Vec) Within(p Point) bool {
	x, y := float64(p.X), float64(p.Y)
	return x < v.X && v.X < x+1 && y < v.Y && v.Y < y+1
}

// Grid is the board size in cells plus the number of display units per cell.
type Grid struct {
	Width    int
	Height   int
	CellSize int
}

// DefaultGrid is the 600x600 board of 24 unit cells.
var DefaultGrid = Grid{Width: 25, Height: 25, CellSize: 24}

// Cells is the number of cells on the board.
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// Contains reports whether p is on the board.
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Center is the starting cell of the snake.
func (g Grid) Center() Point {
	return Point{X: g.Width / 2, Y: g.Height / 2}
}

// Index maps an on-board cell to a dense index in [0, Cells()).
func (g Grid) Index(p Point) int {
	return p.Y*g.Width + p.X
}

// At is the inverse of Index.
func (g Grid) At(i int) Point {
	return Point{X: i % g.Width, Y: i / g.Width}
}

// ToCells converts display units to cell units.
func (g Grid) ToCells(units float64) float64 {
	if g.CellSize <= 0 {
		return units
	}
	return units / float64(g.CellSize)
}

// ToUnits converts cell units to display units.
func (g Grid) ToUnits(cells float64) float64 {
	if g.CellSize <= 0 {
		return cells
	}
	return cells * float64(g.CellSize)
}

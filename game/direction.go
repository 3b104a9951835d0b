package game

import "strings"

// Direction is a polled input. Quit is carried alongside the headings so a
// single poll can express every player intent.
type Direction uint8

const (
	None Direction = iota
	Left
	Up
	Right
	Down
	Quit
)

var directionNames = [...]string{"none", "left", "up", "right", "down", "quit"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "none"
}

// IsMove reports whether d is one of the four headings.
func (d Direction) IsMove() bool {
	return d >= Left && d <= Down
}

// Delta is the one cell offset for d. Non-move directions return (0, 0).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Left:
		return -1, 0
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	}
	return 0, 0
}

// Opposite returns the reverse heading, or d itself for non-move directions.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

// ParseDirection maps a name (case-insensitive) to a Direction.
// Unknown names are None.
func ParseDirection(s string) Direction {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if name == s {
			return Direction(i)
		}
	}
	return None
}

package game

// Body is the snake, head first.
type Body []Point

// NewBody returns a one cell snake at the centre of g.
func NewBody(g Grid) Body {
	return Body{g.Center()}
}

// Head returns the first cell. The body is never empty during a run.
func (b Body) Head() Point {
	return b[0]
}

// Contains reports whether any segment occupies p.
func (b Body) Contains(p Point) bool {
	for _, s := range b {
		if s == p {
			return true
		}
	}
	return false
}

// HitsSelf reports whether the head overlaps any later segment.
func (b Body) HitsSelf() bool {
	if len(b) < 2 {
		return false
	}
	head := b[0]
	for _, s := range b[1:] {
		if s == head {
			return true
		}
	}
	return false
}

// Heading infers the current direction of travel from the neck. A single
// segment snake has no neck and reports Right, the starting heading.
func (b Body) Heading() Direction {
	if len(b) < 2 {
		return Right
	}
	dx, dy := b[0].X-b[1].X, b[0].Y-b[1].Y
	switch {
	case dx > 0:
		return Right
	case dx < 0:
		return Left
	case dy < 0:
		return Up
	case dy > 0:
		return Down
	}
	return Right
}

// ResolveMove returns the next head for dir.
//
// A request that would put the head onto the neck is the reverse of the
// current travel; it is silently inverted so the snake keeps going the way it
// was heading. Non-move directions continue the current heading.
func ResolveMove(dir Direction, body Body) Point {
	if !dir.IsMove() {
		dir = body.Heading()
	}
	dx, dy := dir.Delta()
	next := body[0].Add(dx, dy)

	if len(body) >= 2 && next == body[1] {
		next = body[0].Add(-dx, -dy)
	}
	return next
}

// GrowOrShift prepends head. The tail is dropped unless keepTail is set.
// The input slice is not modified.
func GrowOrShift(body Body, head Point, keepTail bool) Body {
	n := len(body) + 1
	if !keepTail {
		n--
	}
	out := make(Body, 0, len(body)+1)
	out = append(out, head)
	out = append(out, body[:n-1]...)
	return out
}

// Clone returns an independent copy.
func (b Body) Clone() Body {
	if b == nil {
		return nil
	}
	out := make(Body, len(b))
	copy(out, b)
	return out
}

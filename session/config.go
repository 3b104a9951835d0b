package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/rules"
)

// GameVersion is stamped on every run record.
const GameVersion = "1.0 Release"

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid session config")

// SpeedBounds clamps the snake tick interval.
type SpeedBounds struct {
	Lower time.Duration
	Upper time.Duration
}

// Config describes one run. The zero value is not usable; start from
// DefaultConfig. CellSize is display units per cell, the unit pursuer speeds
// are drawn in.
type Config struct {
	GridWidth           int
	GridHeight          int
	CellSize            int
	PursuerCount        int
	StartingFat         int
	SpeedBounds         SpeedBounds
	ActivationThreshold int
	HighDifficulty      bool
	Seed                int64

	SubstepPeriod time.Duration // demon update cadence
	ScorePeriod   time.Duration // survival award cadence
	PollInterval  time.Duration // Run loop iteration period
}

// DefaultConfig is the classic 600x600 board of 24 unit cells.
func DefaultConfig() Config {
	return Config{
		GridWidth:           game.DefaultGrid.Width,
		GridHeight:          game.DefaultGrid.Height,
		CellSize:            game.DefaultGrid.CellSize,
		PursuerCount:        PursuersFor(false),
		StartingFat:         0,
		SpeedBounds:         SpeedBounds{Lower: 100 * time.Millisecond, Upper: 300 * time.Millisecond},
		ActivationThreshold: rules.DefaultActivationLength,
		SubstepPeriod:       100 * time.Millisecond,
		ScorePeriod:         3000 * time.Millisecond,
		PollInterval:        5 * time.Millisecond,
	}
}

// PursuersFor is the demon count of the classic game: one, or a hundred in
// impossible mode.
func PursuersFor(highDifficulty bool) int {
	if highDifficulty {
		return 100
	}
	return 1
}

// Grid returns the board described by c.
func (c Config) Grid() game.Grid {
	return game.Grid{Width: c.GridWidth, Height: c.GridHeight, CellSize: c.CellSize}
}

// Validate checks ranges. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.GridWidth <= 0 || c.GridHeight <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, c.GridWidth, c.GridHeight)
	case c.GridWidth*c.GridHeight < 2:
		return fmt.Errorf("%w: grid needs at least two cells", ErrInvalidConfig)
	case c.CellSize <= 0:
		return fmt.Errorf("%w: cell size %d", ErrInvalidConfig, c.CellSize)
	case c.PursuerCount < 0:
		return fmt.Errorf("%w: pursuer count %d", ErrInvalidConfig, c.PursuerCount)
	case c.StartingFat < 0:
		return fmt.Errorf("%w: starting fat %d", ErrInvalidConfig, c.StartingFat)
	case c.SpeedBounds.Lower <= 0 || c.SpeedBounds.Upper < c.SpeedBounds.Lower:
		return fmt.Errorf("%w: speed bounds [%s, %s]", ErrInvalidConfig, c.SpeedBounds.Lower, c.SpeedBounds.Upper)
	case c.ActivationThreshold < 0:
		return fmt.Errorf("%w: activation threshold %d", ErrInvalidConfig, c.ActivationThreshold)
	case c.SubstepPeriod <= 0 || c.ScorePeriod <= 0:
		return fmt.Errorf("%w: substep %s, score period %s", ErrInvalidConfig, c.SubstepPeriod, c.ScorePeriod)
	}
	return nil
}

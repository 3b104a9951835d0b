package rules

import "errors"

// ErrPlacementExhausted means no free cell was left for a food item even after
// the exhaustive scan. The occupancy guard should make this unreachable.
var ErrPlacementExhausted = errors.New("food placement exhausted")

package game

import (
	"fmt"
	"math/rand/v2"
)

// maxAttempts bounds the sampling loop for a single ship. The standard fleet
// on a 10x10 board needs a handful of tries; only a fleet that cannot fit
// ever gets close.
const maxAttempts = 10000

// RandomizeBoard places one ship per entry of fleet, in order, each at a
// uniformly random orientation and origin whose run fits on the board,
// resampling until the placement is legal. rng may be nil to use the global
// source.
func RandomizeBoard(b *Board, fleet []int, rng *rand.Rand) error {
	for _, length := range fleet {
		if length < 1 || length > b.Size() {
			return fmt.Errorf("%w: %d", ErrInvalidShipLength, length)
		}
		placed := false
		for attempt := 0; attempt < maxAttempts && !placed; attempt++ {
			var row, col int
			o := Orientation(intN(rng, 2))
			if o == Horizontal {
				row = intN(rng, b.Size())
				col = intN(rng, b.Size()-length+1)
			} else {
				row = intN(rng, b.Size()-length+1)
				col = intN(rng, b.Size())
			}
			placed = b.PlaceShip(row, col, o, length)
		}
		if !placed {
			return fmt.Errorf("%w: no room for ship of length %d", ErrPlacementRejected, length)
		}
	}
	return nil
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

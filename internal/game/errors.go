package game

import "errors"

// Validation failures. None of them leave a Game partially mutated.
var (
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidShipLength = errors.New("invalid ship length")
	ErrShipAlreadyPlaced = errors.New("all ships of that length already placed")
	ErrPlacementRejected = errors.New("cannot place ship there")
	ErrDuplicateTarget   = errors.New("already fired at this target")
	ErrOutOfBounds       = errors.New("target out of bounds")
	ErrInvalidPlayer     = errors.New("invalid player index")
)

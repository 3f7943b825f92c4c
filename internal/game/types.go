// internal/game/types.go
//
// Core type definitions for the Battleship game engine.
// Defines:
//   - Orientation: axis a ship runs along (horizontal/vertical).
//   - Cell: occupancy of a square on a player's own board.
//   - Mark/Shot: a square on a tracking board (unknown/hit/miss + marker).
//   - Status, MoveResult, Placement: values exchanged with callers.

package game

import (
	"fmt"
	"strings"
)

const (
	// DefaultSize is the board dimension (10x10).
	DefaultSize = 10

	// Draw is returned by Game.Winner when both fleets went down together
	// with equal scores.
	Draw = -1
)

// DefaultFleet is the standard fleet: destroyer, two cruisers, battleship, carrier.
var DefaultFleet = []int{2, 3, 3, 4, 5}

// Orientation is the axis a ship is laid along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

// ParseOrientation accepts "H"/"V" and "Horizontal"/"Vertical" (any case).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "horizontal":
		return Horizontal, nil
	case "v", "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Cell is the content of one square of a player's own board.
// Ship cells remember their orientation so the separation rule can tell
// same-axis neighbours from perpendicular ones.
type Cell int

const (
	CellEmpty Cell = iota
	CellShipHorizontal
	CellShipVertical
)

// IsShip reports whether the cell is occupied by a ship of either orientation.
func (c Cell) IsShip() bool { return c == CellShipHorizontal || c == CellShipVertical }

func cellFor(o Orientation) Cell {
	if o == Vertical {
		return CellShipVertical
	}
	return CellShipHorizontal
}

// Mark is the state of one square on a tracking board.
type Mark int

const (
	MarkUnknown Mark = iota
	MarkHit
	MarkMiss
)

func (m Mark) String() string {
	switch m {
	case MarkHit:
		return "hit"
	case MarkMiss:
		return "miss"
	default:
		return "unknown"
	}
}

// Shot is a tracking-board entry: what happened and who fired it.
type Shot struct {
	Mark   Mark
	Marker string // "1" or "2"; empty while unknown
}

// Coord is a zero-based (row, col) pair.
type Coord struct {
	Row int
	Col int
}

// Status is the coarse lifecycle state reported to clients.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// MoveResult is what a single shot produced.
type MoveResult struct {
	Hit        bool `json:"hit"`
	Sunk       bool `json:"sunk"`
	SwitchTurn bool `json:"switch_turn"`
}

// Placement describes one ship to be laid on a board.
type Placement struct {
	Row         int
	Col         int
	Orientation Orientation
	Length      int
}

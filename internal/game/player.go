package game

import "github.com/dolthub/swiss"

// Player owns a fleet board, a tracking board of shots fired, and counters.
type Player struct {
	Name           string
	Marker         string // "1" for seat 0, "2" for seat 1
	Score          int    // successful hits
	ShipsRemaining int    // decremented each time one of this player's ships sinks

	Board    *Board
	Tracking *TrackingBoard

	moves  *swiss.Map[Coord, struct{}]
	placed map[int]int // ship length -> ships of that length already placed
}

func newPlayer(name, marker string, size, fleetLen int) *Player {
	return &Player{
		Name:           name,
		Marker:         marker,
		ShipsRemaining: fleetLen,
		Board:          NewBoard(size),
		Tracking:       NewTrackingBoard(size),
		moves:          swiss.NewMap[Coord, struct{}](uint32(size * size)),
		placed:         make(map[int]int),
	}
}

// HasFired reports whether the player already targeted (row, col).
func (p *Player) HasFired(row, col int) bool {
	return p.moves.Has(Coord{Row: row, Col: col})
}

// MovesMade returns how many shots the player has fired.
func (p *Player) MovesMade() int { return p.moves.Count() }

func (p *Player) recordMove(row, col int) {
	p.moves.Put(Coord{Row: row, Col: col}, struct{}{})
}

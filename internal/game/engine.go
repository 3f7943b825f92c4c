// internal/game/engine.go
//
// Core game engine for a single Battleship match.
// Responsibilities:
//   - Create games for a fleet (default 2,3,3,4,5) on a 10x10 board.
//   - Validate and apply ship placements (single, batch, random).
//   - Resolve shots end to end: duplicate/bounds checks, hit, sunk, turn.
//   - Report status (playing/finished) and the winner.
//
// Notes:
//   - Turn enforcement ("not your turn") belongs to the caller; MakeMove
//     trusts the player index it is given.
//   - A Game is not safe for concurrent use. Callers serialize access.
package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Game holds the state of one two-player match.
type Game struct {
	Fleet         []int      // ship lengths each player must place
	Players       [2]*Player // seats 0 and 1
	CurrentPlayer int        // seat whose turn it is to fire
	size          int
}

// New constructs a game for fleet. A nil or empty fleet means DefaultFleet.
// Every length must fit on the board.
func New(fleet []int) (*Game, error) {
	if len(fleet) == 0 {
		fleet = DefaultFleet
	}
	for _, l := range fleet {
		if l < 1 || l > DefaultSize {
			return nil, fmt.Errorf("%w: %d", ErrInvalidShipLength, l)
		}
	}
	fleet = slices.Clone(fleet)
	return &Game{
		Fleet: fleet,
		Players: [2]*Player{
			newPlayer("P1", "1", DefaultSize, len(fleet)),
			newPlayer("P2", "2", DefaultSize, len(fleet)),
		},
		size: DefaultSize,
	}, nil
}

// Size returns the board dimension.
func (g *Game) Size() int { return g.size }

func (g *Game) player(i int) (*Player, error) {
	if i != 0 && i != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, i)
	}
	return g.Players[i], nil
}

// fleetCount returns how many ships of length the fleet contains.
func (g *Game) fleetCount(length int) int {
	n := 0
	for _, l := range g.Fleet {
		if l == length {
			n++
		}
	}
	return n
}

// PlaceShip lays one ship for a player.
func (g *Game) PlaceShip(playerIdx, row, col int, o Orientation, length int) error {
	p, err := g.player(playerIdx)
	if err != nil {
		return err
	}
	if o != Horizontal && o != Vertical {
		return ErrInvalidDirection
	}
	total := g.fleetCount(length)
	if total == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShipLength, length)
	}
	if p.placed[length] >= total {
		return fmt.Errorf("%w: %d", ErrShipAlreadyPlaced, length)
	}
	if !p.Board.PlaceShip(row, col, o, length) {
		return fmt.Errorf("%w: %s ship of length %d at (%d, %d)", ErrPlacementRejected, o, length, row, col)
	}
	p.placed[length]++
	return nil
}

// PlaceFleet applies placements in order. If any of them fails, the player's
// board is restored to what it was before the call.
func (g *Game) PlaceFleet(playerIdx int, placements []Placement) error {
	p, err := g.player(playerIdx)
	if err != nil {
		return err
	}
	board := p.Board.Clone()
	placed := make(map[int]int, len(p.placed))
	for k, v := range p.placed {
		placed[k] = v
	}
	for i, pl := range placements {
		if err := g.PlaceShip(playerIdx, pl.Row, pl.Col, pl.Orientation, pl.Length); err != nil {
			p.Board, p.placed = board, placed
			return fmt.Errorf("placement %d: %w", i, err)
		}
	}
	return nil
}

// RemainingShips returns the lengths of the player's ships not yet placed,
// in fleet order.
func (g *Game) RemainingShips(playerIdx int) []int {
	p, err := g.player(playerIdx)
	if err != nil {
		return nil
	}
	seen := make(map[int]int)
	var out []int
	for _, l := range g.Fleet {
		seen[l]++
		if seen[l] > p.placed[l] {
			out = append(out, l)
		}
	}
	return out
}

// FleetPlaced reports whether the player has placed every ship of the fleet.
func (g *Game) FleetPlaced(playerIdx int) bool {
	p, err := g.player(playerIdx)
	if err != nil {
		return false
	}
	return p.Board.ShipCount() == len(g.Fleet)
}

// RandomizeFleet places every ship the player has not placed yet at random
// legal positions. rng may be nil to use the global source.
func (g *Game) RandomizeFleet(playerIdx int, rng *rand.Rand) error {
	p, err := g.player(playerIdx)
	if err != nil {
		return err
	}
	remaining := g.RemainingShips(playerIdx)
	board := p.Board.Clone()
	if err := RandomizeBoard(board, remaining, rng); err != nil {
		return err
	}
	p.Board = board
	for _, l := range remaining {
		p.placed[l]++
	}
	return nil
}

// MakeMove fires playerIdx's shot at (row, col) on the opponent's board.
//
// Checks, in order: valid player, not already fired there, in bounds.
// A hit scores a point and keeps the turn; sinking a ship decrements the
// opponent's remaining count. A miss passes the turn.
func (g *Game) MakeMove(playerIdx, row, col int) (MoveResult, error) {
	p, err := g.player(playerIdx)
	if err != nil {
		return MoveResult{}, err
	}
	opp := g.Players[1-playerIdx]

	if p.HasFired(row, col) {
		return MoveResult{}, fmt.Errorf("%w: (%d, %d)", ErrDuplicateTarget, row, col)
	}
	if !opp.Board.InBounds(row, col) {
		return MoveResult{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	p.recordMove(row, col)

	var res MoveResult
	if opp.Board.Hit(row, col) {
		res.Hit = true
		p.Score++
		p.Tracking.Mark(row, col, MarkHit, p.Marker)
		if opp.Board.CheckSunk(p.Tracking, row, col) {
			res.Sunk = true
			if opp.ShipsRemaining > 0 {
				opp.ShipsRemaining--
			}
		}
		return res, nil
	}

	p.Tracking.Mark(row, col, MarkMiss, p.Marker)
	g.CurrentPlayer = 1 - g.CurrentPlayer
	res.SwitchTurn = true
	return res, nil
}

// Status reports finished once either fleet is gone.
func (g *Game) Status() Status {
	if g.Players[0].ShipsRemaining == 0 || g.Players[1].ShipsRemaining == 0 {
		return StatusFinished
	}
	return StatusPlaying
}

// Winner returns the winning seat once the game is finished.
// If both fleets are gone the higher score wins; equal scores give Draw.
// finished is false while the game is still being played.
func (g *Game) Winner() (winner int, finished bool) {
	if g.Status() != StatusFinished {
		return 0, false
	}
	a, b := g.Players[0], g.Players[1]
	switch {
	case a.ShipsRemaining > 0:
		return 0, true
	case b.ShipsRemaining > 0:
		return 1, true
	case a.Score > b.Score:
		return 0, true
	case b.Score > a.Score:
		return 1, true
	default:
		return Draw, true
	}
}

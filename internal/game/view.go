// internal/game/view.go
//
// Per-viewer state serialization.
//
// The "opponent" grid is built only from what the viewer already knows (its
// own misses), never from the opponent's real cells, so ship positions cannot
// leak through it.

package game

// Board view categories.
const (
	ViewShip    = "ship"
	ViewWater   = "water"
	ViewHit     = "hit"
	ViewMiss    = "miss"
	ViewUnknown = "unknown"
)

// PlayerView is the public summary of a seat.
type PlayerView struct {
	Name           string `json:"name"`
	Points         int    `json:"points"`
	ShipsRemaining int    `json:"shipsRemaining"`
}

// BoardsView groups the grids a viewer may see.
//
// Own overlays incoming fire on the viewer's fleet, so a struck ship square
// reads "hit". Fleet is the viewer's fleet alone (ship/water) and keeps every
// ship square visible however much of it has been hit.
type BoardsView struct {
	Own      [][]string `json:"own"`
	Fleet    [][]string `json:"fleet"`
	Opponent [][]string `json:"opponent"`
	Tracking [][]string `json:"tracking"`
}

// State is the snapshot of a game as seen from one seat.
type State struct {
	CurrentPlayer int           `json:"currentPlayer"`
	Players       [2]PlayerView `json:"players"`
	ViewerIndex   int           `json:"viewerIndex"`
	Boards        BoardsView    `json:"boards"`
	Status        Status        `json:"status"`
	Winner        *int          `json:"winner,omitempty"`
}

// Snapshot serializes the game for viewer.
func (g *Game) Snapshot(viewer int) (State, error) {
	me, err := g.player(viewer)
	if err != nil {
		return State{}, err
	}
	opp := g.Players[1-viewer]

	st := State{
		CurrentPlayer: g.CurrentPlayer,
		ViewerIndex:   viewer,
		Boards: BoardsView{
			Own:      ownView(me.Board, opp.Tracking),
			Fleet:    fleetView(me.Board),
			Opponent: opponentView(me.Tracking),
			Tracking: trackingView(me.Tracking),
		},
		Status: g.Status(),
	}
	for i, p := range g.Players {
		st.Players[i] = PlayerView{Name: p.Name, Points: p.Score, ShipsRemaining: p.ShipsRemaining}
	}
	if w, done := g.Winner(); done {
		st.Winner = &w
	}
	return st, nil
}

// ownView shows the viewer's fleet plus where the opponent has fired.
func ownView(b *Board, incoming *TrackingBoard) [][]string {
	out := grid(b.Size())
	for r := range out {
		for c := range out[r] {
			switch shot := incoming.At(r, c); {
			case shot.Mark == MarkHit:
				out[r][c] = ViewHit
			case shot.Mark == MarkMiss:
				out[r][c] = ViewMiss
			case b.At(r, c).IsShip():
				out[r][c] = ViewShip
			default:
				out[r][c] = ViewWater
			}
		}
	}
	return out
}

// fleetView shows ship squares and water, ignoring shots.
func fleetView(b *Board) [][]string {
	out := grid(b.Size())
	for r := range out {
		for c := range out[r] {
			if b.At(r, c).IsShip() {
				out[r][c] = ViewShip
			} else {
				out[r][c] = ViewWater
			}
		}
	}
	return out
}

// opponentView only ever contains water (confirmed by a miss) or unknown.
func opponentView(mine *TrackingBoard) [][]string {
	out := grid(mine.Size())
	for r := range out {
		for c := range out[r] {
			if mine.At(r, c).Mark == MarkMiss {
				out[r][c] = ViewWater
			} else {
				out[r][c] = ViewUnknown
			}
		}
	}
	return out
}

func trackingView(t *TrackingBoard) [][]string {
	out := grid(t.Size())
	for r := range out {
		for c := range out[r] {
			out[r][c] = t.At(r, c).Mark.String()
		}
	}
	return out
}

func grid(size int) [][]string {
	out := make([][]string, size)
	for r := range out {
		out[r] = make([]string, size)
	}
	return out
}

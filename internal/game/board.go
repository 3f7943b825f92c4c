// internal/game/board.go
//
// Board: a square grid holding one player's fleet.
// Responsibilities:
//   - Placement legality (bounds, overlap, end separation on the same axis).
//   - Applying placements and keeping an explicit ship registry.
//   - Hit queries and sunk detection against a tracking board.
//
// Each placed ship is registered with its cells, and every occupied square
// points back at its ship, so "sunk" is simply "every cell of this ship is
// marked hit" instead of a walk over neighbouring squares.

package game

// endGuard is how many squares beyond each end of a run must be free of a
// same-orientation ship.
const endGuard = 2

type ship struct {
	orientation Orientation
	cells       []Coord
}

// Board is one player's own grid.
type Board struct {
	size  int
	cells [][]Cell
	owner [][]int // index into ships, -1 when empty
	ships []ship
}

// NewBoard returns an empty size x size board.
func NewBoard(size int) *Board {
	b := &Board{
		size:  size,
		cells: make([][]Cell, size),
		owner: make([][]int, size),
	}
	for r := 0; r < size; r++ {
		b.cells[r] = make([]Cell, size)
		b.owner[r] = make([]int, size)
		for c := range b.owner[r] {
			b.owner[r][c] = -1
		}
	}
	return b
}

// Size returns the grid dimension.
func (b *Board) Size() int { return b.size }

// InBounds reports whether (row, col) lies on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

// At returns the cell at (row, col); out-of-bounds squares read as empty.
func (b *Board) At(row, col int) Cell {
	if !b.InBounds(row, col) {
		return CellEmpty
	}
	return b.cells[row][col]
}

// ShipCount returns how many ships have been placed.
func (b *Board) ShipCount() int { return len(b.ships) }

// CheckPlacement reports whether a ship of the given length and orientation
// may start at (row, col). It never mutates the board.
//
// Only ships lying on the same axis are considered for end separation:
// a horizontal ship looks for ShipHorizontal squares left and right of its
// run, a vertical one for ShipVertical squares above and below.
func (b *Board) CheckPlacement(row, col int, o Orientation, length int) bool {
	if length < 1 || !b.InBounds(row, col) {
		return false
	}
	if o != Horizontal && o != Vertical {
		return false
	}
	dr, dc := step(o)
	endRow, endCol := row+dr*(length-1), col+dc*(length-1)
	if !b.InBounds(endRow, endCol) {
		return false
	}
	for i := 0; i < length; i++ {
		if b.cells[row+dr*i][col+dc*i] != CellEmpty {
			return false
		}
	}
	same := cellFor(o)
	for d := 1; d <= endGuard; d++ {
		if b.At(row-dr*d, col-dc*d) == same || b.At(endRow+dr*d, endCol+dc*d) == same {
			return false
		}
	}
	return true
}

// PlaceShip lays the ship if CheckPlacement allows it and reports whether it
// did. An illegal placement leaves the board untouched.
func (b *Board) PlaceShip(row, col int, o Orientation, length int) bool {
	if !b.CheckPlacement(row, col, o, length) {
		return false
	}
	dr, dc := step(o)
	id := len(b.ships)
	s := ship{orientation: o, cells: make([]Coord, 0, length)}
	for i := 0; i < length; i++ {
		r, c := row+dr*i, col+dc*i
		b.cells[r][c] = cellFor(o)
		b.owner[r][c] = id
		s.cells = append(s.cells, Coord{Row: r, Col: c})
	}
	b.ships = append(b.ships, s)
	return true
}

// Hit reports whether (row, col) holds part of a ship. Pure query.
func (b *Board) Hit(row, col int) bool {
	return b.At(row, col).IsShip()
}

// CheckSunk reports whether the ship covering (row, col) has had every one of
// its cells marked as hit on the firing player's tracking board.
func (b *Board) CheckSunk(t *TrackingBoard, row, col int) bool {
	if !b.InBounds(row, col) {
		return false
	}
	id := b.owner[row][col]
	if id < 0 {
		return false
	}
	for _, c := range b.ships[id].cells {
		if t.At(c.Row, c.Col).Mark != MarkHit {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cp := NewBoard(b.size)
	for r := 0; r < b.size; r++ {
		copy(cp.cells[r], b.cells[r])
		copy(cp.owner[r], b.owner[r])
	}
	cp.ships = make([]ship, len(b.ships))
	for i, s := range b.ships {
		cp.ships[i] = ship{orientation: s.orientation, cells: append([]Coord(nil), s.cells...)}
	}
	return cp
}

// step returns the per-cell (row, col) delta along an orientation.
func step(o Orientation) (int, int) {
	if o == Vertical {
		return 1, 0
	}
	return 0, 1
}

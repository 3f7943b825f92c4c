package game

// TrackingBoard records one player's shots against the opponent.
type TrackingBoard struct {
	size  int
	cells [][]Shot
}

// NewTrackingBoard returns an all-unknown size x size tracking board.
func NewTrackingBoard(size int) *TrackingBoard {
	t := &TrackingBoard{size: size, cells: make([][]Shot, size)}
	for r := range t.cells {
		t.cells[r] = make([]Shot, size)
	}
	return t
}

// Size returns the grid dimension.
func (t *TrackingBoard) Size() int { return t.size }

// At returns the shot recorded at (row, col); off-board squares are unknown.
func (t *TrackingBoard) At(row, col int) Shot {
	if row < 0 || row >= t.size || col < 0 || col >= t.size {
		return Shot{}
	}
	return t.cells[row][col]
}

// Mark records a hit or miss fired by marker.
func (t *TrackingBoard) Mark(row, col int, m Mark, marker string) {
	t.cells[row][col] = Shot{Mark: m, Marker: marker}
}

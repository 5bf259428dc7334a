package engine

// Board is a fixed-size NxN grid of cell marks. A cell, once marked, never
// changes. A Board is owned by exactly one game and is never shared.
type Board struct {
	size  int
	cells []Slot
	marks int
}

// NewBoard creates an empty size x size board.
func NewBoard(size int) *Board {
	cells := make([]Slot, size*size)
	for i := range cells {
		cells[i] = SlotNone
	}
	return &Board{size: size, cells: cells}
}

// Size returns the board dimension N.
func (b *Board) Size() int {
	return b.size
}

// At returns the mark at (x,y), or SlotNone if the cell is empty or the
// coordinates are outside the board.
func (b *Board) At(x, y int) Slot {
	if !b.inBounds(x, y) {
		return SlotNone
	}
	return b.cells[y*b.size+x]
}

// Place marks (x,y) for slot. It fails with out_of_bounds or cell_occupied
// and has no other side effects.
func (b *Board) Place(x, y int, slot Slot) error {
	if !b.inBounds(x, y) {
		return errOutOfBounds(x, y, b.size)
	}
	idx := y*b.size + x
	if b.cells[idx] != SlotNone {
		return errCellOccupied(x, y)
	}
	b.cells[idx] = slot
	b.marks++
	return nil
}

// IsFull reports whether every cell is marked.
func (b *Board) IsFull() bool {
	return b.marks == len(b.cells)
}

// runAxes are the four line directions: horizontal, vertical and the two
// diagonals. The reverse direction of each axis is walked separately.
var runAxes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// HasRun reports whether the mark at (x,y) completes a contiguous run of at
// least runLength same-slot marks along one of the four axes. Only the lines
// through the just-placed cell are examined; no other cell changed.
func (b *Board) HasRun(x, y int, slot Slot, runLength int) bool {
	if b.At(x, y) != slot {
		return false
	}
	for _, axis := range runAxes {
		count := 1

		fx, fy := x+axis[0], y+axis[1]
		for b.At(fx, fy) == slot {
			count++
			fx += axis[0]
			fy += axis[1]
		}

		bx, by := x-axis[0], y-axis[1]
		for b.At(bx, by) == slot {
			count++
			bx -= axis[0]
			by -= axis[1]
		}

		if count >= runLength {
			return true
		}
	}
	return false
}

// Grid returns a row-major copy of the board, suitable for state updates.
func (b *Board) Grid() [][]Slot {
	grid := make([][]Slot, b.size)
	for y := 0; y < b.size; y++ {
		row := make([]Slot, b.size)
		copy(row, b.cells[y*b.size:(y+1)*b.size])
		grid[y] = row
	}
	return grid
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

package game

import "errors"

// Board geometry for the only supported ruleset.
const (
	Rows   = 6
	Cols   = 7
	WinLen = 4
)

// Cell is the content of one board position.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// Opponent returns the other disc symbol. Empty maps to Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "-"
	}
}

// MarshalJSON encodes a cell as null, "X" or "O" for the wire format.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c {
	case X:
		return []byte(`"X"`), nil
	case O:
		return []byte(`"O"`), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, "X" or "O".
func (c *Cell) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*c = Empty
	case `"X"`:
		*c = X
	case `"O"`:
		*c = O
	default:
		return errors.New("invalid cell")
	}
	return nil
}

// Grid is a full board snapshot, row 0 at the top.
type Grid [Rows][Cols]Cell

// ErrColumnFull reports a drop into a column whose top cell is occupied.
var ErrColumnFull = errors.New("column is full")

// Board is the 6x7 gravity grid. Discs are only ever appended per column;
// nothing removes one. Not safe for concurrent use, callers serialize.
type Board struct {
	cells  Grid
	filled int
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Drop places c in the lowest empty row of col and returns that row.
// Returns ErrColumnFull when the column has no room. An out-of-range
// column or an Empty disc is a programming error and panics.
func (b *Board) Drop(col int, c Cell) (int, error) {
	if col < 0 || col >= Cols {
		panic("game: drop column out of range")
	}
	if c == Empty {
		panic("game: drop of empty cell")
	}
	for row := Rows - 1; row >= 0; row-- {
		if b.cells[row][col] == Empty {
			b.cells[row][col] = c
			b.filled++
			return row, nil
		}
	}
	return 0, ErrColumnFull
}

// Cell returns the content at (row, col).
func (b *Board) Cell(row, col int) Cell {
	return b.cells[row][col]
}

// ColumnFull reports whether col has no empty cell left.
func (b *Board) ColumnFull(col int) bool {
	return b.cells[0][col] != Empty
}

// IsFull reports whether every cell is occupied.
func (b *Board) IsFull() bool {
	return b.filled == Rows*Cols
}

// Filled returns the number of occupied cells.
func (b *Board) Filled() int {
	return b.filled
}

// Cells returns a copy of the grid.
func (b *Board) Cells() Grid {
	return b.cells
}

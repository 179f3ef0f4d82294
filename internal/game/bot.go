package game

// fallbackOrder biases the automated opponent toward the center columns
// when no tactical move exists.
var fallbackOrder = [Cols]int{3, 2, 4, 1, 5, 0, 6}

// ChooseColumn picks a move for the automated opponent: take an immediate
// win, otherwise block the opponent's immediate win, otherwise the first
// non-full column in center-biased order. Returns -1 only on a full board,
// which callers rule out beforehand.
func ChooseColumn(b *Board, own Cell) int {
	if col, ok := winningColumn(b, own); ok {
		return col
	}
	if col, ok := winningColumn(b, own.Opponent()); ok {
		return col
	}
	for _, col := range fallbackOrder {
		if !b.ColumnFull(col) {
			return col
		}
	}
	return -1
}

// winningColumn finds a column where dropping c wins at once. Probing runs
// on a copy so the live board stays append-only.
func winningColumn(b *Board, c Cell) (int, bool) {
	for col := 0; col < Cols; col++ {
		if b.ColumnFull(col) {
			continue
		}
		probe := *b
		row, err := probe.Drop(col, c)
		if err != nil {
			continue
		}
		if _, won := FindWin(&probe, c, row, col); won {
			return col, true
		}
	}
	return 0, false
}

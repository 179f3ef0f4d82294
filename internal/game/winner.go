package game

// axes are the four line directions, each treated as one bidirectional
// axis: vertical, horizontal, diagonal down-right, diagonal down-left.
var axes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// FindWin checks whether the disc just played at (row, col) completes a run
// of WinLen or more for c. The returned line holds exactly WinLen cells:
// the scan walks to the run's far end along the axis's positive direction
// and collects cells walking back through the seed, so with more than four
// connected the four nearest that end are reported. That ordering is part
// of the contract, not an accident of the scan.
func FindWin(b *Board, c Cell, row, col int) ([][2]int, bool) {
	if c == Empty || b.Cell(row, col) != c {
		return nil, false
	}
	for _, d := range axes {
		// Far end of the contiguous run in the positive direction.
		er, ec := row, col
		for inBounds(er+d[0], ec+d[1]) && b.Cell(er+d[0], ec+d[1]) == c {
			er += d[0]
			ec += d[1]
		}
		// Walk back through the seed, counting the full run.
		line := make([][2]int, 0, WinLen)
		count := 0
		for r, cc := er, ec; inBounds(r, cc) && b.Cell(r, cc) == c; r, cc = r-d[0], cc-d[1] {
			count++
			if len(line) < WinLen {
				line = append(line, [2]int{r, cc})
			}
		}
		if count >= WinLen {
			return line, true
		}
	}
	return nil, false
}

// FindWinAnywhere scans the whole board for a winning run of c, seeding the
// per-cell scan at every occupied cell. Slower than FindWin and only meant
// for callers without a last-move hint.
func FindWinAnywhere(b *Board, c Cell) ([][2]int, bool) {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if b.Cell(row, col) != c {
				continue
			}
			if line, won := FindWin(b, c, row, col); won {
				return line, true
			}
		}
	}
	return nil, false
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

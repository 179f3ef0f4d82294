package core

import (
	"testing"

	"github.com/rs/zerolog"
)

// benchmarkPlayout measures a full session lifecycle: creation, every
// move with its win scan and broadcast, and terminal eviction. Seats are
// detached so channel delivery does not dominate the measurement.
func benchmarkPlayout(b *testing.B, moves []int) {
	logger := zerolog.Nop()
	e := NewEngine(NewRegistry(), Options{Log: &logger})

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s := e.CreateSession(
			Participant{Identity: "p1"},
			Participant{Identity: "p2"},
		)
		for j, col := range moves {
			if err := e.ApplyMove(s.ID, j%2, col); err != nil {
				b.Fatalf("move %d in column %d: %v", j, col, err)
			}
		}
	}
}

func BenchmarkPlayoutShortestWin(b *testing.B) {
	// Seat 0 stacks column 0 to a vertical four.
	benchmarkPlayout(b, []int{0, 1, 0, 1, 0, 1, 0})
}

func BenchmarkPlayoutFullBoardDraw(b *testing.B) {
	moves := make([]int, 0, 42)
	for row := 0; row < 6; row++ {
		moves = append(moves, 0, 2, 1, 3, 4, 6, 5)
	}
	benchmarkPlayout(b, moves)
}

package store

import (
	"context"
	"time"
)

// GameResult is the final record of one session, written once when the
// session turns terminal.
type GameResult struct {
	SessionID  string
	Player1    string
	Player2    string
	Winner     string // empty on a draw or an unattributed forfeiture
	IsDraw     bool
	Reason     string // empty unless the game ended by forfeiture
	Moves      int
	FinishedAt time.Time
}

// LeaderboardEntry aggregates one player's standing.
type LeaderboardEntry struct {
	Player string
	Wins   int
	Games  int
}

// Store handles result persistence and leaderboard queries.
type Store interface {
	// SaveResult persists a finished game's result.
	SaveResult(ctx context.Context, res *GameResult) error

	// Leaderboard returns players ordered by win count, capped at limit.
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)

	// RecentResults returns the most recently finished games, newest first.
	RecentResults(ctx context.Context, limit int) ([]*GameResult, error)

	// Close closes the underlying database connection.
	Close() error
}

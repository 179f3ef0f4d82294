package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"fourline-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	player1 TEXT NOT NULL,
	player2 TEXT NOT NULL,
	winner TEXT,
	is_draw INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	moves INTEGER NOT NULL DEFAULT 0,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_winner ON game_results(winner);
CREATE INDEX IF NOT EXISTS idx_game_results_finished_at ON game_results(finished_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult persists a finished game's result.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *store.GameResult) error {
	query := `
		INSERT INTO game_results (session_id, player1, player2, winner, is_draw, reason, moves, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	winner := sql.NullString{String: res.Winner, Valid: res.Winner != ""}
	if _, err := s.db.ExecContext(ctx, query,
		res.SessionID, res.Player1, res.Player2, winner,
		res.IsDraw, res.Reason, res.Moves, res.FinishedAt,
	); err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// Leaderboard returns players ordered by win count.
func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]*store.LeaderboardEntry, error) {
	query := `
		SELECT w.player, w.wins,
			(SELECT COUNT(*) FROM game_results g
			 WHERE g.player1 = w.player OR g.player2 = w.player) AS games
		FROM (
			SELECT winner AS player, COUNT(*) AS wins
			FROM game_results
			WHERE winner IS NOT NULL
			GROUP BY winner
		) w
		ORDER BY w.wins DESC, w.player ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*store.LeaderboardEntry
	for rows.Next() {
		e := &store.LeaderboardEntry{}
		if err := rows.Scan(&e.Player, &e.Wins, &e.Games); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

// RecentResults returns the most recently finished games, newest first.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]*store.GameResult, error) {
	query := `
		SELECT session_id, player1, player2, COALESCE(winner, ''), is_draw, reason, moves, finished_at
		FROM game_results
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent results: %w", err)
	}
	defer rows.Close()

	var results []*store.GameResult
	for rows.Next() {
		r := &store.GameResult{}
		if err := rows.Scan(&r.SessionID, &r.Player1, &r.Player2, &r.Winner,
			&r.IsDraw, &r.Reason, &r.Moves, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent results: %w", err)
	}
	return results, nil
}

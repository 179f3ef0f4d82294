package core

import "fourline-server/internal/game"

// EventKind is a notification the core emits to seats.
type EventKind int

const (
	// EventGameStarted delivers the initial snapshot to each seat.
	EventGameStarted EventKind = iota
	// EventMoveMade notifies both seats about an applied move.
	EventMoveMade
	// EventGameOver notifies both seats that the session is terminal.
	EventGameOver
	// EventOpponentDisconnected tells the remaining seat a grace period started.
	EventOpponentDisconnected
	// EventOpponentRejoined tells the remaining seat the grace period ended well.
	EventOpponentRejoined
	// EventRejoinSuccess delivers a full snapshot to the seat that came back.
	EventRejoinSuccess
	// EventRejoinFailed reports that no grace-period session matched.
	EventRejoinFailed
	// EventRejected reports a rejected request to the originating seat only.
	EventRejected
)

// Event is sent to seats to describe what happened in a session.
type Event struct {
	Kind      EventKind
	SessionID string
	User      string // identity for disconnect/rejoin notices
	Move      *MoveInfo
	Over      *GameOverInfo
	Snapshot  *Snapshot
	Reject    *RejectError
}

// MoveInfo describes one applied move. NextTurn is -1 once the session
// is terminal.
type MoveInfo struct {
	Seat     int
	Row      int
	Col      int
	Board    game.Grid
	NextTurn int
}

// GameOverInfo is the terminal payload. A draw carries no winner; a
// forfeiture against the automated opponent carries neither.
type GameOverInfo struct {
	Winner string
	Draw   bool
	Reason string
	Line   [][2]int
}

// Snapshot is the full per-seat view of a session, sent on start and on
// rejoin since connection handles carry no history.
type Snapshot struct {
	SessionID string
	Seat      int
	Symbol    game.Cell
	Opponent  string
	Turn      int
	Board     game.Grid
}

package core

import (
	"sync"
	"time"

	"fourline-server/internal/game"
)

// State is the session lifecycle state.
type State uint8

const (
	// StateActive means both seats are bound and moves are accepted.
	StateActive State = iota
	// StateGrace means one seat is unresponsive and a forfeiture timer runs.
	StateGrace
	// StateTerminal means a win, draw or forfeiture was recorded. Absorbing.
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateGrace:
		return "grace"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Session owns one match's authoritative state. All mutation goes through
// the engine while holding mu; timer callbacks re-acquire it. Seat 0 moves
// first and plays X.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	board      *game.Board
	seats      [2]*Seat
	turn       int
	state      State
	graceSeat  int // seat awaiting rejoin, -1 when none
	graceTimer *time.Timer
	botTimer   *time.Timer

	// Timer generations. A callback that fired before Stop but acquired
	// the lock after a newer timer was armed must not act; each callback
	// captures the generation at arm time and checks it under the lock.
	graceGen uint64
	botGen   uint64
}

func newSession(id string, a, b *Seat) *Session {
	a.Symbol = game.X
	b.Symbol = game.O
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		board:     game.NewBoard(),
		seats:     [2]*Seat{a, b},
		graceSeat: -1,
	}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turn returns the seat index allowed to move next.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Board returns a snapshot of the grid.
func (s *Session) Board() game.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Cells()
}

// Seat returns the seat at index. The returned pointer is only read
// outside the engine; identity and bot flag are immutable.
func (s *Session) Seat(i int) *Seat {
	return s.seats[i]
}

// seatByIdentity resolves a participant identity to its seat index.
// Called with mu held.
func (s *Session) seatByIdentity(identity string) (int, bool) {
	for i, seat := range s.seats {
		if !seat.IsBot && seat.Identity == identity {
			return i, true
		}
	}
	return 0, false
}

// snapshotLocked builds the per-seat view. Called with mu held.
func (s *Session) snapshotLocked(seatIndex int) *Snapshot {
	return &Snapshot{
		SessionID: s.ID,
		Seat:      seatIndex,
		Symbol:    s.seats[seatIndex].Symbol,
		Opponent:  s.seats[1-seatIndex].Identity,
		Turn:      s.turn,
		Board:     s.board.Cells(),
	}
}

// stopBotTimer cancels a pending automated move, idempotently. Bumping
// the generation also invalidates a callback already past Stop.
// Called with mu held.
func (s *Session) stopBotTimer() {
	s.botGen++
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
}

// stopGraceTimer cancels a pending forfeiture, idempotently. Bumping
// the generation also invalidates a callback already past Stop.
// Called with mu held.
func (s *Session) stopGraceTimer() {
	s.graceGen++
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

// broadcastLocked sends an event to both seats. Called with mu held.
func (s *Session) broadcastLocked(ev *Event) {
	for _, seat := range s.seats {
		seat.notify(ev)
	}
}

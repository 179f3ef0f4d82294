package core

import "fourline-server/internal/game"

// Conn is the volatile, transport-level half of a seat: a buffered event
// channel the transport drains. It is swapped out wholesale on rejoin.
type Conn struct {
	ID     string
	Events chan *Event
}

// NewConn builds a connection handle with a buffered event channel.
func NewConn(id string) *Conn {
	return &Conn{
		ID:     id,
		Events: make(chan *Event, 16),
	}
}

// send delivers an event without blocking. Slow consumers drop events.
func (c *Conn) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

// Seat is one of the two participant slots in a session. Identity is the
// stable rejoin key; the connection handle is rebindable. The symbol is
// fixed for the session's lifetime.
type Seat struct {
	Identity string
	IsBot    bool
	Symbol   game.Cell

	conn *Conn
}

// Rebind swaps the seat's connection handle. Callers hold the session lock.
func (s *Seat) Rebind(c *Conn) {
	s.conn = c
}

// notify sends an event to the seat's connection, if any. Bot seats and
// seats in a grace period silently discard.
func (s *Seat) notify(ev *Event) {
	if s.IsBot || s.conn == nil {
		return
	}
	s.conn.send(ev)
}

package proto

import (
	"encoding/json"

	"fourline-server/internal/game"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello  = "hello"
	InboundTypeMove   = "move"
	InboundTypeRejoin = "rejoin"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventGameStarted        = "game_started"
	EventMoveMade           = "move_made"
	EventGameOver           = "game_over"
	EventPlayerDisconnected = "player_disconnected"
	EventPlayerRejoined     = "player_rejoined"
	EventRejoinSuccess      = "rejoin_success"
	EventRejoinFailed       = "rejoin_failed"
)

// HelloData is sent by the client to introduce itself and enter the queue.
type HelloData struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol,omitempty"`
}

// MoveData requests a disc drop in the client's current session.
type MoveData struct {
	Column int `json:"column"`
}

// RejoinData asks to resume a session interrupted by a disconnect.
type RejoinData struct {
	Name string `json:"name"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// SnapshotData is the full per-seat view, sent on game start and rejoin.
type SnapshotData struct {
	SessionID string    `json:"session_id"`
	Seat      int       `json:"seat"`
	Symbol    game.Cell `json:"symbol"`
	Opponent  string    `json:"opponent"`
	Turn      int       `json:"turn"`
	Board     game.Grid `json:"board"`
}

// MoveMadeData describes one applied move. next_turn is -1 when the game
// ended with this move.
type MoveMadeData struct {
	Seat     int       `json:"seat"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	Board    game.Grid `json:"board"`
	NextTurn int       `json:"next_turn"`
}

// GameOverData is the terminal payload. A draw carries no winner.
type GameOverData struct {
	Winner string   `json:"winner,omitempty"`
	Draw   bool     `json:"draw,omitempty"`
	Reason string   `json:"reason,omitempty"`
	Line   [][2]int `json:"line,omitempty"`
}

// PresenceData names the seat whose presence changed.
type PresenceData struct {
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

package core

import "errors"

// Rejection codes reported back to the seat that issued the bad request.
const (
	CodeInvalidState = "invalid_state"
	CodeNotYourTurn  = "not_your_turn"
	CodeColumnFull   = "column_full"
	CodeRejoinFailed = "rejoin_failed"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBadSeat         = errors.New("bad seat index")
)

// RejectError wraps a code and human-readable message for a rejected
// request. It never changes session state and is never broadcast.
type RejectError struct {
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

func reject(code, msg string) *RejectError {
	return &RejectError{Code: code, Message: msg}
}

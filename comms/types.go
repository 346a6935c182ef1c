package comms

import (
	"encoding/json"
	"errors"

	"github.com/undeconstructed/solarquest/game"
)

// CommsError is an error that can go over the wire.
type CommsError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CommsError) Error() string {
	return e.Msg
}

type codedError interface {
	ErrorCode() string
}

// WrapError makes any error sendable. Game errors keep their codes.
func WrapError(err error) *CommsError {
	if err == nil {
		return nil
	}
	var ce *CommsError
	if errors.As(err, &ce) {
		return ce
	}
	var coded codedError
	if errors.As(err, &coded) {
		return &CommsError{Code: coded.ErrorCode(), Msg: err.Error()}
	}
	return &CommsError{Code: "ERROR", Msg: err.Error()}
}

// ReError turns a received error back into the game's own error value, if
// it's one the game knows.
func ReError(ce *CommsError) error {
	if ce == nil {
		return nil
	}
	return game.ReError(game.ErrorInfo{Code: ce.Code, Msg: ce.Msg})
}

var (
	// ErrNotSeated means a command was for a player the connection doesn't control
	ErrNotSeated = &CommsError{"NOTSEATED", "not your player"}
	// ErrTooFast means the connection is over its rate limit
	ErrTooFast = &CommsError{"TOOFAST", "slow down"}
	// ErrStarted means the game has already started
	ErrStarted = &CommsError{"STARTED", "the game has started"}
	// ErrNotStarted means the game hasn't started yet
	ErrNotStarted = &CommsError{"NOTSTARTED", "the game has not started"}
	// ErrSessionFull means no more seats
	ErrSessionFull = &CommsError{"FULL", "no more seats"}
	// ErrBadMessage means the message could not be understood
	ErrBadMessage = &CommsError{"BADMESSAGE", "bad message"}
)

// Hello is the first thing a connection is told.
type Hello struct {
	Conn string `json:"conn"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

type JoinResponse struct {
	Player int         `json:"player"`
	Err    *CommsError `json:"error,omitempty"`
}

// ActRequest carries a command for one player.
type ActRequest struct {
	Player int             `json:"player"`
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// Text is chat between connections.
type Text struct {
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

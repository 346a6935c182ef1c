package game

import (
	"errors"
)

var knownErrors = []*GameError{
	ErrNoPlayers,
	ErrTooManyPlayers,
	ErrGameOver,
	ErrUnknownPlayer,
	ErrNotYourTurn,
	ErrNotNow,
	ErrBadRequest,
	ErrUnknownNode,
	ErrNotAllowed,
	ErrCannotAfford,
	ErrOutOfRange,
}

// ReError matches the error info in an invalid state event to error objects
func ReError(info ErrorInfo) error {
	for _, e := range knownErrors {
		if e.Code == info.Code {
			return e
		}
	}
	return errors.New(info.Msg)
}

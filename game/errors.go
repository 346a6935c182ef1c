package game

type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrNoPlayers means can't start the game with fewer than two players
	ErrNoPlayers = &GameError{"NOPLAYERS", "not enough players"}
	// ErrTooManyPlayers means there are not enough fuel stations to go round
	ErrTooManyPlayers = &GameError{"TOOMANYPLAYERS", "too many players"}

	// ErrGameOver means nothing more can happen
	ErrGameOver = &GameError{"GAMEOVER", "the game is over"}
	// ErrUnknownPlayer means the acting player isn't in the game
	ErrUnknownPlayer = &GameError{"UNKNOWNPLAYER", "no such player"}
	// ErrNotYourTurn means you can't do something while it's not your turn
	ErrNotYourTurn = &GameError{"NOTYOURTURN", "it's not your turn"}
	// ErrNotNow is for maybe valid moves that are not allowed now
	ErrNotNow = &GameError{"NOTNOW", "you cannot do that now"}
	// ErrBadRequest is for bad requests
	ErrBadRequest = &GameError{"BADREQUEST", "bad request"}
	// ErrUnknownNode means a node id was not on the board
	ErrUnknownNode = &GameError{"UNKNOWNNODE", "no such node"}
	// ErrNotAllowed means the thing is not possible in the current position
	ErrNotAllowed = &GameError{"NOTALLOWED", "not allowed"}
	// ErrCannotAfford means not enough cash
	ErrCannotAfford = &GameError{"CANNOTAFFORD", "you cannot afford that"}
	// ErrOutOfRange means a laser target is too far away or protected
	ErrOutOfRange = &GameError{"OUTOFRANGE", "target out of range"}
)

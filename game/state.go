package game

// State is where the engine is in a turn.
type State string

const (
	StatePreRoll                   State = "pre_roll"
	StatePreLand                   State = "pre_land"
	StatePostRoll                  State = "post_roll"
	StateChoosingAllowedMove       State = "choosing_allowed_move"
	StateSettlingDebt              State = "settling_debt"
	StateTrading                   State = "trading"
	StateChoosingNodeLostToLeague  State = "choosing_node_lost_to_league"
	StateChoosingNodeWonFromLeague State = "choosing_node_won_from_league"
	StateChoosingNodeWonFromPlayer State = "choosing_node_won_from_player"
	StateGameOver                  State = "game_over"
)

// awaitsChoice is true for states where the current player has to pick
// something before the turn can carry on.
func (s State) awaitsChoice() bool {
	switch s {
	case StateChoosingAllowedMove, StateChoosingNodeLostToLeague, StateChoosingNodeWonFromLeague, StateChoosingNodeWonFromPlayer:
		return true
	}
	return false
}

// prompt is the event that tells everyone the engine is now in this state,
// if there is one.
func (s State) prompt() (EventType, bool) {
	switch s {
	case StatePreRoll:
		return EventPreRoll, true
	case StatePreLand:
		return EventPreLand, true
	case StatePostRoll:
		return EventPostRoll, true
	case StateChoosingNodeLostToLeague:
		return EventChoosingNodeLostToLeague, true
	case StateChoosingNodeWonFromLeague:
		return EventChoosingNodeWonFromLeague, true
	case StateChoosingNodeWonFromPlayer:
		return EventChoosingNodeWonFromPlayer, true
	case StateGameOver:
		return EventGameOver, true
	}
	// the other states have their own detailed events already
	return "", false
}

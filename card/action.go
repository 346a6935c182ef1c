package card

import (
	"fmt"
	"strconv"
)

// Action is a single effect of a card or of landing on a node. The set of
// variants is closed; use a type switch to act on one.
type Action interface {
	Kind() string
	action()
}

// CollectCash moves cash between the player and the League. Negative amounts
// are payments.
type CollectCash struct {
	Amount int `json:"amount"`
}

// CollectFuelStation gives the player one fuel station from the pool.
type CollectFuelStation struct{}

// Advance moves the player straight to a node, without using fuel.
type Advance struct {
	Node string `json:"node"`
}

// UseFuel burns fuel. Negative values add fuel.
type UseFuel struct {
	Hydrons int `json:"hydrons"`
}

// RollWithMultiplier rolls the dice and multiplies the move.
type RollWithMultiplier struct {
	Multiplier int `json:"multiplier"`
}

type RollAgain struct{}

type LoseDisputeLeague struct{}

type WinDisputeLeague struct{}

type WinDisputePlayer struct{}

func (CollectCash) Kind() string        { return "collect_cash" }
func (CollectFuelStation) Kind() string { return "collect_fuel_station" }
func (Advance) Kind() string            { return "advance" }
func (UseFuel) Kind() string            { return "use_fuel" }
func (RollWithMultiplier) Kind() string { return "roll_with_multiplier" }
func (RollAgain) Kind() string          { return "roll_again" }
func (LoseDisputeLeague) Kind() string  { return "lose_dispute_league" }
func (WinDisputeLeague) Kind() string   { return "win_dispute_league" }
func (WinDisputePlayer) Kind() string   { return "win_dispute_player" }

func (CollectCash) action()        {}
func (CollectFuelStation) action() {}
func (Advance) action()            {}
func (UseFuel) action()            {}
func (RollWithMultiplier) action() {}
func (RollAgain) action()          {}
func (LoseDisputeLeague) action()  {}
func (WinDisputeLeague) action()   {}
func (WinDisputePlayer) action()   {}

// ParseAction makes an action from its kind and its value as written in game
// data files.
func ParseAction(kind, value string) (Action, error) {
	num := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("action %s needs a number, got %q", kind, value)
		}
		return n, nil
	}

	switch kind {
	case "collect_cash":
		n, err := num()
		return CollectCash{n}, err
	case "collect_fuel_station":
		return CollectFuelStation{}, nil
	case "advance":
		if value == "" {
			return nil, fmt.Errorf("action %s needs a node", kind)
		}
		return Advance{value}, nil
	case "use_fuel":
		n, err := num()
		return UseFuel{n}, err
	case "roll_with_multiplier":
		n, err := num()
		if err == nil && n < 1 {
			err = fmt.Errorf("bad multiplier: %d", n)
		}
		return RollWithMultiplier{n}, err
	case "roll_again":
		return RollAgain{}, nil
	case "lose_dispute_league":
		return LoseDisputeLeague{}, nil
	case "win_dispute_league":
		return WinDisputeLeague{}, nil
	case "win_dispute_player":
		return WinDisputePlayer{}, nil
	}
	return nil, fmt.Errorf("unknown action: %s", kind)
}

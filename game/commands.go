package game

import (
	"encoding/json"
	"fmt"
)

// Command is input to the engine. Each variant carries its own value.
type Command interface {
	CommandType() string
}

// Request is a command on its way into the engine: who sent it, which player
// it acts for, and what to do.
type Request struct {
	From    string
	Player  int
	Command Command
}

type NoPreRoll struct{}
type NoPreLand struct{}
type NoPostRoll struct{}
type Quit struct{}
type PurchaseNode struct{}
type PurchaseFuelStation struct{}
type PlaceFuelStation struct{}
type SellFuelStation struct{}
type SellFuelStationForDebt struct{}
type DeclareBankruptcy struct{}
type NegligenceTakeover struct{}

type PurchaseFuel struct {
	Hydrons int
}

type ChooseAllowedMove struct {
	Node string
}

type SellNode struct {
	Node string
}

type ProposeTrade struct {
	Trade Trade
}

type CompleteTrade struct {
	Accepted bool
}

type ChooseNodeLostToLeague struct {
	Node string
}

type ChooseNodeWonFromLeague struct {
	Node string
}

type ChooseNodeWonFromPlayer struct {
	Node string
}

type FireLasers struct {
	Target int
}

// PlayersDropped is sent by the server, never by a client, when connections
// carrying players go away.
type PlayersDropped struct {
	Players []int
}

func (NoPreRoll) CommandType() string               { return "no_pre_roll" }
func (NoPreLand) CommandType() string               { return "no_pre_land" }
func (NoPostRoll) CommandType() string              { return "no_post_roll" }
func (Quit) CommandType() string                    { return "quit" }
func (PurchaseNode) CommandType() string            { return "purchase_node" }
func (PurchaseFuel) CommandType() string            { return "purchase_fuel" }
func (PurchaseFuelStation) CommandType() string     { return "purchase_fuel_station" }
func (PlaceFuelStation) CommandType() string        { return "place_fuel_station" }
func (SellFuelStation) CommandType() string         { return "sell_fuel_station" }
func (ChooseAllowedMove) CommandType() string       { return "choose_allowed_move" }
func (SellFuelStationForDebt) CommandType() string  { return "sell_fuel_station_for_debt" }
func (DeclareBankruptcy) CommandType() string       { return "declare_bankruptcy" }
func (SellNode) CommandType() string                { return "sell_node" }
func (ProposeTrade) CommandType() string            { return "trade" }
func (CompleteTrade) CommandType() string           { return "trade_completed" }
func (NegligenceTakeover) CommandType() string      { return "negligence_takeover" }
func (ChooseNodeLostToLeague) CommandType() string  { return "choose_node_lost_to_league" }
func (ChooseNodeWonFromLeague) CommandType() string { return "choose_node_won_from_league" }
func (ChooseNodeWonFromPlayer) CommandType() string { return "choose_node_won_from_player" }
func (FireLasers) CommandType() string              { return "fire_lasers" }
func (PlayersDropped) CommandType() string          { return "players_dropped" }

// DecodeCommand makes a command from its wire form, a type name and a JSON
// value whose shape depends on the type.
func DecodeCommand(kind string, value json.RawMessage) (Command, error) {
	var (
		i   int
		s   string
		b   bool
		err error
	)
	decode := func(v interface{}) error {
		if len(value) == 0 {
			return fmt.Errorf("%s needs a value", kind)
		}
		return json.Unmarshal(value, v)
	}

	switch kind {
	case "no_pre_roll":
		return NoPreRoll{}, nil
	case "no_pre_land":
		return NoPreLand{}, nil
	case "no_post_roll":
		return NoPostRoll{}, nil
	case "quit":
		return Quit{}, nil
	case "purchase_node":
		return PurchaseNode{}, nil
	case "purchase_fuel":
		err = decode(&i)
		return PurchaseFuel{i}, err
	case "purchase_fuel_station":
		return PurchaseFuelStation{}, nil
	case "place_fuel_station":
		return PlaceFuelStation{}, nil
	case "sell_fuel_station":
		return SellFuelStation{}, nil
	case "choose_allowed_move":
		err = decode(&s)
		return ChooseAllowedMove{s}, err
	case "sell_fuel_station_for_debt":
		return SellFuelStationForDebt{}, nil
	case "declare_bankruptcy":
		return DeclareBankruptcy{}, nil
	case "sell_node":
		err = decode(&s)
		return SellNode{s}, err
	case "trade":
		var t Trade
		err = decode(&t)
		return ProposeTrade{t}, err
	case "trade_completed":
		err = decode(&b)
		return CompleteTrade{b}, err
	case "negligence_takeover":
		return NegligenceTakeover{}, nil
	case "choose_node_lost_to_league":
		err = decode(&s)
		return ChooseNodeLostToLeague{s}, err
	case "choose_node_won_from_league":
		err = decode(&s)
		return ChooseNodeWonFromLeague{s}, err
	case "choose_node_won_from_player":
		err = decode(&s)
		return ChooseNodeWonFromPlayer{s}, err
	case "fire_lasers":
		err = decode(&i)
		return FireLasers{i}, err
	}
	return nil, fmt.Errorf("unknown command: %s", kind)
}

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"
)

var errUsage = errors.New("usage")

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
func (u usageError) Unwrap() error { return errUsage }

// simple commands, with no value
var plainCommands = map[string]string{
	"roll":        "no_pre_roll",
	"land":        "no_pre_land",
	"end":         "no_post_roll",
	"buy":         "purchase_node",
	"sellstation": "sell_fuel_station_for_debt",
	"bankrupt":    "declare_bankruptcy",
	"takeover":    "negligence_takeover",
	"quit":        "quit",
}

// commands taking one node id
var nodeCommands = map[string]string{
	"move": "choose_allowed_move",
	"sell": "sell_node",
	"lose": "choose_node_lost_to_league",
}

var stationCommands = map[string]string{
	"buy":   "purchase_fuel_station",
	"place": "place_fuel_station",
	"sell":  "sell_fuel_station",
}

// parseLine turns a console line into a message for the server. The view
// decides which player acts.
func parseLine(line string, v *view) (comms.Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return comms.Message{}, usageError("help")
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "join":
		if len(args) != 1 {
			return comms.Message{}, usageError("join NAME")
		}
		return comms.Encode("join", comms.JoinRequest{Name: args[0]})
	case "start":
		return comms.Encode("start", nil)
	case "resync":
		return comms.Encode("resync", nil)
	case "say":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "say"))
		if text == "" {
			return comms.Message{}, usageError("say TEXT")
		}
		return comms.Encode("text", text)
	}

	if typ, ok := plainCommands[cmd]; ok {
		if len(args) != 0 {
			return comms.Message{}, usageError(cmd)
		}
		return v.act(typ, nil)
	}

	if typ, ok := nodeCommands[cmd]; ok {
		if len(args) != 1 {
			return comms.Message{}, usageError(cmd + " NODE")
		}
		return v.act(typ, args[0])
	}

	switch cmd {
	case "win":
		if len(args) != 1 {
			return comms.Message{}, usageError("win NODE")
		}
		if v.prompt == game.EventChoosingNodeWonFromPlayer {
			return v.act("choose_node_won_from_player", args[0])
		}
		return v.act("choose_node_won_from_league", args[0])
	case "fuel":
		n, err := oneInt(args)
		if err != nil {
			return comms.Message{}, usageError("fuel HYDRONS")
		}
		return v.act("purchase_fuel", n)
	case "fire":
		n, err := oneInt(args)
		if err != nil {
			return comms.Message{}, usageError("fire PLAYER")
		}
		return v.act("fire_lasers", n)
	case "station":
		if len(args) != 1 || stationCommands[args[0]] == "" {
			return comms.Message{}, usageError("station buy|place|sell")
		}
		return v.act(stationCommands[args[0]], nil)
	case "accept", "reject":
		if len(args) != 0 {
			return comms.Message{}, usageError(cmd)
		}
		return v.actFor(v.tradeAnswerer(), "trade_completed", cmd == "accept")
	case "trade":
		t, err := parseTrade(args, v.acting())
		if err != nil {
			return comms.Message{}, err
		}
		return v.act("trade", t)
	}

	return comms.Message{}, fmt.Errorf("unknown command %q, try help", cmd)
}

func oneInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	return strconv.Atoi(args[0])
}

// parseTrade reads "TO CASH [offer=a,b] [request=c,d]".
func parseTrade(args []string, from int) (game.Trade, error) {
	usage := usageError("trade TO CASH [offer=a,b] [request=c,d]")
	if len(args) < 2 {
		return game.Trade{}, usage
	}
	to, err := strconv.Atoi(args[0])
	if err != nil {
		return game.Trade{}, usage
	}
	cash, err := strconv.Atoi(args[1])
	if err != nil {
		return game.Trade{}, usage
	}

	t := game.Trade{From: from, To: to, Cash: cash, Offered: []string{}, Requested: []string{}}
	for _, arg := range args[2:] {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 || kv[1] == "" {
			return game.Trade{}, usage
		}
		ids := strings.Split(kv[1], ",")
		switch kv[0] {
		case "offer":
			t.Offered = append(t.Offered, ids...)
		case "request":
			t.Requested = append(t.Requested, ids...)
		default:
			return game.Trade{}, usage
		}
	}
	return t, nil
}

func encodeAct(player int, typ string, value interface{}) (comms.Message, error) {
	req := comms.ActRequest{Player: player, Type: typ}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return comms.Message{}, err
		}
		req.Value = raw
	}
	return comms.Encode("act", req)
}

const helpText = `join NAME                take a seat
start                    start the game
roll | land | end        carry on from the pre-roll, pre-land or post-roll prompt
buy                      buy the node you're on
fuel N                   buy hydrons
station buy|place|sell   fuel station dealing
move NODE                choose where to go
sell NODE                sell a node back to the League
sellstation | bankrupt   pay a debt
trade TO CASH [offer=a,b] [request=c,d]
accept | reject          answer a trade
takeover                 take a node for negligence
lose NODE | win NODE     settle a dispute
fire PLAYER              fire lasers
quit                     leave the game
resync                   see the last event again
say TEXT                 talk`

package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"
)

// view is what the console knows about the game, built from what the server
// sends.
type view struct {
	conn    string
	seat    int
	players []int
	names   map[int]string
	current int
	prompt  game.EventType
	trade   *game.Trade
	over    bool
}

func newView() *view {
	return &view{seat: -1, current: -1, names: map[int]string{}}
}

func (v *view) holds(p int) bool {
	for _, x := range v.players {
		if x == p {
			return true
		}
	}
	return false
}

// acting is the player that commands are sent for: whoever is being prompted,
// if it's one of ours.
func (v *view) acting() int {
	if v.holds(v.current) {
		return v.current
	}
	if len(v.players) > 0 {
		return v.players[0]
	}
	return v.seat
}

func (v *view) tradeAnswerer() int {
	if v.trade != nil && v.holds(v.trade.To) {
		return v.trade.To
	}
	return v.acting()
}

func (v *view) act(typ string, value interface{}) (comms.Message, error) {
	return encodeAct(v.acting(), typ, value)
}

func (v *view) actFor(p int, typ string, value interface{}) (comms.Message, error) {
	return encodeAct(p, typ, value)
}

func (v *view) name(p int) string {
	if n, ok := v.names[p]; ok {
		return n
	}
	return fmt.Sprintf("player %d", p)
}

// promptText is for the console prompt.
func (v *view) promptText() string {
	if v.over {
		return "over» "
	}
	if v.current < 0 {
		return "» "
	}
	mark := ""
	if v.holds(v.current) {
		mark = "!"
	}
	return fmt.Sprintf("%s|%s%s» ", v.name(v.current), v.prompt, mark)
}

func (v *view) applySnapshot(s game.Snapshot) {
	for _, p := range s.Players {
		v.names[p.Number] = p.Name
	}
	v.current = s.Current
	v.over = s.State == game.StateGameOver
}

// applyEvent updates the view and describes the event.
func (v *view) applyEvent(ev game.Event) string {
	if ev.Player != nil {
		switch ev.Type {
		case game.EventPreRoll, game.EventPreLand, game.EventPostRoll,
			game.EventChoosingNodeLostToLeague, game.EventChoosingNodeWonFromLeague,
			game.EventChoosingNodeWonFromPlayer, game.EventHasMultipleAllowedMoves,
			game.EventHasInsufficientCash:
			v.current = *ev.Player
			v.prompt = ev.Type
		}
	}

	switch ev.Type {
	case game.EventStartedTrade:
		var t game.Trade
		if remarshal(ev.Value, &t) == nil {
			v.trade = &t
		}
	case game.EventTradeAccepted, game.EventTradeRejected:
		v.trade = nil
	case game.EventGameOver:
		v.over = true
		v.prompt = ev.Type
	}

	return describe(ev, v)
}

func describe(ev game.Event, v *view) string {
	var b strings.Builder
	if ev.Player != nil {
		b.WriteString(v.name(*ev.Player))
		b.WriteString(" ")
	}
	b.WriteString(strings.ReplaceAll(string(ev.Type), "_", " "))
	if ev.Value != nil {
		raw, err := json.Marshal(ev.Value)
		if err == nil {
			b.WriteString(" ")
			b.Write(raw)
		}
	}
	return b.String()
}

func (v *view) setPlayers(ps []int) {
	sort.Ints(ps)
	v.players = ps
}

func remarshal(in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

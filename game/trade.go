package game

import "github.com/undeconstructed/solarquest/board"

// Trade is an offer from one player to another. Positive cash goes from From
// to To, negative cash the other way.
type Trade struct {
	From      int      `json:"from"`
	To        int      `json:"to"`
	Offered   []string `json:"offered"`
	Requested []string `json:"requested"`
	Cash      int      `json:"cash"`
}

func (t Trade) involves(p *Player) bool {
	return t.From == p.Number || t.To == p.Number
}

func (e *Engine) doProposeTrade(p *Player, c Command) error {
	t := c.(ProposeTrade).Trade

	if e.state == StateTrading {
		return ErrNotNow
	}
	if t.From != p.Number {
		return ErrBadRequest
	}
	to := e.player(t.To)
	if to == nil || to == p {
		return ErrUnknownPlayer
	}
	for _, id := range append(append([]string{}, t.Offered...), t.Requested...) {
		if _, ok := e.board.Node(id); !ok {
			return ErrUnknownNode
		}
	}

	e.trade = &t
	e.postTradeState = e.state
	e.postTradeEvent = e.lastEvent
	e.emit(EventStartedTrade, p, t)
	e.setState(StateTrading)
	return nil
}

func (e *Engine) doCompleteTrade(p *Player, c Command) error {
	if e.state != StateTrading || e.trade == nil {
		return ErrNotNow
	}
	if p.Number != e.trade.To {
		return ErrNotYourTurn
	}

	t := *e.trade
	from, to := e.player(t.From), e.player(t.To)

	if !c.(CompleteTrade).Accepted {
		e.emit(EventTradeRejected, nil, t)
		e.endTrade(true)
		return nil
	}

	e.emit(EventTradeAccepted, nil, t)

	// only what each side still owns changes hands
	for _, n := range e.nodes(t.Offered) {
		if e.owners[n] == from {
			e.transferNode(n, from, to)
		}
	}
	for _, n := range e.nodes(t.Requested) {
		if e.owners[n] == to {
			e.transferNode(n, to, from)
		}
	}

	if (t.Cash > 0 && from.Cash >= t.Cash) || (t.Cash < 0 && to.Cash >= -t.Cash) {
		e.changeCash(from, -t.Cash)
		e.changeCash(to, t.Cash)
	}

	e.rehomeRentDebts()
	e.endTrade(true)
	return nil
}

// endTrade puts the engine back how it was before the trade. If it was
// settling debts it will look at them again once the command is done,
// otherwise the last event before the trade is sent again so everyone knows
// where things stand.
func (e *Engine) endTrade(reprompt bool) {
	e.trade = nil
	e.state = e.postTradeState

	if reprompt && e.state != StateSettlingDebt {
		e.emitEvent(e.postTradeEvent)
	}
}

func (e *Engine) nodes(ids []string) []*board.Node {
	var out []*board.Node
	for _, id := range ids {
		if n, ok := e.board.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

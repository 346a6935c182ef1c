package game

import (
	"github.com/undeconstructed/solarquest/board"
	"github.com/undeconstructed/solarquest/card"
	"github.com/undeconstructed/solarquest/rules"
)

func (e *Engine) doNoPreRoll(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll); err != nil {
		return err
	}

	if e.isFuelCritical(p) {
		e.emit(EventLostDueToStranding, p, nil)
		e.eliminate(p, nil)
		return nil
	}

	e.roll(p, 1, true)
	if p.GameOver {
		return nil
	}

	if e.state == StatePreRoll {
		e.setState(StatePostRoll)
	}
	return nil
}

func (e *Engine) doNoPreLand(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreLand); err != nil {
		return err
	}

	e.landed(p, p.Node)

	if e.state == StatePreLand {
		e.setState(StatePostRoll)
	}
	return nil
}

func (e *Engine) doNoPostRoll(p *Player, c Command) error {
	if err := e.turnIn(p, StatePostRoll); err != nil {
		return err
	}

	e.nextTurn()
	return nil
}

func (e *Engine) doChooseAllowedMove(p *Player, c Command) error {
	if err := e.turnIn(p, StateChoosingAllowedMove); err != nil {
		return err
	}

	id := c.(ChooseAllowedMove).Node
	var chosen *board.Node
	for _, n := range e.allowedMoves {
		if n.ID == id {
			chosen = n
		}
	}
	if chosen == nil {
		return ErrNotAllowed
	}

	fuel := e.pendingFuel
	e.allowedMoves = nil
	e.pendingFuel = 0

	e.changeFuel(p, -fuel)
	if p.GameOver {
		return nil
	}
	e.advance(p, chosen)
	if p.GameOver {
		return nil
	}

	if e.state == StateChoosingAllowedMove {
		e.setState(StatePostRoll)
	}
	return nil
}

func (e *Engine) isFuelCritical(p *Player) bool {
	return p.Fuel < e.rules.Int(rules.MinimumFuel) && p.Node.UsesFuel()
}

// roll throws the dice and moves. Only a plain roll can be a red shift, and
// only a plain roll from a fuel-using node burns fuel.
func (e *Engine) roll(p *Player, multiplier int, plain bool) {
	pips := e.rules.Int(rules.DiePips)
	dice := Dice{e.dice.Roll(pips), e.dice.Roll(pips)}
	e.emit(EventRolled, p, dice)

	distance := dice.Total() * multiplier

	if plain && e.rules.RedShiftRoll().IsRedShift(dice.Die1, dice.Die2, pips) {
		e.redShift(p)
		return
	}

	useFuel := plain && p.Node.UsesFuel()

	var moves []*board.Node
	if !useFuel || distance <= p.Fuel {
		moves = e.board.AllowedMoves(p.Node, distance)
	}

	switch len(moves) {
	case 0:
		e.emit(EventRemainedStationary, p, nil)
		e.landed(p, p.Node)
	case 1:
		if useFuel {
			e.changeFuel(p, -distance)
		}
		e.advance(p, moves[0])
	default:
		e.allowedMoves = moves
		e.pendingFuel = 0
		if useFuel {
			e.pendingFuel = distance
		}
		ids := make([]string, len(moves))
		for i, n := range moves {
			ids[i] = n.ID
		}
		e.emit(EventHasMultipleAllowedMoves, p, ids)
		e.setState(StateChoosingAllowedMove)
	}
}

// redShift draws a card and does what it says, instead of moving.
func (e *Engine) redShift(p *Player) {
	c, ok := e.deck.Draw()
	if !ok {
		return
	}
	e.emit(EventDrewCard, p, CardInfo{ID: c.ID, Text: c.Text})
	e.performAll(p, c.Actions)
}

// performAll stops if the player is knocked out part way through.
func (e *Engine) performAll(p *Player, actions []card.Action) {
	for _, a := range actions {
		e.perform(p, a)
		if p.GameOver {
			return
		}
	}
}

func (e *Engine) perform(p *Player, a card.Action) {
	switch a := a.(type) {
	case card.CollectCash:
		if a.Amount >= 0 {
			e.changeCash(p, a.Amount)
		} else {
			e.queueDebt(p, nil, -a.Amount, nil)
		}
	case card.CollectFuelStation:
		e.givePlayerFuelStation(p)
	case card.Advance:
		n, ok := e.board.Node(a.Node)
		if !ok {
			e.log.Warn().Msgf("card advances to unknown node: %s", a.Node)
			return
		}
		e.advance(p, n)
	case card.UseFuel:
		e.changeFuel(p, -a.Hydrons)
	case card.RollWithMultiplier:
		e.roll(p, a.Multiplier, false)
	case card.RollAgain:
		e.roll(p, 1, true)
	case card.LoseDisputeLeague:
		e.loseDisputeWithLeague(p)
	case card.WinDisputeLeague:
		e.winDisputeWithLeague(p)
	case card.WinDisputePlayer:
		e.winDisputeWithPlayer(p)
	default:
		e.log.Warn().Msgf("unknown action: %#v", a)
	}
}

// advance puts the player on a node, pays out for start, runs the node's
// actions, and then either lands or waits for pre-land choices.
func (e *Engine) advance(p *Player, to *board.Node) {
	passes := e.board.PassesStart(p.Node, to)

	p.Node = to
	e.emit(EventAdvancedToNode, p, to.ID)

	if passes {
		e.emit(EventPassedStartNode, p, nil)
		e.changeCash(p, e.rules.Int(rules.PassStartCash))
	}
	if to.Start {
		e.emit(EventLandedOnStartNode, p, nil)
		e.changeCash(p, e.rules.Int(rules.LandOnStartCash))
	}

	e.performAll(p, to.Actions)
	if p.GameOver {
		return
	}

	if !e.state.awaitsChoice() && e.isPreLandRequired(p, to) {
		e.setState(StatePreLand)
		return
	}
	e.landed(p, to)
}

// landed charges rent, if there is any to pay.
func (e *Engine) landed(p *Player, n *board.Node) {
	if rent, owner := e.rent(p, n); rent > 0 {
		e.queueDebt(p, owner, rent, n)
	}
}

func (e *Engine) isPreLandRequired(p *Player, n *board.Node) bool {
	return e.isNegligenceTakeoverAllowed(p, n) || e.laserBattleAllowed(p, StatePreLand)
}

// isNegligenceTakeoverAllowed is for a node whose owner has left it without a
// fuel station, when the player is low on fuel.
func (e *Engine) isNegligenceTakeoverAllowed(p *Player, n *board.Node) bool {
	owner := e.owners[n]
	return owner != nil && owner != p && n.CanHaveFuelStation() && !e.stations[n] &&
		p.Fuel <= e.rules.Int(rules.LowFuel) && p.Cash >= n.Price
}

func (e *Engine) doNegligenceTakeover(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreLand); err != nil {
		return err
	}
	n := p.Node
	if !e.isNegligenceTakeoverAllowed(p, n) {
		return ErrNotAllowed
	}

	owner := e.owners[n]
	price := e.nodePrice(n)
	e.changeCash(p, -price)
	e.changeCash(owner, price)
	e.transferNode(n, owner, p)

	if e.isPreLandRequired(p, n) {
		e.setState(StatePreLand)
		return nil
	}
	e.landed(p, n)
	e.setState(StatePostRoll)
	return nil
}

func (e *Engine) loseDisputeWithLeague(p *Player) {
	e.emit(EventLostDisputeWithLeague, p, nil)
	if len(p.owned) == 0 {
		e.emit(EventHadNoNodeToLose, p, nil)
		return
	}
	e.setState(StateChoosingNodeLostToLeague)
}

func (e *Engine) winDisputeWithLeague(p *Player) {
	e.emit(EventWonDisputeWithLeague, p, nil)
	for _, n := range e.board.Nodes() {
		if n.IsOwnable() && e.owners[n] == nil {
			e.setState(StateChoosingNodeWonFromLeague)
			return
		}
	}
	e.emit(EventHadNoNodeToWin, p, nil)
}

func (e *Engine) winDisputeWithPlayer(p *Player) {
	e.emit(EventWonDisputeWithPlayer, p, nil)
	for _, o := range e.players {
		if o != p && !o.GameOver && len(o.owned) > 0 {
			e.setState(StateChoosingNodeWonFromPlayer)
			return
		}
	}
	e.emit(EventHadNoNodeToWin, p, nil)
}

func (e *Engine) chosenNode(p *Player, state State, id string) (*board.Node, error) {
	if err := e.turnIn(p, state); err != nil {
		return nil, err
	}
	n, ok := e.board.Node(id)
	if !ok {
		return nil, ErrUnknownNode
	}
	return n, nil
}

func (e *Engine) doChooseNodeLostToLeague(p *Player, c Command) error {
	n, err := e.chosenNode(p, StateChoosingNodeLostToLeague, c.(ChooseNodeLostToLeague).Node)
	if err != nil {
		return err
	}
	if e.owners[n] != p {
		return ErrNotAllowed
	}

	e.transferNode(n, p, nil)
	e.setState(StatePostRoll)
	return nil
}

func (e *Engine) doChooseNodeWonFromLeague(p *Player, c Command) error {
	n, err := e.chosenNode(p, StateChoosingNodeWonFromLeague, c.(ChooseNodeWonFromLeague).Node)
	if err != nil {
		return err
	}
	if !n.IsOwnable() || e.owners[n] != nil {
		return ErrNotAllowed
	}

	e.transferNode(n, nil, p)
	e.setState(StatePostRoll)
	return nil
}

func (e *Engine) doChooseNodeWonFromPlayer(p *Player, c Command) error {
	n, err := e.chosenNode(p, StateChoosingNodeWonFromPlayer, c.(ChooseNodeWonFromPlayer).Node)
	if err != nil {
		return err
	}
	owner := e.owners[n]
	if owner == nil || owner == p {
		return ErrNotAllowed
	}

	e.transferNode(n, owner, p)
	e.setState(StatePostRoll)
	return nil
}

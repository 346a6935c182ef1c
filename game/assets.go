package game

import (
	"github.com/undeconstructed/solarquest/board"
	"github.com/undeconstructed/solarquest/rules"
)

func (e *Engine) changeCash(p *Player, amount int) {
	if amount == 0 {
		return
	}
	p.Cash += amount
	e.emit(EventChangedCash, p, amount)
}

// changeFuel eliminates a player who would end up with less than nothing.
func (e *Engine) changeFuel(p *Player, amount int) {
	if amount == 0 {
		return
	}
	if p.Fuel+amount < 0 {
		e.emit(EventLostDueToInsufficientFuel, p, nil)
		e.eliminate(p, nil)
		return
	}
	p.Fuel += amount
	e.emit(EventChangedFuel, p, amount)
}

func (e *Engine) changeFuelStations(p *Player, amount int) {
	if amount == 0 {
		return
	}
	p.FuelStations += amount
	e.emit(EventChangedFuelStations, p, amount)
}

// transferNode is the only place ownership changes. Either side may be nil,
// meaning the League.
func (e *Engine) transferNode(n *board.Node, from, to *Player) {
	if from != nil {
		from.removeNode(n)
		delete(e.owners, n)
		e.emit(EventRelinquishedNode, from, n.ID)
	}
	if to != nil {
		to.addNode(n)
		e.owners[n] = to
		e.emit(EventObtainedNode, to, n.ID)
	}
}

// nodePrice includes any fuel station on the node.
func (e *Engine) nodePrice(n *board.Node) int {
	if e.stations[n] {
		return n.Price + e.rules.Int(rules.FuelStationPrice)
	}
	return n.Price
}

func (e *Engine) rent(p *Player, n *board.Node) (int, *Player) {
	owner := e.owners[n]
	if owner == nil || owner == p {
		return 0, nil
	}
	return n.Rent(owner.GroupCount(n.Group)), owner
}

func (e *Engine) fuelPrice(p *Player, n *board.Node) int {
	if n.Start {
		return e.rules.Int(rules.FuelPriceOnStart)
	}
	owner := e.owners[n]
	switch {
	case owner == nil:
		return n.FuelPrice(1)
	case owner == p:
		return 0
	}
	return n.FuelPrice(owner.GroupCount(n.Group))
}

func (e *Engine) hasFuel(n *board.Node) bool {
	if n.Start {
		return true
	}
	unowned := e.rules.Bool(rules.FuelAvailableOnUnownedNode)
	owned := e.owners[n] != nil
	switch n.Type {
	case board.Solid:
		return e.stations[n] && (unowned || owned)
	case board.Dock:
		return unowned || owned
	}
	return false
}

func (e *Engine) isNodePurchasable(p *Player, n *board.Node) bool {
	return n.IsOwnable() && e.owners[n] == nil && p.Cash >= e.nodePrice(n)
}

func (e *Engine) isFuelPurchasable(p *Player, n *board.Node) bool {
	return e.hasFuel(n) && p.Cash >= e.fuelPrice(p, n) && p.Fuel < e.rules.Int(rules.MaximumFuel)
}

func (e *Engine) maxPurchasableFuel(p *Player, n *board.Node) int {
	max := e.rules.Int(rules.MaximumFuel)
	space := max - p.Fuel
	price := e.fuelPrice(p, n)
	affordable := max
	if price > 0 {
		affordable = p.Cash / price
	}
	if affordable < space {
		return affordable
	}
	return space
}

func (e *Engine) isFuelStationPurchasable(p *Player, n *board.Node) bool {
	where := e.rules.Availability(rules.FuelStationPurchaseAvailability)
	return where.At(n.Type == board.Station, n.Start) && e.stationsLeft > 0 &&
		p.Cash >= e.rules.Int(rules.FuelStationPrice)
}

func (e *Engine) isFuelStationPlaceable(p *Player, n *board.Node) bool {
	return !e.stations[n] && n.CanHaveFuelStation() && e.owners[n] == p && p.FuelStations > 0
}

func (e *Engine) isFuelStationSalable(p *Player, n *board.Node) bool {
	where := e.rules.Availability(rules.FuelStationBuybackAvailability)
	return p.FuelStations > 0 && where.At(n.Type == board.Station, n.Start)
}

func (e *Engine) isNodeSalable(p *Player, at, n *board.Node) bool {
	where := e.rules.Availability(rules.NodeBuybackAvailability)
	return e.owners[n] == p && where.At(at.Type == board.Station, at.Start)
}

func (e *Engine) doPurchaseNode(p *Player, c Command) error {
	if err := e.turnIn(p, StatePostRoll); err != nil {
		return err
	}
	n := p.Node
	if !n.IsOwnable() || e.owners[n] != nil {
		return ErrNotAllowed
	}
	if !e.isNodePurchasable(p, n) {
		return ErrCannotAfford
	}

	e.changeCash(p, -e.nodePrice(n))
	e.transferNode(n, nil, p)
	e.emit(EventPurchasedNode, p, n.ID)
	e.setState(StatePostRoll)
	return nil
}

func (e *Engine) doPurchaseFuel(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll, StatePostRoll); err != nil {
		return err
	}
	n := p.Node
	if !e.isFuelPurchasable(p, n) {
		return ErrNotAllowed
	}

	hydrons := c.(PurchaseFuel).Hydrons
	if max := e.maxPurchasableFuel(p, n); hydrons > max {
		hydrons = max
	}
	if hydrons <= 0 {
		return ErrBadRequest
	}

	if e.state == StatePreRoll {
		e.boughtFuelInPreRoll = true
	}

	total := e.fuelPrice(p, n) * hydrons
	e.changeCash(p, -total)
	if owner := e.owners[n]; owner != nil && owner != p {
		e.changeCash(owner, total)
	}
	e.changeFuel(p, hydrons)
	e.setState(e.state)
	return nil
}

func (e *Engine) doPurchaseFuelStation(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll, StatePostRoll); err != nil {
		return err
	}
	if !e.isFuelStationPurchasable(p, p.Node) {
		return ErrNotAllowed
	}

	e.stationsLeft--
	e.changeCash(p, -e.rules.Int(rules.FuelStationPrice))
	e.changeFuelStations(p, 1)
	e.emit(EventPurchasedFuelStation, p, nil)
	e.setState(e.state)
	return nil
}

func (e *Engine) doPlaceFuelStation(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll, StatePostRoll); err != nil {
		return err
	}
	n := p.Node
	if !e.isFuelStationPlaceable(p, n) {
		return ErrNotAllowed
	}

	e.changeFuelStations(p, -1)
	e.stations[n] = true
	e.emit(EventPlacedFuelStation, p, n.ID)
	e.setState(e.state)
	return nil
}

func (e *Engine) doSellFuelStation(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll, StatePostRoll); err != nil {
		return err
	}
	if !e.isFuelStationSalable(p, p.Node) {
		return ErrNotAllowed
	}

	e.sellFuelStation(p)
	e.setState(e.state)
	return nil
}

func (e *Engine) doSellFuelStationForDebt(p *Player, c Command) error {
	if err := e.settling(p); err != nil {
		return err
	}
	if p.FuelStations <= 0 {
		return ErrNotAllowed
	}

	// settled when the command is done
	e.sellFuelStation(p)
	return nil
}

func (e *Engine) sellFuelStation(p *Player) {
	e.changeFuelStations(p, -1)
	e.changeCash(p, e.rules.Int(rules.FuelStationPrice))
	e.stationsLeft++
	e.emit(EventSoldFuelStation, p, nil)
}

// doSellNode sells back to the League, either to raise cash for a debt or,
// where the rules allow it, in the normal course of a turn.
func (e *Engine) doSellNode(p *Player, c Command) error {
	n, ok := e.board.Node(c.(SellNode).Node)
	if !ok {
		return ErrUnknownNode
	}

	if e.state == StateSettlingDebt {
		if err := e.settling(p); err != nil {
			return err
		}
		if e.owners[n] != p {
			return ErrNotAllowed
		}
		e.sellNode(p, n)
		return nil
	}

	if err := e.turnIn(p, StatePreRoll, StatePostRoll); err != nil {
		return err
	}
	if !e.isNodeSalable(p, p.Node, n) {
		return ErrNotAllowed
	}
	e.sellNode(p, n)
	e.setState(e.state)
	return nil
}

func (e *Engine) sellNode(p *Player, n *board.Node) {
	e.changeCash(p, e.nodePrice(n))
	e.transferNode(n, p, nil)
	e.emit(EventSoldNode, p, n.ID)
}

func (e *Engine) givePlayerFuelStation(p *Player) {
	if e.stationsLeft <= 0 {
		return
	}
	e.stationsLeft--
	e.changeFuelStations(p, 1)
	e.emit(EventObtainedFreeFuelStation, p, nil)
}

func (e *Engine) doDeclareBankruptcy(p *Player, c Command) error {
	if err := e.settling(p); err != nil {
		return err
	}

	creditor := e.debts[0].Creditor
	e.emit(EventLostDueToBankruptcy, p, playerRef(creditor))
	e.eliminate(p, creditor)
	return nil
}

func (e *Engine) doQuit(p *Player, c Command) error {
	e.emit(EventQuit, p, nil)
	e.eliminate(p, nil)
	return nil
}

func (e *Engine) playersDropped(numbers []int) {
	for _, n := range numbers {
		p := e.player(n)
		if p == nil || e.state == StateGameOver {
			continue
		}
		e.emit(EventDropped, p, nil)
		e.eliminate(p, nil)
	}
}

// eliminate takes a player out of the game. Everything they have goes to the
// beneficiary, or back to the League if there isn't one.
func (e *Engine) eliminate(p *Player, beneficiary *Player) {
	if p.GameOver {
		return
	}

	nodes := p.OwnedNodes()
	p.GameOver = true
	e.remaining--

	for _, n := range nodes {
		e.transferNode(n, p, beneficiary)
	}

	cash, stations := p.Cash, p.FuelStations
	e.changeCash(p, -cash)
	if beneficiary != nil {
		e.changeCash(beneficiary, cash)
		e.changeFuelStations(p, -stations)
		e.changeFuelStations(beneficiary, stations)
	} else {
		e.stationsLeft += stations
		e.emit(EventRelinquishedFuelStations, p, stations)
		e.changeFuelStations(p, -stations)
	}
	e.changeFuel(p, -p.Fuel)

	e.forgetDebts(p)

	if e.trade != nil && (e.trade.involves(p) || p == e.current) {
		t := *e.trade
		e.emit(EventTradeRejected, nil, t)
		e.endTrade(p != e.current)
	}

	if p == e.current {
		e.turnOver = true
	}

	if e.remaining == 1 {
		for _, w := range e.players {
			if !w.GameOver {
				e.emit(EventWon, w, nil)
				break
			}
		}
		e.setState(StateGameOver)
	}
}

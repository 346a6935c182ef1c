package game

import "github.com/undeconstructed/solarquest/board"

// Debt is cash owed. A nil creditor means the League. Node is set when the
// debt is rent, so that a trade of that node can move or cancel it.
type Debt struct {
	Debtor   *Player
	Creditor *Player
	Amount   int
	Node     *board.Node
}

func (d Debt) info() DebtInfo {
	return DebtInfo{Creditor: playerRef(d.Creditor), Amount: d.Amount}
}

// queueDebt pays at once if the debtor can, otherwise keeps the debt for
// settling when the current command is done.
func (e *Engine) queueDebt(debtor, creditor *Player, amount int, node *board.Node) {
	if amount <= 0 || debtor.GameOver {
		return
	}
	d := Debt{debtor, creditor, amount, node}
	if debtor.Cash >= amount {
		e.payDebt(d)
		return
	}
	e.debts = append(e.debts, d)
}

func (e *Engine) payDebt(d Debt) {
	e.changeCash(d.Debtor, -d.Amount)
	if d.Creditor != nil {
		e.changeCash(d.Creditor, d.Amount)
	}
}

// settleDebts pays every debt that can be paid. If any are left, the first
// one is announced and the engine waits for its debtor to raise cash.
// Otherwise the engine goes back to whatever the debts interrupted.
func (e *Engine) settleDebts() {
	var left []Debt
	for _, d := range e.debts {
		if d.Debtor.GameOver {
			continue
		}
		if d.Debtor.Cash >= d.Amount {
			e.payDebt(d)
			continue
		}
		left = append(left, d)
	}
	e.debts = left

	if len(left) == 0 {
		e.setState(e.debtResume)
		return
	}

	d := left[0]
	e.emit(EventHasInsufficientCash, d.Debtor, d.info())
	e.setState(StateSettlingDebt)
}

// debtor is who has to act while settling.
func (e *Engine) debtor() *Player {
	if len(e.debts) == 0 {
		return nil
	}
	return e.debts[0].Debtor
}

// forgetDebts drops every debt to or from a player who has left.
func (e *Engine) forgetDebts(p *Player) {
	var left []Debt
	for _, d := range e.debts {
		if d.Debtor == p || d.Creditor == p {
			continue
		}
		left = append(left, d)
	}
	e.debts = left
}

// rehomeRentDebts follows rent debts to whoever owns the node now. A node
// now owned by its debtor, or by nobody, cancels the rent.
func (e *Engine) rehomeRentDebts() {
	var left []Debt
	for _, d := range e.debts {
		if d.Node != nil {
			owner := e.owners[d.Node]
			if owner == nil || owner == d.Debtor {
				continue
			}
			d.Creditor = owner
		}
		left = append(left, d)
	}
	e.debts = left
}

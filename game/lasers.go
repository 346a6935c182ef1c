package game

import "github.com/undeconstructed/solarquest/rules"

// laserBattleAllowed says whether the player could fire now, in the given
// phase of the turn: once per turn, before rolling unless fuel was bought, or
// before landing, with the fuel to pay for it and somebody in range.
func (e *Engine) laserBattleAllowed(p *Player, phase State) bool {
	if !e.rules.Bool(rules.LaserBattlesAllowed) || e.firedLasers {
		return false
	}
	switch phase {
	case StatePreRoll:
		if e.boughtFuelInPreRoll {
			return false
		}
	case StatePreLand:
	default:
		return false
	}
	if p.Fuel < e.rules.Int(rules.LaserBattleFuelCost) {
		return false
	}
	return len(e.laserTargets(p)) > 0
}

// laserTargets lists the ships within range, leaving out any the start node
// protects.
func (e *Engine) laserTargets(p *Player) []*Player {
	exemption := e.rules.LaserExemption()
	if p.Node.Start && !exemption.CanFireFromStart() {
		return nil
	}

	max := e.rules.Int(rules.LaserBattleMaximumDistance)

	var out []*Player
	for _, t := range e.players {
		if t == p || t.GameOver {
			continue
		}
		if t.Node.Start && !exemption.CanHitAtStart() {
			continue
		}
		d := e.board.Distance(p.Node, t.Node)
		if d < 0 || d > max {
			continue
		}
		out = append(out, t)
	}
	return out
}

// doFireLasers rolls two dice for the shot. Doubles destroy the target, and
// a total of at least the hit roll damages it, which it has to pay for.
func (e *Engine) doFireLasers(p *Player, c Command) error {
	if err := e.turnIn(p, StatePreRoll, StatePreLand); err != nil {
		return err
	}
	if !e.laserBattleAllowed(p, e.state) {
		return ErrNotAllowed
	}

	target := e.player(c.(FireLasers).Target)
	if target == nil {
		return ErrUnknownPlayer
	}
	inRange := false
	for _, t := range e.laserTargets(p) {
		if t == target {
			inRange = true
		}
	}
	if !inRange {
		return ErrOutOfRange
	}

	phase := e.state
	e.firedLasers = true
	e.changeFuel(p, -e.rules.Int(rules.LaserBattleFuelCost))

	pips := e.rules.Int(rules.DiePips)
	dice := Dice{e.dice.Roll(pips), e.dice.Roll(pips)}
	e.emit(EventFiredLasers, p, LaserShot{Target: target.Number, Dice: dice})

	switch {
	case dice.Doubles():
		e.emit(EventFiredLasersAndDestroyedAShip, p, target.Number)
		e.eliminate(target, nil)
		if e.state == StateGameOver {
			return nil
		}
	case dice.Total() >= e.rules.Int(rules.LaserBattleHitRoll):
		damage := dice.Total() * e.rules.Int(rules.LaserBattleDamageMultiplier)
		e.emit(EventFiredLasersAndCausedDamage, p, LaserDamage{Target: target.Number, Amount: damage})
		e.queueDebt(target, p, damage, nil)
	default:
		e.emit(EventFiredLasersAndMissed, p, target.Number)
	}

	if phase == StatePreLand && !e.isPreLandRequired(p, p.Node) {
		e.landed(p, p.Node)
		e.setState(StatePostRoll)
		return nil
	}
	e.setState(phase)
	return nil
}

package rules

import (
	"fmt"
	"strings"
)

// RedShiftRoll is which dice throw draws a red shift card.
type RedShiftRoll string

const (
	Doubles  RedShiftRoll = "doubles"
	MaxRoll  RedShiftRoll = "max_roll"
	Thirteen RedShiftRoll = "thirteen"
)

func ParseRedShiftRoll(s string) (RedShiftRoll, error) {
	switch r := RedShiftRoll(strings.ToLower(s)); r {
	case Doubles, MaxRoll, Thirteen:
		return r, nil
	}
	return "", fmt.Errorf("bad red shift roll: %s", s)
}

// IsRedShift checks a throw of two dice.
func (r RedShiftRoll) IsRedShift(die1, die2, pips int) bool {
	switch r {
	case Doubles:
		return die1 == die2
	case MaxRoll:
		return die1 == pips && die2 == pips
	case Thirteen:
		// a one and a three
		return (die1 == 1 && die2 == 3) || (die1 == 3 && die2 == 1)
	}
	return false
}

// Availability is where something can be bought or sold.
type Availability string

const (
	Nowhere    Availability = "nowhere"
	Stations   Availability = "stations"
	Everywhere Availability = "everywhere"
)

func ParseAvailability(s string) (Availability, error) {
	switch a := Availability(strings.ToLower(s)); a {
	case Nowhere, Stations, Everywhere:
		return a, nil
	}
	return "", fmt.Errorf("bad availability: %s", s)
}

// At says whether the transaction is allowed at a node. Stations means
// station nodes and the start node.
func (a Availability) At(isStation, isStart bool) bool {
	switch a {
	case Everywhere:
		return true
	case Stations:
		return isStation || isStart
	}
	return false
}

// LaserExemption is how the start node protects ships from laser battles.
type LaserExemption string

const (
	// NoExemption means the start node gives no protection.
	NoExemption LaserExemption = "none"
	// ExemptFrom means nobody can fire from the start node.
	ExemptFrom LaserExemption = "from"
	// ExemptAt means nobody can be hit on the start node.
	ExemptAt LaserExemption = "at"
	// ExemptBoth means both.
	ExemptBoth LaserExemption = "both"
)

func ParseLaserExemption(s string) (LaserExemption, error) {
	switch e := LaserExemption(strings.ToLower(s)); e {
	case NoExemption, ExemptFrom, ExemptAt, ExemptBoth:
		return e, nil
	}
	return "", fmt.Errorf("bad laser exemption: %s", s)
}

func (e LaserExemption) CanFireFromStart() bool {
	return e != ExemptFrom && e != ExemptBoth
}

func (e LaserExemption) CanHitAtStart() bool {
	return e != ExemptAt && e != ExemptBoth
}

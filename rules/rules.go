package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key names one rule. The set of keys is closed and each one has a fixed kind
// of value.
type Key string

const (
	InitialCash                     Key = "initial_cash"
	InitialFuel                     Key = "initial_fuel"
	InitialFuelStations             Key = "initial_fuel_stations"
	TotalFuelStations               Key = "total_fuel_stations"
	PassStartCash                   Key = "pass_start_cash"
	LandOnStartCash                 Key = "land_on_start_cash"
	FuelStationPurchaseAvailability Key = "fuel_station_purchase_availability"
	FuelStationBuybackAvailability  Key = "fuel_station_buyback_availability"
	NodeBuybackAvailability         Key = "node_buyback_availability"
	FuelStationPrice                Key = "fuel_station_price"
	FuelPriceOnStart                Key = "fuel_price_on_start"
	MaximumFuel                     Key = "maximum_fuel"
	DiePips                         Key = "die_pips"
	LowFuel                         Key = "low_fuel"
	MinimumFuel                     Key = "minimum_fuel"
	LaserBattlesAllowed             Key = "laser_battles_allowed"
	LaserBattleFuelCost             Key = "laser_battle_fuel_cost"
	LaserBattleMaximumDistance      Key = "laser_battle_maximum_distance"
	LaserBattleHitRoll              Key = "laser_battle_hit_roll"
	LaserBattleDamageMultiplier     Key = "laser_battle_damage_multiplier"
	LaserBattleExemption            Key = "laser_battle_exemption"
	RedShift                        Key = "red_shift_roll"
	BypassAllowed                   Key = "bypass_allowed"
	FuelAvailableOnUnownedNode      Key = "fuel_available_on_unowned_node"
	MustRefuelAtDeadEnd             Key = "must_refuel_at_dead_end"
)

// Kind is the type of value a rule takes.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindRedShift
	KindAvailability
	KindLaserExemption
)

var kinds = map[Key]Kind{
	InitialCash:                     KindInt,
	InitialFuel:                     KindInt,
	InitialFuelStations:             KindInt,
	TotalFuelStations:               KindInt,
	PassStartCash:                   KindInt,
	LandOnStartCash:                 KindInt,
	FuelStationPurchaseAvailability: KindAvailability,
	FuelStationBuybackAvailability:  KindAvailability,
	NodeBuybackAvailability:         KindAvailability,
	FuelStationPrice:                KindInt,
	FuelPriceOnStart:                KindInt,
	MaximumFuel:                     KindInt,
	DiePips:                         KindInt,
	LowFuel:                         KindInt,
	MinimumFuel:                     KindInt,
	LaserBattlesAllowed:             KindBool,
	LaserBattleFuelCost:             KindInt,
	LaserBattleMaximumDistance:      KindInt,
	LaserBattleHitRoll:              KindInt,
	LaserBattleDamageMultiplier:     KindInt,
	LaserBattleExemption:            KindLaserExemption,
	RedShift:                        KindRedShift,
	BypassAllowed:                   KindBool,
	FuelAvailableOnUnownedNode:      KindBool,
	MustRefuelAtDeadEnd:             KindBool,
}

// KindOf says what kind of value a key takes.
func KindOf(k Key) (Kind, bool) {
	kind, ok := kinds[k]
	return kind, ok
}

// Keys lists every rule, sorted.
func Keys() []Key {
	out := make([]Key, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RuleSet holds a value for every key. It is never changed after it's made.
type RuleSet struct {
	values map[Key]interface{}
}

var defaults = map[Key]string{
	InitialCash:                     "3200",
	InitialFuel:                     "20",
	InitialFuelStations:             "3",
	TotalFuelStations:               "26",
	PassStartCash:                   "500",
	LandOnStartCash:                 "1000",
	FuelStationPurchaseAvailability: "everywhere",
	FuelStationBuybackAvailability:  "stations",
	NodeBuybackAvailability:         "stations",
	FuelStationPrice:                "100",
	FuelPriceOnStart:                "20",
	MaximumFuel:                     "49",
	DiePips:                         "6",
	LowFuel:                         "10",
	MinimumFuel:                     "1",
	LaserBattlesAllowed:             "false",
	LaserBattleFuelCost:             "5",
	LaserBattleMaximumDistance:      "6",
	LaserBattleHitRoll:              "7",
	LaserBattleDamageMultiplier:     "50",
	LaserBattleExemption:            "at",
	RedShift:                        "doubles",
	BypassAllowed:                   "false",
	FuelAvailableOnUnownedNode:      "true",
	MustRefuelAtDeadEnd:             "false",
}

// Defaults is the standard rule set.
func Defaults() RuleSet {
	rs, err := Parse(nil)
	if err != nil {
		panic("bad default rules: " + err.Error())
	}
	return rs
}

// Parse makes a rule set from text values, using defaults for anything not
// given.
func Parse(in map[string]string) (RuleSet, error) {
	raw := map[Key]string{}
	for k, v := range defaults {
		raw[k] = v
	}
	for k, v := range in {
		key := Key(strings.ToLower(k))
		if _, ok := kinds[key]; !ok {
			return RuleSet{}, fmt.Errorf("unknown rule: %s", k)
		}
		raw[key] = v
	}

	rs := RuleSet{values: map[Key]interface{}{}}
	for k, v := range raw {
		val, err := parseValue(kinds[k], v)
		if err != nil {
			return RuleSet{}, fmt.Errorf("rule %s: %w", k, err)
		}
		rs.values[k] = val
	}
	if err := rs.check(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// With returns a copy with some values replaced.
func (rs RuleSet) With(in map[Key]string) (RuleSet, error) {
	out := RuleSet{values: map[Key]interface{}{}}
	for k, v := range rs.values {
		out.values[k] = v
	}
	for k, v := range in {
		kind, ok := kinds[k]
		if !ok {
			return RuleSet{}, fmt.Errorf("unknown rule: %s", k)
		}
		val, err := parseValue(kind, v)
		if err != nil {
			return RuleSet{}, fmt.Errorf("rule %s: %w", k, err)
		}
		out.values[k] = val
	}
	if err := out.check(); err != nil {
		return RuleSet{}, err
	}
	return out, nil
}

// lowest values for int rules that need more than zero
var minimums = map[Key]int{
	DiePips: 1,
}

// check rejects values the engine cannot play with.
func (rs RuleSet) check() error {
	for k, kind := range kinds {
		if kind != KindInt {
			continue
		}
		if v, min := rs.Int(k), minimums[k]; v < min {
			return fmt.Errorf("rule %s: %d is less than %d", k, v, min)
		}
	}
	if min, max := rs.Int(MinimumFuel), rs.Int(MaximumFuel); min > max {
		return fmt.Errorf("rule %s: %d is more than %s %d", MinimumFuel, min, MaximumFuel, max)
	}
	return nil
}

func parseValue(kind Kind, s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case KindInt:
		return strconv.Atoi(s)
	case KindBool:
		return strconv.ParseBool(s)
	case KindRedShift:
		return ParseRedShiftRoll(s)
	case KindAvailability:
		return ParseAvailability(s)
	case KindLaserExemption:
		return ParseLaserExemption(s)
	}
	return nil, fmt.Errorf("unknown kind: %d", kind)
}

func (rs RuleSet) Int(k Key) int {
	v, _ := rs.values[k].(int)
	return v
}

func (rs RuleSet) Bool(k Key) bool {
	v, _ := rs.values[k].(bool)
	return v
}

func (rs RuleSet) RedShiftRoll() RedShiftRoll {
	v, _ := rs.values[RedShift].(RedShiftRoll)
	return v
}

func (rs RuleSet) Availability(k Key) Availability {
	v, _ := rs.values[k].(Availability)
	return v
}

func (rs RuleSet) LaserExemption() LaserExemption {
	v, _ := rs.values[LaserBattleExemption].(LaserExemption)
	return v
}

// Strings gives every value back as text, for showing to people.
func (rs RuleSet) Strings() map[string]string {
	out := map[string]string{}
	for k, v := range rs.values {
		out[string(k)] = fmt.Sprint(v)
	}
	return out
}

package game

// EventType says what happened.
type EventType string

// prompts, sent when the engine changes state
const (
	EventPreRoll                   EventType = "pre_roll"
	EventPreLand                   EventType = "pre_land"
	EventPostRoll                  EventType = "post_roll"
	EventChoosingNodeLostToLeague  EventType = "choosing_node_lost_to_league"
	EventChoosingNodeWonFromLeague EventType = "choosing_node_won_from_league"
	EventChoosingNodeWonFromPlayer EventType = "choosing_node_won_from_player"
	EventGameOver                  EventType = "game_over"
	// EventInvalidState goes only to the sender of a command that was refused
	EventInvalidState EventType = "invalid_state"
)

// things that happen to players
const (
	EventChangedCash                  EventType = "changed_cash"
	EventChangedFuelStations          EventType = "changed_fuel_stations"
	EventChangedFuel                  EventType = "changed_fuel"
	EventLostDueToInsufficientFuel    EventType = "lost_due_to_insufficient_fuel"
	EventLostDueToBankruptcy          EventType = "lost_due_to_bankruptcy"
	EventLostDueToStranding           EventType = "lost_due_to_stranding"
	EventQuit                         EventType = "quit"
	EventDropped                      EventType = "dropped"
	EventAdvancedToNode               EventType = "advanced_to_node"
	EventPassedStartNode              EventType = "passed_start_node"
	EventLandedOnStartNode            EventType = "landed_on_start_node"
	EventLostDisputeWithLeague        EventType = "lost_dispute_with_league"
	EventWonDisputeWithLeague         EventType = "won_dispute_with_league"
	EventWonDisputeWithPlayer         EventType = "won_dispute_with_player"
	EventRolled                       EventType = "rolled"
	EventRemainedStationary           EventType = "remained_stationary"
	EventHasMultipleAllowedMoves      EventType = "has_multiple_allowed_moves"
	EventPurchasedNode                EventType = "purchased_node"
	EventPurchasedFuelStation         EventType = "purchased_fuel_station"
	EventPlacedFuelStation            EventType = "placed_fuel_station"
	EventDrewCard                     EventType = "drew_card"
	EventHasInsufficientCash          EventType = "has_insufficient_cash"
	EventWon                          EventType = "won"
	EventSoldNode                     EventType = "sold_node"
	EventSoldFuelStation              EventType = "sold_fuel_station"
	EventRelinquishedFuelStations     EventType = "relinquished_fuel_stations"
	EventObtainedFreeFuelStation      EventType = "obtained_free_fuel_station"
	EventStartedTrade                 EventType = "started_trade"
	EventRelinquishedNode             EventType = "relinquished_node"
	EventObtainedNode                 EventType = "obtained_node"
	EventHadNoNodeToLose              EventType = "had_no_node_to_lose"
	EventHadNoNodeToWin               EventType = "had_no_node_to_win"
	EventFiredLasers                  EventType = "fired_lasers"
	EventFiredLasersAndMissed         EventType = "fired_lasers_and_missed"
	EventFiredLasersAndCausedDamage   EventType = "fired_lasers_and_caused_damage"
	EventFiredLasersAndDestroyedAShip EventType = "fired_lasers_and_destroyed_a_ship"
)

// trades
const (
	EventTradeAccepted EventType = "trade_accepted"
	EventTradeRejected EventType = "trade_rejected"
)

// Event is what the engine tells the observers. Value depends on Type, and is
// one of the value types below, a node id, a number or nothing.
type Event struct {
	Type   EventType   `json:"type"`
	Player *int        `json:"player,omitempty"`
	Value  interface{} `json:"value,omitempty"`
}

// Dice is a throw of two dice.
type Dice struct {
	Die1 int `json:"die1"`
	Die2 int `json:"die2"`
}

func (d Dice) Total() int {
	return d.Die1 + d.Die2
}

func (d Dice) Doubles() bool {
	return d.Die1 == d.Die2
}

type CardInfo struct {
	ID   string `json:"id"`
	Text string `json:"text,omitempty"`
}

// DebtInfo says who is owed how much. No creditor means the League.
type DebtInfo struct {
	Creditor *int `json:"creditor,omitempty"`
	Amount   int  `json:"amount"`
}

type LaserShot struct {
	Target int  `json:"target"`
	Dice   Dice `json:"dice"`
}

type LaserDamage struct {
	Target int `json:"target"`
	Amount int `json:"amount"`
}

type ErrorInfo struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

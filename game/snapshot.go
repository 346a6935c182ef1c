package game

// Snapshot is everything an observer needs to catch up with a game, either
// when it starts or when joining late.
type Snapshot struct {
	State                 State             `json:"state"`
	Current               int               `json:"current"`
	FuelStationsRemaining int               `json:"fuelStationsRemaining"`
	Players               []PlayerState     `json:"players"`
	Nodes                 []NodeState       `json:"nodes"`
	Rules                 map[string]string `json:"rules"`
}

type PlayerState struct {
	Number       int      `json:"number"`
	Name         string   `json:"name"`
	Cash         int      `json:"cash"`
	Fuel         int      `json:"fuel"`
	FuelStations int      `json:"fuelStations"`
	Node         string   `json:"node"`
	Owned        []string `json:"owned"`
	GameOver     bool     `json:"gameOver"`
}

// NodeState is only listed for nodes that are owned or have a fuel station.
type NodeState struct {
	ID          string `json:"id"`
	Owner       *int   `json:"owner,omitempty"`
	FuelStation bool   `json:"fuelStation"`
}

// Snapshot reads the game directly. Only call it from the engine's own
// goroutine, or before Run starts; other callers want Query.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:                 e.state,
		Current:               e.current.Number,
		FuelStationsRemaining: e.stationsLeft,
		Rules:                 e.rules.Strings(),
	}

	for _, p := range e.players {
		ps := PlayerState{
			Number:       p.Number,
			Name:         p.Name,
			Cash:         p.Cash,
			Fuel:         p.Fuel,
			FuelStations: p.FuelStations,
			Node:         p.Node.ID,
			Owned:        []string{},
			GameOver:     p.GameOver,
		}
		for _, n := range p.OwnedNodes() {
			ps.Owned = append(ps.Owned, n.ID)
		}
		s.Players = append(s.Players, ps)
	}

	for _, n := range e.board.Nodes() {
		owner, station := e.owners[n], e.stations[n]
		if owner == nil && !station {
			continue
		}
		s.Nodes = append(s.Nodes, NodeState{ID: n.ID, Owner: playerRef(owner), FuelStation: station})
	}

	return s
}

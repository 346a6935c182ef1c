package game

import (
	"sort"

	"github.com/undeconstructed/solarquest/board"
)

// Player is one ship in the game.
type Player struct {
	Number       int
	Name         string
	Cash         int
	Fuel         int
	FuelStations int
	Node         *board.Node
	GameOver     bool

	owned  map[*board.Node]bool
	groups map[string]int
}

func newPlayer(number int, name string) *Player {
	return &Player{
		Number: number,
		Name:   name,
		owned:  map[*board.Node]bool{},
		groups: map[string]int{},
	}
}

func (p *Player) Owns(n *board.Node) bool {
	return p.owned[n]
}

// OwnedNodes lists the player's nodes in board order.
func (p *Player) OwnedNodes() []*board.Node {
	out := make([]*board.Node, 0, len(p.owned))
	for n := range p.owned {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// GroupCount is how many nodes of a group the player owns.
func (p *Player) GroupCount(group string) int {
	return p.groups[group]
}

// FixGroupCounts works the group counts out again from the owned nodes.
func (p *Player) FixGroupCounts() {
	p.groups = map[string]int{}
	for n := range p.owned {
		p.groups[n.Group]++
	}
}

// groupCountsRight checks the counts against the owned nodes.
func (p *Player) groupCountsRight() bool {
	counts := map[string]int{}
	for n := range p.owned {
		counts[n.Group]++
	}
	for g, c := range p.groups {
		if counts[g] != c {
			return false
		}
	}
	for g, c := range counts {
		if p.groups[g] != c {
			return false
		}
	}
	return true
}

func (p *Player) addNode(n *board.Node) {
	if p.owned[n] {
		return
	}
	p.owned[n] = true
	p.groups[n.Group]++
}

func (p *Player) removeNode(n *board.Node) {
	if !p.owned[n] {
		return
	}
	delete(p.owned, n)
	p.groups[n.Group]--
}

func playerRef(p *Player) *int {
	if p == nil {
		return nil
	}
	n := p.Number
	return &n
}

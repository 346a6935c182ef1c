package board

import (
	"fmt"

	"github.com/undeconstructed/solarquest/card"
)

// NodeType says what kind of place a node is.
type NodeType string

const (
	Space     NodeType = "space"
	WellOrbit NodeType = "well_orbit"
	WellPull  NodeType = "well_pull"
	Solid     NodeType = "solid"
	Dock      NodeType = "dock"
	Lab       NodeType = "lab"
	Station   NodeType = "station"
)

// ParseNodeType checks a type name from a data file.
func ParseNodeType(s string) (NodeType, error) {
	switch t := NodeType(s); t {
	case Space, WellOrbit, WellPull, Solid, Dock, Lab, Station:
		return t, nil
	}
	return "", fmt.Errorf("unknown node type: %s", s)
}

// NodeDef is how a node is described before the board is built.
type NodeDef struct {
	ID      string
	Type    NodeType
	To      []string
	Price   int
	Group   string
	Rents   []int
	Fuels   []int
	Actions []card.Action
}

// Node is a place on the board. Nodes never change once the board is built;
// who owns them is game state.
type Node struct {
	ID      string
	Index   int
	Type    NodeType
	Start   bool
	Price   int
	Group   string
	Rents   []int
	Fuels   []int
	Actions []card.Action

	dests []*Node
}

// IsBranch is true when there are two ways out. The second is the branch.
func (n *Node) IsBranch() bool {
	return len(n.dests) == 2
}

// IsLandable is false for the gravity well nodes that a token can only pass.
func (n *Node) IsLandable() bool {
	return n.Type != WellOrbit && n.Type != WellPull
}

// IsOwnable means it can be bought.
func (n *Node) IsOwnable() bool {
	return n.Price > 0
}

// UsesFuel means that leaving the node by dice burns fuel.
func (n *Node) UsesFuel() bool {
	return n.Type == Solid
}

func (n *Node) CanHaveFuelStation() bool {
	return n.Type == Solid && !n.Start
}

// Rent is the rent when the owner holds count nodes of the group.
func (n *Node) Rent(count int) int {
	return tableValue(n.Rents, count)
}

// FuelPrice is the price per hydron when the owner holds count nodes of the
// group.
func (n *Node) FuelPrice(count int) int {
	return tableValue(n.Fuels, count)
}

func (n *Node) String() string {
	return n.ID
}

func tableValue(table []int, count int) int {
	if len(table) == 0 {
		return 0
	}
	i := count - 1
	if i < 0 {
		i = 0
	}
	if i >= len(table) {
		i = len(table) - 1
	}
	return table[i]
}

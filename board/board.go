package board

import (
	"errors"
	"fmt"
	"sort"
)

// Board is the immutable graph of nodes, with the travel distances between
// all of them worked out once when it's built.
type Board struct {
	nodes []*Node
	byID  map[string]*Node
	start *Node
	dist  [][]int
}

// New checks the definitions and links the nodes together.
func New(start string, defs []NodeDef) (*Board, error) {
	if len(defs) == 0 {
		return nil, errors.New("board has no nodes")
	}

	b := &Board{byID: map[string]*Node{}}

	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		if _, exists := b.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate node: %s", d.ID)
		}
		if len(d.To) < 1 || len(d.To) > 2 {
			return nil, fmt.Errorf("node %s must have one or two destinations", d.ID)
		}
		if len(d.Rents) > 0 && len(d.Fuels) > 0 && len(d.Rents) != len(d.Fuels) {
			return nil, fmt.Errorf("node %s has %d rents but %d fuel prices", d.ID, len(d.Rents), len(d.Fuels))
		}
		n := &Node{
			ID:      d.ID,
			Index:   i,
			Type:    d.Type,
			Price:   d.Price,
			Group:   d.Group,
			Rents:   d.Rents,
			Fuels:   d.Fuels,
			Actions: d.Actions,
		}
		b.nodes = append(b.nodes, n)
		b.byID[n.ID] = n
	}

	s, ok := b.byID[start]
	if !ok {
		return nil, fmt.Errorf("start node not found: %s", start)
	}
	s.Start = true
	b.start = s

	for i, d := range defs {
		n := b.nodes[i]
		for _, to := range d.To {
			tn, ok := b.byID[to]
			if !ok {
				return nil, fmt.Errorf("node %s links to unknown node %s", d.ID, to)
			}
			n.dests = append(n.dests, tn)
		}
	}

	b.dist = distances(b.nodes)

	return b, nil
}

func (b *Board) Node(id string) (*Node, bool) {
	n, ok := b.byID[id]
	return n, ok
}

// Nodes lists every node in creation order.
func (b *Board) Nodes() []*Node {
	return b.nodes
}

func (b *Board) Start() *Node {
	return b.start
}

// Group lists the nodes of a group in creation order.
func (b *Board) Group(group string) []*Node {
	var out []*Node
	for _, n := range b.nodes {
		if n.Group == group {
			out = append(out, n)
		}
	}
	return out
}

// Distance is the fewest edges between two nodes, ignoring direction, or -1
// if there is no way.
func (b *Board) Distance(from, to *Node) int {
	return b.dist[from.Index][to.Index]
}

// AllowedMoves finds where a token can end up after moving distance steps.
//
// The token follows the first destination of each node. A branch node with
// one step left offers whichever of its destinations are landable. A token
// one step away from a pull well stays where it is, if it can land there. If
// the walk finishes somewhere unlandable it goes back to the most recent
// branch, takes the other way and counts one step less from there.
func (b *Board) AllowedMoves(from *Node, distance int) []*Node {
	current := from
	var lastBranch *Node
	distAtBranch := 0

	for {
		dests := current.dests

		if distance <= 0 {
			if current.IsLandable() {
				return []*Node{current}
			}
			if lastBranch == nil {
				return nil
			}
			current = lastBranch.dests[1]
			distance = distAtBranch - 1
			// only one retreat per branch
			lastBranch = nil
			continue
		}

		if distance == 1 && current.IsBranch() {
			var out []*Node
			for _, d := range dests {
				if d.IsLandable() {
					out = append(out, d)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out
		}

		if distance == 1 && dests[0].Type == WellPull && current.IsLandable() {
			return []*Node{current}
		}

		if current.IsBranch() {
			lastBranch = current
			distAtBranch = distance
		}

		current = dests[0]
		distance--
	}
}

// PassesStart says whether the shortest way from one node to another goes
// through the start node. Paths that begin or end on start don't count.
func (b *Board) PassesStart(from, to *Node) bool {
	if from == b.start || to == b.start {
		return false
	}

	visited := map[*Node]bool{}
	queue := [][]*Node{{from}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		last := path[len(path)-1]
		if last == to {
			for _, n := range path {
				if n == b.start {
					return true
				}
			}
			return false
		}

		visited[last] = true

		for _, next := range last.dests {
			if visited[next] {
				continue
			}
			np := make([]*Node, len(path), len(path)+1)
			copy(np, path)
			queue = append(queue, append(np, next))
		}
	}

	return false
}

func distances(nodes []*Node) [][]int {
	const inf = int(^uint(0) >> 2)

	n := len(nodes)
	d := make([][]int, n)
	for i := range d {
		d[i] = make([]int, n)
		for j := range d[i] {
			d[i][j] = inf
		}
		d[i][i] = 0
	}
	for _, from := range nodes {
		for _, to := range from.dests {
			if from == to {
				continue
			}
			d[from.Index][to.Index] = 1
			d[to.Index][from.Index] = 1
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if d[i][k]+d[k][j] < d[i][j] {
					d[i][j] = d[i][k] + d[k][j]
				}
			}
		}
	}

	for i := range d {
		for j := range d[i] {
			if d[i][j] == inf {
				d[i][j] = -1
			}
		}
	}
	return d
}

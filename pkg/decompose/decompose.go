// Package decompose partitions a flat diagram into connected components.
//
// Connectivity is undirected: an edge joins its source and target regardless
// of direction. Components are discovered by breadth-first search seeded from
// each unvisited node in insertion order, so component_0 always contains the
// first node of the input, and node order within a component is BFS order.
//
// Every node lands in exactly one component and every edge in the component
// holding both of its endpoints. Edges naming an id that is not a node of
// the graph are dropped. Members are deep copies; the input graph is
// not modified.
package decompose

import (
	"github.com/matzehuels/flowpack/pkg/diagram"
)

// Packing options attached to the root of a decomposed graph. They describe
// how components are arranged relative to each other, as opposed to the
// per-component layout options.
const (
	RootAlgorithm = "rectpacking"
	RootSpacing   = "40"
	RootPadding   = "[top=40,left=40,bottom=40,right=40]"
)

// RootOptions returns a fresh copy of the root packing configuration.
func RootOptions() diagram.Options {
	return diagram.Options{
		diagram.KeyAlgorithm:       RootAlgorithm,
		diagram.KeySpacingNodeNode: RootSpacing,
		diagram.KeyPadding:         RootPadding,
	}
}

// Decompose returns a new root graph whose Components are the connected
// subgraphs of g. The root carries no nodes or edges of its own; layout
// directives (Algorithm, Overrides) are carried over from g.
//
// A graph with no edges yields one singleton component per node; an empty
// graph yields no components.
func Decompose(g *diagram.Graph) *diagram.Graph {
	out := &diagram.Graph{
		ID:        g.ID,
		Options:   RootOptions(),
		Algorithm: g.Algorithm,
		Overrides: g.Overrides.Clone(),
	}
	if out.ID == "" {
		out.ID = diagram.RootID
	}

	index := make(map[string]*diagram.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		index[n.ID] = n
	}
	adj := adjacency(g.Nodes, g.Edges)
	owner := make(map[string]int, len(g.Nodes))

	for _, seed := range g.Nodes {
		if _, seen := owner[seed.ID]; seen {
			continue
		}
		idx := len(out.Components)
		members := bfs(seed.ID, adj, owner, idx)

		c := &diagram.Component{
			ID:    diagram.ComponentID(idx),
			Nodes: make([]*diagram.Node, 0, len(members)),
			Edges: []*diagram.Edge{},
		}
		for _, id := range members {
			c.Nodes = append(c.Nodes, index[id].Clone())
		}
		out.Components = append(out.Components, c)
	}

	for _, e := range g.Edges {
		if index[e.Source] == nil || index[e.Target] == nil {
			continue
		}
		idx := owner[e.Source]
		if owner[e.Target] != idx {
			continue
		}
		c := out.Components[idx]
		c.Edges = append(c.Edges, e.Clone())
	}

	return out
}

// Count returns the number of connected components of g without copying it.
func Count(g *diagram.Graph) int {
	adj := adjacency(g.Nodes, g.Edges)
	owner := make(map[string]int, len(g.Nodes))
	n := 0
	for _, seed := range g.Nodes {
		if _, seen := owner[seed.ID]; seen {
			continue
		}
		bfs(seed.ID, adj, owner, n)
		n++
	}
	return n
}

// adjacency builds an undirected neighbor list over edges whose endpoints
// are both nodes. Neighbor order follows edge order so traversal is
// deterministic.
func adjacency(nodes []*diagram.Node, edges []*diagram.Edge) map[string][]string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	adj := make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// bfs marks every node reachable from seed with idx and returns them in
// visit order.
func bfs(seed string, adj map[string][]string, owner map[string]int, idx int) []string {
	owner[seed] = idx
	queue := []string{seed}
	for head := 0; head < len(queue); head++ {
		for _, next := range adj[queue[head]] {
			if _, seen := owner[next]; seen {
				continue
			}
			owner[next] = idx
			queue = append(queue, next)
		}
	}
	return queue
}

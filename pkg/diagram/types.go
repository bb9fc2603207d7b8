package diagram

import (
	"fmt"
	"maps"
	"slices"
)

// =============================================================================
// Identifiers
// =============================================================================

const (
	// RootID is the identifier of the root graph produced by decomposition.
	RootID = "root"

	// ComponentPrefix prefixes sequential component identifiers (component_0, component_1, ...).
	ComponentPrefix = "component_"

	// EdgePrefix prefixes sequential edge identifiers (e0, e1, ...).
	EdgePrefix = "e"
)

// ComponentID returns the identifier of the i-th component.
func ComponentID(i int) string { return fmt.Sprintf("%s%d", ComponentPrefix, i) }

// EdgeID returns the identifier of the i-th edge in source order.
func EdgeID(i int) string { return fmt.Sprintf("%s%d", EdgePrefix, i) }

// =============================================================================
// Geometry
// =============================================================================

// Size is a measured width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in the coordinate space of the owning container.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Section is the routing geometry of an edge: a polyline from Start to End
// through the bend points.
type Section struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Bends []Point `json:"bends,omitempty"`
}

// =============================================================================
// Node
// =============================================================================

// Node is a diagram node. Width and Height come from label measurement;
// Position is the top-left corner, set only after layout.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Position *Point  `json:"position,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// HasDefaultLabel reports whether the label is still derived from the identifier.
func (n *Node) HasDefaultLabel() bool { return n.Label == n.ID }

// Resize replaces the node's measured size.
func (n *Node) Resize(s Size) {
	n.Width = s.Width
	n.Height = s.Height
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Position = clonePoint(n.Position)
	return &c
}

// =============================================================================
// Edge
// =============================================================================

// Label is an edge label with its own measured size and post-layout position.
type Label struct {
	Text     string  `json:"text"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Position *Point  `json:"position,omitempty"`
}

// Edge connects exactly one source node to exactly one target node.
type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    *Label    `json:"label,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// HasLabel reports whether the edge carries a non-empty label.
func (e *Edge) HasLabel() bool { return e.Label != nil && e.Label.Text != "" }

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	if e.Label != nil {
		l := *e.Label
		l.Position = clonePoint(e.Label.Position)
		c.Label = &l
	}
	if e.Sections != nil {
		c.Sections = make([]Section, len(e.Sections))
		for i, s := range e.Sections {
			c.Sections[i] = Section{Start: s.Start, End: s.End, Bends: slices.Clone(s.Bends)}
		}
	}
	return &c
}

// =============================================================================
// Component
// =============================================================================

// Component is a maximal connected subgraph. After layout it carries its
// absolute Width/Height; after packing, Position holds its canvas offset.
type Component struct {
	ID       string  `json:"id"`
	Options  Options `json:"options,omitempty"`
	Nodes    []*Node `json:"nodes"`
	Edges    []*Edge `json:"edges"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Position *Point  `json:"position,omitempty"`
}

// Area returns Width × Height.
func (c *Component) Area() float64 { return c.Width * c.Height }

// Node returns the member node with the given ID.
func (c *Component) Node(id string) (*Node, bool) { return findNode(c.Nodes, id) }

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	out := &Component{
		ID:       c.ID,
		Options:  c.Options.Clone(),
		Nodes:    make([]*Node, len(c.Nodes)),
		Edges:    make([]*Edge, len(c.Edges)),
		Width:    c.Width,
		Height:   c.Height,
		Position: clonePoint(c.Position),
	}
	for i, n := range c.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range c.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the root container. A flat graph (parser output) holds Nodes and
// Edges; a decomposed graph holds Components and no edges of its own.
//
// Algorithm and Overrides carry directives found in the source text
// (frontmatter); they steer layout but are not engine options themselves.
type Graph struct {
	ID         string       `json:"id"`
	Options    Options      `json:"options,omitempty"`
	Nodes      []*Node      `json:"nodes,omitempty"`
	Edges      []*Edge      `json:"edges,omitempty"`
	Components []*Component `json:"components,omitempty"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Algorithm  string       `json:"algorithm,omitempty"`
	Overrides  Options      `json:"overrides,omitempty"`
}

// New returns an empty flat graph with the root identifier.
func New() *Graph {
	return &Graph{ID: RootID}
}

// IsHierarchical reports whether the graph is decomposed into components
// that contain nodes. Flat graphs are laid out as a single unit.
func (g *Graph) IsHierarchical() bool {
	return len(g.Components) > 0 && len(g.Components[0].Nodes) > 0
}

// Node returns the flat-level node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) { return findNode(g.Nodes, id) }

// NodeCount returns the number of nodes at the flat level plus all component members.
func (g *Graph) NodeCount() int {
	n := len(g.Nodes)
	for _, c := range g.Components {
		n += len(c.Nodes)
	}
	return n
}

// EdgeCount returns the number of edges at the flat level plus all component members.
func (g *Graph) EdgeCount() int {
	n := len(g.Edges)
	for _, c := range g.Components {
		n += len(c.Edges)
	}
	return n
}

// AllNodes returns flat-level nodes followed by component members, in order.
func (g *Graph) AllNodes() []*Node {
	out := slices.Clone(g.Nodes)
	for _, c := range g.Components {
		out = append(out, c.Nodes...)
	}
	return out
}

// AllEdges returns flat-level edges followed by component members, in order.
func (g *Graph) AllEdges() []*Edge {
	out := slices.Clone(g.Edges)
	for _, c := range g.Components {
		out = append(out, c.Edges...)
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		ID:        g.ID,
		Options:   g.Options.Clone(),
		Width:     g.Width,
		Height:    g.Height,
		Algorithm: g.Algorithm,
		Overrides: g.Overrides.Clone(),
	}
	if g.Nodes != nil {
		out.Nodes = make([]*Node, len(g.Nodes))
		for i, n := range g.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if g.Edges != nil {
		out.Edges = make([]*Edge, len(g.Edges))
		for i, e := range g.Edges {
			out.Edges[i] = e.Clone()
		}
	}
	if g.Components != nil {
		out.Components = make([]*Component, len(g.Components))
		for i, c := range g.Components {
			out.Components[i] = c.Clone()
		}
	}
	return out
}

// =============================================================================
// Options
// =============================================================================

// Options is a named option map passed verbatim to a layout engine.
type Options map[string]string

// Clone returns a copy of the map. A nil map clones to nil.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// Merge returns a new map holding o overlaid by each of others in order.
func (o Options) Merge(others ...Options) Options {
	out := make(Options, len(o))
	maps.Copy(out, o)
	for _, other := range others {
		maps.Copy(out, other)
	}
	return out
}

// Keys returns the option keys in sorted order.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o))
}

// =============================================================================
// Helpers
// =============================================================================

func findNode(nodes []*Node, id string) (*Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

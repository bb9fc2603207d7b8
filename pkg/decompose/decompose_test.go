package decompose

import (
	"reflect"
	"testing"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/parse"
)

func componentNodes(g *diagram.Graph) [][]string {
	out := make([][]string, len(g.Components))
	for i, c := range g.Components {
		out[i] = []string{}
		for _, n := range c.Nodes {
			out[i] = append(out[i], n.ID)
		}
	}
	return out
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		nodes [][]string
		edges []int
	}{
		{"SingleEdge", "A-->B", [][]string{{"A", "B"}}, []int{1}},
		{"TwoComponents", "A-->|go| B\nC-->D", [][]string{{"A", "B"}, {"C", "D"}}, []int{1, 1}},
		{"Singletons", "A[Start]\nB[End]", [][]string{{"A"}, {"B"}}, []int{0, 0}},
		{"ReverseEdgeJoins", "A-->B\nC-->B", [][]string{{"A", "B", "C"}}, []int{2}},
		{"LateMerge", "A-->B\nC-->D\nD-->A", [][]string{{"A", "B", "D", "C"}}, []int{3}},
		{"SelfLoop", "A-->A\nB[x]", [][]string{{"A"}, {"B"}}, []int{1, 0}},
		{"Empty", "", [][]string{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Decompose(parse.Parse(tt.src, nil))

			if got := componentNodes(g); !reflect.DeepEqual(got, tt.nodes) {
				t.Errorf("components = %v, want %v", got, tt.nodes)
			}
			for i, c := range g.Components {
				if want := diagram.ComponentID(i); c.ID != want {
					t.Errorf("component %d id = %q, want %q", i, c.ID, want)
				}
				if len(c.Edges) != tt.edges[i] {
					t.Errorf("component %s edges = %d, want %d", c.ID, len(c.Edges), tt.edges[i])
				}
			}
			if len(g.Nodes) != 0 || len(g.Edges) != 0 {
				t.Errorf("root holds %d nodes, %d edges, want none", len(g.Nodes), len(g.Edges))
			}
			if g.Options[diagram.KeyAlgorithm] != RootAlgorithm {
				t.Errorf("root algorithm = %q, want %q", g.Options[diagram.KeyAlgorithm], RootAlgorithm)
			}
		})
	}
}

func TestDecomposeKeepsEdgeIDs(t *testing.T) {
	g := Decompose(parse.Parse("A-->|go| B\nC-->D", nil))

	e0 := g.Components[0].Edges[0]
	if e0.ID != "e0" || e0.Label == nil || e0.Label.Text != "go" {
		t.Errorf("component_0 edge = %+v, want e0 labeled go", e0)
	}
	if e1 := g.Components[1].Edges[0]; e1.ID != "e1" || e1.Label != nil {
		t.Errorf("component_1 edge = %+v, want unlabeled e1", e1)
	}
}

func TestDecomposeCopiesMembers(t *testing.T) {
	flat := parse.Parse("A-->B", nil)
	g := Decompose(flat)

	g.Components[0].Nodes[0].Label = "changed"
	g.Components[0].Edges[0].Source = "X"

	if flat.Nodes[0].Label != "A" || flat.Edges[0].Source != "A" {
		t.Error("Decompose shares members with its input")
	}
}

func TestDecomposeCarriesDirectives(t *testing.T) {
	flat := parse.Parse("A-->B", nil)
	flat.Algorithm = "stress"
	flat.Overrides = diagram.Options{"k": "v"}

	g := Decompose(flat)
	if g.Algorithm != "stress" || g.Overrides["k"] != "v" {
		t.Errorf("directives = %q %v", g.Algorithm, g.Overrides)
	}
	if !g.IsHierarchical() {
		t.Error("IsHierarchical() = false, want true")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"A-->B", 1},
		{"A-->B\nC-->D", 2},
		{"A[a]\nB[b]\nC[c]", 3},
		{"A-->B\nC-->D\nB-->C", 1},
	}
	for _, tt := range tests {
		if got := Count(parse.Parse(tt.src, nil)); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestDecomposeDropsDanglingEdges(t *testing.T) {
	g := &diagram.Graph{
		Nodes: []*diagram.Node{{ID: "A"}, {ID: "B"}},
		Edges: []*diagram.Edge{
			{ID: "e0", Source: "A", Target: "Z"},
			{ID: "e1", Source: "B", Target: "Z"},
			{ID: "e2", Source: "Y", Target: "Y"},
		},
	}

	out := Decompose(g)
	if got, want := componentNodes(out), [][]string{{"A"}, {"B"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("components = %v, want %v", got, want)
	}
	for _, c := range out.Components {
		if len(c.Edges) != 0 {
			t.Errorf("%s edges = %v, want none", c.ID, c.Edges)
		}
	}
	if n := Count(g); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

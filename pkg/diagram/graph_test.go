package diagram

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleGraph() *Graph {
	g := New()
	g.Nodes = []*Node{
		{ID: "A", Label: "Start", Width: 76, Height: 40},
		{ID: "B", Label: "B", Width: 60, Height: 40},
	}
	g.Edges = []*Edge{
		{ID: "e0", Source: "A", Target: "B", Label: &Label{Text: "go", Width: 60, Height: 40}},
	}
	return g
}

func TestMarshalGraph(t *testing.T) {
	data, err := MarshalGraph(sampleGraph())
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"id": "root"`, `"source": "A"`, `"text": "go"`} {
		if !strings.Contains(out, want) {
			t.Errorf("MarshalGraph() missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"position"`) {
		t.Error("MarshalGraph() should omit unset positions")
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "Flat",
			input: `{"id":"root","nodes":[{"id":"A"},{"id":"B"}],"edges":[{"id":"e0","source":"A","target":"B"}]}`,
		},
		{
			name: "Components",
			input: `{"id":"root","components":[
				{"id":"component_0","nodes":[{"id":"A"},{"id":"B"}],"edges":[{"id":"e0","source":"A","target":"B"}]},
				{"id":"component_1","nodes":[{"id":"C"}],"edges":[]}
			]}`,
		},
		{
			name:    "DanglingEdge",
			input:   `{"id":"root","nodes":[{"id":"A"}],"edges":[{"id":"e0","source":"A","target":"Z"}]}`,
			wantErr: true,
		},
		{
			name:    "DuplicateNode",
			input:   `{"id":"root","nodes":[{"id":"A"},{"id":"A"}]}`,
			wantErr: true,
		},
		{
			name: "NodeSharedAcrossComponents",
			input: `{"id":"root","components":[
				{"id":"component_0","nodes":[{"id":"A"}]},
				{"id":"component_1","nodes":[{"id":"A"}]}
			]}`,
			wantErr: true,
		},
		{
			name: "CrossComponentEdge",
			input: `{"id":"root","components":[
				{"id":"component_0","nodes":[{"id":"A"}],"edges":[{"id":"e0","source":"A","target":"B"}]},
				{"id":"component_1","nodes":[{"id":"B"}]}
			]}`,
			wantErr: true,
		},
		{
			name:    "Invalid",
			input:   `{invalid json}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadGraph() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraphFile(sampleGraph(), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}

	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	n, ok := g.Node("A")
	if !ok {
		t.Fatal("node A not found")
	}
	if n.Label != "Start" {
		t.Errorf("label = %q, want Start", n.Label)
	}
	if !g.Edges[0].HasLabel() {
		t.Error("edge label lost")
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	if _, err := ReadGraphFile(filepath.Join(os.TempDir(), "does-not-exist.json")); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := &Component{
		ID:      "component_0",
		Options: Options{"elk.algorithm": "layered"},
		Nodes:   []*Node{{ID: "A", Position: &Point{X: 1, Y: 2}}},
		Edges:   []*Edge{{ID: "e0", Source: "A", Target: "A", Sections: []Section{{Bends: []Point{{X: 5}}}}}},
	}

	cp := c.Clone()
	cp.Options["elk.algorithm"] = "force"
	cp.Nodes[0].Position.X = 99
	cp.Edges[0].Sections[0].Bends[0].X = 99

	if c.Options["elk.algorithm"] != "layered" {
		t.Error("Clone() shares options map")
	}
	if c.Nodes[0].Position.X != 1 {
		t.Error("Clone() shares node positions")
	}
	if c.Edges[0].Sections[0].Bends[0].X != 5 {
		t.Error("Clone() shares edge sections")
	}
}

func TestOptionsMerge(t *testing.T) {
	base := Options{"a": "1", "b": "2"}
	got := base.Merge(Options{"b": "3"}, nil, Options{"c": "4"})

	want := Options{"a": "1", "b": "3", "c": "4"}
	if len(got) != len(want) {
		t.Fatalf("Merge() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Merge()[%q] = %q, want %q", k, got[k], v)
		}
	}
	if base["b"] != "2" {
		t.Error("Merge() mutated receiver")
	}
}

func TestIsHierarchical(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
		want bool
	}{
		{"Empty", New(), false},
		{"Flat", sampleGraph(), false},
		{"EmptyComponent", &Graph{Components: []*Component{{ID: "component_0"}}}, false},
		{"Decomposed", &Graph{Components: []*Component{{ID: "component_0", Nodes: []*Node{{ID: "A"}}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.IsHierarchical(); got != tt.want {
				t.Errorf("IsHierarchical() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteGraph(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGraph(sampleGraph(), &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	g, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", g.NodeCount(), g.EdgeCount())
	}
}

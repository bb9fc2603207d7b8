package graphviz

import (
	"context"
	"reflect"
	"testing"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
)

const samplePlain = `graph 1 3 2
node n0 1 1.5 1 0.5 "" solid box black lightgrey
node n1 1.5 0.25 2 0.5 "" solid box black lightgrey
edge n0 n1 4 1 1.25 1 1 1.5 0.75 1.5 0.5 "say \"hi\"" 1.4 0.9 solid black
edge n1 n0 1 1.5 0.5 solid black
stop
`

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"graph 1 3 2", []string{"graph", "1", "3", "2"}},
		{`node n0 1 1 1 0.5 "" solid`, []string{"node", "n0", "1", "1", "1", "0.5", "", "solid"}},
		{`edge a b "two words" x`, []string{"edge", "a", "b", "two words", "x"}},
		{`"esc \"q\""`, []string{`esc "q"`}},
		{"  spaced   out  ", []string{"spaced", "out"}},
	}
	for _, tt := range tests {
		got, err := tokenize(tt.in)
		if err != nil {
			t.Errorf("tokenize(%q) error = %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := tokenize(`"open`); err == nil {
		t.Error("tokenize(unterminated) error = nil")
	}
}

func TestParsePlain(t *testing.T) {
	pg, err := parsePlain([]byte(samplePlain))
	if err != nil {
		t.Fatalf("parsePlain() error = %v", err)
	}
	if pg.width != 3 || pg.height != 2 {
		t.Errorf("size = %vx%v, want 3x2", pg.width, pg.height)
	}
	if pg.nodes["n1"] != (plainNode{1.5, 0.25}) {
		t.Errorf("n1 = %+v", pg.nodes["n1"])
	}
	if len(pg.edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(pg.edges))
	}
	if e := pg.edges[0]; len(e.points) != 4 || e.label == nil || *e.label != (plainPoint{1.4, 0.9}) {
		t.Errorf("edge 0 = %+v", e)
	}
	if e := pg.edges[1]; len(e.points) != 1 || e.label != nil {
		t.Errorf("edge 1 = %+v", e)
	}
}

func TestParsePlainErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"NoGraph", "node n0 1 1 1 1 \"\" solid box black white\nstop\n"},
		{"BadNumber", "graph 1 x 2\nstop\n"},
		{"ShortEdge", "graph 1 1 1\nedge n0 n1 3 0 0\nstop\n"},
		{"BadCount", "graph 1 1 1\nedge n0 n1 x\nstop\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePlain([]byte(tt.in)); err == nil {
				t.Error("parsePlain() error = nil, want error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	c := component(layout.Layered, nil)
	doc := buildDOT(c)
	pg, err := parsePlain([]byte(samplePlain))
	if err != nil {
		t.Fatal(err)
	}

	if err := apply(c, doc, pg, layout.UniformPadding(40)); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	// 3in x 2in plus 40 on every side.
	if c.Width != 296 || c.Height != 224 {
		t.Errorf("component = %vx%v, want 296x224", c.Width, c.Height)
	}

	// n0 center (1in, 1.5in) -> (72+40, 144-108+40) = (112, 76); node is 72x36.
	if p := c.Nodes[0].Position; p == nil || *p != (diagram.Point{X: 76, Y: 58}) {
		t.Errorf("A position = %+v, want (76, 58)", p)
	}
	// n1 center (1.5in, 0.25in) -> (148, 166); node is 144x36.
	if p := c.Nodes[1].Position; p == nil || *p != (diagram.Point{X: 76, Y: 148}) {
		t.Errorf("weird id position = %+v, want (76, 148)", p)
	}

	e0 := c.Edges[0]
	if len(e0.Sections) != 1 {
		t.Fatalf("e0 sections = %d, want 1", len(e0.Sections))
	}
	s := e0.Sections[0]
	if s.Start != (diagram.Point{X: 112, Y: 94}) || s.End != (diagram.Point{X: 148, Y: 148}) || len(s.Bends) != 2 {
		t.Errorf("e0 section = %+v", s)
	}
	// Label center (1.4in, 0.9in) -> (140.8, 119.2); label is 80x40.
	if p := e0.Label.Position; p == nil || p.X < 100.79 || p.X > 100.81 || p.Y < 99.19 || p.Y > 99.21 {
		t.Errorf("e0 label position = %+v, want ~(100.8, 99.2)", p)
	}

	e1 := c.Edges[1]
	if len(e1.Sections) != 1 || e1.Sections[0].Start != e1.Sections[0].End || len(e1.Sections[0].Bends) != 0 {
		t.Errorf("e1 sections = %+v", e1.Sections)
	}
}

func TestApplyMissingNode(t *testing.T) {
	c := component(layout.Layered, nil)
	doc := buildDOT(c)
	pg, _ := parsePlain([]byte("graph 1 1 1\nnode n0 0.5 0.5 1 1 \"\" solid box black white\nstop\n"))

	if err := apply(c, doc, pg, layout.Padding{}); err == nil {
		t.Error("apply() error = nil, want missing node error")
	}
}

func TestEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Layout(ctx, component(layout.Layered, nil)); err != context.Canceled {
		t.Errorf("Layout() error = %v, want context.Canceled", err)
	}
}

func TestEngineClosed(t *testing.T) {
	e := New(nil)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_, err := e.Layout(context.Background(), component(layout.Layered, nil))
	if !errors.Is(err, errors.ErrCodeEngineUnavailable) {
		t.Errorf("Layout() after Close error = %v, want %v", err, errors.ErrCodeEngineUnavailable)
	}
}

package graphviz

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/layout"
)

// pointsPerInch converts between layout units and Graphviz inches.
const pointsPerInch = 72.0

// minNodeInches keeps degenerate measurer output from being rejected by
// Graphviz's fixed-size node check.
const minNodeInches = 0.01

// RawPrefix marks options copied verbatim into the DOT graph attributes,
// e.g. "graphviz.splines" = "ortho".
const RawPrefix = "graphviz."

// engines maps algorithms to Graphviz layout programs.
var engines = map[layout.Algorithm]graphviz.Layout{
	layout.Layered: graphviz.DOT,
	layout.Stress:  graphviz.NEATO,
	layout.Force:   graphviz.FDP,
	layout.MRTree:  graphviz.DOT,
	layout.Radial:  graphviz.TWOPI,
	layout.Disco:   graphviz.OSAGE,
}

// programFor picks the Graphviz layout program for an option map.
func programFor(opts diagram.Options) graphviz.Layout {
	if p, ok := opts[RawPrefix+"layout"]; ok && p != "" {
		return graphviz.Layout(p)
	}
	if p, ok := engines[layout.Algorithm(opts[diagram.KeyAlgorithm])]; ok {
		return p
	}
	return graphviz.DOT
}

// document is a DOT rendering of one component with the name mapping needed
// to read the layout back.
type document struct {
	source  string
	program graphviz.Layout
	names   map[string]string // DOT name -> node ID
}

// buildDOT renders c as a DOT digraph. Node identifiers are replaced by
// n0, n1, ... so arbitrary diagram identifiers never need quoting; node
// sizes are fixed to the measured sizes.
func buildDOT(c *diagram.Component) document {
	program := programFor(c.Options)
	graphAttrs, edgeAttrs := translate(c.Options, program)

	doc := document{program: program, names: make(map[string]string, len(c.Nodes))}
	dotName := make(map[string]string, len(c.Nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	writeAttrs(&buf, "graph", graphAttrs)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	writeAttrs(&buf, "edge", edgeAttrs)
	buf.WriteString("\n")

	for i, n := range c.Nodes {
		name := "n" + strconv.Itoa(i)
		dotName[n.ID] = name
		doc.names[name] = n.ID
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", name, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, e := range c.Edges {
		src, ok1 := dotName[e.Source]
		dst, ok2 := dotName[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		if e.HasLabel() {
			fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", src, dst, quote(e.Label.Text))
		} else {
			fmt.Fprintf(&buf, "  %s -> %s;\n", src, dst)
		}
	}

	buf.WriteString("}\n")
	doc.source = buf.String()
	return doc
}

// translate maps layout options onto Graphviz graph and edge attributes.
// Keys without a Graphviz counterpart are ignored.
func translate(opts diagram.Options, program graphviz.Layout) (graph, edge map[string]string) {
	graph = map[string]string{}
	edge = map[string]string{}

	if program == graphviz.DOT {
		graph["rankdir"] = rankdir(opts[diagram.KeyDirection])
		if v, ok := points(opts, diagram.KeySpacingNodeNode); ok {
			graph["nodesep"] = inches(v)
		}
		if v, ok := points(opts, diagram.KeySpacingBetweenLayers); ok {
			graph["ranksep"] = inches(v)
		} else if v, ok := points(opts, diagram.KeySpacingEdgeNode); ok {
			graph["ranksep"] = inches(2 * v)
		}
	} else {
		graph["overlap"] = "false"
		if v, ok := points(opts, diagram.KeySpacingNodeNode); ok {
			graph["sep"] = quote("+" + num(v/2))
		}
	}

	switch program {
	case graphviz.NEATO:
		if v, ok := points(opts, diagram.KeyStressEdgeLength); ok {
			edge["len"] = inches(v)
		}
		graph["mode"] = "major"
	case graphviz.FDP:
		if v, ok := points(opts, diagram.KeyForceIterations); ok {
			graph["maxiter"] = num(v)
		}
		if v, ok := points(opts, diagram.KeyForceRepulsion); ok {
			graph["K"] = inches(v)
		}
	case graphviz.TWOPI:
		if v, ok := points(opts, diagram.KeySpacingNodeNode); ok {
			graph["ranksep"] = inches(v)
		}
		if opts[diagram.KeyRadialCompaction] == "true" {
			graph["overlap"] = "compress"
		}
	case graphviz.OSAGE:
		delete(graph, "overlap")
		if v, ok := points(opts, diagram.KeyDiscoComponentSpacing); ok {
			graph["sep"] = quote("+" + num(v/2))
		}
	}

	for k, v := range opts {
		if attr, ok := strings.CutPrefix(k, RawPrefix); ok && attr != "layout" && attr != "" {
			graph[attr] = quote(v)
		}
	}
	return graph, edge
}

func rankdir(direction string) string {
	switch strings.ToUpper(direction) {
	case "RIGHT":
		return "LR"
	case "LEFT":
		return "RL"
	case "UP":
		return "BT"
	default:
		return "TB"
	}
}

func writeAttrs(buf *bytes.Buffer, kind string, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		parts = append(parts, k+"="+attrs[k])
	}
	fmt.Fprintf(buf, "  %s [%s];\n", kind, strings.Join(parts, ", "))
}

// points reads a numeric option in layout units.
func points(opts diagram.Options, key string) (float64, bool) {
	v, ok := opts[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func inches(pt float64) string {
	return num(max(pt/pointsPerInch, minNodeInches))
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// quote produces a DOT double-quoted string.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")
	return `"` + r.Replace(s) + `"`
}

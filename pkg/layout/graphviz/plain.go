package graphviz

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Graphviz "plain" output: one statement per line, coordinates in inches
// with the origin at the bottom-left.
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop

type plainGraph struct {
	width, height float64
	nodes         map[string]plainNode
	edges         []plainEdge
}

type plainNode struct {
	x, y float64 // center
}

type plainEdge struct {
	tail, head string
	points     []plainPoint
	label      *plainPoint
}

type plainPoint struct{ x, y float64 }

func parsePlain(data []byte) (*plainGraph, error) {
	g := &plainGraph{nodes: make(map[string]plainNode)}
	sawGraph := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		tok, err := tokenize(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
		}
		if len(tok) == 0 {
			continue
		}

		switch tok[0] {
		case "graph":
			f, err := floats(tok, 2, 3)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			g.width, g.height = f[0], f[1]
			sawGraph = true
		case "node":
			if len(tok) < 6 {
				return nil, fmt.Errorf("plain line %d: short node statement", lineNo)
			}
			f, err := floats(tok, 2, 3)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			g.nodes[tok[1]] = plainNode{x: f[0], y: f[1]}
		case "edge":
			e, err := parseEdge(tok)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			g.edges = append(g.edges, e)
		case "stop":
			if !sawGraph {
				return nil, fmt.Errorf("plain output has no graph statement")
			}
			return g, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawGraph {
		return nil, fmt.Errorf("plain output has no graph statement")
	}
	return g, nil
}

func parseEdge(tok []string) (plainEdge, error) {
	if len(tok) < 4 {
		return plainEdge{}, fmt.Errorf("short edge statement")
	}
	e := plainEdge{tail: tok[1], head: tok[2]}
	n, err := strconv.Atoi(tok[3])
	if err != nil || n < 0 {
		return plainEdge{}, fmt.Errorf("invalid edge point count %q", tok[3])
	}

	coords := 4 + 2*n
	if len(tok) < coords {
		return plainEdge{}, fmt.Errorf("edge has %d coordinates, want %d", len(tok)-4, 2*n)
	}
	idx := make([]int, 2*n)
	for i := range idx {
		idx[i] = 4 + i
	}
	f, err := floats(tok, idx...)
	if err != nil {
		return plainEdge{}, err
	}
	e.points = make([]plainPoint, n)
	for i := range n {
		e.points[i] = plainPoint{f[2*i], f[2*i+1]}
	}

	// Trailing fields are "style color" or "label xl yl style color".
	if len(tok)-coords >= 5 {
		lf, err := floats(tok, coords+1, coords+2)
		if err != nil {
			return plainEdge{}, err
		}
		e.label = &plainPoint{lf[0], lf[1]}
	}
	return e, nil
}

func floats(tok []string, idx ...int) ([]float64, error) {
	out := make([]float64, len(idx))
	for i, j := range idx {
		if j >= len(tok) {
			return nil, fmt.Errorf("missing field %d", j)
		}
		f, err := strconv.ParseFloat(tok[j], 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", j, err)
		}
		out[i] = f
	}
	return out, nil
}

// tokenize splits a plain statement on spaces, honoring double-quoted
// strings with backslash escapes. A quoted empty string yields an empty
// token.
func tokenize(line string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuote, quoted, escaped := false, false, false

	flush := func() {
		if cur.Len() > 0 || quoted {
			out = append(out, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for _, r := range line {
		switch {
		case escaped:
			if r == 'n' {
				r = '\n'
			}
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string")
	}
	flush()
	return out, nil
}

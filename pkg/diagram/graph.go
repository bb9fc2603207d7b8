package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph decodes and validates a graph from JSON bytes.
func UnmarshalGraph(data []byte) (*Graph, error) {
	return readGraphFrom(bytes.NewReader(data))
}

// WriteGraphFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
// Returns an error if the graph violates the model's referential invariants.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the referential invariants of a graph:
//   - node identifiers are unique within each container,
//   - every edge references nodes of its own container,
//   - no node identifier appears in more than one component.
func Validate(g *Graph) error {
	seen := make(map[string]string)
	if err := validateContainer(g.ID, g.Nodes, g.Edges, seen); err != nil {
		return err
	}
	for _, c := range g.Components {
		if err := validateContainer(c.ID, c.Nodes, c.Edges, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateContainer(owner string, nodes []*Node, edges []*Edge, seen map[string]string) error {
	local := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("%s: node with empty id", owner)
		}
		if prev, dup := seen[n.ID]; dup {
			return fmt.Errorf("%s: duplicate node %q (already in %s)", owner, n.ID, prev)
		}
		seen[n.ID] = owner
		local[n.ID] = true
	}
	for _, e := range edges {
		if !local[e.Source] {
			return fmt.Errorf("%s: edge %s references unknown source %q", owner, e.ID, e.Source)
		}
		if !local[e.Target] {
			return fmt.Errorf("%s: edge %s references unknown target %q", owner, e.ID, e.Target)
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := Validate(&g); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &g, nil
}

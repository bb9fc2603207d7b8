// Package graphviz implements [layout.Engine] on top of an in-process
// Graphviz runtime.
//
// Each component is rendered to DOT with fixed-size box nodes, laid out with
// the Graphviz program matching the selected algorithm, and read back from
// Graphviz's "plain" output:
//
//	layered, mrtree -> dot
//	stress          -> neato
//	force           -> fdp
//	radial          -> twopi
//	disco           -> osage
//
// Tuning options are translated to the closest Graphviz attributes; options
// prefixed with "graphviz." are passed through as raw graph attributes, and
// "graphviz.layout" selects the program directly.
//
// The Graphviz runtime is created on first use and shared. It is not
// reentrant, so calls are serialized; the adapter's concurrent dispatch
// still overlaps DOT generation and result decoding.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
)

// formatPlain is Graphviz's line-oriented geometry output.
const formatPlain graphviz.Format = "plain"

// Engine is a Graphviz-backed layout engine. The zero value is ready to use.
type Engine struct {
	Logger *log.Logger

	once    sync.Once
	initErr error

	mu     sync.Mutex
	gv     *graphviz.Graphviz
	closed bool
}

// New returns an engine that logs at DEBUG to logger. A nil logger discards.
func New(logger *log.Logger) *Engine {
	return &Engine{Logger: logger}
}

var _ layout.Engine = (*Engine)(nil)

// ensure creates the Graphviz runtime exactly once.
func (e *Engine) ensure(ctx context.Context) error {
	e.once.Do(func() {
		gv, err := graphviz.New(ctx)
		if err != nil {
			e.initErr = errors.Wrap(errors.ErrCodeEngineUnavailable, err, "init graphviz")
			return
		}
		e.gv = gv
	})
	return e.initErr
}

// Layout implements [layout.Engine].
func (e *Engine) Layout(ctx context.Context, c *diagram.Component) (*diagram.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.isClosed() {
		return nil, errors.New(errors.ErrCodeEngineUnavailable, "graphviz engine closed")
	}
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}

	doc := buildDOT(c)
	e.logger().Debug("graphviz layout",
		"component", c.ID,
		"program", doc.program,
		"nodes", len(c.Nodes),
		"edges", len(c.Edges))

	out, err := e.render(ctx, doc)
	if err != nil {
		return nil, err
	}

	pg, err := parsePlain(out)
	if err != nil {
		return nil, fmt.Errorf("read graphviz output: %w", err)
	}
	if err := apply(c, doc, pg, layout.PaddingOf(c.Options)); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) render(ctx context.Context, doc document) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.New(errors.ErrCodeEngineUnavailable, "graphviz engine closed")
	}

	g, err := graphviz.ParseBytes([]byte(doc.source))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	e.gv.SetLayout(doc.program)

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, formatPlain, &buf); err != nil {
		return nil, fmt.Errorf("graphviz %s: %w", doc.program, err)
	}
	return buf.Bytes(), nil
}

// Close releases the Graphviz runtime. Later calls to Layout fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.gv != nil {
		return e.gv.Close()
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return e.Logger
}

// =============================================================================
// Geometry
// =============================================================================

// apply copies plain-output geometry onto c. Graphviz coordinates are
// converted to layout units with a top-left origin and shifted by the
// padding; node positions become top-left corners.
func apply(c *diagram.Component, doc document, pg *plainGraph, pad layout.Padding) error {
	heightPt := pg.height * pointsPerInch
	toPoint := func(x, y float64) diagram.Point {
		return diagram.Point{
			X: x*pointsPerInch + pad.Left,
			Y: heightPt - y*pointsPerInch + pad.Top,
		}
	}

	byID := make(map[string]plainNode, len(pg.nodes))
	for name, n := range pg.nodes {
		if id, ok := doc.names[name]; ok {
			byID[id] = n
		}
	}
	for _, n := range c.Nodes {
		pn, ok := byID[n.ID]
		if !ok {
			return fmt.Errorf("graphviz output lacks node %q", n.ID)
		}
		center := toPoint(pn.x, pn.y)
		n.Position = &diagram.Point{X: center.X - n.Width/2, Y: center.Y - n.Height/2}
	}

	// Parallel edges are reported in declaration order.
	queues := make(map[[2]string][]plainEdge)
	for _, pe := range pg.edges {
		key := [2]string{doc.names[pe.tail], doc.names[pe.head]}
		queues[key] = append(queues[key], pe)
	}
	for _, e := range c.Edges {
		key := [2]string{e.Source, e.Target}
		q := queues[key]
		if len(q) == 0 {
			continue
		}
		pe := q[0]
		queues[key] = q[1:]

		if len(pe.points) > 0 {
			s := diagram.Section{
				Start: toPoint(pe.points[0].x, pe.points[0].y),
				End:   toPoint(pe.points[len(pe.points)-1].x, pe.points[len(pe.points)-1].y),
			}
			for i := 1; i < len(pe.points)-1; i++ {
				s.Bends = append(s.Bends, toPoint(pe.points[i].x, pe.points[i].y))
			}
			e.Sections = []diagram.Section{s}
		}
		if e.Label != nil && pe.label != nil {
			center := toPoint(pe.label.x, pe.label.y)
			e.Label.Position = &diagram.Point{X: center.X - e.Label.Width/2, Y: center.Y - e.Label.Height/2}
		}
	}

	c.Width = pg.width*pointsPerInch + pad.Left + pad.Right
	c.Height = heightPt + pad.Top + pad.Bottom
	return nil
}

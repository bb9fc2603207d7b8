package layout

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
)

// Failure records a component whose engine call failed. The component is
// still present in the result, in its pre-layout shape.
type Failure struct {
	Component string `json:"component"`
	Message   string `json:"error"`
	Err       error  `json:"-"`
}

// Result is the outcome of [Adapter.Layout].
type Result struct {
	// Graph is a laid-out copy of the input.
	Graph *diagram.Graph

	// Failures lists components left unlaid, in component order.
	Failures []Failure
}

// Degraded reports whether any component failed.
func (r *Result) Degraded() bool { return len(r.Failures) > 0 }

// ComponentEvent describes one finished engine call.
type ComponentEvent struct {
	Component string
	Algorithm Algorithm
	Nodes     int
	Duration  time.Duration
	Err       error
}

// Adapter runs an Engine over every component of a decomposed graph.
type Adapter struct {
	// Engine computes per-component geometry. Required.
	Engine Engine

	// Logger receives per-component failures at WARN. Nil discards.
	Logger *log.Logger

	// MaxParallel bounds concurrent engine calls. Zero or negative means
	// one goroutine per component.
	MaxParallel int

	// OnComponent, if set, is called after every engine call, including the
	// single call made for a flat graph. It may be called concurrently.
	OnComponent func(ComponentEvent)
}

// NewAdapter returns an adapter for engine with unbounded parallelism.
func NewAdapter(engine Engine, logger *log.Logger) *Adapter {
	return &Adapter{Engine: engine, Logger: logger}
}

// Layout lays out g with algorithm alg. Options passed to the engine are
// [Options](alg, overrides). The input graph is not modified.
//
// Decomposed graphs are dispatched per component; a failing component is
// recorded in Result.Failures and never turns into an error. A flat graph
// is laid out as one unit and an engine failure is returned with code
// LAYOUT_FAILED. A graph with no nodes yields a zero-sized canvas without
// calling the engine.
//
// The context is passed to every engine call. If it is cancelled, Layout
// waits for in-flight calls and returns the context's error.
func (a *Adapter) Layout(ctx context.Context, g *diagram.Graph, alg Algorithm, overrides diagram.Options) (*Result, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph is nil")
	}
	if !alg.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidAlgorithm, "unknown algorithm %q", alg)
	}
	if a.Engine == nil {
		return nil, errors.New(errors.ErrCodeEngineUnavailable, "no layout engine configured")
	}

	opts := Options(alg, overrides)

	switch {
	case g.IsHierarchical():
		return a.layoutComponents(ctx, g, alg, opts)
	case len(g.Nodes) > 0:
		return a.layoutFlat(ctx, g, alg, opts)
	default:
		out := g.Clone()
		out.Width, out.Height = 0, 0
		return &Result{Graph: out}, nil
	}
}

func (a *Adapter) layoutComponents(ctx context.Context, g *diagram.Graph, alg Algorithm, opts diagram.Options) (*Result, error) {
	out := g.Clone()
	failures := make([]*Failure, len(out.Components))

	var eg errgroup.Group
	if a.MaxParallel > 0 {
		eg.SetLimit(a.MaxParallel)
	}

	for i, c := range out.Components {
		c.Options = opts.Clone()
		eg.Go(func() error {
			laid, err := a.call(ctx, c, alg)
			if err != nil {
				a.logger().Warn("component layout failed",
					"component", c.ID,
					"algorithm", alg,
					"err", err)
				failures[i] = &Failure{Component: c.ID, Message: err.Error(), Err: err}
				return nil
			}
			out.Components[i] = laid
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Graph: out}
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}
	return res, nil
}

func (a *Adapter) layoutFlat(ctx context.Context, g *diagram.Graph, alg Algorithm, opts diagram.Options) (*Result, error) {
	out := g.Clone()
	unit := &diagram.Component{
		ID:      out.ID,
		Options: opts,
		Nodes:   out.Nodes,
		Edges:   out.Edges,
	}

	laid, err := a.call(ctx, unit, alg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout %s", out.ID)
	}

	out.Options = opts
	out.Nodes = laid.Nodes
	out.Edges = laid.Edges
	out.Width = laid.Width
	out.Height = laid.Height
	return &Result{Graph: out}, nil
}

// call hands the engine a private copy of c and checks the result shape.
func (a *Adapter) call(ctx context.Context, c *diagram.Component, alg Algorithm) (*diagram.Component, error) {
	start := time.Now()
	laid, err := a.Engine.Layout(ctx, c.Clone())
	if err == nil {
		laid, err = conform(c, laid)
	}
	if a.OnComponent != nil {
		a.OnComponent(ComponentEvent{
			Component: c.ID,
			Algorithm: alg,
			Nodes:     len(c.Nodes),
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return laid, err
}

// conform verifies that the engine returned every node and edge of the input
// and restores identity fields engines are not allowed to change.
func conform(in, laid *diagram.Component) (*diagram.Component, error) {
	if laid == nil {
		return nil, errors.New(errors.ErrCodeLayoutFailed, "engine returned no result for %s", in.ID)
	}
	if len(laid.Nodes) != len(in.Nodes) || len(laid.Edges) != len(in.Edges) {
		return nil, errors.New(errors.ErrCodeLayoutFailed,
			"engine returned %d nodes, %d edges for %s, want %d, %d",
			len(laid.Nodes), len(laid.Edges), in.ID, len(in.Nodes), len(in.Edges))
	}
	laid.ID = in.ID
	if laid.Options == nil {
		laid.Options = in.Options.Clone()
	}
	return laid, nil
}

func (a *Adapter) logger() *log.Logger {
	if a.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return a.Logger
}

package layout

import (
	"context"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

// Engine computes geometry for one connected component.
//
// The input carries node sizes, edges, and the option map in c.Options.
// Implementations return a component with the same identifiers annotated
// with a top-left Position on every node, Sections on every edge, label
// positions where labels exist, and the component's overall Width/Height
// (padding included). Coordinates are relative to the component.
//
// Implementations must pass recognized option keys through and ignore the
// ones they do not understand.
type Engine interface {
	Layout(ctx context.Context, c *diagram.Component) (*diagram.Component, error)
}

// EngineFunc adapts an ordinary function to the Engine interface.
type EngineFunc func(ctx context.Context, c *diagram.Component) (*diagram.Component, error)

// Layout calls f(ctx, c).
func (f EngineFunc) Layout(ctx context.Context, c *diagram.Component) (*diagram.Component, error) {
	return f(ctx, c)
}

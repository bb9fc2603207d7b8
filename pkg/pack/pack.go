// Package pack arranges independently laid-out components on one canvas.
//
// The packer is a deterministic shelf heuristic. A target row width is
// derived from the total component area (WidthFactor × √Σarea, so the
// canvas tends toward a slightly wide square). Components are placed left
// to right in their existing order; a component that would cross the target
// width starts a new row below the tallest component of the current row.
// The first component of a row is always placed, however wide it is.
//
// Components in one row never overlap horizontally because the cursor only
// advances; rows never overlap vertically because each row starts below the
// previous row's tallest member plus the gap.
package pack

import (
	"fmt"
	"math"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

const (
	// DefaultGap is the horizontal and vertical spacing between components.
	DefaultGap = 50.0

	// DefaultWidthFactor scales √Σarea into the target row width.
	DefaultWidthFactor = 1.5
)

// Options configures packing.
type Options struct {
	// Gap separates neighbors in a row and consecutive rows.
	Gap float64 `json:"gap" toml:"gap"`

	// WidthFactor scales √Σarea into the target row width.
	WidthFactor float64 `json:"width_factor" toml:"width_factor"`

	// TargetWidth, when positive, replaces the area-derived row width.
	TargetWidth float64 `json:"target_width,omitempty" toml:"target_width"`
}

// DefaultOptions returns the standard packing configuration.
func DefaultOptions() Options {
	return Options{Gap: DefaultGap, WidthFactor: DefaultWidthFactor}
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Gap == 0 {
		o.Gap = DefaultGap
	}
	if o.WidthFactor == 0 {
		o.WidthFactor = DefaultWidthFactor
	}
}

// Validate rejects negative or non-finite settings.
func (o Options) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"gap", o.Gap},
		{"width_factor", o.WidthFactor},
		{"target_width", o.TargetWidth},
	}
	for _, f := range fields {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("invalid pack %s: %v", f.name, f.v)
		}
	}
	return nil
}

// Bounds is the size of a packed canvas.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RowWidth returns the row width used for components: o.TargetWidth if
// set, else WidthFactor × √Σ(width × height).
func (o Options) RowWidth(components []*diagram.Component) float64 {
	if o.TargetWidth > 0 {
		return o.TargetWidth
	}
	total := 0.0
	for _, c := range components {
		total += c.Area()
	}
	return o.WidthFactor * math.Sqrt(total)
}

// Pack assigns each component a Position and returns the canvas bounds:
// the maxima of x+width and y+height over all components. An empty list
// yields zero bounds.
func Pack(components []*diagram.Component, opts Options) Bounds {
	target := opts.RowWidth(components)

	var (
		x, y, rowHeight float64
		bounds          Bounds
	)
	for _, c := range components {
		if x > 0 && x+c.Width > target {
			x = 0
			y += rowHeight + opts.Gap
			rowHeight = 0
		}

		c.Position = &diagram.Point{X: x, Y: y}
		x += c.Width + opts.Gap
		rowHeight = max(rowHeight, c.Height)

		bounds.Width = max(bounds.Width, c.Position.X+c.Width)
		bounds.Height = max(bounds.Height, c.Position.Y+c.Height)
	}
	return bounds
}

// Graph packs g's components in place and records the canvas size on g.
// Flat graphs are left untouched.
func Graph(g *diagram.Graph, opts Options) Bounds {
	if len(g.Components) == 0 {
		return Bounds{Width: g.Width, Height: g.Height}
	}
	b := Pack(g.Components, opts)
	g.Width, g.Height = b.Width, b.Height
	return b
}

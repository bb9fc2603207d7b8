// Package measure converts label text into node and edge-label sizes.
//
// Two measurers are provided:
//
//   - [Heuristic]: the default, width = max(60, 8·len + 20), height = 40.
//   - [Font]: real glyph metrics from the embedded Go Regular font.
//
// Any function with the signature func(string) diagram.Size can be used via
// [Func]. Measurers are not validated: a measurer that returns non-positive
// dimensions is passed through unchanged.
package measure

import (
	"fmt"
	"unicode/utf8"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

// Measurer maps a label to its rendered size.
type Measurer interface {
	Measure(text string) diagram.Size
}

// Func adapts an ordinary function to the Measurer interface.
type Func func(text string) diagram.Size

// Measure calls f(text).
func (f Func) Measure(text string) diagram.Size { return f(text) }

// Names of the built-in measurers, as accepted by [ByName].
const (
	NameHeuristic = "heuristic"
	NameFont      = "font"
)

// Names lists the built-in measurers.
var Names = []string{NameHeuristic, NameFont}

const (
	heuristicMinWidth  = 60.0
	heuristicCharWidth = 8.0
	heuristicPadding   = 20.0
	heuristicHeight    = 40.0
)

// Heuristic is the default measurer. Length is counted in runes.
var Heuristic Measurer = Func(func(text string) diagram.Size {
	w := heuristicCharWidth*float64(utf8.RuneCountInString(text)) + heuristicPadding
	return diagram.Size{Width: max(heuristicMinWidth, w), Height: heuristicHeight}
})

// OrDefault returns m, or [Heuristic] when m is nil.
func OrDefault(m Measurer) Measurer {
	if m == nil {
		return Heuristic
	}
	return m
}

// ByName returns a built-in measurer. The font measurer is created lazily
// and shared by all callers.
func ByName(name string) (Measurer, error) {
	switch name {
	case "", NameHeuristic:
		return Heuristic, nil
	case NameFont:
		return DefaultFont()
	default:
		return nil, fmt.Errorf("unknown measurer %q (must be one of: heuristic, font)", name)
	}
}

package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

// DefaultPadding is the margin, in layout units, applied on every side of a
// laid-out component.
const DefaultPadding = 40.0

var commonOptions = diagram.Options{
	diagram.KeyPadding: defaultPadding().String(),
}

var algorithmOptions = map[Algorithm]diagram.Options{
	Layered: {
		diagram.KeyDirection:            "DOWN",
		diagram.KeySpacingNodeNode:      "60",
		diagram.KeySpacingBetweenLayers: "60",
		diagram.KeySpacingEdgeNode:      "20",
	},
	Stress: {
		diagram.KeyStressEdgeLength: "300.0",
	},
	Force: {
		diagram.KeyForceIterations: "500",
		diagram.KeyForceRepulsion:  "100",
		diagram.KeySpacingNodeNode: "80",
	},
	MRTree: {
		diagram.KeyDirection:           "DOWN",
		diagram.KeySpacingNodeNode:     "60",
		diagram.KeySpacingEdgeNode:     "30",
		diagram.KeyEdgeLabelsInline:    "true",
		diagram.KeyEdgeLabelsPlacement: "CENTER",
	},
	Radial: {
		diagram.KeySpacingNodeNode:     "60",
		diagram.KeyRadialCompaction:    "true",
		diagram.KeyEdgeLabelsInline:    "true",
		diagram.KeyEdgeLabelsPlacement: "CENTER",
	},
	Disco: {
		diagram.KeyDiscoComponentSpacing: "60",
		diagram.KeySpacingNodeNode:       "60",
	},
}

// CommonOptions returns the options shared by every algorithm.
func CommonOptions() diagram.Options { return commonOptions.Clone() }

// AlgorithmOptions returns the tuning parameters of a. Unknown algorithms
// have no tuning.
func AlgorithmOptions(a Algorithm) diagram.Options {
	return algorithmOptions[a].Clone()
}

// Options assembles the complete option map for one engine call: common
// options, the algorithm identifier, its tuning, then overrides.
func Options(a Algorithm, overrides diagram.Options) diagram.Options {
	return CommonOptions().Merge(
		diagram.Options{diagram.KeyAlgorithm: string(a)},
		algorithmOptions[a],
		overrides,
	)
}

// =============================================================================
// Padding
// =============================================================================

// Padding is a four-sided margin.
type Padding struct {
	Top, Left, Bottom, Right float64
}

// UniformPadding returns a padding of v on every side.
func UniformPadding(v float64) Padding {
	return Padding{v, v, v, v}
}

func defaultPadding() Padding {
	return UniformPadding(DefaultPadding)
}

// String formats p as "[top=T,left=L,bottom=B,right=R]".
func (p Padding) String() string {
	return fmt.Sprintf("[top=%s,left=%s,bottom=%s,right=%s]",
		num(p.Top), num(p.Left), num(p.Bottom), num(p.Right))
}

// ParsePadding reads a padding value. Accepted forms are a single number
// applied to all sides, or "[top=T,left=L,bottom=B,right=R]" with any subset
// of sides; missing sides are zero.
func ParsePadding(s string) (Padding, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return UniformPadding(v), nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Padding{}, fmt.Errorf("invalid padding %q", s)
	}

	var p Padding
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return p, nil
	}
	for _, part := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return Padding{}, fmt.Errorf("invalid padding entry %q", part)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Padding{}, fmt.Errorf("invalid padding entry %q: %w", part, err)
		}
		switch strings.TrimSpace(k) {
		case "top":
			p.Top = f
		case "left":
			p.Left = f
		case "bottom":
			p.Bottom = f
		case "right":
			p.Right = f
		default:
			return Padding{}, fmt.Errorf("invalid padding side %q", k)
		}
	}
	return p, nil
}

// PaddingOf returns the padding in opts, or the default when the key is
// absent or malformed.
func PaddingOf(opts diagram.Options) Padding {
	if v, ok := opts[diagram.KeyPadding]; ok {
		if p, err := ParsePadding(v); err == nil {
			return p
		}
	}
	return defaultPadding()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

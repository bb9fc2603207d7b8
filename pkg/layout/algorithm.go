package layout

import (
	"strings"

	"github.com/matzehuels/flowpack/pkg/errors"
)

// Algorithm names a layout strategy.
type Algorithm string

// Supported algorithms.
const (
	Layered Algorithm = "layered"
	Stress  Algorithm = "stress"
	Force   Algorithm = "force"
	MRTree  Algorithm = "mrtree"
	Radial  Algorithm = "radial"
	Disco   Algorithm = "disco"
)

// DefaultAlgorithm is used when neither the caller nor the diagram selects one.
const DefaultAlgorithm = Layered

// Algorithms lists every supported algorithm in display order.
var Algorithms = []Algorithm{Layered, Stress, Force, MRTree, Radial, Disco}

var descriptions = map[Algorithm]string{
	Layered: "hierarchical layers, edges flow downward",
	Stress:  "stress majorization toward a desired edge length",
	Force:   "force-directed spring embedding",
	MRTree:  "tidy tree, root at the top",
	Radial:  "concentric rings around a root",
	Disco:   "packs disconnected pieces compactly",
}

// ParseAlgorithm validates an algorithm token. The empty string selects
// [DefaultAlgorithm]. Unknown tokens yield an INVALID_ALGORITHM error.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(s)
	if !a.Valid() {
		return "", errors.New(errors.ErrCodeInvalidAlgorithm,
			"unknown algorithm %q (must be one of: %s)", s, strings.Join(AlgorithmNames(), ", "))
	}
	return a, nil
}

// AlgorithmNames returns the names of [Algorithms].
func AlgorithmNames() []string {
	names := make([]string, len(Algorithms))
	for i, a := range Algorithms {
		names[i] = string(a)
	}
	return names
}

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := descriptions[a]
	return ok
}

// Description returns a short human-readable summary.
func (a Algorithm) Description() string { return descriptions[a] }

func (a Algorithm) String() string { return string(a) }

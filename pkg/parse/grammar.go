package parse

import (
	"regexp"
	"strings"
)

// =============================================================================
// Arrow Delimiters
// =============================================================================

// arrowKind tags the recognized edge delimiter forms. The order of the
// constants is the tie-break priority when two forms start at the same offset.
type arrowKind int

const (
	arrowPipe   arrowKind = iota // -->|label| or ->|label|
	arrowSpaced                  // -- label --> or -- label ->
	arrowBare                    // --> or ->
)

func (k arrowKind) String() string {
	switch k {
	case arrowPipe:
		return "pipe"
	case arrowSpaced:
		return "spaced"
	case arrowBare:
		return "bare"
	}
	return "unknown"
}

type arrowPattern struct {
	kind arrowKind
	re   *regexp.Regexp
}

// Each pattern swallows surrounding whitespace so the remaining fragments
// need no further trimming. Group 1, when present, is the edge label.
var arrowPatterns = []arrowPattern{
	{arrowPipe, regexp.MustCompile(`\s*-?->\|([^|]+)\|\s*`)},
	{arrowSpaced, regexp.MustCompile(`\s*--\s+([^>]+?)\s+--?>\s*`)},
	{arrowBare, regexp.MustCompile(`\s*-?->\s*`)},
}

// arrow is one delimiter occurrence in a line.
type arrow struct {
	kind       arrowKind
	start, end int
	label      string
}

// findArrow returns the leftmost delimiter in s. When several forms match at
// the same offset the higher-priority form wins.
func findArrow(s string) (arrow, bool) {
	best := arrow{start: -1}
	for _, p := range arrowPatterns {
		loc := p.re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		if best.start >= 0 && loc[0] >= best.start {
			continue
		}
		best = arrow{kind: p.kind, start: loc[0], end: loc[1]}
		if len(loc) >= 4 && loc[2] >= 0 {
			best.label = strings.TrimSpace(s[loc[2]:loc[3]])
		}
	}
	return best, best.start >= 0
}

// splitEdge splits a line at its first delimiter. The target fragment ends
// at the next delimiter, if any; anything after a second arrow is ignored.
func splitEdge(line string) (source, target string, a arrow, ok bool) {
	a, ok = findArrow(line)
	if !ok {
		return "", "", a, false
	}
	source = line[:a.start]
	target = line[a.end:]
	if next, more := findArrow(target); more {
		target = target[:next.start]
	}
	return source, target, a, true
}

// =============================================================================
// Node Fragments
// =============================================================================

// bracketPatterns match `id[label]`, `id(label)` and `id{label}`. The first
// bracket character decides which closing character is required; the label
// is taken verbatim, without nesting support.
var bracketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([^\s\[\(\{]+)\s*\[(.*)\]$`),
	regexp.MustCompile(`^([^\s\[\(\{]+)\s*\((.*)\)$`),
	regexp.MustCompile(`^([^\s\[\(\{]+)\s*\{(.*)\}$`),
}

var bareIdentifier = regexp.MustCompile(`^[^\s\[\(\{]+$`)

// fragment is a parsed node reference.
type fragment struct {
	id    string
	label string
}

// parseLabeled matches the bracketed node form only.
func parseLabeled(s string) (fragment, bool) {
	s = strings.TrimSpace(s)
	for _, re := range bracketPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return fragment{id: m[1], label: m[2]}, true
		}
	}
	return fragment{}, false
}

// parseFragment matches an identifier optionally followed by a bracketed label.
func parseFragment(s string) (fragment, bool) {
	s = strings.TrimSpace(s)
	if f, ok := parseLabeled(s); ok {
		return f, true
	}
	if bareIdentifier.MatchString(s) {
		return fragment{id: s}, true
	}
	return fragment{}, false
}

// =============================================================================
// Line Classification
// =============================================================================

// headerKeywords are diagram-type declarations that carry no graph content.
var headerKeywords = []string{"graph", "flowchart"}

const commentPrefix = "%%"

func isHeader(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, kw := range headerKeywords {
		if fields[0] == kw {
			return true
		}
	}
	return false
}

func isComment(line string) bool { return strings.HasPrefix(line, commentPrefix) }

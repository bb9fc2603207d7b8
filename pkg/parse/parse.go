// Package parse converts line-oriented diagram text into a flat
// [diagram.Graph] with measured node and edge-label sizes.
//
// The grammar is a lenient, arrow-based subset of flowchart text:
//
//	graph TD                  header, skipped
//	%% comment                skipped
//	A[Start] -->|go| B(Next)  edge with pipe label
//	B -- retry --> A          edge with spaced label
//	B --> C{Done}             unlabeled edge
//	D[Alone]                  standalone node
//
// Lines that match nothing are skipped silently. Callers that want to know
// about them can install a hook with [WithSkipHook]. Only the first arrow of
// a line is consumed; text after a second arrow is ignored.
//
// A leading YAML block fenced by "---" lines may select a layout algorithm
// and supply engine option overrides; see [diagram.Graph.Algorithm].
package parse

import (
	"strings"

	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/measure"
)

// Skip reasons reported to the skip hook.
const (
	ReasonUnmatched      = "no edge or node form"
	ReasonBadSource      = "malformed edge source"
	ReasonBadTarget      = "malformed edge target"
	ReasonBadFrontmatter = "invalid frontmatter"
)

// Skip describes a discarded line.
type Skip struct {
	Line   int    `json:"line"` // 1-based line number
	Text   string `json:"text"` // trimmed line content
	Reason string `json:"reason"`
}

// Option configures a Parser.
type Option func(*Parser)

// WithMeasurer sets the text measurer. A nil measurer selects [measure.Heuristic].
func WithMeasurer(m measure.Measurer) Option {
	return func(p *Parser) { p.measurer = measure.OrDefault(m) }
}

// WithSkipHook registers fn to be called for every discarded line.
func WithSkipHook(fn func(Skip)) Option {
	return func(p *Parser) { p.onSkip = fn }
}

// Parser turns diagram text into a flat graph. A Parser holds no state
// between calls and is safe for concurrent use if its measurer is.
type Parser struct {
	measurer measure.Measurer
	onSkip   func(Skip)
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{measurer: measure.Heuristic}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is shorthand for New(WithMeasurer(m)).Parse(text).
func Parse(text string, m measure.Measurer) *diagram.Graph {
	return New(WithMeasurer(m)).Parse(text)
}

// Parse builds a flat graph from text. Nodes appear in first-seen order and
// edges are numbered e0, e1, ... in line order. Positions are left unset.
func (p *Parser) Parse(text string) *diagram.Graph {
	b := newBuilder(p.measurer)
	lines := strings.Split(text, "\n")

	start := 0
	if block, fence, body, ok := splitFrontmatter(lines); ok {
		start = body
		if fm, err := decodeFrontmatter(block); err != nil {
			p.skip(fence+1, frontmatterFence, ReasonBadFrontmatter)
		} else {
			b.g.Algorithm = fm.algorithm()
			b.g.Overrides = fm.overrides()
		}
	}

	for i := start; i < len(lines); i++ {
		p.parseLine(b, i+1, strings.TrimSpace(lines[i]))
	}
	return b.g
}

func (p *Parser) parseLine(b *builder, lineNo int, line string) {
	if line == "" || isHeader(line) || isComment(line) {
		return
	}

	left, right, a, isEdge := splitEdge(line)
	if !isEdge {
		f, ok := parseLabeled(line)
		if !ok {
			p.skip(lineNo, line, ReasonUnmatched)
			return
		}
		b.node(f.id, f.label)
		return
	}

	src, ok := parseFragment(left)
	if !ok {
		p.skip(lineNo, line, ReasonBadSource)
		return
	}
	dst, ok := parseFragment(right)
	if !ok {
		p.skip(lineNo, line, ReasonBadTarget)
		return
	}

	b.node(src.id, src.label)
	b.node(dst.id, dst.label)
	b.edge(src.id, dst.id, a.label)
}

func (p *Parser) skip(line int, text, reason string) {
	if p.onSkip != nil {
		p.onSkip(Skip{Line: line, Text: text, Reason: reason})
	}
}

// =============================================================================
// Graph Builder
// =============================================================================

type builder struct {
	g       *diagram.Graph
	index   map[string]*diagram.Node
	measure measure.Measurer
}

func newBuilder(m measure.Measurer) *builder {
	return &builder{
		g:       diagram.New(),
		index:   make(map[string]*diagram.Node),
		measure: m,
	}
}

// node registers id on first sight, sized from its label (or its id when no
// label is given). A later explicit label replaces the label only while the
// label is still the id-derived default.
func (b *builder) node(id, label string) {
	if n, ok := b.index[id]; ok {
		if label != "" && n.HasDefaultLabel() {
			n.Label = label
			n.Resize(b.measure.Measure(label))
		}
		return
	}

	text := label
	if text == "" {
		text = id
	}
	n := &diagram.Node{ID: id, Label: text}
	n.Resize(b.measure.Measure(text))
	b.index[id] = n
	b.g.Nodes = append(b.g.Nodes, n)
}

func (b *builder) edge(source, target, label string) {
	e := &diagram.Edge{
		ID:     diagram.EdgeID(len(b.g.Edges)),
		Source: source,
		Target: target,
	}
	if label != "" {
		size := b.measure.Measure(label)
		e.Label = &diagram.Label{Text: label, Width: size.Width, Height: size.Height}
	}
	b.g.Edges = append(b.g.Edges, e)
}

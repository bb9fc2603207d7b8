// Package pipeline composes the flowpack stages into one call.
//
// This package implements the complete parse → decompose → layout → pack
// pipeline used by the CLI and the HTTP API. Centralizing it keeps defaults,
// caching and instrumentation identical across entry points.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: turn diagram text into a flat graph with measured sizes
//  2. Decompose: split the graph into connected components
//  3. Layout: run the layout engine once per component, concurrently
//  4. Pack: place the laid-out components on a single canvas
//
// A component whose engine call fails is kept in its pre-layout shape and
// reported in [Result.Failures]; the run itself still succeeds.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, source, pipeline.Options{
//	    Algorithm: "force",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range result.Graph.Components {
//	    fmt.Println(c.ID, c.Position)
//	}
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowpack/pkg/cache"
	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/measure"
	"github.com/matzehuels/flowpack/pkg/pack"
	"github.com/matzehuels/flowpack/pkg/parse"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMeasure is the built-in measurer used when none is selected.
	DefaultMeasure = measure.NameHeuristic

	// DefaultMaxParallel is the default bound on concurrent engine calls.
	// Zero leaves dispatch unbounded.
	DefaultMaxParallel = 0
)

// DefaultAlgorithm is the algorithm used when neither the caller nor the
// diagram's frontmatter selects one.
const DefaultAlgorithm = layout.DefaultAlgorithm

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Algorithm selects the layout strategy. Empty defers to the diagram's
	// frontmatter, then to FallbackAlgorithm. An explicit value always wins.
	Algorithm string `json:"algorithm,omitempty"`

	// FallbackAlgorithm is used when neither Algorithm nor the frontmatter
	// selects one. Empty means DefaultAlgorithm.
	FallbackAlgorithm string `json:"fallback_algorithm,omitempty"`

	// Overrides are engine options merged over the algorithm defaults and
	// over any frontmatter overrides.
	Overrides map[string]string `json:"options,omitempty"`

	// Measure names a built-in measurer: "heuristic" or "font".
	Measure string `json:"measure,omitempty"`

	// Pack configures component packing.
	Pack pack.Options `json:"pack"`

	// MaxParallel bounds concurrent engine calls; zero is unbounded.
	MaxParallel int `json:"max_parallel,omitempty"`

	// NoCache disables cache reads and writes for this run.
	NoCache bool `json:"no_cache,omitempty"`

	// Runtime options (not serialized)
	Measurer measure.Measurer `json:"-"` // replaces Measure; disables caching
	OnSkip   func(parse.Skip) `json:"-"`
	Logger   *log.Logger      `json:"-"`

	// OnProgress, if set, is called after each component layout with the
	// number finished so far and the total. It may be called concurrently.
	OnProgress func(done, total int) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Measure == "" {
		o.Measure = DefaultMeasure
	}
	o.Pack.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. Call after SetDefaults.
func (o *Options) Validate() error {
	for _, a := range []string{o.Algorithm, o.FallbackAlgorithm} {
		if _, err := layout.ParseAlgorithm(a); err != nil {
			return err
		}
	}
	if o.Measurer == nil && !slices.Contains(measure.Names, o.Measure) {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid measure %q (must be one of: heuristic, font)", o.Measure)
	}
	if err := errors.ValidateOptions(o.Overrides); err != nil {
		return err
	}
	if err := o.Pack.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pack options")
	}
	if o.MaxParallel < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_parallel must not be negative")
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Cacheable reports whether results of these options may be cached.
// A custom measurer has no stable name to key on.
func (o *Options) Cacheable() bool {
	return !o.NoCache && o.Measurer == nil
}

// LayoutKeyOpts returns cache key options for a packed layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:   o.Algorithm,
		Fallback:    o.FallbackAlgorithm,
		Overrides:   o.Overrides,
		Measure:     o.Measure,
		Gap:         o.Pack.Gap,
		WidthFactor: o.Pack.WidthFactor,
		TargetWidth: o.Pack.TargetWidth,
	}
}

// measurer resolves the measurer for the run.
func (o *Options) measurer() (measure.Measurer, error) {
	if o.Measurer != nil {
		return o.Measurer, nil
	}
	m, err := measure.ByName(o.Measure)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "measurer")
	}
	return m, nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string `json:"run_id"`

	// Graph is the positioned, packed graph.
	Graph *diagram.Graph `json:"graph"`

	// Algorithm is the algorithm that was actually used.
	Algorithm layout.Algorithm `json:"algorithm"`

	// Failures lists components the engine could not lay out.
	Failures []layout.Failure `json:"failures,omitempty"`

	// Skipped lists source lines the parser discarded.
	Skipped []parse.Skip `json:"skipped,omitempty"`

	// SourceHash is the SHA-256 of the source text.
	SourceHash string `json:"source_hash"`

	// CacheHit reports whether the result came from the cache.
	CacheHit bool `json:"cache_hit"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`
}

// Degraded reports whether any component was left unlaid.
func (r *Result) Degraded() bool { return len(r.Failures) > 0 }

// Stats contains pipeline execution statistics. Durations are zero for
// cached results.
type Stats struct {
	NodeCount      int           `json:"nodes"`
	EdgeCount      int           `json:"edges"`
	ComponentCount int           `json:"components"`
	SkippedLines   int           `json:"skipped_lines"`
	ParseTime      time.Duration `json:"parse_ns"`
	LayoutTime     time.Duration `json:"layout_ns"`
	PackTime       time.Duration `json:"pack_ns"`
}

// Total returns the summed stage durations.
func (s Stats) Total() time.Duration { return s.ParseTime + s.LayoutTime + s.PackTime }

// ParseResult is the output of [Runner.Parse].
type ParseResult struct {
	Graph      *diagram.Graph `json:"graph"`
	Skipped    []parse.Skip   `json:"skipped,omitempty"`
	SourceHash string         `json:"source_hash"`
	CacheHit   bool           `json:"cache_hit"`
}

// cachedLayout is the cache payload of a successful run.
type cachedLayout struct {
	Graph     *diagram.Graph   `json:"graph"`
	Algorithm layout.Algorithm `json:"algorithm"`
	Skipped   []parse.Skip     `json:"skipped,omitempty"`
	Stats     Stats            `json:"stats"`
}

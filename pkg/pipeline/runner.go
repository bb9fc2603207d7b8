package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowpack/pkg/cache"
	"github.com/matzehuels/flowpack/pkg/decompose"
	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/layout/graphviz"
	"github.com/matzehuels/flowpack/pkg/observability"
	"github.com/matzehuels/flowpack/pkg/pack"
	"github.com/matzehuels/flowpack/pkg/parse"
)

// Cache key types reported to cache hooks.
const (
	keyTypeParse  = "parse"
	keyTypeLayout = "layout"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner holds no per-run state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Engine computes per-component geometry. NewRunner installs a
	// Graphviz engine.
	Engine layout.Engine

	// TTL is the lifetime of cached layouts. Zero uses cache.TTLLayout.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The layout engine is Graphviz; replace Runner.Engine to use another.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Engine: graphviz.New(logger),
	}
}

// Execute runs the complete parse → decompose → layout → pack pipeline.
//
// Invalid options or source yield an INVALID_* error. A component that the
// engine cannot lay out does not fail the run; see [Result.Failures].
// Results with failures are never cached.
func (r *Runner) Execute(ctx context.Context, source string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := errors.ValidateSource(source); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      uuid.NewString(),
		SourceHash: cache.Hash([]byte(source)),
	}
	logger := opts.Logger.With("run", result.RunID[:8])

	cacheKey := r.Keyer.LayoutKey(result.SourceHash, opts.LayoutKeyOpts())
	if opts.Cacheable() {
		if cached, ok := r.loadLayout(ctx, cacheKey, logger); ok {
			result.Graph = cached.Graph
			result.Algorithm = cached.Algorithm
			result.Skipped = cached.Skipped
			result.Stats = cached.Stats
			result.CacheHit = true
			logger.Debug("layout cache hit", "key", cacheKey)
			return result, nil
		}
	}

	// Stage 1: Parse
	parseStart := time.Now()
	g, skipped, err := r.parse(ctx, source, &opts)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.Stats.SkippedLines = len(skipped)

	logger.Info("parsed diagram",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"skipped", len(skipped),
		"duration", result.Stats.ParseTime)

	alg := r.resolveAlgorithm(opts.Algorithm, g.Algorithm, opts.FallbackAlgorithm, logger)
	overrides := g.Overrides.Merge(opts.Overrides)
	result.Algorithm = alg

	// Stage 2: Decompose
	dg := decompose.Decompose(g)
	result.Stats.ComponentCount = len(dg.Components)

	// Stage 3: Layout
	layoutStart := time.Now()
	laid, err := r.layout(ctx, dg, alg, overrides, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Failures = laid.Failures

	logger.Info("computed layout",
		"algorithm", alg,
		"components", len(dg.Components),
		"failed", len(laid.Failures),
		"duration", result.Stats.LayoutTime)

	// Stage 4: Pack
	packStart := time.Now()
	bounds := pack.Graph(laid.Graph, opts.Pack)
	result.Stats.PackTime = time.Since(packStart)
	result.Graph = laid.Graph
	observability.Pipeline().OnPackComplete(ctx, len(laid.Graph.Components), bounds.Width, bounds.Height, result.Stats.PackTime)

	logger.Debug("packed components",
		"width", bounds.Width,
		"height", bounds.Height)

	if opts.Cacheable() && !result.Degraded() {
		counts := result.Stats
		counts.ParseTime, counts.LayoutTime, counts.PackTime = 0, 0, 0
		r.storeLayout(ctx, cacheKey, cachedLayout{
			Graph:     result.Graph,
			Algorithm: result.Algorithm,
			Skipped:   result.Skipped,
			Stats:     counts,
		}, logger)
	}

	return result, nil
}

// Parse runs only the parse stage and returns the flat, unpositioned graph.
func (r *Runner) Parse(ctx context.Context, source string, opts Options) (*ParseResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := errors.ValidateSource(source); err != nil {
		return nil, err
	}

	res := &ParseResult{SourceHash: cache.Hash([]byte(source))}
	key := r.Keyer.ParseKey(res.SourceHash, opts.Measure)

	if opts.Cacheable() {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			opts.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		if hit {
			var cached ParseResult
			if err := json.Unmarshal(data, &cached); err == nil && cached.Graph != nil {
				observability.Cache().OnCacheHit(ctx, keyTypeParse)
				cached.CacheHit = true
				return &cached, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeParse)
	}

	g, skipped, err := r.parse(ctx, source, &opts)
	if err != nil {
		return nil, err
	}
	res.Graph = g
	res.Skipped = skipped

	if opts.Cacheable() {
		if data, err := json.Marshal(res); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLParse); err != nil {
				opts.Logger.Warn("cache write failed", "key", key, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, keyTypeParse, len(data))
			}
		}
	}
	return res, nil
}

// Close releases resources held by the runner: the cache and, when it
// holds any, the layout engine.
func (r *Runner) Close() error {
	var err error
	if c, ok := r.Engine.(io.Closer); ok {
		err = c.Close()
	}
	if r.Cache != nil {
		if cerr := r.Cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// =============================================================================
// Stages
// =============================================================================

// parse measures and parses source, collecting skipped lines.
func (r *Runner) parse(ctx context.Context, source string, opts *Options) (*diagram.Graph, []parse.Skip, error) {
	m, err := opts.measurer()
	if err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, len(source))
	start := time.Now()

	var skipped []parse.Skip
	p := parse.New(
		parse.WithMeasurer(m),
		parse.WithSkipHook(func(s parse.Skip) {
			skipped = append(skipped, s)
			opts.Logger.Debug("skipped line", "line", s.Line, "reason", s.Reason, "text", s.Text)
			if opts.OnSkip != nil {
				opts.OnSkip(s)
			}
		}),
	)
	g := p.Parse(source)

	hooks.OnParseComplete(ctx, len(g.Nodes), len(g.Edges), time.Since(start), nil)
	return g, skipped, nil
}

// layout runs the adapter over the decomposed graph, reporting every
// engine call to the pipeline hooks.
func (r *Runner) layout(ctx context.Context, g *diagram.Graph, alg layout.Algorithm, overrides diagram.Options, opts Options, logger *log.Logger) (*layout.Result, error) {
	hooks := observability.Pipeline()

	adapter := layout.NewAdapter(r.Engine, logger)
	adapter.MaxParallel = opts.MaxParallel
	total := len(g.Components)
	var done atomic.Int32
	adapter.OnComponent = func(ev layout.ComponentEvent) {
		hooks.OnComponentLayout(ctx, string(ev.Algorithm), ev.Component, ev.Nodes, ev.Duration, ev.Err)
		if opts.OnProgress != nil && total > 0 {
			opts.OnProgress(int(done.Add(1)), total)
		}
	}

	hooks.OnLayoutStart(ctx, string(alg), len(g.Components))
	start := time.Now()
	res, err := adapter.Layout(ctx, g, alg, overrides)

	failures := 0
	if res != nil {
		failures = len(res.Failures)
	}
	hooks.OnLayoutComplete(ctx, string(alg), failures, time.Since(start), err)
	return res, err
}

// resolveAlgorithm picks the caller's algorithm, then the diagram's, then
// the fallback, then the default. Options validation has already rejected
// bad explicit and fallback tokens; a bad frontmatter token only warns.
func (r *Runner) resolveAlgorithm(explicit, fromSource, fallback string, logger *log.Logger) layout.Algorithm {
	if explicit != "" {
		alg, _ := layout.ParseAlgorithm(explicit)
		return alg
	}
	def, _ := layout.ParseAlgorithm(fallback)
	if fromSource == "" {
		return def
	}
	alg, err := layout.ParseAlgorithm(fromSource)
	if err != nil {
		logger.Warn("ignoring diagram algorithm", "algorithm", fromSource, "default", def)
		return def
	}
	return alg
}

// =============================================================================
// Cache Helpers
// =============================================================================

// loadLayout returns a cached layout. Backend errors and undecodable
// entries are treated as misses.
func (r *Runner) loadLayout(ctx context.Context, key string, logger *log.Logger) (cachedLayout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "key", key, "err", err)
	}
	if hit {
		var cached cachedLayout
		if err := json.Unmarshal(data, &cached); err == nil && cached.Graph != nil {
			observability.Cache().OnCacheHit(ctx, keyTypeLayout)
			return cached, true
		}
		logger.Debug("discarding undecodable cache entry", "key", key)
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	return cachedLayout{}, false
}

func (r *Runner) storeLayout(ctx context.Context, key string, entry cachedLayout, logger *log.Logger) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Warn("encode layout for cache", "err", err)
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.TTLLayout
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

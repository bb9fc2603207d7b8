// Package prom implements the observability hooks on top of Prometheus.
//
// A [Registry] owns its own prometheus.Registry so tests and embedded
// servers never collide with the global default registerer.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowpack/pkg/observability"
)

const namespace = "flowpack"

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Registry holds all flowpack metrics. It implements
// [observability.PipelineHooks], [observability.CacheHooks] and
// [observability.ServerHooks].
type Registry struct {
	ParseTotal        *prometheus.CounterVec
	ParseDuration     prometheus.Histogram
	ParsedNodes       prometheus.Histogram
	LayoutTotal       *prometheus.CounterVec
	LayoutDuration    *prometheus.HistogramVec
	ComponentsTotal   *prometheus.CounterVec
	ComponentDuration *prometheus.HistogramVec
	ComponentFailures *prometheus.CounterVec
	LayoutsInFlight   prometheus.Gauge
	CanvasArea        prometheus.Histogram
	CacheTotal        *prometheus.CounterVec
	CacheBytes        *prometheus.CounterVec
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	_ observability.PipelineHooks = (*Registry)(nil)
	_ observability.CacheHooks    = (*Registry)(nil)
	_ observability.ServerHooks   = (*Registry)(nil)
)

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initPipelineMetrics()
	r.initCacheMetrics()
	r.initServerMetrics()
	return r
}

// Prometheus returns the underlying prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the global pipeline, cache and server hooks.
func (r *Registry) Install() {
	observability.SetPipelineHooks(r)
	observability.SetCacheHooks(r)
	observability.SetServerHooks(r)
}

// =============================================================================
// Metric Definitions
// =============================================================================

func (r *Registry) initPipelineMetrics() {
	f := promauto.With(r.registry)

	r.ParseTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Total number of parsed sources",
		},
		[]string{"status"},
	)
	r.ParseDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Duration of source parsing in seconds",
			Buckets:   durationBuckets,
		},
	)
	r.ParsedNodes = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_nodes",
			Help:      "Number of nodes per parsed source",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	r.LayoutTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_total",
			Help:      "Total number of layout runs",
		},
		[]string{"algorithm", "status"}, // ok, degraded, error
	)
	r.LayoutDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Duration of whole-graph layout in seconds",
			Buckets:   durationBuckets,
		},
		[]string{"algorithm"},
	)
	r.ComponentsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_total",
			Help:      "Total number of components submitted to the layout engine",
		},
		[]string{"algorithm"},
	)
	r.ComponentDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_layout_duration_seconds",
			Help:      "Duration of a single component layout in seconds",
			Buckets:   durationBuckets,
		},
		[]string{"algorithm"},
	)
	r.ComponentFailures = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_failures_total",
			Help:      "Total number of component layouts that failed",
		},
		[]string{"algorithm"},
	)
	r.LayoutsInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layouts_in_flight",
			Help:      "Number of layout runs currently executing",
		},
	)
	r.CanvasArea = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "canvas_area",
			Help:      "Packed canvas area in square units",
			Buckets:   prometheus.ExponentialBuckets(1e4, 4, 8),
		},
	)
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)

	r.CacheTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"key_type", "result"}, // hit, miss, set
	)
	r.CacheBytes = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Total bytes written to the cache",
		},
		[]string{"key_type"},
	)
}

func (r *Registry) initServerMetrics() {
	f := promauto.With(r.registry)

	r.RequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	r.RequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   durationBuckets,
		},
		[]string{"method", "route"},
	)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

func (r *Registry) OnParseStart(context.Context, int) {}

func (r *Registry) OnParseComplete(_ context.Context, nodes, _ int, d time.Duration, err error) {
	r.ParseTotal.WithLabelValues(status(err)).Inc()
	r.ParseDuration.Observe(d.Seconds())
	if err == nil {
		r.ParsedNodes.Observe(float64(nodes))
	}
}

func (r *Registry) OnLayoutStart(_ context.Context, algorithm string, components int) {
	r.LayoutsInFlight.Inc()
	r.ComponentsTotal.WithLabelValues(algorithm).Add(float64(components))
}

func (r *Registry) OnComponentLayout(_ context.Context, algorithm, _ string, _ int, d time.Duration, err error) {
	r.ComponentDuration.WithLabelValues(algorithm).Observe(d.Seconds())
	if err != nil {
		r.ComponentFailures.WithLabelValues(algorithm).Inc()
	}
}

func (r *Registry) OnLayoutComplete(_ context.Context, algorithm string, failures int, d time.Duration, err error) {
	r.LayoutsInFlight.Dec()
	s := status(err)
	if err == nil && failures > 0 {
		s = "degraded"
	}
	r.LayoutTotal.WithLabelValues(algorithm, s).Inc()
	r.LayoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

func (r *Registry) OnPackComplete(_ context.Context, _ int, width, height float64, _ time.Duration) {
	r.CanvasArea.Observe(width * height)
}

// =============================================================================
// Cache Hooks
// =============================================================================

func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheTotal.WithLabelValues(keyType, "set").Inc()
	r.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// Server Hooks
// =============================================================================

func (r *Registry) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

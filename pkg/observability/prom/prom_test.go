package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/flowpack/pkg/observability"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.ParseTotal == nil || r.LayoutTotal == nil || r.CacheTotal == nil || r.RequestsTotal == nil {
		t.Fatal("NewRegistry() left metrics uninitialized")
	}
	if r.Prometheus() == nil {
		t.Fatal("Prometheus() = nil")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestLayoutStatus(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	r.OnLayoutStart(ctx, "layered", 3)
	r.OnComponentLayout(ctx, "layered", "component_1", 2, time.Millisecond, errors.New("boom"))
	r.OnLayoutComplete(ctx, "layered", 1, time.Millisecond, nil)

	r.OnLayoutStart(ctx, "layered", 1)
	r.OnLayoutComplete(ctx, "layered", 0, time.Millisecond, nil)

	r.OnLayoutStart(ctx, "force", 1)
	r.OnLayoutComplete(ctx, "force", 0, time.Millisecond, errors.New("engine down"))

	tests := []struct {
		algorithm, status string
		want              float64
	}{
		{"layered", "degraded", 1},
		{"layered", "ok", 1},
		{"force", "error", 1},
		{"force", "ok", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(r.LayoutTotal.WithLabelValues(tt.algorithm, tt.status))
		if got != tt.want {
			t.Errorf("layout_total{%s,%s} = %v, want %v", tt.algorithm, tt.status, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(r.ComponentsTotal.WithLabelValues("layered")); got != 4 {
		t.Errorf("components_total{layered} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.ComponentFailures.WithLabelValues("layered")); got != 1 {
		t.Errorf("component_failures_total{layered} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LayoutsInFlight); got != 0 {
		t.Errorf("layouts_in_flight = %v, want 0", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	r.OnCacheMiss(ctx, "layout")
	r.OnCacheSet(ctx, "layout", 512)
	r.OnCacheHit(ctx, "layout")
	r.OnCacheHit(ctx, "layout")

	if got := testutil.ToFloat64(r.CacheTotal.WithLabelValues("layout", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CacheTotal.WithLabelValues("layout", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.CacheBytes.WithLabelValues("layout")); got != 512 {
		t.Errorf("bytes = %v, want 512", got)
	}
}

func TestInstallAndHandler(t *testing.T) {
	t.Cleanup(observability.Reset)

	r := NewRegistry()
	r.Install()
	observability.Server().OnRequest(context.Background(), "POST", "/api/v1/layout", 200, 5*time.Millisecond)
	observability.Pipeline().OnParseComplete(context.Background(), 4, 3, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`flowpack_http_requests_total{method="POST",route="/api/v1/layout",status="200"} 1`,
		`flowpack_parse_total{status="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

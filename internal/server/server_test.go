package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowpack/pkg/config"
	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/observability"
	"github.com/matzehuels/flowpack/pkg/observability/prom"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// gridEngine gives every node a fixed slot and fails the listed components.
func gridEngine(fail ...string) layout.Engine {
	return layout.EngineFunc(func(_ context.Context, c *diagram.Component) (*diagram.Component, error) {
		for _, id := range fail {
			if c.ID == id {
				return nil, stderrors.New("rejected")
			}
		}
		for i, n := range c.Nodes {
			n.Position = &diagram.Point{X: 40 + float64(i)*100, Y: 40}
		}
		c.Width = 80 + float64(len(c.Nodes))*100
		c.Height = 120
		return c, nil
	})
}

func newTestServer(t *testing.T, engine layout.Engine) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	runner.Engine = engine
	return New(runner, config.Default().PipelineOptions(), logger)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

const twoIslands = "A[Start] --> B[End]\\nX[Alone]"

func TestLayout(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/layout", `{"source":"`+twoIslands+`","algorithm":"force"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, layout.Force, res.Algorithm)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Graph.Components, 2)
	assert.Equal(t, 3, res.Stats.NodeCount)
	for _, c := range res.Graph.Components {
		require.NotNil(t, c.Position, c.ID)
	}
	assert.Positive(t, res.Graph.Width)
}

func TestLayoutComponentFailure(t *testing.T) {
	h := newTestServer(t, gridEngine("component_0")).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/layout", `{"source":"`+twoIslands+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "component_0", res.Failures[0].Component)
	assert.Equal(t, "rejected", res.Failures[0].Message)
	require.Len(t, res.Graph.Components, 2)
	assert.Zero(t, res.Graph.Components[0].Width)
	assert.NotNil(t, res.Graph.Components[0].Position)
}

func TestLayoutPackOverrides(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/layout",
		`{"source":"`+twoIslands+`","pack":{"gap":10,"target_width":1}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	// A one-unit row forces every component onto its own row.
	second := res.Graph.Components[1]
	assert.Equal(t, diagram.Point{X: 0, Y: 130}, *second.Position)
}

func TestLayoutErrors(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown algorithm", `{"source":"A --> B","algorithm":"spiral"}`, http.StatusBadRequest, errors.ErrCodeInvalidAlgorithm},
		{"malformed json", `{"source":`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown field", `{"source":"A","colour":"red"}`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad measure", `{"source":"A","measure":"ruler"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad option key", `{"source":"A","options":{"bad key":"1"}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative gap", `{"source":"A","pack":{"gap":-1}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"control character", `{"source":"A\u0000"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/layout", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
			assert.Equal(t, rec.Header().Get(HeaderRequestID), e.RequestID)
		})
	}
}

func TestLayoutContentType(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/layout", strings.NewReader(`{"source":"A"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
}

func TestLayoutBodyTooLarge(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	var body bytes.Buffer
	body.WriteString(`{"source":"`)
	body.WriteString(strings.Repeat("A", maxBodyBytes))
	body.WriteString(`"}`)

	rec := do(t, h, http.MethodPost, "/api/v1/layout", body.String())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestParse(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/parse", `{"source":"A -->|go| B\n???"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Graph.Nodes, 2)
	require.Len(t, res.Graph.Edges, 1)
	assert.Equal(t, "go", res.Graph.Edges[0].Label.Text)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Line)
	assert.Nil(t, res.Graph.Nodes[0].Position)
}

func TestAlgorithms(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/algorithms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []AlgorithmInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, len(layout.Algorithms))
	assert.Equal(t, "layered", out[0].Name)
	assert.True(t, out[0].Default)
	assert.Equal(t, "layered", out[0].Options[diagram.KeyAlgorithm])
	for _, a := range out[1:] {
		assert.False(t, a.Default, a.Name)
		assert.NotEmpty(t, a.Description, a.Name)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.NotEmpty(t, out.Build.Version)
}

func TestRouting(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/nothing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/layout", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, errors.ErrCodeUnsupported, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are off without a registry")
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, gridEngine()).Handler()

	const id = "0b6f3c1e-2f8a-4d2b-9a61-7c1e5d9f4a30"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(HeaderRequestID))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)

	reg := prom.NewRegistry()
	reg.Install()

	s := newTestServer(t, gridEngine())
	s.Metrics = reg
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/layout", `{"source":"A --> B"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/algorithms", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flowpack_http_requests_total{method="POST",route="/api/v1/layout",status="200"} 1`)
	assert.Contains(t, body, `flowpack_http_requests_total{method="GET",route="/api/v1/algorithms",status="200"} 1`)
	assert.Contains(t, body, `flowpack_layout_total{algorithm="layered",status="ok"} 1`)
}

func TestListenAndServe(t *testing.T) {
	s := newTestServer(t, gridEngine())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, config.ServerConfig{Addr: "127.0.0.1:0"})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/flowpack/pkg/buildinfo"
	"github.com/matzehuels/flowpack/pkg/diagram"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// maxBodyBytes leaves room for JSON framing around a maximal source.
const maxBodyBytes = errors.MaxSourceBytes + 64<<10

// validate is a singleton validator instance
var validate = validator.New()

// =============================================================================
// Requests
// =============================================================================

// LayoutRequest is the body of POST /api/v1/layout.
type LayoutRequest struct {
	Source    string            `json:"source" validate:"max=1048576"`
	Algorithm string            `json:"algorithm,omitempty" validate:"omitempty,max=32"`
	Options   map[string]string `json:"options,omitempty" validate:"omitempty,max=64"`
	Measure   string            `json:"measure,omitempty" validate:"omitempty,oneof=heuristic font"`
	Pack      *PackRequest      `json:"pack,omitempty"`
	NoCache   bool              `json:"no_cache,omitempty"`
}

// PackRequest overrides packing settings; zero fields keep the defaults.
type PackRequest struct {
	Gap         float64 `json:"gap" validate:"gte=0,lte=10000"`
	WidthFactor float64 `json:"width_factor" validate:"gte=0,lte=100"`
	TargetWidth float64 `json:"target_width" validate:"gte=0"`
}

// ParseRequest is the body of POST /api/v1/parse.
type ParseRequest struct {
	Source  string `json:"source" validate:"max=1048576"`
	Measure string `json:"measure,omitempty" validate:"omitempty,oneof=heuristic font"`
}

// options merges the request over the server defaults.
func (req *LayoutRequest) options(defaults pipeline.Options) pipeline.Options {
	opts := defaults
	if req.Algorithm != "" {
		opts.Algorithm = req.Algorithm
	}
	if req.Measure != "" {
		opts.Measure = req.Measure
	}
	if len(req.Options) > 0 {
		opts.Overrides = diagram.Options(defaults.Overrides).Merge(req.Options)
	}
	if req.Pack != nil {
		p := opts.Pack
		if req.Pack.Gap > 0 {
			p.Gap = req.Pack.Gap
		}
		if req.Pack.WidthFactor > 0 {
			p.WidthFactor = req.Pack.WidthFactor
		}
		if req.Pack.TargetWidth > 0 {
			p.TargetWidth = req.Pack.TargetWidth
		}
		opts.Pack = p
	}
	opts.NoCache = opts.NoCache || req.NoCache
	return opts
}

// =============================================================================
// Responses
// =============================================================================

// AlgorithmInfo describes one entry of GET /api/v1/algorithms.
type AlgorithmInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Default     bool              `json:"default"`
	Options     map[string]string `json:"options"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	opts := req.options(s.Defaults)
	opts.Logger = s.logger().With("request_id", RequestID(r.Context()))

	res, err := s.Runner.Execute(r.Context(), req.Source, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	opts := s.Defaults
	if req.Measure != "" {
		opts.Measure = req.Measure
	}
	opts.Logger = s.logger().With("request_id", RequestID(r.Context()))

	res, err := s.Runner.Parse(r.Context(), req.Source, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	out := make([]AlgorithmInfo, len(layout.Algorithms))
	for i, a := range layout.Algorithms {
		out[i] = AlgorithmInfo{
			Name:        a.String(),
			Description: a.Description(),
			Default:     a == layout.DefaultAlgorithm,
			Options:     layout.Options(a, nil),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

// =============================================================================
// Decoding
// =============================================================================

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New(errors.ErrCodeInvalidFormat, "content type must be application/json, got %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body too large (max %d bytes)", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}

	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(fe.Namespace(), '.'); i >= 0 {
			field = fe.Namespace()[i+1:]
		}
		switch fe.Tag() {
		case "oneof":
			msgs[i] = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
		case "max":
			msgs[i] = fmt.Sprintf("%s exceeds maximum of %s", field, fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}

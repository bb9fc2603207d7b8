// Package config loads the flowpack configuration file.
//
// The file is TOML, located at $XDG_CONFIG_HOME/flowpack/config.toml
// (falling back to ~/.config/flowpack/config.toml):
//
//	algorithm    = "layered"
//	measure      = "heuristic"
//	max_parallel = 8
//
//	[pack]
//	gap          = 50
//	width_factor = 1.5
//
//	[cache]
//	backend    = "redis"
//	ttl        = "72h"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
//	[overrides]
//	"elk.spacing.nodeNode" = "80"
//
// A missing file yields [Default]. Unknown keys and invalid values are
// reported as INVALID_CONFIG errors.
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/flowpack/pkg/cache"
	"github.com/matzehuels/flowpack/pkg/errors"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/pack"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// AppName names the configuration and cache directories.
const AppName = "flowpack"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults.
const (
	DefaultBackend    = BackendFile
	DefaultServerAddr = ":8080"
	DefaultRedisAddr  = "localhost:6379"
	DefaultPrefix     = "flowpack:"
)

// =============================================================================
// Types
// =============================================================================

// Config is the parsed configuration file.
type Config struct {
	Algorithm   string            `toml:"algorithm" validate:"omitempty,algorithm"`
	Measure     string            `toml:"measure" validate:"omitempty,oneof=heuristic font"`
	MaxParallel int               `toml:"max_parallel" validate:"gte=0,lte=1024"`
	Pack        pack.Options      `toml:"pack"`
	Cache       CacheConfig       `toml:"cache"`
	Server      ServerConfig      `toml:"server"`
	Overrides   map[string]string `toml:"overrides" validate:"omitempty,max=64"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend" validate:"oneof=file redis none"`
	TTL           time.Duration `toml:"ttl" validate:"gte=0"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr" validate:"required_if=Backend redis,omitempty,hostname_port"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db" validate:"gte=0,lte=15"`
	Prefix        string        `toml:"prefix"`
}

// ServerConfig configures `flowpack serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `toml:"write_timeout" validate:"gte=0"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Pack: pack.DefaultOptions(),
		Cache: CacheConfig{
			Backend:   DefaultBackend,
			RedisAddr: DefaultRedisAddr,
			Prefix:    DefaultPrefix,
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Path returns the default configuration file path.
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path selects
// [Path]. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// =============================================================================
// Validation
// =============================================================================

// validate is a singleton validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("algorithm", func(fl validator.FieldLevel) bool {
		_, err := layout.ParseAlgorithm(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field, including packing and option overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if err := c.Pack.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pack")
	}
	if err := errors.ValidateOptions(c.Overrides); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "overrides")
	}
	return nil
}

// formatValidationError converts validator errors to one readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "algorithm":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.Join(layout.AlgorithmNames(), ", ")))
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "hostname_port":
			msgs = append(msgs, fmt.Sprintf("%s must be host:port", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	slices.Sort(msgs)
	return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(msgs, "; "))
}

// =============================================================================
// Wiring
// =============================================================================

// PipelineOptions returns pipeline options seeded from the file.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		FallbackAlgorithm: c.Algorithm,
		Measure:           c.Measure,
		Pack:              c.Pack,
		MaxParallel:       c.MaxParallel,
	}
	if len(c.Overrides) > 0 {
		opts.Overrides = make(map[string]string, len(c.Overrides))
		for k, v := range c.Overrides {
			opts.Overrides[k] = v
		}
	}
	return opts
}

// CacheDir returns the file cache directory: Cache.Dir if set, else
// $XDG_CACHE_HOME/flowpack or ~/.cache/flowpack.
func (c CacheConfig) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Open creates the configured cache backend.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.Prefix,
		})
	case BackendFile, "":
		dir, err := c.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
	}
}

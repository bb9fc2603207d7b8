// Package cache stores computed layouts keyed by their inputs.
//
// A layout is a pure function of the diagram source, the algorithm, option
// overrides, the measurer, and packing settings, so a content hash over
// those inputs identifies a result exactly. Three backends are provided:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer]; [ScopedKeyer] adds a namespace prefix so
// several deployments can share one Redis database.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default entry lifetimes.
const (
	// TTLLayout applies to packed layout results. Layouts never go stale
	// for identical inputs; the TTL only bounds disk and memory use.
	TTLLayout = 7 * 24 * time.Hour

	// TTLParse applies to parsed (unpositioned) graphs.
	TTLParse = 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// LayoutKeyOpts holds every input besides the source that changes a layout.
type LayoutKeyOpts struct {
	Algorithm   string            `json:"algorithm"`
	Fallback    string            `json:"fallback,omitempty"`
	Overrides   map[string]string `json:"overrides,omitempty"`
	Measure     string            `json:"measure"`
	Gap         float64           `json:"gap"`
	WidthFactor float64           `json:"width_factor"`
	TargetWidth float64           `json:"target_width,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ParseKey identifies the parsed graph of a source under a measurer.
	ParseKey(sourceHash, measure string) string

	// LayoutKey identifies a packed layout.
	LayoutKey(sourceHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces "parse:<sha256>" and "layout:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ParseKey implements [Keyer].
func (DefaultKeyer) ParseKey(sourceHash, measure string) string {
	return hashKey("parse", sourceHash, measure)
}

// LayoutKey implements [Keyer]. Overrides are hashed through JSON, which
// orders map keys, so equal maps produce equal keys.
func (DefaultKeyer) LayoutKey(sourceHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sourceHash, opts)
}

// hashKey formats prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// NullCache
// =============================================================================

// NullCache never stores anything; every Get is a miss.
type NullCache struct{}

// NewNullCache returns a disabled cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Clear(context.Context) error                              { return nil }
func (NullCache) Close() error                                             { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)

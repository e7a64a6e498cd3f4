package nbhm

// options.go mirrors the teacher's pkg/config.go: a private config
// struct filled in by defaultConfig, mutated only through generic
// functional options, validated once at construction time.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Voskan/nbhm/internal/gentable"
)

// ResizeMode selects how aggressively a triggering operation drains an
// in-progress resize, the `[FULL]` knob named in SPEC_FULL.md §4.5.
type ResizeMode int

const (
	// Incremental migrates at most one chunk per triggering operation
	// before returning to its own probe — spec §4.5 literally.
	Incremental ResizeMode = iota
	// Blocking drains the entire resize synchronously via a bounded
	// errgroup fan-out before the triggering operation proceeds.
	Blocking
)

// Option is the functional option passed to New. Generic over K/V/H so
// options referring to a concrete hasher type retain full type safety.
type Option[K comparable, V any, H Hasher[K]] func(*config[K, V, H])

// config bundles every knob influencing Map behaviour. Immutable once the
// Map is constructed; there is no live-mutation/hot-reload support, the
// same stance the teacher's config takes.
type config[K comparable, V any, H Hasher[K]] struct {
	initialCapacity int
	hasher          H
	resizeMode      ResizeMode
	collector       Collector
	logger          *zap.Logger
	registry        *prometheus.Registry
}

func defaultConfig[K comparable, V any, H Hasher[K]]() *config[K, V, H] {
	return &config[K, V, H]{
		initialCapacity: 16,
		resizeMode:      Incremental,
		logger:          zap.NewNop(),
	}
}

// WithHasher overrides the default hash/maphash-based hasher.
func WithHasher[K comparable, V any, H Hasher[K]](h H) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		c.hasher = h
	}
}

// WithCapacity pre-sizes the first table generation to hold at least n
// entries without triggering an initial resize.
func WithCapacity[K comparable, V any, H Hasher[K]](n int) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		if n > 0 {
			// Enough slots that n live entries stay below LoadFactor.
			c.initialCapacity = int(float64(n)/gentable.LoadFactor) + 1
		}
	}
}

// WithResizeMode selects Incremental (default) or Blocking resize
// drain behaviour.
func WithResizeMode[K comparable, V any, H Hasher[K]](m ResizeMode) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		c.resizeMode = m
	}
}

// WithCollector supplies a caller-owned SMR collector instead of the
// default internal/epoch one. The Map never closes a borrowed collector.
func WithCollector[K comparable, V any, H Hasher[K]](coll Collector) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		c.collector = coll
	}
}

// WithLogger plugs an external zap.Logger. The map never logs on the hot
// path; only slow events (resize begin, and resize end, which names the
// retired generation) are emitted.
func WithLogger[K comparable, V any, H Hasher[K]](l *zap.Logger) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection for this Map
// instance. Passing nil disables metrics (default).
func WithMetrics[K comparable, V any, H Hasher[K]](reg *prometheus.Registry) Option[K, V, H] {
	return func(c *config[K, V, H]) {
		c.registry = reg
	}
}

func applyOptions[K comparable, V any, H Hasher[K]](cfg *config[K, V, H], opts []Option[K, V, H]) {
	for _, opt := range opts {
		opt(cfg)
	}
}

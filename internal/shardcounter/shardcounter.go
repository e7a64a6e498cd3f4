// Package shardcounter implements the approximate, sharded occupancy
// counter from spec.md §4.6: one cache-padded signed counter per shard,
// summed (and clamped to zero) on demand.
//
// Grounded on _examples/original_source/src/raw/utils/mod.rs's Counter
// (CachePadded<AtomicIsize> shards keyed by thread id) and on the
// teacher's (Voskan/arena-cache) habit of keeping per-shard atomic.Uint64
// hit/miss/eviction counters in pkg/cache.go.
package shardcounter

import (
	"runtime"
	"sync/atomic"
)

const cacheLineSize = 64

type paddedCounter struct {
	v atomic.Int64
	_ [cacheLineSize - 8]byte
}

// Counter is a sharded approximate occupancy counter. The zero value is
// not usable; construct with New.
type Counter struct {
	shards []paddedCounter
	mask   uint64
}

// New builds a Counter with shards rounded up to the next power of two of
// GOMAXPROCS, matching the reference implementation's
// available_parallelism().next_power_of_two() shard count.
func New() *Counter {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	shards := nextPowerOfTwo(uint64(n))
	return &Counter{
		shards: make([]paddedCounter, shards),
		mask:   shards - 1,
	}
}

func nextPowerOfTwo(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

// Add adds delta to the shard owned by threadID (any stable per-guard
// identifier — see nbhm.Guard.ThreadID).
func (c *Counter) Add(threadID uint64, delta int64) {
	c.shards[threadID&c.mask].v.Add(delta)
}

// Sum returns the approximate live-entry count: the sum of all shards,
// clamped to zero because concurrent insert/remove racing across shards
// can transiently drive the total negative (spec §4.6).
func (c *Counter) Sum() int64 {
	var total int64
	for i := range c.shards {
		total += c.shards[i].v.Load()
	}
	if total < 0 {
		return 0
	}
	return total
}

// Package nbhm implements a lock-free, wait-free-read concurrent hash map
// modelled on the NonBlockingHashMap / Cliff Click design (spec.md §1):
// an open-addressed Swiss-table-style layout, a single-writer-per-slot
// entry state machine, and an incremental cooperative resize protocol,
// all glued together by a pluggable safe-memory-reclamation collector.
//
// Grounded on the teacher's (Voskan/arena-cache) pkg/cache.go top-level
// Cache[K,V] shape — a generic map type parameterized over key/value,
// configured with functional options, backed by internal packages that
// own the hard concurrency.
package nbhm

import "fmt"

// Guard is a pinned protection scope obtained from a Collector. While a
// guard is held, the collector guarantees it will not reclaim any entry
// the guard observed through Protect/DeferRetire. Spec §4.7.
//
// The Go realization drops Protect as a distinct method: in this port an
// Entry is a normal GC-visible *Entry pointer (REDESIGN FLAG #1), so
// "protecting" a load is just keeping the guard alive across the read —
// there is no separate pin-this-pointer call to make.
type Guard interface {
	// ThreadID returns a stable per-caller index used to shard the
	// occupancy counter (spec §4.6).
	ThreadID() uint64

	// BelongsTo reports whether collector is the exact Collector that
	// produced this guard.
	BelongsTo(collector any) bool

	// DeferRetire schedules reclaim(obj) to run once no guard active at
	// or before this guard's pin epoch remains outstanding.
	DeferRetire(obj any, reclaim func(any))

	// Refresh re-pins the guard to the collector's current state and lets
	// reclamation progress; used by long-running iterations (spec §4.7).
	Refresh()

	// Flush lets reclamation progress without otherwise changing the
	// guard's own pin.
	Flush()
}

// Collector is the external SMR collaborator a Map borrows or owns (spec
// §4.7, §9 "Entry publication vs reclamation"). internal/epoch ships the
// default implementation; callers needing a different memory/latency
// trade-off (e.g. hazard pointers) may supply their own.
type Collector interface {
	// Pin begins a guard scope for threadID. The returned Guard must be
	// released by the caller once it stops touching anything read under
	// it (see Ref.Close for the owning-guard convenience wrapper).
	Pin(threadID uint64) Guard
}

// ForeignGuardError is the panic value raised when a caller passes a
// Guard to a Map whose collector did not produce it (spec §7 "Foreign
// guard" failure mode: a programmer error, not a recoverable condition).
type ForeignGuardError struct {
	Collector Collector
}

func (e *ForeignGuardError) Error() string {
	return fmt.Sprintf("nbhm: guard does not belong to collector %v", e.Collector)
}

func verifyGuard(c Collector, g Guard) {
	if !g.BelongsTo(c) {
		panic(&ForeignGuardError{Collector: c})
	}
}

// Package epoch implements the minimal epoch-based reclamation scheme this
// repository ships as the default SMR collaborator (spec.md §9 "Design
// Notes — Entry publication vs reclamation" explicitly allows picking
// epoch-based reclamation as the simpler of the two textbook choices).
//
// This is deliberately small: one global epoch counter, one cache-padded
// local-epoch slot per guard "thread" (sharded the same way as
// internal/shardcounter), and per-epoch deferred-reclaim queues drained
// once every pinned thread has observed a newer epoch. It satisfies the
// guard contract in spec.md §4.7 (Protect/DeferRetire/ThreadID/BelongsTo/
// Refresh/Flush); it is not a production-grade collector — the whole point
// of the contract being an interface (pkg/nbhm.Collector) is that callers
// needing one (e.g. hazard pointers, for a lower memory footprint per §9)
// can supply their own.
package epoch

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const cacheLineSize = 64

type localSlot struct {
	// epoch the thread last pinned to, offset by one so that zero means
	// "not currently pinned".
	pinned atomic.Uint64
	_      [cacheLineSize - 8]byte
}

// Collector is the default epoch-based SMR collector.
type Collector struct {
	epoch atomic.Uint64
	slots []localSlot
	mask  uint64

	mu      sync.Mutex
	pending map[uint64][]func()
}

// New constructs a Collector. Shard count mirrors internal/shardcounter:
// next power of two of GOMAXPROCS.
func New() *Collector {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	shards := nextPowerOfTwo(uint64(n))
	c := &Collector{
		slots:   make([]localSlot, shards),
		mask:    shards - 1,
		pending: make(map[uint64][]func()),
	}
	c.epoch.Store(1)
	return c
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

// Guard is a pinned scope obtained from Collector.Pin. It must be released
// with Unpin once the caller is done touching anything read under it.
type Guard struct {
	c     *Collector
	tid   uint64
	epoch uint64
}

// Pin begins a guard scope for threadID (any stable per-caller index, e.g.
// the one a sharded counter already uses). While pinned, the collector will
// not run reclaim callbacks deferred at or after the pinned epoch.
func (c *Collector) Pin(threadID uint64) *Guard {
	e := c.epoch.Load()
	c.slots[threadID&c.mask].pinned.Store(e + 1)
	return &Guard{c: c, tid: threadID, epoch: e}
}

// ThreadID returns the stable index this guard was pinned under.
func (g *Guard) ThreadID() uint64 { return g.tid }

// BelongsTo reports whether collector is the exact Collector that produced
// g, per spec §4.7's foreign-guard check.
func (g *Guard) BelongsTo(collector any) bool {
	c, ok := collector.(*Collector)
	return ok && c == g.c
}

// DeferRetire schedules reclaim(obj) to run once no guard pinned at or
// before the current epoch remains active — i.e. once it is safe to assume
// no in-flight reader still expects obj to be reachable.
func (g *Guard) DeferRetire(obj any, reclaim func(any)) {
	e := g.c.epoch.Load()
	g.c.mu.Lock()
	g.c.pending[e] = append(g.c.pending[e], func() { reclaim(obj) })
	g.c.mu.Unlock()
}

// Refresh re-pins the guard to the current global epoch and opportunistically
// tries to advance it, running any callbacks this unblocks. Long-running
// iterations should call this periodically (spec §4.7).
func (g *Guard) Refresh() {
	e := g.c.epoch.Load()
	g.c.slots[g.tid&g.c.mask].pinned.Store(e + 1)
	g.epoch = e
	g.c.tryAdvance()
}

// Flush lets reclamation progress without changing this guard's own pin;
// used by callers who want to help drain pending retirements without
// releasing their scope.
func (g *Guard) Flush() {
	g.c.tryAdvance()
}

// Unpin releases the guard's pin. Must be called exactly once.
func (g *Guard) Unpin() {
	g.c.slots[g.tid&g.c.mask].pinned.Store(0)
}

// tryAdvance computes the oldest epoch any thread is still pinned to; if
// no thread is pinned to an epoch older than the current global one, it
// advances the epoch and runs every callback queued before that oldest
// pinned epoch (every queued callback, when nothing is pinned).
func (c *Collector) tryAdvance() {
	cur := c.epoch.Load()
	minPinned := cur + 1
	for i := range c.slots {
		p := c.slots[i].pinned.Load()
		if p == 0 {
			continue
		}
		if p-1 < minPinned {
			minPinned = p - 1
		}
	}
	if minPinned < cur {
		// Someone is still pinned to an older epoch; nothing to collect
		// yet.
		return
	}
	if !c.epoch.CompareAndSwap(cur, cur+1) {
		return
	}
	c.mu.Lock()
	var callbacks []func()
	for e, fns := range c.pending {
		if e < minPinned {
			callbacks = append(callbacks, fns...)
			delete(c.pending, e)
		}
	}
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

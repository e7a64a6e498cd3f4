package nbhm

// map.go is the operation engine (spec §4.4): Get/Insert/Update/Remove
// drive internal/gentable's probe and resize primitives against the
// current table generation, retrying forward across the chain whenever
// the probe reports a slot already COPIED, or triggering a new
// generation when one fills up. Grounded on the teacher's pkg/cache.go
// top-level Cache[K,V] shape, adapted from a TTL/shard-indexed arena
// cache to a generation-chained lock-free table.

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Voskan/nbhm/internal/gentable"
	"github.com/Voskan/nbhm/internal/shardcounter"
)

// parkTimeout bounds how long advance() backs off on a generation's parker
// once it has nothing left to help with, per the "bounded backoff" half of
// the wait-but-help policy (spec §4.5/§9 "Suspension points").
const parkTimeout = time.Millisecond

// Map is a concurrent hash table keyed by K with values V, hashed by H.
// The zero value is not usable; construct with New or NewWithHasher.
type Map[K comparable, V any, H Hasher[K]] struct {
	root atomic.Pointer[gentable.Generation[K, V]]

	hasher H

	counter atomic.Pointer[shardcounter.Counter]
	pinSeq  atomic.Uint64

	collector  Collector
	resizeMode ResizeMode

	metrics metricsSink
	logger  *zap.Logger
}

// New constructs a Map using the package's zero-size DefaultHasher.
func New[K comparable, V any](opts ...Option[K, V, DefaultHasher[K]]) *Map[K, V, DefaultHasher[K]] {
	return newMap[K, V, DefaultHasher[K]](DefaultHasher[K]{}, opts)
}

// NewWithHasher constructs a Map using caller-supplied hasher h.
func NewWithHasher[K comparable, V any, H Hasher[K]](h H, opts ...Option[K, V, H]) *Map[K, V, H] {
	return newMap[K, V, H](h, opts)
}

func newMap[K comparable, V any, H Hasher[K]](h H, opts []Option[K, V, H]) *Map[K, V, H] {
	cfg := defaultConfig[K, V, H]()
	cfg.hasher = h
	applyOptions(cfg, opts)

	m := &Map[K, V, H]{
		hasher:     cfg.hasher,
		resizeMode: cfg.resizeMode,
		metrics:    newMetricsSink(cfg.registry),
		logger:     cfg.logger,
	}
	if cfg.collector != nil {
		m.collector = cfg.collector
	} else {
		m.collector = newDefaultCollector()
	}
	m.counter.Store(shardcounter.New())
	m.root.Store(gentable.New[K, V](cfg.initialCapacity, 0))
	return m
}

func (m *Map[K, V, H]) hash(k K) uint64 { return m.hasher.Hash(k) }

// Pin begins an owning guard scope against the Map's own collector,
// spec §6's `pin() -> Ref` convenience.
func (m *Map[K, V, H]) Pin() *Ref[K, V, H] {
	tid := m.pinSeq.Add(1)
	return &Ref[K, V, H]{m: m, guard: m.collector.Pin(tid)}
}

// Get returns the value stored for k and whether it was present.
func (m *Map[K, V, H]) Get(k K, g Guard) (V, bool) {
	verifyGuard(m.collector, g)
	hash := m.hash(k)
	gen := m.root.Load()
	for {
		loc := gen.Locate(hash, k)
		switch loc.Outcome {
		case gentable.Hit:
			m.metrics.incHit()
			return loc.Entry.Value, true
		case gentable.Follow:
			gen = m.advance(gen, g)
		default: // Miss, Exhausted
			m.metrics.incMiss()
			var zero V
			return zero, false
		}
	}
}

// Insert stores v for k, returning the previous value (if any).
func (m *Map[K, V, H]) Insert(k K, v V, g Guard) (V, bool) {
	verifyGuard(m.collector, g)
	hash := m.hash(k)
	gen := m.root.Load()
	for {
		loc := gen.Locate(hash, k)
		switch loc.Outcome {
		case gentable.Hit:
			entry := gentable.NewEntry(k, v, hash)
			if !gen.ReplaceLive(loc, entry) {
				continue
			}
			g.DeferRetire(loc.Entry, noopReclaim)
			m.metrics.incInsert()
			return loc.Entry.Value, true

		case gentable.Follow:
			gen = m.advance(gen, g)

		case gentable.Miss:
			if loc.HasCandidate {
				entry := gentable.NewEntry(k, v, hash)
				if !gen.InstallCandidate(loc, entry) {
					continue
				}
				m.counter.Load().Add(g.ThreadID(), 1)
				m.metrics.incInsert()
				m.afterWrite(gen, g)
				var zero V
				return zero, false
			}
			// No candidate even though the probe reported a miss: the
			// generation is effectively full. Same remedy as Exhausted.
			gen = m.startResize(gen, g)

		case gentable.Exhausted:
			gen = m.startResize(gen, g)
		}
	}
}

// Update replaces the value for k with f(old, ok), inserting if absent.
// f must be pure: it may run more than once (spec §4.4).
func (m *Map[K, V, H]) Update(k K, f func(old V, ok bool) V, g Guard) (V, bool) {
	verifyGuard(m.collector, g)
	hash := m.hash(k)
	gen := m.root.Load()
	for {
		loc := gen.Locate(hash, k)
		switch loc.Outcome {
		case gentable.Hit:
			newVal := f(loc.Entry.Value, true)
			entry := gentable.NewEntry(k, newVal, hash)
			if !gen.ReplaceLive(loc, entry) {
				continue
			}
			g.DeferRetire(loc.Entry, noopReclaim)
			m.metrics.incUpdate()
			return newVal, true

		case gentable.Follow:
			gen = m.advance(gen, g)

		case gentable.Miss:
			if loc.HasCandidate {
				var zero V
				newVal := f(zero, false)
				entry := gentable.NewEntry(k, newVal, hash)
				if !gen.InstallCandidate(loc, entry) {
					continue
				}
				m.counter.Load().Add(g.ThreadID(), 1)
				m.metrics.incUpdate()
				m.afterWrite(gen, g)
				return newVal, true
			}
			gen = m.startResize(gen, g)

		case gentable.Exhausted:
			gen = m.startResize(gen, g)
		}
	}
}

// Remove deletes k, returning the value it held (if any).
func (m *Map[K, V, H]) Remove(k K, g Guard) (V, bool) {
	verifyGuard(m.collector, g)
	hash := m.hash(k)
	gen := m.root.Load()
	for {
		loc := gen.Locate(hash, k)
		switch loc.Outcome {
		case gentable.Hit:
			if !gen.MarkTombstone(loc) {
				continue
			}
			g.DeferRetire(loc.Entry, noopReclaim)
			m.counter.Load().Add(g.ThreadID(), -1)
			m.metrics.incRemove()
			return loc.Entry.Value, true
		case gentable.Follow:
			gen = m.advance(gen, g)
		default:
			var zero V
			return zero, false
		}
	}
}

// Len returns the approximate number of live entries (spec §4.6).
func (m *Map[K, V, H]) Len() int {
	n := m.counter.Load().Sum()
	m.metrics.setLen(n)
	if n < 0 {
		return 0
	}
	return int(n)
}

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V, H]) IsEmpty() bool { return m.Len() == 0 }

// Stats returns a point-in-time snapshot of this Map's operation counters
// for external inspection (its JSON form is the /debug/nbhm/snapshot
// shape cmd/nbhm-inspect polls). Every field but Len reads zero
// unless the Map was built with WithMetrics.
func (m *Map[K, V, H]) Stats() Stats {
	s := m.metrics.snapshot()
	s.Len = int64(m.Len())
	return s
}

// Clear removes every entry by swinging the root onto a fresh, empty
// generation and handing the entire prior chain to the guard's collector
// for retirement. Any resize in flight at the moment of the call is
// abandoned along with it.
func (m *Map[K, V, H]) Clear(g Guard) {
	verifyGuard(m.collector, g)
	fresh := gentable.New[K, V](16, 0)
	old := m.root.Swap(fresh)
	m.counter.Store(shardcounter.New())
	for gen := old; gen != nil; {
		next := gen.Next()
		g.DeferRetire(gen, noopReclaim)
		gen = next
	}
}

func noopReclaim(any) {}

// --- resize helping -------------------------------------------------

func (m *Map[K, V, H]) needsGrow(gen *gentable.Generation[K, V]) bool {
	return gen.NeedsGrow(m.counter.Load().Sum())
}

func (m *Map[K, V, H]) afterWrite(gen *gentable.Generation[K, V], g Guard) {
	if m.needsGrow(gen) {
		m.startResize(gen, g)
	}
}

// ensureNext installs a doubled-size next generation if one is not
// already in flight, returning whichever generation won the race.
func (m *Map[K, V, H]) ensureNext(gen *gentable.Generation[K, V]) *gentable.Generation[K, V] {
	if nxt := gen.Next(); nxt != nil {
		return nxt
	}
	candidate := gentable.New[K, V](gen.GrowLen(), gen.ID+1)
	nxt := gen.InstallNext(candidate)
	if nxt == candidate {
		m.metrics.incResize()
		m.logger.Info("nbhm: resize begin",
			zap.Uint64("from_generation", gen.ID),
			zap.Int("from_len", gen.Len()),
			zap.Int("to_len", nxt.Len()),
		)
	}
	return nxt
}

// migrateChunk claims and copies one chunk of gen forward into nxt.
// Returns false once every chunk has already been claimed by some helper.
func (m *Map[K, V, H]) migrateChunk(gen, nxt *gentable.Generation[K, V]) bool {
	start, end, ok := gen.ClaimChunk()
	if !ok {
		return false
	}
	for i := start; i < end; i++ {
		gen.CopySlot(i, nxt)
	}
	return true
}

// maybeFinishResize swings the root from gen to nxt once gen has been
// fully copied, and retires gen. Safe to call redundantly: only the
// helper that wins the root CAS performs the retirement.
func (m *Map[K, V, H]) maybeFinishResize(gen, nxt *gentable.Generation[K, V], g Guard) {
	if !gen.Done() {
		return
	}
	if m.root.CompareAndSwap(gen, nxt) {
		m.logger.Info("nbhm: resize end",
			zap.Uint64("retired_generation", gen.ID),
			zap.Uint64("new_generation", nxt.ID),
		)
		g.DeferRetire(gen, noopReclaim)
		gen.Parker.Wake()
	}
}

// startResize is the full "trigger or join a resize" path (spec §4.5):
// ensure next exists, help migrate according to ResizeMode, swing the
// root if that finished the job, and return the generation the caller
// should retry its own operation against.
func (m *Map[K, V, H]) startResize(gen *gentable.Generation[K, V], g Guard) *gentable.Generation[K, V] {
	nxt := m.ensureNext(gen)
	switch m.resizeMode {
	case Blocking:
		m.drainResize(gen, nxt)
	default:
		m.migrateChunk(gen, nxt)
	}
	m.maybeFinishResize(gen, nxt, g)
	return nxt
}

// advance is the "Follow" path: a COPIED marker was observed for this
// key, so the caller must retry against next, helping migrate a chunk
// along the way (spec §4.5 "wait-but-help policy").
func (m *Map[K, V, H]) advance(gen *gentable.Generation[K, V], g Guard) *gentable.Generation[K, V] {
	nxt := gen.Next()
	if nxt == nil {
		// A COPIED tag is only ever set after next is installed, so this
		// is a brief publication race, not a real absence. Spin it out.
		for nxt == nil {
			runtime.Gosched()
			nxt = gen.Next()
		}
	}
	if !m.migrateChunk(gen, nxt) && !gen.Done() {
		// Every chunk is already claimed by some other helper and gen
		// isn't finished yet: this caller has nothing left to do, so it
		// backs off on gen's parker instead of hot-spinning Locate against
		// a still-partially-migrated generation. gen.Parker.Wake() fires
		// from maybeFinishResize once the winning helper retires gen.
		gen.Parker.Park(parkTimeout)
	}
	m.maybeFinishResize(gen, nxt, g)
	return nxt
}

// drainResize runs Blocking mode: fan out across GOMAXPROCS workers via
// errgroup, each claiming and copying chunks until none remain, so the
// triggering call returns only once gen is fully migrated. Grounded on
// the otter reference's parallel chunked resize, generalized from its
// sync.WaitGroup to this repo's errgroup usage.
func (m *Map[K, V, H]) drainResize(gen, nxt *gentable.Generation[K, V]) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	var eg errgroup.Group
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for m.migrateChunk(gen, nxt) {
			}
			return nil
		})
	}
	_ = eg.Wait()
}

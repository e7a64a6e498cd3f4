package nbhm

import "iter"

// Iter yields (key, value) pairs LIVE in a single generation snapshot
// taken under g (spec §4.4 iter()). Consumers must not assume stability
// across separate calls or across a concurrent resize.
func (m *Map[K, V, H]) Iter(g Guard) iter.Seq2[K, V] {
	verifyGuard(m.collector, g)
	gen := m.root.Load()
	return func(yield func(K, V) bool) {
		gen.Range(func(k K, v V, _ uint64) bool {
			return yield(k, v)
		})
	}
}

// Keys yields the keys LIVE in the snapshot (see Iter).
func (m *Map[K, V, H]) Keys(g Guard) iter.Seq[K] {
	verifyGuard(m.collector, g)
	gen := m.root.Load()
	return func(yield func(K) bool) {
		gen.Range(func(k K, _ V, _ uint64) bool {
			return yield(k)
		})
	}
}

// Values yields the values LIVE in the snapshot (see Iter).
func (m *Map[K, V, H]) Values(g Guard) iter.Seq[V] {
	verifyGuard(m.collector, g)
	gen := m.root.Load()
	return func(yield func(V) bool) {
		gen.Range(func(_ K, v V, _ uint64) bool {
			return yield(v)
		})
	}
}

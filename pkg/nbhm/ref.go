package nbhm

import "iter"

// Ref is the owning guard scope returned by Map.Pin (spec §6 "pin() ->
// Ref (owning guard scope)"): it bundles a Guard from the Map's own
// collector with the Map itself so callers can operate without passing
// the guard to every call, then release it once with Close.
type Ref[K comparable, V any, H Hasher[K]] struct {
	m     *Map[K, V, H]
	guard Guard
}

// Get mirrors Map.Get using this Ref's own guard.
func (r *Ref[K, V, H]) Get(k K) (V, bool) { return r.m.Get(k, r.guard) }

// Insert mirrors Map.Insert using this Ref's own guard.
func (r *Ref[K, V, H]) Insert(k K, v V) (V, bool) { return r.m.Insert(k, v, r.guard) }

// Update mirrors Map.Update using this Ref's own guard.
func (r *Ref[K, V, H]) Update(k K, f func(old V, ok bool) V) (V, bool) {
	return r.m.Update(k, f, r.guard)
}

// Remove mirrors Map.Remove using this Ref's own guard.
func (r *Ref[K, V, H]) Remove(k K) (V, bool) { return r.m.Remove(k, r.guard) }

// Iter mirrors Map.Iter using this Ref's own guard.
func (r *Ref[K, V, H]) Iter() iter.Seq2[K, V] { return r.m.Iter(r.guard) }

// Keys mirrors Map.Keys using this Ref's own guard.
func (r *Ref[K, V, H]) Keys() iter.Seq[K] { return r.m.Keys(r.guard) }

// Values mirrors Map.Values using this Ref's own guard.
func (r *Ref[K, V, H]) Values() iter.Seq[V] { return r.m.Values(r.guard) }

// Refresh lets reclamation progress during a long-lived Ref (spec §4.7),
// re-pinning to the collector's current state.
func (r *Ref[K, V, H]) Refresh() { r.guard.Refresh() }

// Close releases the guard. A Ref must not be used after Close.
func (r *Ref[K, V, H]) Close() {
	if u, ok := r.guard.(unpinner); ok {
		u.unpin()
	}
}

// Unpin is an alias for Close matching the SMR-contract vocabulary in
// spec §4.7.
func (r *Ref[K, V, H]) Unpin() { r.Close() }

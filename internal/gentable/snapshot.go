package gentable

import "github.com/Voskan/nbhm/internal/slot"

// Range scans every slot of this generation once, calling yield for each
// LIVE entry found (spec §4.4 iter(): "a single generation snapshot...
// no duplicates within one call"). Stops early if yield returns false.
// COPIED slots are skipped, not followed — the simpler contract the spec
// settles on rather than chasing the chain forward mid-iteration.
func (g *Generation[K, V]) Range(yield func(key K, val V, hash uint64) bool) {
	for i := range g.slots {
		tag, entry, _ := g.slots[i].LoadObserved()
		if tag != slot.Live || entry == nil {
			continue
		}
		if !yield(entry.Key, entry.Value, entry.Hash) {
			return
		}
	}
}

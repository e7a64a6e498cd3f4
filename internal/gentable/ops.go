package gentable

import "github.com/Voskan/nbhm/internal/slot"

// NewEntry allocates a fresh, immutable entry ready for publication via
// ReplaceLive/InstallCandidate. Keeping slot.Entry construction behind
// this function means callers outside this module's internal tree never
// need to name internal/slot directly.
func NewEntry[K comparable, V any](key K, value V, hash uint64) *slot.Entry[K, V] {
	return slot.NewEntry(key, value, hash)
}

// ReplaceLive installs newEntry over the LIVE slot identified by loc
// (Outcome == Hit), provided no writer has touched it since loc was
// observed. Returns false if the CAS lost the race.
func (g *Generation[K, V]) ReplaceLive(loc Locate[K, V], newEntry *slot.Entry[K, V]) bool {
	return g.slots[loc.SlotIdx].CASLive(loc.Obs, newEntry)
}

// InstallCandidate installs newEntry over the empty/tombstone slot loc
// identified as an insertion candidate (Outcome == Miss, HasCandidate).
// On success it also publishes the slot's meta byte (spec §4.4: "CAS from
// the observed tag to a new LIVE entry; on success also publish
// meta[i] = h2, release ordering").
func (g *Generation[K, V]) InstallCandidate(loc Locate[K, V], newEntry *slot.Entry[K, V]) bool {
	if !loc.HasCandidate {
		return false
	}
	if !g.slots[loc.SlotIdx].CASLive(loc.Obs, newEntry) {
		return false
	}
	g.publishMeta(loc.SlotIdx, h2Of(newEntry.Hash))
	return true
}

// MarkTombstone transitions the LIVE slot identified by loc to TOMBSTONE.
// Meta is deliberately left untouched (spec §4.4 remove note: "keeps
// probe chains intact").
func (g *Generation[K, V]) MarkTombstone(loc Locate[K, V]) bool {
	return g.slots[loc.SlotIdx].CASTombstone(loc.Obs)
}

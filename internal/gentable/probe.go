package gentable

import (
	"github.com/Voskan/nbhm/internal/groupmatch"
	"github.com/Voskan/nbhm/internal/slot"
)

// Outcome classifies the result of locating a key within one generation.
type Outcome int

const (
	// Hit: the key is LIVE at SlotIdx with Entry as its current value.
	Hit Outcome = iota
	// Miss: the key is definitely absent from this generation.
	Miss
	// Follow: a slot this key could have occupied was observed COPIED or
	// LOCKED; the caller must retry against Next().
	Follow
	// Exhausted: the probe covered every group in the generation without
	// finding the key, a candidate slot, or any empty sentinel — the
	// generation is full and must be grown before inserting.
	Exhausted
)

// Locate is the result of probing a generation for a key.
type Locate[K comparable, V any] struct {
	Outcome Outcome

	// Valid when Outcome == Hit.
	Entry *slot.Entry[K, V]

	// SlotIdx/Obs identify either the hit slot (Outcome == Hit) or, when
	// HasCandidate is true, the first empty-or-tombstone slot found along
	// the probe chain — the insertion candidate from spec §4.3.
	SlotIdx      uint64
	Obs          slot.Observed[K, V]
	HasCandidate bool
}

// probeStart returns the group-aligned starting slot index for hash.
func (g *Generation[K, V]) probeStart(hash uint64) uint64 {
	return (h1Of(hash) & g.mask) &^ (groupmatch.GroupSize - 1)
}

// Locate runs the triangular-group probe described in spec §4.3 looking
// for key. Within a group it checks every h2 match in turn (the h2 filter
// may have multiple false-positive matches in adversarial inputs) and
// returns Hit at the first one whose real key verifies; Follow is only
// reported once the whole group has been scanned.
func (g *Generation[K, V]) Locate(hash uint64, key K) Locate[K, V] {
	h2 := h2Of(hash)
	idx := g.probeStart(hash)
	numGroups := g.NumGroups()

	var (
		candIdx      uint64
		candObs      slot.Observed[K, V]
		hasCandidate bool
		mustFollow   bool
	)

	for n, visited := uint64(0), uint64(0); visited < numGroups; visited++ {
		groupIdx := idx / groupmatch.GroupSize
		grp := g.loadGroup(groupIdx)

		it := groupmatch.MatchByte(grp, h2)
		for {
			off, ok := it.Next()
			if !ok {
				break
			}
			slotIdx := (idx + uint64(off)) & g.mask
			tag, entry, obs := g.slots[slotIdx].LoadObserved()
			switch tag {
			case slot.Live:
				if entry != nil && entry.Key == key {
					return Locate[K, V]{Outcome: Hit, Entry: entry, SlotIdx: slotIdx, Obs: obs}
				}
			case slot.Copied, slot.Locked:
				// An h2-matched slot observed mid/post-migration must be
				// treated as "might be our key" regardless of whether the
				// entry (if any survives in the box) still matches —
				// spec §4.3 step 2 triggers follow on COPIED unconditionally,
				// since the meta byte that produced this match is never
				// cleared by remove/copy.
				mustFollow = true
			case slot.Tombstone:
				// Cannot verify key identity (no entry); not a hit, not a
				// terminal condition either. Falls through to candidate
				// tracking below via the full-group scan.
			}
		}

		if !hasCandidate {
			if ci, ok := g.firstCandidateInGroup(grp, idx); ok {
				_, _, obs := g.slots[ci].LoadObserved()
				candIdx, candObs, hasCandidate = ci, obs, true
			}
		}

		if groupmatch.AnyEmpty(grp) {
			if mustFollow {
				return Locate[K, V]{Outcome: Follow}
			}
			return Locate[K, V]{Outcome: Miss, SlotIdx: candIdx, Obs: candObs, HasCandidate: hasCandidate}
		}

		n++
		idx = (idx + n*groupmatch.GroupSize) & g.mask
	}

	if mustFollow {
		return Locate[K, V]{Outcome: Follow}
	}
	if hasCandidate {
		return Locate[K, V]{Outcome: Miss, SlotIdx: candIdx, Obs: candObs, HasCandidate: hasCandidate}
	}
	return Locate[K, V]{Outcome: Exhausted}
}

// firstCandidateInGroup scans every slot in the 16-wide group starting at
// groupStart for the first one that is EMPTY (meta sentinel) or TOMBSTONE
// (pointer tag — meta alone cannot tell, spec §4.4 remove note).
func (g *Generation[K, V]) firstCandidateInGroup(grp groupmatch.Group, groupStart uint64) (uint64, bool) {
	for i := 0; i < groupmatch.GroupSize; i++ {
		if groupmatch.ByteAt(grp, i) == groupmatch.EmptyByte {
			slotIdx := (groupStart + uint64(i)) & g.mask
			_, _, obs := g.slots[slotIdx].LoadObserved()
			if !obs.IsNil() {
				// Meta says empty but the slot is mid-transition to LIVE
				// (another writer raced us, publishMeta hasn't run yet);
				// not a candidate.
				continue
			}
			return slotIdx, true
		}
	}
	for i := 0; i < groupmatch.GroupSize; i++ {
		slotIdx := (groupStart + uint64(i)) & g.mask
		tag, _, _ := g.slots[slotIdx].LoadObserved()
		if tag == slot.Tombstone {
			return slotIdx, true
		}
	}
	return 0, false
}

package gentable

import (
	"runtime"

	"github.com/Voskan/nbhm/internal/slot"
)

// chunkSize returns the number of slots a single helper claims per
// fetch_add step while copying genLen slots forward, per the Open
// Question decision in DESIGN.md: min(1024, len/GOMAXPROCS), rounded down
// to whole groups and floored at one full group so a claim never splits a
// group across two helpers.
func chunkSize(genLen int) uint64 {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	size := genLen / n
	if size > 1024 {
		size = 1024
	}
	size &^= GroupSizeFloor - 1
	if size < GroupSizeFloor {
		size = GroupSizeFloor
	}
	return uint64(size)
}

// GroupSizeFloor is the smallest chunk a helper will ever claim: one group.
const GroupSizeFloor = 16

// NeedsGrow reports whether this generation has crossed the load-factor
// threshold and a resize should begin (spec §4.5 trigger condition).
func (g *Generation[K, V]) NeedsGrow(liveEstimate int64) bool {
	return float64(liveEstimate) >= LoadFactor*float64(g.Len())
}

// ClaimChunk atomically reserves the next chunk of slot indices for this
// generation's copy-forward pass. ok is false once every slot has already
// been claimed by some helper.
func (g *Generation[K, V]) ClaimChunk() (start, end uint64, ok bool) {
	size := chunkSize(g.Len())
	start = g.claim.Add(size) - size
	if start >= uint64(g.Len()) {
		return 0, 0, false
	}
	end = start + size
	if end > uint64(g.Len()) {
		end = uint64(g.Len())
	}
	return start, end, true
}

// CopySlot migrates the single slot at idx into dst, per spec §4.5's
// per-slot copy protocol:
//
//  1. CAS the source slot LIVE -> LOCKED (claims it for this helper; a
//     concurrent writer observing LOCKED must itself retry against dst).
//  2. Re-probe dst for the entry's key/hash and CAS-install LIVE there
//     only if the destination candidate is still empty.
//  3. CAS the source LOCKED -> COPIED, unblocking any writer that was
//     waiting on it.
//
// A source slot that is EMPTY or already TOMBSTONE needs no migration; it
// is marked COPIED directly so the generation's `copied` accounting still
// reaches Len() once every slot has been visited.
func (g *Generation[K, V]) CopySlot(idx uint64, dst *Generation[K, V]) {
retry:
	tag, entry, obs := g.slots[idx].LoadObserved()

	if obs.IsNil() {
		// EMPTY: never written, nothing to migrate. Tag happens to read
		// as the same zero value as Live (both are Tag(0)); obs.IsNil()
		// is the only reliable way to tell them apart.
		if !g.slots[idx].CASCopied(obs) {
			// A writer filled the slot first; migrate what it installed.
			goto retry
		}
		g.copied.Add(1)
		return
	}

	switch tag {
	case slot.Tombstone:
		if !g.slots[idx].CASCopied(obs) {
			goto retry
		}
		g.copied.Add(1)
		return
	case slot.Copied:
		g.copied.Add(1)
		return
	case slot.Locked:
		// Another helper is mid-copy; spin until it finishes. Bounded by
		// the fact that whoever holds LOCKED is actively making progress
		// (it never blocks on anything but this same copy).
		for tag == slot.Locked {
			tag, entry, obs = g.slots[idx].LoadObserved()
		}
		if tag != slot.Live || obs.IsNil() {
			return
		}
	case slot.Live:
		// fallthrough to migration below
	}

	if !g.slots[idx].CASLocked(obs, entry) {
		// Lost the race to a writer that updated or removed the entry;
		// reload and migrate whatever it left behind.
		goto retry
	}
	// obs above observed the pre-lock (LIVE) box; CASCopied below must be
	// armed against the box CASLocked just installed, not the stale one,
	// or it silently fails and this slot never reaches COPIED. Disjoint
	// chunk claims mean no one else can touch this slot between here and
	// the CASCopied call, so a plain reload is safe.
	_, _, obs = g.slots[idx].LoadObserved()

	for {
		loc := dst.Locate(entry.Hash, entry.Key)
		if loc.Outcome != Miss || !loc.HasCandidate {
			// Hit: a newer write already landed the same key in dst (can
			// happen if a writer re-inserted after observing LOCKED and
			// following into dst directly); nothing further to copy.
			break
		}
		if dst.slots[loc.SlotIdx].CASLive(loc.Obs, entry) {
			dst.publishMeta(loc.SlotIdx, h2Of(entry.Hash))
			break
		}
		// A CAS loss means another helper/writer claimed that slot first
		// (possibly for this same key); re-probe dst.
	}
	// loc.Outcome == Exhausted should not happen: dst is always allocated
	// at >= 2x g's length, so it cannot fill from copying g alone.

	g.slots[idx].CASCopied(obs)
	g.copied.Add(1)
}

// Copied returns the number of slots this generation has finished copying
// forward.
func (g *Generation[K, V]) Copied() uint64 { return g.copied.Load() }

// Done reports whether every slot in this generation has been copied
// forward, the signal the owning Map uses to swing its root pointer onto
// Next() and retire this generation.
func (g *Generation[K, V]) Done() bool { return g.copied.Load() >= uint64(g.Len()) }

// GrowLen returns the slot count for the next generation given this one's
// current length: always exactly double, per spec §4.5.
func (g *Generation[K, V]) GrowLen() int { return g.Len() * 2 }

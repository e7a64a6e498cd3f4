// Package slot defines the entry and slot layout shared by every table
// generation: the heap-allocated, immutable Entry a key/value pair is
// published as, and the single atomic word a Slot CASes to move between
// states.
//
// Every use of unsafe-adjacent bit tricks for slot state lives here, the
// same way arena-cache quarantined its unsafe.Pointer conversions inside
// internal/unsafehelpers: the rest of the table code only ever calls the
// constructors and accessors below.
package slot

import "sync/atomic"

// Tag identifies which of the four non-empty states (LIVE, TOMBSTONE,
// COPIED, LOCKED) a slot's published pointer currently represents. EMPTY has no
// Tag value of its own: it is the nil *slotBox, never written.
type Tag uint8

const (
	// Live means the slot holds a reachable key/value pair.
	Live Tag = iota
	// Tombstone means the key was removed; the probe must continue past
	// this slot but an insert may reuse it once no later slot in the
	// same chain still holds the key.
	Tombstone
	// Copied means the entry (if any) has been migrated to the next
	// generation; readers must follow the chain.
	Copied
	// Locked is visible only to resizers: a writer is mid-copy of this
	// slot into the next generation. User operations treat it exactly
	// like Copied — retry against next after helping.
	Locked
)

// Entry is a heap-allocated, immutable once-published key/value/hash
// triple. Readers may hold a *Entry for as long as their guard is live;
// updates publish a brand new Entry and retire the old one rather than
// mutating fields in place.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	Hash  uint64
}

// NewEntry allocates a fresh, fully-initialized Entry. Entries are never
// mutated after this call returns.
func NewEntry[K comparable, V any](key K, value V, hash uint64) *Entry[K, V] {
	return &Entry[K, V]{Key: key, Value: value, Hash: hash}
}

// box is the Go stand-in for the tagged pointer the reference
// implementation packs into the low bits of a raw *mut T (see
// _examples/original_source/src/raw/utils.rs: Tagged, AtomicPtrFetchOps).
// Go's GC will not tolerate a live object referenced only by a tagged
// uintptr, so the tag and the entry pointer are published together as one
// ordinary heap object and CASed as a unit via atomic.Pointer[box]. This
// keeps the single-CAS linearization point the spec requires (§5) while
// keeping every word the GC scans a real pointer.
type box[K comparable, V any] struct {
	tag   Tag
	entry *Entry[K, V]
}

// Slot is one cell of a table generation: the (meta, pointer) tuple from
// §3, minus meta (meta lives in a separate packed byte array owned by the
// generation, see internal/gentable). Cache-line padded so that adjacent
// slots written by different goroutines during a resize do not false-share.
type Slot[K comparable, V any] struct {
	ptr atomic.Pointer[box[K, V]]
	_   [cacheLinePad]byte
}

const cacheLineSize = 64

// cacheLinePad is the padding needed after the one machine word the Slot
// actually stores; sized generously (64B) rather than computed precisely
// against unsafe.Sizeof, matching the padding idiom other lock-free Go
// hash maps in the corpus use for their bucket structs.
const cacheLinePad = cacheLineSize - 8

// Load returns the current tag and entry pointer for the slot. Entry is
// nil when the slot is EMPTY, TOMBSTONE, or COPIED without an in-flight
// copy; it is non-nil for LIVE and for LOCKED (the entry mid-copy).
func (s *Slot[K, V]) Load() (tag Tag, entry *Entry[K, V], empty bool) {
	b := s.ptr.Load()
	if b == nil {
		return 0, nil, true
	}
	return b.tag, b.entry, false
}

// Observed wraps the raw, unexported box pointer so that callers can
// compare the observed pointer against what they read for an ABA-safe CAS without
// reaching into the Slot's internals.
type Observed[K comparable, V any] struct {
	raw *box[K, V]
}

// ObservedEmpty is the Observed value corresponding to an EMPTY slot.
func ObservedEmpty[K comparable, V any]() Observed[K, V] { return Observed[K, V]{} }

// LoadObserved is like Load but also returns the raw box pointer needed to
// drive a subsequent CompareAndSwap.
func (s *Slot[K, V]) LoadObserved() (tag Tag, entry *Entry[K, V], obs Observed[K, V]) {
	b := s.ptr.Load()
	obs = Observed[K, V]{raw: b}
	if b == nil {
		return 0, nil, obs
	}
	return b.tag, b.entry, obs
}

// CASLive attempts to publish entry as LIVE, replacing whatever box was
// last observed at obs. Used for both "insert into empty/tombstone slot"
// and "replace existing live entry" — the only difference is what obs was
// loaded as.
func (s *Slot[K, V]) CASLive(obs Observed[K, V], entry *Entry[K, V]) bool {
	return s.ptr.CompareAndSwap(obs.raw, &box[K, V]{tag: Live, entry: entry})
}

// CASTombstone attempts to transition a LIVE slot (observed as obs) to
// TOMBSTONE, reporting whether the CAS succeeded. The old entry is left
// untouched; the caller, which loaded it alongside obs, retires it.
func (s *Slot[K, V]) CASTombstone(obs Observed[K, V]) bool {
	return s.ptr.CompareAndSwap(obs.raw, &box[K, V]{tag: Tombstone})
}

// CASLocked attempts to transition a slot (LIVE or TOMBSTONE, observed as
// obs) into LOCKED, pinning entry (nil for a tombstone) as the payload a
// concurrent resizer is migrating. Only the resize engine calls this.
func (s *Slot[K, V]) CASLocked(obs Observed[K, V], entry *Entry[K, V]) bool {
	return s.ptr.CompareAndSwap(obs.raw, &box[K, V]{tag: Locked, entry: entry})
}

// CASCopied transitions a LOCKED slot (observed as obs) to COPIED once the
// resize engine has finished migrating it (or determined no migration was
// needed, e.g. for a tombstone).
func (s *Slot[K, V]) CASCopied(obs Observed[K, V]) bool {
	return s.ptr.CompareAndSwap(obs.raw, &box[K, V]{tag: Copied})
}

// IsNil reports whether an Observed corresponds to an EMPTY slot.
func (o Observed[K, V]) IsNil() bool { return o.raw == nil }

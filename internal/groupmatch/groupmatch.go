// Package groupmatch implements the table's SIMD-shaped group matcher (see
// spec.md §4.2) using SWAR (SIMD-within-a-register) byte comparisons
// instead of real vector instructions.
//
// Go has no portable way to emit the x86 vmovdqa/pcmpeqb/pmovmskb sequence
// the reference implementation uses (_examples/original_source's arch
// module) from plain package code, so this is implemented the way the
// otter hash map in the reference corpus does it
// (other_examples/...otter-v2.../hashmap/map.go.go: broadcast,
// markZeroBytes, firstMarkedByteIndex, setByte), doubled from 8 lanes to
// the spec's 16-byte group.
package groupmatch

import "math/bits"

// GroupSize is the number of slots matched per group, per spec §4.2.
const GroupSize = 16

// loBytes is 0x0101...01, used by the SWAR zero-byte trick.
const loBytes = 0x0101010101010101

// hiBytes is 0x8080...80: also the "empty" sentinel high bit per spec §4.1.
const hiBytes = 0x8080808080808080

// EmptyByte is the meta sentinel for a slot that is not LIVE (EMPTY,
// TOMBSTONE, or COPIED all reuse it — only the slot's own pointer tag
// tells them apart, meta is a filter only, per spec §4.1/§4.4 remove note).
const EmptyByte byte = 0x80

// broadcast replicates b into every byte of a 64-bit word.
func broadcast(b byte) uint64 {
	return loBytes * uint64(b)
}

// markZeroBytes returns a word with the high bit of each zero byte in w
// set, and all other bits clear. The standard SWAR caveat applies: the
// borrow out of a genuine zero byte can also mark a 0x01 byte directly
// above it, so after the XOR in MatchByte a byte equal to h2^1 next to a
// real match may be reported too. Matches are therefore hints; callers
// verify each one against the slot itself.
func markZeroBytes(w uint64) uint64 {
	return (w - loBytes) &^ w & hiBytes
}

// Group is the packed 16-byte meta window a probe step scans: the spec's
// "load 16 meta bytes with an aligned 128-bit load" in two SWAR words.
type Group [2]uint64

// Iter yields the indexes (0..15) within a Group whose meta byte matched,
// low-bit-first per spec §4.2.
type Iter struct {
	lo, hi uint64
}

// MatchByte returns an iterator over the indexes in g whose meta byte
// equals h2.
func MatchByte(g Group, h2 byte) Iter {
	h2w := broadcast(h2)
	return Iter{
		lo: markZeroBytes(g[0] ^ h2w),
		hi: markZeroBytes(g[1] ^ h2w),
	}
}

// Next returns the next matching index and true, or (0, false) once
// exhausted.
func (it *Iter) Next() (int, bool) {
	if it.lo != 0 {
		idx := bits.TrailingZeros64(it.lo) >> 3
		it.lo &= it.lo - 1
		return idx, true
	}
	if it.hi != 0 {
		idx := bits.TrailingZeros64(it.hi) >> 3
		it.hi &= it.hi - 1
		return idx + 8, true
	}
	return 0, false
}

// AnyEmpty reports whether g contains at least one EmptyByte sentinel,
// terminating a probe run: the key cannot be present later in this probe
// sequence once a truly empty slot has been seen (spec §4.2).
func AnyEmpty(g Group) bool {
	emptyw := broadcast(EmptyByte)
	return markZeroBytes(g[0]^emptyw) != 0 || markZeroBytes(g[1]^emptyw) != 0
}

// FirstEmpty returns the first index in g whose meta byte is the
// never-written sentinel. Tombstones are indistinguishable from live
// slots at the meta level by design (spec §4.4 remove note: "meta byte is
// not updated" on removal) — callers needing tombstone candidates must
// consult the slot's pointer tag directly via the slot package.
func FirstEmpty(g Group) (idx int, ok bool) {
	it := MatchByte(g, EmptyByte)
	return it.Next()
}

// ByteAt returns the meta byte at index idx (0..15) of g.
func ByteAt(g Group, idx int) byte {
	word, shift := g[0], idx<<3
	if idx >= 8 {
		word, shift = g[1], (idx-8)<<3
	}
	return byte(word >> shift)
}

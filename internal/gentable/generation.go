// Package gentable implements the table generation, its Swiss-table-style
// meta array, triangular probing, and the cooperative incremental resize
// protocol (spec.md §3 "Table generation", §4.3 "Probe engine", §4.5
// "Resize engine").
//
// Grounded on internal/genring from the teacher (Voskan/arena-cache): the
// idea of a forward chain of generations, each with a monotonic id, an
// explicit "this generation is done, retire it" transition, survives
// directly — only the payload changes, from TTL'd arenas to hash slots.
package gentable

import (
	"sync/atomic"

	"github.com/Voskan/nbhm/internal/groupmatch"
	"github.com/Voskan/nbhm/internal/parker"
	"github.com/Voskan/nbhm/internal/slot"
)

// LoadFactor is the occupancy fraction of len that triggers a grow,
// spec §9's own source note: "source uses ≈75%".
const LoadFactor = 0.75

// defaultMetaWord is eight EmptyByte sentinels packed into one uint64,
// the initial state of every meta word in a freshly allocated generation.
const defaultMetaWord = 0x8080808080808080

// Generation is one physical table in the forward-linked resize chain.
type Generation[K comparable, V any] struct {
	slots []slot.Slot[K, V]
	meta  []atomic.Uint64 // packed 8 meta bytes per word
	mask  uint64

	next   atomic.Pointer[Generation[K, V]]
	claim  atomic.Uint64
	copied atomic.Uint64

	Parker *parker.Parker
	ID     uint64
}

// New allocates a generation sized to the next power of two ≥ length (and
// at least groupmatch.GroupSize so a single group always fits).
func New[K comparable, V any](length int, id uint64) *Generation[K, V] {
	if length < groupmatch.GroupSize {
		length = groupmatch.GroupSize
	}
	length = int(roundUpPow2(uint64(length)))

	g := &Generation[K, V]{
		slots:  make([]slot.Slot[K, V], length),
		meta:   make([]atomic.Uint64, length/8),
		mask:   uint64(length - 1),
		Parker: parker.New(),
		ID:     id,
	}
	for i := range g.meta {
		g.meta[i].Store(defaultMetaWord)
	}
	return g
}

func roundUpPow2(x uint64) uint64 {
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

// Len returns the number of slots in this generation.
func (g *Generation[K, V]) Len() int { return int(g.mask) + 1 }

// NumGroups returns the number of 16-slot groups in this generation.
func (g *Generation[K, V]) NumGroups() uint64 { return (g.mask + 1) / groupmatch.GroupSize }

// Next returns the next generation in the chain, or nil if none has been
// installed yet.
func (g *Generation[K, V]) Next() *Generation[K, V] { return g.next.Load() }

// InstallNext attempts to CAS next from nil to candidate. Returns the
// winning generation (candidate if this call won the race, otherwise
// whoever got there first) — callers always use the returned value.
func (g *Generation[K, V]) InstallNext(candidate *Generation[K, V]) *Generation[K, V] {
	if g.next.CompareAndSwap(nil, candidate) {
		return candidate
	}
	return g.next.Load()
}

func (g *Generation[K, V]) loadGroup(groupIdx uint64) groupmatch.Group {
	w := groupIdx * 2
	return groupmatch.Group{g.meta[w].Load(), g.meta[w+1].Load()}
}

// publishMeta writes h2 into the meta byte for slotIdx with release
// ordering relative to the slot pointer CAS that made it LIVE (spec §5:
// "Meta byte writes follow slot writes (Release)").
func (g *Generation[K, V]) publishMeta(slotIdx uint64, h2 byte) {
	wordIdx := slotIdx / 8
	shift := (slotIdx % 8) * 8
	for {
		old := g.meta[wordIdx].Load()
		next := (old &^ (0xff << shift)) | (uint64(h2) << shift)
		if g.meta[wordIdx].CompareAndSwap(old, next) {
			return
		}
	}
}

func h1Of(hash uint64) uint64 { return hash >> 7 }
func h2Of(hash uint64) byte   { return byte(hash & 0x7f) }

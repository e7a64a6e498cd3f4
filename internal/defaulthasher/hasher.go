// Package defaulthasher provides the default keyed, finalizing hash used
// when a caller does not supply their own Hasher[K] (spec.md names the
// hasher as an external collaborator — "any keyed finalizing hash" — and
// leaves the concrete choice unspecified).
//
// Grounded on the teacher's (Voskan/arena-cache) pkg/cache.go shard.hash:
// a per-instance hash/maphash.Seed plus a type switch that avoids
// reflection for the common string/[]byte cases.
package defaulthasher

import (
	"hash/maphash"
	"unsafe"
)

// Hasher is the default hash/maphash-backed implementation of
// nbhm.Hasher[K]. The zero value is not usable; construct with New.
type Hasher[K comparable] struct {
	seed maphash.Seed
}

// New constructs a Hasher with a fresh random seed, so that two Map
// instances never share a hash flooding surface.
func New[K comparable]() *Hasher[K] {
	return &Hasher[K]{seed: maphash.MakeSeed()}
}

// Hash returns a 64-bit keyed hash of key.
func (h *Hasher[K]) Hash(key K) uint64 {
	return hashWithSeed(h.seed, key)
}

// defaultSeed is the single process-wide seed backing Default, used by
// nbhm.DefaultHasher[K] which — being a zero-size type callers never
// construct explicitly — has nowhere to keep a per-instance one.
var defaultSeed = maphash.MakeSeed()

// Default hashes key under the package-wide seed.
func Default[K comparable](key K) uint64 {
	return hashWithSeed(defaultSeed, key)
}

func hashWithSeed[K comparable](seed maphash.Seed, key K) uint64 {
	var mh maphash.Hash
	mh.SetSeed(seed)
	switch k := any(key).(type) {
	case string:
		mh.WriteString(k)
	case []byte:
		mh.Write(k)
	default:
		// Scalars and fixed-size structs: hash the raw bytes of the
		// key's in-memory representation. Safe for read-only hashing
		// the same way the teacher's shard.hash relies on it.
		ptr := unsafe.Pointer(&key)
		size := unsafe.Sizeof(key)
		mh.Write(unsafe.Slice((*byte)(ptr), size))
	}
	return mh.Sum64()
}

package nbhm

import "github.com/Voskan/nbhm/internal/defaulthasher"

// Hasher is the external hashing collaborator the spec treats as
// out-of-scope ("any keyed finalizing hash", §1). It is a generic
// parameter on Map rather than an interface value so the compiler
// monomorphizes the call site (spec §9: "dynamic dispatch avoided").
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// DefaultHasher is the zero-size hasher New uses when the caller does not
// name one of their own via NewWithHasher/WithHasher. Go has no default
// type parameters, so this exists to give New a concrete H to fix without
// asking every caller to spell one out.
//
// Its Hash method is backed by a single process-wide hash/maphash seed
// (internal/defaulthasher's package-level default) rather than a
// per-instance one, the one place this port trades the teacher's
// per-Cache seed for a zero-size, default-constructible type — every
// DefaultHasher[K] value, however obtained, hashes identically, which is
// exactly what lets it be a bare struct{} instead of a pointer.
type DefaultHasher[K comparable] struct{}

func (DefaultHasher[K]) Hash(key K) uint64 { return defaulthasher.Default[K](key) }

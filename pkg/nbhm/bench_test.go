// Package nbhm micro-benchmarks. Run via:
//   go test ./pkg/nbhm -bench=. -benchmem -cpu 1,4,16
//
// Same shape as the teacher's bench/bench_test.go: a uint64 key (cheap
// hashing) and a 64-byte value struct, single dataset reused across
// benchmarks.
//
// © 2025 nbhm authors. MIT License.
package nbhm

import (
	"math/rand"
	"testing"
)

type value64 struct {
	_ [64]byte
}

const benchKeys = 1 << 16

var benchDataset = func() []uint64 {
	arr := make([]uint64, benchKeys)
	r := rand.New(rand.NewSource(42))
	for i := range arr {
		arr[i] = r.Uint64()
	}
	return arr
}()

func BenchmarkInsert(b *testing.B) {
	m := New[uint64, value64]()
	ref := m.Pin()
	defer ref.Close()
	val := value64{}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref.Insert(benchDataset[i&(benchKeys-1)], val)
	}
}

func BenchmarkGet(b *testing.B) {
	m := New[uint64, value64]()
	ref := m.Pin()
	val := value64{}
	for _, k := range benchDataset {
		ref.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref.Get(benchDataset[i&(benchKeys-1)])
	}
	ref.Close()
}

func BenchmarkGetParallel(b *testing.B) {
	m := New[uint64, value64]()
	val := value64{}
	warm := m.Pin()
	for _, k := range benchDataset {
		warm.Insert(k, val)
	}
	warm.Close()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ref := m.Pin()
		defer ref.Close()
		idx := rand.Intn(benchKeys)
		for pb.Next() {
			idx = (idx + 1) & (benchKeys - 1)
			ref.Get(benchDataset[idx])
		}
	})
}

func BenchmarkUpdate(b *testing.B) {
	m := New[uint64, int]()
	ref := m.Pin()
	defer ref.Close()
	for _, k := range benchDataset {
		ref.Insert(k, 0)
	}
	inc := func(old int, ok bool) int { return old + 1 }
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref.Update(benchDataset[i&(benchKeys-1)], inc)
	}
}

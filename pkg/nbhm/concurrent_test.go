package nbhm

// concurrent_test.go exercises the specification's concurrency
// properties: disjoint-partition correctness under T goroutines, and a
// forced-resize race between a filling writer and a concurrent reader.
// Run with -race to catch anything these tests would otherwise miss.

import (
	"math/rand"
	"sync"
	"testing"
)

func TestConcurrentDisjointPartitions(t *testing.T) {
	const threads = 16
	const perThread = 4096

	m := New[int, int]()
	var wg sync.WaitGroup
	wg.Add(threads)
	for t0 := 0; t0 < threads; t0++ {
		go func(base int) {
			defer wg.Done()
			ref := m.Pin()
			defer ref.Close()
			for i := 0; i < perThread; i++ {
				k := base*perThread + i
				ref.Insert(k, k+1)
				if v, ok := ref.Get(k); !ok || v != k+1 {
					panic("lost write within owning goroutine")
				}
			}
		}(t0)
	}
	wg.Wait()

	ref := m.Pin()
	defer ref.Close()
	for t0 := 0; t0 < threads; t0++ {
		for i := 0; i < perThread; i++ {
			k := t0*perThread + i
			v, ok := ref.Get(k)
			if !ok || v != k+1 {
				t.Fatalf("Get(%d) = %v, %v; want %d, true", k, v, ok, k+1)
			}
		}
	}
	if got := m.Len(); got != threads*perThread {
		t.Fatalf("Len() = %d, want %d", got, threads*perThread)
	}
}

func TestStressInsertGetRemoveInsertIter(t *testing.T) {
	const threads = 16
	const chunk = 16384

	m := New[int, int]()
	var wg sync.WaitGroup
	wg.Add(threads)
	for t0 := 0; t0 < threads; t0++ {
		go func(base int) {
			defer wg.Done()
			ref := m.Pin()
			defer ref.Close()
			for i := 0; i < chunk; i++ {
				k := base*chunk + i
				ref.Insert(k, k+1)
				if v, ok := ref.Get(k); !ok || v != k+1 {
					panic("insert->get mismatch")
				}
				ref.Remove(k)
				if _, ok := ref.Get(k); ok {
					panic("remove left key visible")
				}
				ref.Insert(k, k+1)
				if v, ok := ref.Get(k); !ok || v != k+1 {
					panic("re-insert->get mismatch")
				}
			}
		}(t0)
	}
	wg.Wait()

	ref := m.Pin()
	defer ref.Close()
	seen := make(map[int]int, threads*chunk)
	for k, v := range ref.Iter() {
		seen[k] = v
	}
	if len(seen) != threads*chunk {
		t.Fatalf("iter yielded %d keys, want %d", len(seen), threads*chunk)
	}
	for k, v := range seen {
		if v != k+1 {
			t.Fatalf("iter[%d] = %d, want %d", k, v, k+1)
		}
	}
}

func TestForcedResizeRace(t *testing.T) {
	const n = 20_000
	m := New[int, int](WithCapacity[int, int, DefaultHasher[int]](16))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ref := m.Pin()
		defer ref.Close()
		for i := 0; i < n; i++ {
			ref.Insert(i, i)
		}
	}()

	go func() {
		defer wg.Done()
		ref := m.Pin()
		defer ref.Close()
		r := rand.New(rand.NewSource(1))
		for i := 0; i < n; i++ {
			k := r.Intn(n)
			if v, ok := ref.Get(k); ok && v != k {
				panic("corrupted value observed under resize race")
			}
		}
	}()

	wg.Wait()
}

func TestZipfInsertNoPanics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Zipf stress in -short mode")
	}
	const draws = 1_000_000
	m := New[uint64, struct{}]()
	ref := m.Pin()
	defer ref.Close()

	r := rand.New(rand.NewSource(7))
	zipf := rand.NewZipf(r, 1.08, 1, 1<<20)

	distinct := make(map[uint64]struct{})
	for i := 0; i < draws; i++ {
		k := zipf.Uint64()
		distinct[k] = struct{}{}
		ref.Insert(k, struct{}{})
	}
	if m.Len() > len(distinct) {
		t.Fatalf("Len() = %d exceeds distinct key count %d", m.Len(), len(distinct))
	}
}

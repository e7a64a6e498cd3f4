package gentable

import "testing"

func TestNewRoundsUpToPowerOfTwoAndGroupSize(t *testing.T) {
	g := New[string, int](10, 0)
	if g.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", g.Len())
	}
	g = New[string, int](100, 0)
	if g.Len() != 128 {
		t.Fatalf("Len() = %d, want 128", g.Len())
	}
}

func TestInsertGetRemoveRoundTrip(t *testing.T) {
	g := New[string, int](16, 0)
	key, val, keyHash := "hello", 99, uint64(0xabc123)
	loc := g.Locate(keyHash, key)
	if loc.Outcome != Miss || !loc.HasCandidate {
		t.Fatalf("expected Miss with candidate on empty generation, got %+v", loc)
	}
	entry := NewEntry(key, val, keyHash)
	if !g.InstallCandidate(loc, entry) {
		t.Fatalf("InstallCandidate failed")
	}

	loc = g.Locate(keyHash, key)
	if loc.Outcome != Hit || loc.Entry.Value != val {
		t.Fatalf("expected Hit with value %d, got %+v", val, loc)
	}

	if !g.MarkTombstone(loc) {
		t.Fatalf("MarkTombstone failed")
	}
	loc = g.Locate(keyHash, key)
	if loc.Outcome != Miss {
		t.Fatalf("expected Miss after tombstone, got %+v", loc)
	}
	if !loc.HasCandidate {
		t.Fatalf("tombstone slot should be reusable as an insert candidate")
	}
}

func TestLocateFillsEveryGroup(t *testing.T) {
	g := New[int, int](16, 0)
	for i := 0; i < 16; i++ {
		loc := g.Locate(uint64(i), i)
		if loc.Outcome != Miss || !loc.HasCandidate {
			t.Fatalf("key %d: expected Miss/candidate, got %+v", i, loc)
		}
		entry := NewEntry(i, i*10, uint64(i))
		if !g.InstallCandidate(loc, entry) {
			t.Fatalf("key %d: InstallCandidate failed", i)
		}
	}
	for i := 0; i < 16; i++ {
		loc := g.Locate(uint64(i), i)
		if loc.Outcome != Hit || loc.Entry.Value != i*10 {
			t.Fatalf("key %d: expected Hit value %d, got %+v", i, i*10, loc)
		}
	}
	// table is now full: the 17th distinct key must report Exhausted.
	loc := g.Locate(uint64(16), 16)
	if loc.Outcome != Exhausted {
		t.Fatalf("expected Exhausted on a full generation, got %+v", loc)
	}
}

package gentable

import (
	"testing"

	"github.com/Voskan/nbhm/internal/slot"
)

func TestCopySlotMigratesLiveEntry(t *testing.T) {
	src := New[string, int](16, 0)
	dst := New[string, int](32, 1)

	loc := src.Locate(55, "k")
	entry := NewEntry("k", 7, 55)
	if !src.InstallCandidate(loc, entry) {
		t.Fatalf("InstallCandidate failed")
	}

	src.CopySlot(0, dst)
	for i := uint64(1); i < 16; i++ {
		src.CopySlot(i, dst)
	}

	dloc := dst.Locate(55, "k")
	if dloc.Outcome != Hit || dloc.Entry.Value != 7 {
		t.Fatalf("expected migrated entry to be a Hit in dst, got %+v", dloc)
	}

	sloc := src.Locate(55, "k")
	if sloc.Outcome != Follow {
		t.Fatalf("expected Follow from a fully-copied source generation, got %+v", sloc)
	}

	if !src.Done() {
		t.Fatalf("every slot was visited by CopySlot, expected Done() == true")
	}
	tag, _, _ := src.slots[0].LoadObserved()
	if tag != slot.Copied {
		t.Fatalf("migrated slot's tag = %v, want Copied (stuck at Locked means CASCopied never actually applied)", tag)
	}
}

func TestClaimChunkExhausts(t *testing.T) {
	g := New[int, int](16, 0)
	var total uint64
	for {
		start, end, ok := g.ClaimChunk()
		if !ok {
			break
		}
		total += end - start
	}
	if total != uint64(g.Len()) {
		t.Fatalf("claimed %d slots total, want %d", total, g.Len())
	}
}

func TestGrowLenDoubles(t *testing.T) {
	g := New[int, int](16, 0)
	if g.GrowLen() != 32 {
		t.Fatalf("GrowLen() = %d, want 32", g.GrowLen())
	}
}

func TestNeedsGrow(t *testing.T) {
	g := New[int, int](16, 0)
	if g.NeedsGrow(11) {
		t.Fatalf("11/16 should be below the 0.75 threshold")
	}
	if !g.NeedsGrow(12) {
		t.Fatalf("12/16 should meet the 0.75 threshold")
	}
}

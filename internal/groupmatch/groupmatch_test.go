package groupmatch

import "testing"

func TestMatchByte(t *testing.T) {
	g := Group{defaultEmptyWord(), defaultEmptyWord()}
	g = setByte(g, 3, 0x42)
	g = setByte(g, 9, 0x42)

	var got []int
	it := MatchByte(g, 0x42)
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, idx)
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Fatalf("MatchByte = %v, want [3 9]", got)
	}
}

func TestAnyEmpty(t *testing.T) {
	full := Group{0, 0}
	full = setByte(full, 0, 0x01)
	for i := 1; i < GroupSize; i++ {
		full = setByte(full, i, byte(i))
	}
	if AnyEmpty(full) {
		t.Fatalf("AnyEmpty should be false when every byte is non-empty")
	}

	g := Group{defaultEmptyWord(), defaultEmptyWord()}
	if !AnyEmpty(g) {
		t.Fatalf("AnyEmpty should be true for an all-empty group")
	}
}

func TestFirstEmpty(t *testing.T) {
	g := Group{defaultEmptyWord(), defaultEmptyWord()}
	g = setByte(g, 5, 0x10)
	idx, ok := FirstEmpty(g)
	if !ok || idx != 0 {
		t.Fatalf("FirstEmpty = %d, %v; want 0, true", idx, ok)
	}
}

func TestByteAt(t *testing.T) {
	g := Group{defaultEmptyWord(), defaultEmptyWord()}
	g = setByte(g, 0, 0x11)
	g = setByte(g, 8, 0x22)
	g = setByte(g, 15, 0x33)
	if ByteAt(g, 0) != 0x11 {
		t.Fatalf("ByteAt(0) = %x, want 0x11", ByteAt(g, 0))
	}
	if ByteAt(g, 8) != 0x22 {
		t.Fatalf("ByteAt(8) = %x, want 0x22", ByteAt(g, 8))
	}
	if ByteAt(g, 15) != 0x33 {
		t.Fatalf("ByteAt(15) = %x, want 0x33", ByteAt(g, 15))
	}
}

func defaultEmptyWord() uint64 { return hiBytes }

func setByte(g Group, idx int, b byte) Group {
	word, shift := 0, (idx&7)*8
	if idx >= 8 {
		word = 1
	}
	mask := uint64(0xff) << shift
	g[word] = (g[word] &^ mask) | (uint64(b) << shift)
	return g
}

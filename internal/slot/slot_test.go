package slot

import "testing"

func TestSlotEmptyByDefault(t *testing.T) {
	var s Slot[string, int]
	tag, entry, empty := s.Load()
	if !empty || entry != nil {
		t.Fatalf("zero-value slot should be empty, got tag=%v entry=%v empty=%v", tag, entry, empty)
	}
}

func TestSlotCASLiveFromEmpty(t *testing.T) {
	var s Slot[string, int]
	_, _, obs := s.LoadObserved()
	if !obs.IsNil() {
		t.Fatalf("fresh slot's observed state should be nil")
	}
	e := NewEntry("k", 42, 7)
	if !s.CASLive(obs, e) {
		t.Fatalf("CASLive from empty should succeed")
	}
	tag, got, empty := s.Load()
	if empty || tag != Live || got.Value != 42 {
		t.Fatalf("after CASLive: tag=%v got=%v empty=%v", tag, got, empty)
	}
}

func TestSlotCASLiveStaleObservedFails(t *testing.T) {
	var s Slot[string, int]
	_, _, obs := s.LoadObserved()
	s.CASLive(obs, NewEntry("k", 1, 1))

	// obs is now stale; a second CAS against it must fail.
	if s.CASLive(obs, NewEntry("k", 2, 1)) {
		t.Fatalf("CASLive against a stale Observed should fail")
	}
}

func TestSlotLifecycleTransitions(t *testing.T) {
	var s Slot[string, int]
	_, _, obs := s.LoadObserved()
	e := NewEntry("k", 1, 1)
	if !s.CASLive(obs, e) {
		t.Fatalf("CASLive failed")
	}

	_, _, obs = s.LoadObserved()
	if !s.CASLocked(obs, e) {
		t.Fatalf("CASLocked failed")
	}
	tag, got, _ := s.Load()
	if tag != Locked || got != e {
		t.Fatalf("after CASLocked: tag=%v got=%v", tag, got)
	}

	_, _, obs = s.LoadObserved()
	if !s.CASCopied(obs) {
		t.Fatalf("CASCopied failed")
	}
	tag, _, _ = s.Load()
	if tag != Copied {
		t.Fatalf("after CASCopied: tag=%v, want Copied", tag)
	}
}

func TestSlotCASTombstone(t *testing.T) {
	var s Slot[string, int]
	_, _, obs := s.LoadObserved()
	s.CASLive(obs, NewEntry("k", 1, 1))

	_, _, obs = s.LoadObserved()
	if !s.CASTombstone(obs) {
		t.Fatalf("CASTombstone failed")
	}
	tag, entry, _ := s.Load()
	if tag != Tombstone || entry != nil {
		t.Fatalf("after CASTombstone: tag=%v entry=%v", tag, entry)
	}
}

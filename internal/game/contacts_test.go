package game

import "testing"

func TestContactSetDebounce(t *testing.T) {
	cs := NewContactSet()

	if !cs.Begin("cue", "target-1") {
		t.Fatal("first begin should be new")
	}
	if cs.Begin("cue", "target-1") {
		t.Error("repeated begin should be ignored")
	}
	if cs.Begin("target-1", "cue") {
		t.Error("begin with swapped ids should be ignored")
	}
	if cs.Len() != 1 {
		t.Errorf("Len = %d, want 1", cs.Len())
	}

	cs.End("target-1", "cue")
	if cs.Touching("cue", "target-1") {
		t.Error("pair still touching after end")
	}
	if !cs.Begin("cue", "target-1") {
		t.Error("begin after end should be new again")
	}
}

func TestContactSetEndUnknownPair(t *testing.T) {
	cs := NewContactSet()
	cs.End("cue", "wall-posx")
	cs.End("cue", "wall-posx")
	if cs.Len() != 0 {
		t.Errorf("Len = %d, want 0", cs.Len())
	}
}

func TestContactSetForget(t *testing.T) {
	cs := NewContactSet()
	cs.Begin("cue", "target-1")
	cs.Begin("target-1", "wall-posx")
	cs.Begin("cue", "wall-negz")

	cs.Forget("target-1")

	if cs.Touching("cue", "target-1") || cs.Touching("wall-posx", "target-1") {
		t.Error("forgotten body still has contacts")
	}
	if !cs.Touching("wall-negz", "cue") {
		t.Error("unrelated pair was dropped")
	}
	if cs.Len() != 1 {
		t.Errorf("Len = %d, want 1", cs.Len())
	}

	cs.Clear()
	if cs.Len() != 0 {
		t.Errorf("Len after Clear = %d", cs.Len())
	}
}

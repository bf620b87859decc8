package krill

import (
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LANE ALLOCATION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestLaneTable_LowestFree(t *testing.T) {
	lt := NewLaneTable()

	for i, class := range []ClassID{7, 3, 200} {
		lane, ok := lt.Acquire(class)
		if !ok || lane != i {
			t.Errorf("Acquire(%d) = %d, %v; want %d, true", class, lane, ok, i)
		}
	}
	if got := lt.Free(); got != LaneCount-3 {
		t.Errorf("Free() = %d, want %d", got, LaneCount-3)
	}
}

func TestLaneTable_SameClassSameLane(t *testing.T) {
	lt := NewLaneTable()
	first, _ := lt.Acquire(5)
	lt.Acquire(6)
	again, _ := lt.Acquire(5)
	if first != again {
		t.Errorf("class 5 moved from lane %d to lane %d", first, again)
	}
}

func TestLaneTable_ReuseAfterRelease(t *testing.T) {
	lt := NewLaneTable()
	lt.Acquire(1) // lane 0
	lt.Acquire(2) // lane 1
	lt.Release(1)

	lane, _ := lt.Acquire(3)
	if lane != 0 {
		t.Errorf("Acquire(3) = %d, want freed lane 0", lane)
	}
	if _, ok := lt.Lane(1); ok {
		t.Error("class 1 still mapped after Release")
	}
}

func TestLaneTable_Exhausted(t *testing.T) {
	lt := NewLaneTable()
	for class := ClassID(0); class < LaneCount; class++ {
		lt.Acquire(class)
	}
	if lt.Exhausted() {
		t.Fatal("Exhausted() = true with exactly LaneCount classes")
	}

	lane, ok := lt.Acquire(100)
	if ok || lane != 0 {
		t.Errorf("Acquire on a full table = %d, %v; want 0, false", lane, ok)
	}
	if !lt.Exhausted() {
		t.Error("Exhausted() = false after borrowing")
	}

	// The borrower frees nothing; the owner of lane 0 still holds it.
	lt.Release(100)
	if got := lt.Free(); got != 0 {
		t.Errorf("Free() = %d after releasing a borrowed lane, want 0", got)
	}
	lt.Release(0)
	if got := lt.Free(); got != 1 {
		t.Errorf("Free() = %d after releasing lane 0, want 1", got)
	}
}

func TestLaneTable_ReleaseUnknown(t *testing.T) {
	lt := NewLaneTable()
	lt.Release(9)
	if got := lt.Free(); got != LaneCount {
		t.Errorf("Free() = %d, want %d", got, LaneCount)
	}
}

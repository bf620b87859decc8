package krill

import (
	"github.com/bits-and-blooms/bitset"
)

// LaneCount is the number of visual lanes the markup renderer can assign to
// concurrently open highlight classes.
const LaneCount = 16

// ═══════════════════════════════════════════════════════════════════════════════
// LANES: Telling Overlapping Highlights Apart
// ═══════════════════════════════════════════════════════════════════════════════
// Each open highlight class gets the lowest free lane ("level" in the markup).
// A class keeps its lane across the non-terminal splits of a crossing, and
// gives it back on its terminal close:
//
//	open 1       → lane 0          free: 1 2 3 ...
//	open 2       → lane 1          free: 2 3 ...
//	split 1      → lane 0 kept
//	reopen 1     → lane 0 again
//	close 1 (t)  → lane 0 freed    free: 0 2 3 ...
//	open 3       → lane 0
//
// Class numbers go up to 255, lanes only to 16. A class opened while every
// lane is taken BORROWS lane 0: it renders with level 0 but does not own it,
// so its close frees nothing.
// ═══════════════════════════════════════════════════════════════════════════════

// LaneTable allocates lanes for highlight classes.
type LaneTable struct {
	free      *bitset.BitSet
	lanes     map[ClassID]int
	borrowed  map[ClassID]bool
	exhausted bool
}

// NewLaneTable returns a table with all lanes free.
func NewLaneTable() *LaneTable {
	free := bitset.New(LaneCount)
	free.FlipRange(0, LaneCount)
	return &LaneTable{
		free:     free,
		lanes:    make(map[ClassID]int),
		borrowed: make(map[ClassID]bool),
	}
}

// Acquire returns the lane of class, allocating the lowest free one on first
// use. ok is false when the pool was exhausted and lane 0 was borrowed.
func (lt *LaneTable) Acquire(class ClassID) (lane int, ok bool) {
	if lane, mapped := lt.lanes[class]; mapped {
		return lane, !lt.borrowed[class]
	}
	next, found := lt.free.NextSet(0)
	if !found {
		lt.exhausted = true
		lt.lanes[class] = 0
		lt.borrowed[class] = true
		return 0, false
	}
	lt.free.Clear(next)
	lt.lanes[class] = int(next)
	return int(next), true
}

// Lane returns the lane currently mapped to class.
func (lt *LaneTable) Lane(class ClassID) (int, bool) {
	lane, ok := lt.lanes[class]
	return lane, ok
}

// Release gives the lane of class back to the pool.
func (lt *LaneTable) Release(class ClassID) {
	lane, ok := lt.lanes[class]
	if !ok {
		return
	}
	delete(lt.lanes, class)
	if lt.borrowed[class] {
		delete(lt.borrowed, class)
		return
	}
	lt.free.Set(uint(lane))
}

// Free returns the number of unallocated lanes.
func (lt *LaneTable) Free() int {
	return int(lt.free.Count())
}

// Exhausted reports whether any class had to borrow a lane.
func (lt *LaneTable) Exhausted() bool { return lt.exhausted }

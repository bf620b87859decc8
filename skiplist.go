package krill

import (
	"math"
	"math/rand"
)

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING LISTS AS SKIP LISTS
// ═══════════════════════════════════════════════════════════════════════════════
// Every term of a segment keeps its occurrences in a skip list, ordered by
// (document, position). Each occurrence carries the term's PAYLOAD: the
// character offsets of a token, or the extent of a span.
//
// VISUAL REPRESENTATION:
// ----------------------
//
//	Level 2: HEAD ---------------------------> [2:0] -------------------> nil
//	Level 1: HEAD ----------> [1:3] ---------> [2:0] ---------> [2:7] --> nil
//	Level 0: HEAD --> [1:0] -> [1:3] -> [1:5] -> [2:0] -> [2:4] -> [2:7] -> nil
//	                   │
//	                   └─ payload: 00 00 00 00 00 00 00 03  ("The" at [0, 3))
//
// SEEK EXAMPLE (first occurrence in document 2):
// -----------------------------------------------
//  1. Start at HEAD, level 2: [2:0] is not before 2:MinInt, drop down
//  2. Level 1: [1:3] is before, advance; [2:0] is not, drop down
//  3. Level 0: [1:5] is before, advance; [2:0] is not, stop
//  4. The successor of the last node visited is the answer: [2:0]
//
// Seek is all a snippet needs: position lookups and span scans both start
// at "the first occurrence at or after (doc, pos)".
// ═══════════════════════════════════════════════════════════════════════════════

const MaxHeight = 32 // Maximum tower height

// Position identifies an occurrence: a token position in a document.
//
// Ordering is by DocumentID, then Offset:
//
//	1:5 < 1:10 < 2:0 < 2:3
type Position struct {
	DocumentID int
	Offset     int
}

// MinOffset and MaxOffset bound the offsets of a document, so that
// Position{doc, MinOffset} sorts before and Position{doc, MaxOffset} after
// every occurrence in doc.
const (
	MinOffset = math.MinInt
	MaxOffset = math.MaxInt
)

// IsBefore checks if this position comes before another position
func (p Position) IsBefore(other Position) bool {
	if p.DocumentID != other.DocumentID {
		return p.DocumentID < other.DocumentID
	}
	return p.Offset < other.Offset
}

// Node is one occurrence with its forward pointers.
type Node struct {
	Key     Position
	Payload []byte
	Tower   [MaxHeight]*Node
}

// PostingList is a skip list of occurrences.
type PostingList struct {
	Head   *Node // Sentinel head node (doesn't contain real data)
	Height int   // Current height of the tallest tower
	length int
	rng    *rand.Rand
}

// NewPostingList creates an empty posting list.
func NewPostingList() *PostingList {
	return &PostingList{
		Head:   &Node{},
		Height: 1,
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
}

// Len returns the number of occurrences.
func (pl *PostingList) Len() int { return pl.length }

// search returns the node with key, if any, and the predecessor of key at
// every level.
func (pl *PostingList) search(key Position) (*Node, [MaxHeight]*Node) {
	var journey [MaxHeight]*Node
	current := pl.Head

	for level := pl.Height - 1; level >= 0; level-- {
		for next := current.Tower[level]; next != nil && next.Key.IsBefore(key); next = current.Tower[level] {
			current = next
		}
		journey[level] = current
	}

	next := current.Tower[0]
	if next != nil && next.Key == key {
		return next, journey
	}
	return nil, journey
}

// Insert stores key with payload. Inserting an existing key replaces its
// payload.
//
// Example:
//
//	pl.Insert(Position{1, 3}, EncodeOffsetPayload(12, 17))
func (pl *PostingList) Insert(key Position, payload []byte) {
	found, journey := pl.search(key)
	if found != nil {
		found.Payload = payload
		return
	}

	height := pl.randomHeight()
	node := &Node{Key: key, Payload: payload}
	for level := 0; level < height; level++ {
		predecessor := journey[level]
		if predecessor == nil {
			predecessor = pl.Head
		}
		node.Tower[level] = predecessor.Tower[level]
		predecessor.Tower[level] = node
	}
	if height > pl.Height {
		pl.Height = height
	}
	pl.length++
}

// Find returns the payload stored at key.
func (pl *PostingList) Find(key Position) ([]byte, bool) {
	found, _ := pl.search(key)
	if found == nil {
		return nil, false
	}
	return found.Payload, true
}

// Seek returns the first node whose key is not before target, or nil.
func (pl *PostingList) Seek(target Position) *Node {
	_, journey := pl.search(target)
	return journey[0].Tower[0]
}

// randomHeight flips coins: each extra level has probability 1/2.
func (pl *PostingList) randomHeight() int {
	height := 1
	for pl.rng.Float64() < 0.5 && height < MaxHeight {
		height++
	}
	return height
}

// Iterator walks a posting list in key order.
//
// Example:
//
//	for it := pl.Iterator(); it.Next(); {
//	    fmt.Println(it.Key())
//	}
type Iterator struct {
	next    *Node
	current *Node
}

// Iterator returns an iterator positioned before the first occurrence.
func (pl *PostingList) Iterator() *Iterator {
	return &Iterator{next: pl.Head.Tower[0]}
}

// IteratorFrom returns an iterator positioned before the first occurrence
// that is not before target.
func (pl *PostingList) IteratorFrom(target Position) *Iterator {
	return &Iterator{next: pl.Seek(target)}
}

// Next advances the iterator and reports whether an occurrence is available.
func (it *Iterator) Next() bool {
	if it.next == nil {
		it.current = nil
		return false
	}
	it.current, it.next = it.next, it.next.Tower[0]
	return true
}

// Key returns the current occurrence.
func (it *Iterator) Key() Position { return it.current.Key }

// Payload returns the payload of the current occurrence.
func (it *Iterator) Payload() []byte { return it.current.Payload }

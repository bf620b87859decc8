package krill

import (
	"log/slog"
)

// ═══════════════════════════════════════════════════════════════════════════════
// THE COMBINATOR: Well-Nested Output from Crossing Intervals
// ═══════════════════════════════════════════════════════════════════════════════
// Annotation layers are independent, so their intervals CROSS:
//
//	text:  t h e   q u i c k   b r o w n
//	A:         [-------)                      A = [2, 6)
//	B:                 [---------)            B = [4, 9)
//
// Markup cannot express that. The combinator keeps a stack of open classes;
// when a close event targets a class that is not on top, every class above
// it is closed NON-TERMINALLY, the target is closed, and the interrupted
// classes are reopened right away:
//
//	open A   → {A:
//	open B   →        {B:
//	close A  → B is on top: close B (non-terminal), close A, reopen B
//	close B  → close B
//
//	result:  {A:..{B:..}}{B:..}       B continues after the split
//
// Non-terminal closes tell the markup renderer to keep the class's lane, so
// the reopened run looks like the same highlight.
//
// An Open directly followed by its Close, with nothing in between, is
// removed instead of emitted.
// ═══════════════════════════════════════════════════════════════════════════════

// ItemKind tags a combinator item.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemOpen
	ItemClose
)

// Item is one element of the reconciled snippet.
//
// Terminal is false on a Close that only splits a crossing interval; the
// logical interval continues after the following reopen.
type Item struct {
	Kind     ItemKind
	Text     string
	Class    ClassID
	Terminal bool
}

type combinator struct {
	stack []ClassID
	items []Item
	stash []ClassID
	// index of the non-terminal Close preceding a reopen, per class
	split map[ClassID]int
}

func newCombinator() *combinator {
	return &combinator{split: make(map[ClassID]int)}
}

func (c *combinator) text(s string) {
	if s == "" {
		return
	}
	c.items = append(c.items, Item{Kind: ItemText, Text: s})
}

func (c *combinator) open(class ClassID) {
	c.items = append(c.items, Item{Kind: ItemOpen, Class: class, Terminal: true})
	c.stack = append(c.stack, class)
}

// dangling reports whether the last item is an Open of class.
func (c *combinator) dangling(class ClassID) bool {
	n := len(c.items)
	return n > 0 && c.items[n-1].Kind == ItemOpen && c.items[n-1].Class == class
}

// cancel drops the dangling Open of class. If that Open was a reopen, the
// split Close before it becomes the terminal one.
func (c *combinator) cancel(class ClassID) {
	c.items = c.items[:len(c.items)-1]
	if idx, ok := c.split[class]; ok {
		c.items[idx].Terminal = true
		delete(c.split, class)
	}
}

func (c *combinator) pop() ClassID {
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top
}

func (c *combinator) onStack(class ClassID) bool {
	for _, s := range c.stack {
		if s == class {
			return true
		}
	}
	return false
}

func (c *combinator) closeTerminal(class ClassID) {
	if c.dangling(class) {
		c.cancel(class)
		return
	}
	delete(c.split, class)
	c.items = append(c.items, Item{Kind: ItemClose, Class: class, Terminal: true})
}

func (c *combinator) close(class ClassID) {
	if !c.onStack(class) {
		slog.Debug("close without open", slog.Int("class", int(class)))
		return
	}

	top := c.pop()
	if top == class {
		c.closeTerminal(class)
		return
	}

	// Crossing: unwind down to class, remembering what was interrupted.
	c.stash = c.stash[:0]
	for {
		if top == class {
			c.closeTerminal(class)
			break
		}
		if c.dangling(top) {
			// Still reopened below, so any earlier split stays non-terminal.
			c.items = c.items[:len(c.items)-1]
		} else {
			c.items = append(c.items, Item{Kind: ItemClose, Class: top, Terminal: false})
			c.split[top] = len(c.items) - 1
		}
		c.stash = append(c.stash, top)
		top = c.pop()
	}

	// Reopen in original nesting order.
	for i := len(c.stash) - 1; i >= 0; i-- {
		c.open(c.stash[i])
	}
}

// finish closes everything still open.
func (c *combinator) finish() []Item {
	for len(c.stack) > 0 {
		c.closeTerminal(c.pop())
	}
	return c.items
}

// reconcile sweeps the events over text and returns the nested item list.
func reconcile(text []rune, events []Event) []Item {
	c := newCombinator()
	prev := 0
	for _, ev := range events {
		pos := clamp(ev.Pos, prev, len(text))
		c.text(string(text[prev:pos]))
		prev = pos
		if ev.Open {
			c.open(ev.Span.Class)
		} else {
			c.close(ev.Span.Class)
		}
	}
	c.text(string(text[prev:]))
	return c.finish()
}

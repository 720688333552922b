package listevent

import (
	"fmt"
	"strings"
)

// Iterator is the cursor contract shared by both delta stores.
type Iterator interface {
	// Next advances to the next block and reports whether there was one.
	Next() bool
	// HasNext reports whether Next would succeed.
	HasNext() bool
	// Block returns the current block, panicking with ErrNotPositioned when
	// the iterator is not on one.
	Block() ChangeBlock
	// Reset rewinds to before the first block.
	Reset()

	clone() Iterator
}

func collectBlocks(it Iterator) []ChangeBlock {
	var out []ChangeBlock
	for it.Next() {
		out = append(out, it.Block())
	}

	return out
}

type storeKind uint8

const (
	storeEmpty storeKind = iota
	storeLinear
	storeTree
	storeReorder
)

// String implements fmt.Stringer. The values are used as metric and log
// attributes.
func (k storeKind) String() string {
	switch k {
	case storeLinear:
		return "linear"
	case storeTree:
		return "tree"
	case storeReorder:
		return "reorder"
	default:
		return "empty"
	}
}

// frozenStore is the committed, read-only content of one transaction.
// Exactly one of blocks, tree or reorder is set, matching kind.
type frozenStore struct {
	kind    storeKind
	blocks  *BlockSequence
	tree    *DeltaTree
	reorder ReorderMap
	size    int
}

var emptyStore = &frozenStore{kind: storeEmpty}

func linearStore(seq *BlockSequence) *frozenStore {
	if seq.Len() == 0 {
		return emptyStore
	}

	return &frozenStore{kind: storeLinear, blocks: seq, size: seq.Len()}
}

func treeStore(t *DeltaTree) *frozenStore {
	n := len(t.Blocks())
	if n == 0 {
		return emptyStore
	}

	return &frozenStore{kind: storeTree, tree: t, size: n}
}

func reorderStore(m ReorderMap) *frozenStore {
	if len(m) == 0 {
		return emptyStore
	}

	return &frozenStore{kind: storeReorder, reorder: m}
}

func (s *frozenStore) iterator() Iterator {
	switch s.kind {
	case storeLinear:
		return s.blocks.Iterator()
	case storeTree:
		return s.tree.Iterator()
	default:
		return (&BlockSequence{}).Iterator()
	}
}

// Event is a committed change description. It is a forward-only cursor over
// a frozen store: blocks come out in ascending current-space order, and
// applying them one after another to the previous sequence produces the new
// one. Copy yields an independent cursor over the same store.
//
// A reordering event carries a ReorderMap and no blocks.
type Event struct {
	source any
	store  *frozenStore
	it     Iterator
	// shift is inserted minus deleted over the blocks already passed,
	// used to resolve previous-space indexes.
	shift     int
	lastShift int
}

func newEvent(source any, store *frozenStore) *Event {
	return &Event{source: source, store: store, it: store.iterator()}
}

// NewEvent builds a structural event from blocks for replaying recorded
// changes. The blocks are merged as if recorded in ascending order.
func NewEvent(source any, blocks []ChangeBlock) (*Event, error) {
	seq := NewBlockSequence()

	for _, b := range blocks {
		err := seq.Append(b.Start, b.Length, b.Kind)
		if err != nil {
			return nil, err
		}
	}

	return newEvent(source, linearStore(seq)), nil
}

// NewReorderEvent builds a reordering event from a permutation.
func NewReorderEvent(source any, m ReorderMap) (*Event, error) {
	err := m.Validate()
	if err != nil {
		return nil, err
	}

	return newEvent(source, reorderStore(m.Clone())), nil
}

// Source returns the object whose assembler published the event.
func (e *Event) Source() any {
	return e.source
}

// Next advances to the next block and reports whether there was one.
// It always returns false on a reordering event.
func (e *Event) Next() bool {
	if e.it.Next() {
		b := e.it.Block()
		e.shift += e.lastShift

		switch b.Kind {
		case Insert:
			e.lastShift = b.Length
		case Delete:
			e.lastShift = -b.Length
		default:
			e.lastShift = 0
		}

		return true
	}

	return false
}

// HasNext reports whether Next would succeed.
func (e *Event) HasNext() bool {
	return e.it.HasNext()
}

// Block returns the current block.
func (e *Event) Block() ChangeBlock {
	if e.store.kind == storeReorder {
		panic(ErrReordering)
	}

	return e.it.Block()
}

// Index returns the current-space start of the current block.
func (e *Event) Index() int {
	return e.Block().Start
}

// Length returns the element count of the current block.
func (e *Event) Length() int {
	return e.Block().Length
}

// Kind returns the kind of the current block.
func (e *Event) Kind() ChangeKind {
	return e.Block().Kind
}

// PreviousIndex returns the index in the pre-transaction sequence at which
// the current block starts. For an insertion this is the gap the new
// elements were placed into.
func (e *Event) PreviousIndex() int {
	return e.Block().Start - e.shift
}

// IsReordering reports whether the event is a pure permutation.
func (e *Event) IsReordering() bool {
	return e.store.kind == storeReorder
}

// ReorderMap returns a copy of the permutation of a reordering event.
func (e *Event) ReorderMap() (ReorderMap, error) {
	if e.store.kind != storeReorder {
		return nil, ErrNotReordering
	}

	return e.store.reorder.Clone(), nil
}

// IsEmpty reports whether the event carries no change at all.
func (e *Event) IsEmpty() bool {
	return e.store.kind == storeEmpty
}

// BlockCount returns the number of blocks in the event regardless of the
// cursor position.
func (e *Event) BlockCount() int {
	return e.store.size
}

// Blocks returns every block of the event without moving the cursor.
func (e *Event) Blocks() []ChangeBlock {
	if e.store.kind == storeReorder {
		return nil
	}

	return collectBlocks(e.store.iterator())
}

// Copy returns an independent cursor at the same position.
func (e *Event) Copy() *Event {
	c := *e
	c.it = e.it.clone()

	return &c
}

// Reset rewinds the cursor to before the first block.
func (e *Event) Reset() {
	e.it.Reset()
	e.shift, e.lastShift = 0, 0
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	if e.store.kind == storeReorder {
		return fmt.Sprintf("reorder%v", []int(e.store.reorder))
	}

	var sb strings.Builder

	sb.WriteString("event[")

	for i, b := range e.Blocks() {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(b.String())
	}

	sb.WriteByte(']')

	return sb.String()
}

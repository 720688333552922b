package listevent

import (
	"fmt"
	"math/rand/v2"
)

// deltaNode is one run of the implicit treap. Its current-space position is
// the total width of everything to its left; no index is stored.
type deltaNode struct {
	left, right *deltaNode
	kind        runKind
	count       int
	priority    uint32
	// curSize and prevSize are subtree totals in current and
	// pre-transaction space.
	curSize  int
	prevSize int
}

func (n *deltaNode) curWidth() int {
	return run{kind: n.kind, count: n.count}.width()
}

func (n *deltaNode) prevWidth() int {
	return run{kind: n.kind, count: n.count}.prevWidth()
}

func (n *deltaNode) recalc() {
	n.curSize = n.curWidth()
	n.prevSize = n.prevWidth()

	if n.left != nil {
		n.curSize += n.left.curSize
		n.prevSize += n.left.prevSize
	}

	if n.right != nil {
		n.curSize += n.right.curSize
		n.prevSize += n.right.prevSize
	}
}

func curSizeOf(n *deltaNode) int {
	if n == nil {
		return 0
	}

	return n.curSize
}

func prevSizeOf(n *deltaNode) int {
	if n == nil {
		return 0
	}

	return n.prevSize
}

// DeltaTree is the general delta store: an implicit treap of runs covering
// the sequence from index 0 up to the furthest change recorded so far.
// Untouched stretches are explicit nodes, so every mutation and every
// PreviousIndex query costs O(log n) expected.
type DeltaTree struct {
	root *deltaNode
	rng  *rand.PCG
}

// NewDeltaTree returns an empty tree.
func NewDeltaTree() *DeltaTree {
	return &DeltaTree{rng: rand.NewPCG(rand.Uint64(), rand.Uint64())}
}

func newDeltaTreeFromRuns(runs []run) *DeltaTree {
	t := NewDeltaTree()
	for _, r := range runs {
		t.root = t.merge(t.root, t.newNode(r))
	}

	return t
}

func (t *DeltaTree) newNode(r run) *deltaNode {
	return newNodeWithPriority(r, uint32(t.rng.Uint64()>>32))
}

func newNodeWithPriority(r run, priority uint32) *deltaNode {
	n := &deltaNode{kind: r.kind, count: r.count, priority: priority}
	n.recalc()

	return n
}

func (t *DeltaTree) merge(l, r *deltaNode) *deltaNode {
	if l == nil {
		return r
	}

	if r == nil {
		return l
	}

	if l.priority >= r.priority {
		l.right = t.merge(l.right, r)
		l.recalc()

		return l
	}

	r.left = t.merge(l, r.left)
	r.recalc()

	return r
}

// split cuts the tree at current position pos. Zero-width deletion nodes at
// pos go left when zeroLeft is set.
func (t *DeltaTree) split(n *deltaNode, pos int, zeroLeft bool) (left, right *deltaNode) {
	if n == nil {
		return nil, nil
	}

	leftSize := curSizeOf(n.left)
	width := n.curWidth()

	switch {
	case pos < leftSize || (pos == leftSize && (width > 0 || !zeroLeft)):
		l, r := t.split(n.left, pos, zeroLeft)
		n.left = r
		n.recalc()

		return l, n
	case pos >= leftSize+width:
		l, r := t.split(n.right, pos-leftSize-width, zeroLeft)
		n.right = l
		n.recalc()

		return n, r
	default:
		// pos falls strictly inside this run. Both halves keep the priority
		// of the run so the heap order of the ancestors still holds.
		leftPart := newNodeWithPriority(run{kind: n.kind, count: pos - leftSize}, n.priority)
		rightPart := newNodeWithPriority(run{kind: n.kind, count: leftSize + width - pos}, n.priority)

		return t.merge(n.left, leftPart), t.merge(rightPart, n.right)
	}
}

func popFirst(n *deltaNode) (first, rest *deltaNode) {
	if n == nil {
		return nil, nil
	}

	if n.left == nil {
		rest = n.right
		n.right = nil
		n.recalc()

		return n, rest
	}

	first, n.left = popFirst(n.left)
	n.recalc()

	return first, n
}

func popLast(n *deltaNode) (rest, last *deltaNode) {
	if n == nil {
		return nil, nil
	}

	if n.right == nil {
		rest = n.left
		n.left = nil
		n.recalc()

		return rest, n
	}

	n.right, last = popLast(n.right)
	n.recalc()

	return n, last
}

// Len returns the current-space extent covered by the tree.
func (t *DeltaTree) Len() int {
	return curSizeOf(t.root)
}

// RecordInsert records one inserted element at index.
func (t *DeltaTree) RecordInsert(index int) {
	t.mustRecord(Insert, index)
}

// RecordDelete records one deleted element at index.
func (t *DeltaTree) RecordDelete(index int) {
	t.mustRecord(Delete, index)
}

// RecordUpdate records one updated element at index.
func (t *DeltaTree) RecordUpdate(index int) {
	t.mustRecord(Update, index)
}

func (t *DeltaTree) mustRecord(kind ChangeKind, index int) {
	err := t.Record(kind, index, 1)
	if err != nil {
		panic(err)
	}
}

// Record applies a change of length elements at a current-space index.
func (t *DeltaTree) Record(kind ChangeKind, index, length int) error {
	err := checkChange(kind, index, length)
	if err != nil {
		return err
	}

	width := length
	if kind == Insert {
		width = 0
	}

	if extent := curSizeOf(t.root); extent < index+width {
		t.appendRun(run{kind: runKeep, count: index + width - extent})
	}

	before, rest := t.split(t.root, index, false)
	mid, after := t.split(rest, width, true)

	before, leftEdge := popLast(before)
	rightEdge, after := popFirst(after)

	runs := make([]run, 0, 8)
	q := 0

	if leftEdge != nil {
		runs = append(runs, run{kind: leftEdge.kind, count: leftEdge.count})
		q = leftEdge.curWidth()
	}

	runs = t.collect(mid, runs)

	if rightEdge != nil {
		runs = append(runs, run{kind: rightEdge.kind, count: rightEdge.count})
	}

	runs = applyChange(runs, kind, q, length)
	runs, before = t.absorbSeam(before, runs, true)
	runs, after = t.absorbSeam(after, runs, false)

	var window *deltaNode
	for _, r := range runs {
		window = t.merge(window, t.newNode(r))
	}

	t.root = t.merge(before, t.merge(window, after))

	return nil
}

// absorbSeam folds the neighbouring node of a rebuilt window into it when
// both ends have the same kind. Changes inside the window can only alter the
// window itself, so a single node on each side is enough.
func (t *DeltaTree) absorbSeam(side *deltaNode, runs []run, leftSide bool) ([]run, *deltaNode) {
	if side == nil || len(runs) == 0 {
		return runs, side
	}

	if leftSide {
		rest, last := popLast(side)
		if last.kind != runs[0].kind {
			return runs, t.merge(rest, last)
		}

		return normalizeRuns(append([]run{{kind: last.kind, count: last.count}}, runs...)), rest
	}

	first, rest := popFirst(side)
	if first.kind != runs[len(runs)-1].kind && (runs[len(runs)-1].kind != runDelete || first.kind != runInsert) {
		return runs, t.merge(first, rest)
	}

	return normalizeRuns(append(runs, run{kind: first.kind, count: first.count})), rest
}

func (t *DeltaTree) appendRun(r run) {
	rest, last := popLast(t.root)
	if last != nil && last.kind == r.kind {
		r.count += last.count
		last = nil
	}

	t.root = t.merge(t.merge(rest, last), t.newNode(r))
}

func (t *DeltaTree) collect(n *deltaNode, runs []run) []run {
	if n == nil {
		return runs
	}

	runs = t.collect(n.left, runs)
	runs = append(runs, run{kind: n.kind, count: n.count})

	return t.collect(n.right, runs)
}

func (t *DeltaTree) runs() []run {
	return t.collect(t.root, nil)
}

// PreviousIndex maps a current-space index to its pre-transaction index.
// It returns -1 for an element inserted in this transaction. Indexes past the
// explicit extent are untouched elements and map by the net size change.
func (t *DeltaTree) PreviousIndex(current int) int {
	if current < 0 {
		return -1
	}

	if current >= curSizeOf(t.root) {
		return current - curSizeOf(t.root) + prevSizeOf(t.root)
	}

	prev := 0
	n := t.root

	for n != nil {
		leftSize := curSizeOf(n.left)
		width := n.curWidth()

		switch {
		case current < leftSize:
			n = n.left
		case current < leftSize+width:
			if n.kind == runInsert {
				return -1
			}

			return prev + prevSizeOf(n.left) + current - leftSize
		default:
			prev += prevSizeOf(n.left) + n.prevWidth()
			current -= leftSize + width
			n = n.right
		}
	}

	return -1
}

// Iterator returns a cursor over the changed stretches of the tree.
func (t *DeltaTree) Iterator() *TreeIterator {
	it := &TreeIterator{root: t.root}
	it.Reset()

	return it
}

// Blocks collects every change block in ascending order.
func (t *DeltaTree) Blocks() []ChangeBlock {
	return collectBlocks(t.Iterator())
}

// Validate panics if the internal invariants do not hold.
func (t *DeltaTree) Validate() {
	var prev *deltaNode

	t.validate(t.root, &prev)
}

func (t *DeltaTree) validate(n *deltaNode, prev **deltaNode) {
	if n == nil {
		return
	}

	t.validate(n.left, prev)

	if n.count <= 0 {
		panic(fmt.Sprintf("node with count %d", n.count))
	}

	if n.left != nil && n.left.priority > n.priority || n.right != nil && n.right.priority > n.priority {
		panic("heap order violated")
	}

	cur, prv := curSizeOf(n.left)+curSizeOf(n.right)+n.curWidth(), prevSizeOf(n.left)+prevSizeOf(n.right)+n.prevWidth()
	if n.curSize != cur || n.prevSize != prv {
		panic(fmt.Sprintf("sizes %d/%d, want %d/%d", n.curSize, n.prevSize, cur, prv))
	}

	if p := *prev; p != nil {
		if p.kind == n.kind {
			panic(fmt.Sprintf("adjacent runs of kind %d", n.kind))
		}

		if p.kind == runDelete && n.kind == runInsert {
			panic("deletion followed by insertion not netted")
		}
	}

	*prev = n

	t.validate(n.right, prev)
}

// TreeIterator walks a DeltaTree in ascending current-index order, skipping
// untouched runs.
type TreeIterator struct {
	root    *deltaNode
	stack   []*deltaNode
	offset  int
	cur     ChangeBlock
	has     bool
	pending ChangeBlock
	ready   bool
}

// Next advances to the next block and reports whether there was one.
func (it *TreeIterator) Next() bool {
	if !it.ready {
		it.has = false

		return false
	}

	it.cur, it.has = it.pending, true
	it.advance()

	return true
}

// HasNext reports whether Next would succeed.
func (it *TreeIterator) HasNext() bool {
	return it.ready
}

// Block returns the current block. It panics with ErrNotPositioned before
// the first Next and after the last.
func (it *TreeIterator) Block() ChangeBlock {
	if !it.has {
		panic(ErrNotPositioned)
	}

	return it.cur
}

// Reset rewinds the iterator to before the first block.
func (it *TreeIterator) Reset() {
	it.stack = it.stack[:0]
	it.offset = 0
	it.has = false
	it.pushLeft(it.root)
	it.advance()
}

func (it *TreeIterator) pushLeft(n *deltaNode) {
	for n != nil {
		it.stack = append(it.stack, n)
		n = n.left
	}
}

// advance prepares the next changed run as pending.
func (it *TreeIterator) advance() {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		it.pushLeft(n.right)

		start := it.offset
		it.offset += n.curWidth()

		if n.kind == runKeep {
			continue
		}

		it.pending = ChangeBlock{Start: start, Length: n.count, Kind: n.kind.changeKind()}
		it.ready = true

		return
	}

	it.ready = false
}

func (it *TreeIterator) clone() Iterator {
	c := *it
	c.stack = append([]*deltaNode(nil), it.stack...)

	return &c
}

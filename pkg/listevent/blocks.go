package listevent

import (
	"fmt"
	"slices"
	"sort"
)

// BlockSequence is the run-length delta store. Blocks are kept sorted by
// start, never overlap, and two blocks of the same kind never touch.
//
// Appending at or after the end of the last block is O(1). Changes in the
// middle cost a binary search plus a shift of the later blocks.
type BlockSequence struct {
	blocks []ChangeBlock
}

// NewBlockSequence returns an empty sequence.
func NewBlockSequence() *BlockSequence {
	return &BlockSequence{}
}

// Len returns the number of blocks.
func (s *BlockSequence) Len() int {
	return len(s.blocks)
}

// Blocks returns a copy of the blocks in ascending order, or nil when the
// sequence is empty.
func (s *BlockSequence) Blocks() []ChangeBlock {
	if len(s.blocks) == 0 {
		return nil
	}

	out := make([]ChangeBlock, len(s.blocks))
	copy(out, s.blocks)

	return out
}

// IsTail reports whether a change at index would land at or after the end
// of the last block.
func (s *BlockSequence) IsTail(index int) bool {
	if len(s.blocks) == 0 {
		return true
	}

	return index >= s.blocks[len(s.blocks)-1].End()
}

// Append records a change of length elements at a current-space index.
func (s *BlockSequence) Append(start, length int, kind ChangeKind) error {
	err := checkChange(kind, start, length)
	if err != nil {
		return err
	}

	width := length
	if kind == Insert {
		width = 0
	}

	// Window over every block touching [start, start+width], widened to the
	// whole cluster of adjacent blocks around it.
	lo := sort.Search(len(s.blocks), func(i int) bool { return s.blocks[i].End() >= start })
	hi := sort.Search(len(s.blocks), func(i int) bool { return s.blocks[i].Start > start+width })

	if hi < lo {
		hi = lo
	}

	for lo > 0 && lo < len(s.blocks) && s.blocks[lo-1].End() == s.blocks[lo].Start {
		lo--
	}

	for hi > lo && hi < len(s.blocks) && s.blocks[hi].Start == s.blocks[hi-1].End() {
		hi++
	}

	origin := start
	if lo < hi {
		origin = min(origin, s.blocks[lo].Start)
	}

	runs := blocksToRuns(s.blocks[lo:hi], origin, start+width)
	runs = applyChange(runs, kind, start-origin, length)
	replaced := runsToBlocks(runs, origin)

	delta := 0

	switch kind {
	case Insert:
		delta = length
	case Delete:
		delta = -length
	}

	tail := s.blocks[hi:]
	for i := range tail {
		tail[i].Start += delta
	}

	s.blocks = slices.Replace(s.blocks, lo, hi, replaced...)

	return nil
}

// Iterator returns a cursor over the blocks. The sequence must not be
// modified while the iterator is in use.
func (s *BlockSequence) Iterator() *BlockIterator {
	return &BlockIterator{blocks: s.blocks, pos: -1}
}

// Validate panics if the internal invariants do not hold.
func (s *BlockSequence) Validate() {
	for i, b := range s.blocks {
		if b.Length <= 0 || b.Start < 0 || !b.Kind.valid() {
			panic(fmt.Sprintf("block %d invalid: %s", i, b))
		}

		if i == 0 {
			continue
		}

		prev := s.blocks[i-1]
		if b.Start < prev.End() {
			panic(fmt.Sprintf("block %d %s overlaps %s", i, b, prev))
		}

		if b.Start == prev.End() && b.Kind == prev.Kind {
			panic(fmt.Sprintf("block %d %s not merged with %s", i, b, prev))
		}

		if b.Start == prev.End() && prev.Kind == Delete && b.Kind == Insert {
			panic(fmt.Sprintf("block %d %s not netted with %s", i, b, prev))
		}
	}
}

func (s *BlockSequence) runs() []run {
	return blocksToRuns(s.blocks, 0, 0)
}

// blocksToRuns expands blocks into runs starting at current offset origin,
// filling gaps with untouched runs and padding up to end.
func blocksToRuns(blocks []ChangeBlock, origin, end int) []run {
	runs := make([]run, 0, 2*len(blocks)+1)
	cursor := origin

	for _, b := range blocks {
		if b.Start > cursor {
			runs = append(runs, run{kind: runKeep, count: b.Start - cursor})
		}

		runs = append(runs, run{kind: runKindOf(b.Kind), count: b.Length})
		cursor = b.End()
	}

	if end > cursor {
		runs = append(runs, run{kind: runKeep, count: end - cursor})
	}

	return runs
}

func runsToBlocks(runs []run, origin int) []ChangeBlock {
	blocks := make([]ChangeBlock, 0, len(runs))
	cursor := origin

	for _, r := range runs {
		if r.kind != runKeep {
			blocks = append(blocks, ChangeBlock{Start: cursor, Length: r.count, Kind: r.kind.changeKind()})
		}

		cursor += r.width()
	}

	return blocks
}

// BlockIterator walks a BlockSequence in ascending order.
type BlockIterator struct {
	blocks []ChangeBlock
	pos    int
}

// Next advances to the next block and reports whether there was one.
func (it *BlockIterator) Next() bool {
	if it.pos < len(it.blocks) {
		it.pos++
	}

	return it.pos < len(it.blocks)
}

// HasNext reports whether Next would succeed.
func (it *BlockIterator) HasNext() bool {
	return it.pos+1 < len(it.blocks)
}

// Block returns the current block. It panics with ErrNotPositioned before
// the first Next and after the last.
func (it *BlockIterator) Block() ChangeBlock {
	if it.pos < 0 || it.pos >= len(it.blocks) {
		panic(ErrNotPositioned)
	}

	return it.blocks[it.pos]
}

// Reset rewinds the iterator to before the first block.
func (it *BlockIterator) Reset() {
	it.pos = -1
}

func (it *BlockIterator) clone() Iterator {
	c := *it

	return &c
}

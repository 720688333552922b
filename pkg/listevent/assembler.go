package listevent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultLinearProbeLimit is the number of leading mutations of a
// transaction during which the assembler may still move from the block
// list to the tree.
const DefaultLinearProbeLimit = 10

// Recorder receives assembler measurements. A nil Recorder disables them.
type Recorder interface {
	RecordChange(ctx context.Context, kind string, length int)
	RecordStoreSwitch(ctx context.Context)
	RecordPublish(ctx context.Context, store string, blocks, listeners int)
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the measurement sink.
func WithRecorder(r Recorder) Option {
	return func(a *Assembler) {
		a.recorder = r
	}
}

// WithLinearProbeLimit overrides DefaultLinearProbeLimit. Zero keeps every
// transaction on the block list.
func WithLinearProbeLimit(n int) Option {
	return func(a *Assembler) {
		a.probeLimit = max(n, 0)
	}
}

// WithReentrancyGuard makes Begin panic with ErrReentrantBegin when it is
// called by a listener while this assembler is notifying.
func WithReentrancyGuard(enabled bool) Option {
	return func(a *Assembler) {
		a.guard = enabled
	}
}

// Assembler batches reported mutations into transactions and publishes one
// Event per outermost commit.
//
// An Assembler does no locking. Every call from Begin to the matching
// Commit must happen under the caller's exclusive lock.
type Assembler struct {
	id       uuid.UUID
	source   any
	logger   *slog.Logger
	recorder Recorder

	probeLimit int
	guard      bool

	depth     int
	mutations int
	blocks    *BlockSequence
	tree      *DeltaTree
	reorder   ReorderMap

	listeners ListenerRegistry
	notifying int
	lastEvent *Event
}

// NewAssembler returns an idle assembler whose events report source.
func NewAssembler(source any, opts ...Option) *Assembler {
	a := &Assembler{
		id:         uuid.New(),
		source:     source,
		logger:     slog.Default(),
		probeLimit: DefaultLinearProbeLimit,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// ID identifies the assembler in logs.
func (a *Assembler) ID() uuid.UUID {
	return a.id
}

// Depth returns the number of open nested transactions.
func (a *Assembler) Depth() int {
	return a.depth
}

// Begin opens a transaction, or nests inside the open one. nestedGroup marks
// a begin that groups a large batch of independent edits, such as loading a
// whole collection, into one event; it does not change the mechanics.
func (a *Assembler) Begin(nestedGroup bool) {
	if a.guard && a.notifying > 0 {
		panic(ErrReentrantBegin)
	}

	a.depth++

	if a.depth == 1 {
		a.blocks = NewBlockSequence()
		a.tree = nil
		a.reorder = nil
		a.mutations = 0
	}

	if nestedGroup {
		a.logger.Debug("group opened", "assembler", a.id, "depth", a.depth)
	}
}

// RecordChange reports length elements changed at a current-space index.
func (a *Assembler) RecordChange(kind ChangeKind, index, length int) error {
	if a.depth == 0 {
		return fmt.Errorf("record %s at %d: %w", kind, index, ErrNoTransaction)
	}

	err := checkChange(kind, index, length)
	if err != nil {
		return err
	}

	if a.reorder != nil {
		return fmt.Errorf("record %s at %d: %w", kind, index, ErrStateConflict)
	}

	a.mutations++

	if a.tree == nil && a.mutations <= a.probeLimit && !a.blocks.IsTail(index) {
		a.tree = newDeltaTreeFromRuns(a.blocks.runs())
		a.blocks = nil

		if a.recorder != nil {
			a.recorder.RecordStoreSwitch(context.Background())
		}

		a.logger.Debug("delta store switched to tree", "assembler", a.id, "mutation", a.mutations, "index", index)
	}

	if a.tree != nil {
		err = a.tree.Record(kind, index, length)
	} else {
		err = a.blocks.Append(index, length, kind)
	}

	if err != nil {
		return err
	}

	if a.recorder != nil {
		a.recorder.RecordChange(context.Background(), kind.String(), length)
	}

	return nil
}

// RecordInsert reports one element inserted at index.
func (a *Assembler) RecordInsert(index int) error {
	return a.RecordChange(Insert, index, 1)
}

// RecordDelete reports one element deleted at index.
func (a *Assembler) RecordDelete(index int) error {
	return a.RecordChange(Delete, index, 1)
}

// RecordUpdate reports one element replaced at index.
func (a *Assembler) RecordUpdate(index int) error {
	return a.RecordChange(Update, index, 1)
}

// RecordReorder reports a permutation of the whole sequence. Several
// reorders in one transaction compose. An empty map is a no-op.
func (a *Assembler) RecordReorder(m ReorderMap) error {
	if a.depth == 0 {
		return fmt.Errorf("record reorder: %w", ErrNoTransaction)
	}

	err := m.Validate()
	if err != nil {
		return err
	}

	if len(m) == 0 {
		return nil
	}

	if a.mutations > 0 {
		return fmt.Errorf("record reorder after %d changes: %w", a.mutations, ErrStateConflict)
	}

	if a.reorder == nil {
		a.reorder = m.Clone()

		return nil
	}

	composed, err := a.reorder.Then(m)
	if err != nil {
		return err
	}

	a.reorder = composed

	return nil
}

// Commit closes the innermost transaction. Closing the outermost one
// publishes its event to every listener, in registration order, even when
// nothing was recorded.
func (a *Assembler) Commit() error {
	if a.depth == 0 {
		return ErrUnbalancedTransaction
	}

	a.depth--
	if a.depth > 0 {
		return nil
	}

	var store *frozenStore

	switch {
	case a.reorder != nil:
		store = reorderStore(a.reorder)
	case a.tree != nil:
		store = treeStore(a.tree)
	default:
		store = linearStore(a.blocks)
	}

	a.blocks, a.tree, a.reorder, a.mutations = nil, nil, nil, 0

	a.publish(store)

	return nil
}

// ForwardEvent publishes a foreign event as this assembler's own, without
// translating indexes. Inside an open transaction the foreign changes are
// replayed into it; otherwise the frozen store is published directly.
func (a *Assembler) ForwardEvent(e *Event) error {
	if a.depth == 0 {
		a.publish(e.store)

		return nil
	}

	c := e.Copy()
	c.Reset()

	if c.IsReordering() {
		return a.RecordReorder(c.store.reorder)
	}

	for c.Next() {
		err := a.RecordChange(c.Kind(), c.Index(), c.Length())
		if err != nil {
			return fmt.Errorf("forward event: %w", err)
		}
	}

	return nil
}

func (a *Assembler) publish(store *frozenStore) {
	event := newEvent(a.source, store)
	a.lastEvent = event

	listeners := a.listeners.Snapshot()

	a.logger.Debug("event published",
		"assembler", a.id,
		"store", store.kind.String(),
		"blocks", store.size,
		"listeners", len(listeners))

	if a.recorder != nil {
		a.recorder.RecordPublish(context.Background(), store.kind.String(), store.size, len(listeners))
	}

	a.notifying++
	defer func() { a.notifying-- }()

	for _, l := range listeners {
		l.ListChanged(event.Copy())
	}
}

// AddListener registers l for every following event.
func (a *Assembler) AddListener(l Listener) {
	a.listeners.Add(l)
}

// RemoveListener drops the earliest registration of l.
func (a *Assembler) RemoveListener(l Listener) bool {
	return a.listeners.Remove(l)
}

// Listeners returns the number of registrations.
func (a *Assembler) Listeners() int {
	return a.listeners.Len()
}

// LastEvent returns a fresh cursor over the most recently published event,
// or nil before the first publication.
func (a *Assembler) LastEvent() *Event {
	if a.lastEvent == nil {
		return nil
	}

	e := a.lastEvent.Copy()
	e.Reset()

	return e
}

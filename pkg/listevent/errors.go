package listevent

import "errors"

// Caller contract violations. None of these are transient: the caller that
// receives one has a logic error and must not retry the call.
var (
	// ErrNoTransaction is returned when a change is recorded while no
	// transaction is open.
	ErrNoTransaction = errors.New("no open transaction")
	// ErrUnbalancedTransaction is returned by Commit when no transaction is open.
	ErrUnbalancedTransaction = errors.New("commit without matching begin")
	// ErrStateConflict is returned when a transaction mixes a reorder with
	// structural changes.
	ErrStateConflict = errors.New("reorder and structural changes in one transaction")
	// ErrZeroLength is returned when a change of non-positive length is appended.
	ErrZeroLength = errors.New("change length must be positive")
	// ErrNegativeIndex is returned when a change starts before index 0.
	ErrNegativeIndex = errors.New("change index must not be negative")
	// ErrUnknownKind is returned for a ChangeKind outside Delete, Update and Insert.
	ErrUnknownKind = errors.New("unknown change kind")
	// ErrInvalidPermutation is returned when a reorder map is not a permutation
	// of 0..n-1, or does not match the length of an earlier reorder.
	ErrInvalidPermutation = errors.New("reorder map is not a permutation")
	// ErrNotReordering is returned by ReorderMap on a structural event.
	ErrNotReordering = errors.New("cannot get reorder map for a non-reordering change")
)

// Invalid-state queries. Cursor and iterator accessors panic with these values.
var (
	// ErrNotPositioned means an accessor was called before the first Next
	// or after the cursor was exhausted.
	ErrNotPositioned = errors.New("cursor is not positioned on a change")
	// ErrReordering means a block accessor was called on a reordering event.
	ErrReordering = errors.New("block accessors are undefined on a reordering event")
	// ErrReentrantBegin means a listener opened a transaction on the assembler
	// that is notifying it.
	ErrReentrantBegin = errors.New("begin called from inside a listener notification")
)

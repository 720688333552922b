// Package listevent records mutations of an ordered sequence and publishes
// them to listeners as compact, replayable change events.
//
// Changes are reported in current-space coordinates: every index is valid
// against the sequence as it exists after all changes recorded so far in the
// open transaction. A committed [Event] lists its blocks in ascending order;
// applying them one after another to the pre-transaction sequence yields the
// post-transaction sequence.
package listevent

import "fmt"

// ChangeKind is the kind of an elementary change.
type ChangeKind uint8

// Change kinds. Delete sorts before Update and Insert at the same index.
const (
	Delete ChangeKind = iota
	Update
	Insert
)

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case Delete:
		return "delete"
	case Update:
		return "update"
	case Insert:
		return "insert"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts the String form of a kind back to a ChangeKind.
func ParseKind(s string) (ChangeKind, error) {
	switch s {
	case "delete":
		return Delete, nil
	case "update":
		return Update, nil
	case "insert":
		return Insert, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalText encodes the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ChangeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

func (k ChangeKind) valid() bool {
	return k <= Insert
}

// ChangeBlock describes one contiguous change. Start is a current-space index.
// A Delete block occupies no width in current space: it sits at the gap where
// the removed elements used to be.
type ChangeBlock struct {
	Start  int        `json:"start"`
	Length int        `json:"length"`
	Kind   ChangeKind `json:"kind"`
}

// End returns the first current-space index after the block.
func (b ChangeBlock) End() int {
	if b.Kind == Delete {
		return b.Start
	}

	return b.Start + b.Length
}

// String implements fmt.Stringer.
func (b ChangeBlock) String() string {
	return fmt.Sprintf("%s(%d,%d)", b.Kind, b.Start, b.Length)
}

func checkChange(kind ChangeKind, index, length int) error {
	if !kind.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}

	if length <= 0 {
		return fmt.Errorf("%w: %s at %d has length %d", ErrZeroLength, kind, index, length)
	}

	if index < 0 {
		return fmt.Errorf("%w: %s at %d", ErrNegativeIndex, kind, index)
	}

	return nil
}

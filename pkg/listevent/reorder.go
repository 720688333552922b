package listevent

import "fmt"

// ReorderMap describes a pure permutation: the element now at position i
// was at position m[i] before the transaction.
type ReorderMap []int

// Validate checks that m is a permutation of 0..len(m)-1.
func (m ReorderMap) Validate() error {
	seen := make([]bool, len(m))

	for i, prior := range m {
		if prior < 0 || prior >= len(m) {
			return fmt.Errorf("%w: position %d maps to %d of %d", ErrInvalidPermutation, i, prior, len(m))
		}

		if seen[prior] {
			return fmt.Errorf("%w: prior index %d appears twice", ErrInvalidPermutation, prior)
		}

		seen[prior] = true
	}

	return nil
}

// Then returns the permutation equivalent to applying m and then next.
func (m ReorderMap) Then(next ReorderMap) (ReorderMap, error) {
	if len(next) != len(m) {
		return nil, fmt.Errorf("%w: length %d after a reorder of length %d", ErrInvalidPermutation, len(next), len(m))
	}

	out := make(ReorderMap, len(next))
	for i, mid := range next {
		out[i] = m[mid]
	}

	return out, nil
}

// Clone returns a copy of m.
func (m ReorderMap) Clone() ReorderMap {
	if m == nil {
		return nil
	}

	out := make(ReorderMap, len(m))
	copy(out, m)

	return out
}

// IsIdentity reports whether m leaves every element in place.
func (m ReorderMap) IsIdentity() bool {
	for i, prior := range m {
		if i != prior {
			return false
		}
	}

	return true
}

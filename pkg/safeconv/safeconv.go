// Package safeconv converts between integer widths with bounds checks.
package safeconv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a value does not fit the target type.
var ErrOutOfRange = errors.New("integer out of range")

// IntToUint32 converts v, failing for negative values and values above
// math.MaxUint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOutOfRange, v)
	}

	return uint32(v), nil
}

// MustIntToUint32 is IntToUint32 for values already known to fit. It panics
// otherwise.
func MustIntToUint32(v int) uint32 {
	out, err := IntToUint32(v)
	if err != nil {
		panic(err)
	}

	return out
}

// Uint64ToInt converts v, failing when it exceeds math.MaxInt.
func Uint64ToInt(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOutOfRange, v)
	}

	return int(v), nil
}

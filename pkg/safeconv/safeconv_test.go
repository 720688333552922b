package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/pkg/safeconv"
)

func TestIntToUint32(t *testing.T) {
	t.Parallel()

	got, err := safeconv.IntToUint32(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)

	got, err = safeconv.IntToUint32(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = safeconv.IntToUint32(-1)
	require.ErrorIs(t, err, safeconv.ErrOutOfRange)

	_, err = safeconv.IntToUint32(math.MaxUint32 + 1)
	require.ErrorIs(t, err, safeconv.ErrOutOfRange)
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(7), safeconv.MustIntToUint32(7))
	assert.Panics(t, func() { safeconv.MustIntToUint32(-7) })
}

func TestUint64ToInt(t *testing.T) {
	t.Parallel()

	got, err := safeconv.Uint64ToInt(9)
	require.NoError(t, err)
	assert.Equal(t, 9, got)

	_, err = safeconv.Uint64ToInt(math.MaxUint64)
	require.ErrorIs(t, err, safeconv.ErrOutOfRange)
}

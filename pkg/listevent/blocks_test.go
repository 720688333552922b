package listevent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

func block(kind listevent.ChangeKind, start, length int) listevent.ChangeBlock {
	return listevent.ChangeBlock{Start: start, Length: length, Kind: kind}
}

func TestBlockSequence_MergesContiguousInserts(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(0, 1, listevent.Insert))
	require.NoError(t, seq.Append(1, 1, listevent.Insert))

	assert.Equal(t, []listevent.ChangeBlock{block(listevent.Insert, 0, 2)}, seq.Blocks())
	seq.Validate()
}

func TestBlockSequence_DeleteThenInsertBecomesUpdate(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(3, 2, listevent.Delete))
	require.NoError(t, seq.Append(3, 2, listevent.Insert))

	assert.Equal(t, []listevent.ChangeBlock{block(listevent.Update, 3, 2)}, seq.Blocks())
}

func TestBlockSequence_PartialCancellation(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(3, 3, listevent.Delete))
	require.NoError(t, seq.Append(3, 1, listevent.Insert))

	assert.Equal(t, []listevent.ChangeBlock{
		block(listevent.Delete, 3, 2),
		block(listevent.Update, 3, 1),
	}, seq.Blocks())

	seq = listevent.NewBlockSequence()
	require.NoError(t, seq.Append(3, 1, listevent.Delete))
	require.NoError(t, seq.Append(3, 3, listevent.Insert))

	assert.Equal(t, []listevent.ChangeBlock{
		block(listevent.Update, 3, 1),
		block(listevent.Insert, 4, 2),
	}, seq.Blocks())
}

func TestBlockSequence_InsertThenDeleteAnnihilates(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(5, 3, listevent.Insert))
	require.NoError(t, seq.Append(5, 3, listevent.Delete))

	assert.Empty(t, seq.Blocks())
}

func TestBlockSequence_ShiftsLaterBlocks(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(10, 1, listevent.Update))
	require.NoError(t, seq.Append(20, 2, listevent.Delete))
	require.NoError(t, seq.Append(0, 3, listevent.Insert))

	assert.Equal(t, []listevent.ChangeBlock{
		block(listevent.Insert, 0, 3),
		block(listevent.Update, 13, 1),
		block(listevent.Delete, 23, 2),
	}, seq.Blocks())

	require.NoError(t, seq.Append(1, 4, listevent.Delete))

	// Two of the three inserted elements and two untouched ones are gone.
	assert.Equal(t, []listevent.ChangeBlock{
		block(listevent.Insert, 0, 1),
		block(listevent.Delete, 1, 2),
		block(listevent.Update, 9, 1),
		block(listevent.Delete, 19, 2),
	}, seq.Blocks())
	seq.Validate()
}

func TestBlockSequence_MergesAdjacentDeletes(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(4, 1, listevent.Delete))
	require.NoError(t, seq.Append(4, 1, listevent.Delete))
	require.NoError(t, seq.Append(3, 1, listevent.Delete))

	assert.Equal(t, []listevent.ChangeBlock{block(listevent.Delete, 3, 3)}, seq.Blocks())
}

func TestBlockSequence_RejectsInvalidChanges(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()

	require.ErrorIs(t, seq.Append(0, 0, listevent.Insert), listevent.ErrZeroLength)
	require.ErrorIs(t, seq.Append(0, -2, listevent.Delete), listevent.ErrZeroLength)
	require.ErrorIs(t, seq.Append(-1, 1, listevent.Update), listevent.ErrNegativeIndex)
	require.ErrorIs(t, seq.Append(0, 1, listevent.ChangeKind(9)), listevent.ErrUnknownKind)
	assert.Zero(t, seq.Len())
}

func TestBlockSequence_IsTail(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	assert.True(t, seq.IsTail(0))

	require.NoError(t, seq.Append(2, 3, listevent.Insert))
	assert.True(t, seq.IsTail(5))
	assert.True(t, seq.IsTail(9))
	assert.False(t, seq.IsTail(4))
	assert.False(t, seq.IsTail(0))
}

func TestBlockIterator(t *testing.T) {
	t.Parallel()

	seq := listevent.NewBlockSequence()
	require.NoError(t, seq.Append(0, 1, listevent.Update))
	require.NoError(t, seq.Append(4, 2, listevent.Insert))

	it := seq.Iterator()
	assert.PanicsWithError(t, listevent.ErrNotPositioned.Error(), func() { it.Block() })

	require.True(t, it.HasNext())
	require.True(t, it.Next())
	assert.Equal(t, block(listevent.Update, 0, 1), it.Block())
	require.True(t, it.Next())
	assert.Equal(t, block(listevent.Insert, 4, 2), it.Block())
	assert.False(t, it.HasNext())
	assert.False(t, it.Next())
	assert.False(t, it.Next())
	assert.PanicsWithError(t, listevent.ErrNotPositioned.Error(), func() { it.Block() })

	it.Reset()
	require.True(t, it.Next())
	assert.Equal(t, block(listevent.Update, 0, 1), it.Block())
}

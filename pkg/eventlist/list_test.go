package eventlist_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventlist"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/matcher"
)

type recorder struct {
	events []*listevent.Event
}

func (r *recorder) ListChanged(e *listevent.Event) {
	r.events = append(r.events, e.Copy())
}

func (r *recorder) last(t *testing.T) []listevent.ChangeBlock {
	t.Helper()
	require.NotEmpty(t, r.events)

	return r.events[len(r.events)-1].Blocks()
}

func change(kind listevent.ChangeKind, start, length int) listevent.ChangeBlock {
	return listevent.ChangeBlock{Start: start, Length: length, Kind: kind}
}

func newObserved(items ...string) (*eventlist.List[string], *recorder) {
	l := eventlist.Of(items)
	r := &recorder{}
	l.AddListener(r)

	return l, r
}

func TestList_BasicMutations(t *testing.T) {
	t.Parallel()

	l, r := newObserved("a", "b", "c")

	require.NoError(t, l.Add("d"))
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Insert, 3, 1)}, r.last(t))

	require.NoError(t, l.Insert(0, "z"))
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Insert, 0, 1)}, r.last(t))

	prev, err := l.Set(2, "B")
	require.NoError(t, err)
	assert.Equal(t, "b", prev)
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Update, 2, 1)}, r.last(t))

	removed, err := l.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, "a", removed)
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Delete, 1, 1)}, r.last(t))

	assert.Equal(t, []string{"z", "B", "c", "d"}, l.Slice())
	assert.Len(t, r.events, 4)
}

func TestList_OutOfRange(t *testing.T) {
	t.Parallel()

	l, r := newObserved("a")

	_, err := l.Get(1)
	require.ErrorIs(t, err, eventlist.ErrIndexOutOfRange)
	require.ErrorIs(t, l.Insert(2, "x"), eventlist.ErrIndexOutOfRange)
	_, err = l.Set(-1, "x")
	require.ErrorIs(t, err, eventlist.ErrIndexOutOfRange)
	require.ErrorIs(t, l.RemoveRange(0, 2), eventlist.ErrIndexOutOfRange)
	assert.Empty(t, r.events)
}

func TestList_AddAllAndClear(t *testing.T) {
	t.Parallel()

	l, r := newObserved()

	require.NoError(t, l.AddAll("a", "b", "c"))
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Insert, 0, 3)}, r.last(t))

	require.NoError(t, l.Clear())
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Delete, 0, 3)}, r.last(t))
	assert.Zero(t, l.Len())

	// Nothing to clear, nothing published.
	require.NoError(t, l.Clear())
	assert.Len(t, r.events, 2)
}

func TestList_RemoveAllAndRetainAll(t *testing.T) {
	t.Parallel()

	l, r := newObserved("a", "", "b", "a", "", "c")

	changed, err := l.RemoveAll("a", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"b", "c"}, l.Slice())
	assert.Equal(t, []listevent.ChangeBlock{
		change(listevent.Delete, 0, 2),
		change(listevent.Delete, 1, 2),
	}, r.last(t))

	changed, err = l.RemoveAll("missing")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = l.RetainAll("c")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c"}, l.Slice())
}

func TestList_Lookups(t *testing.T) {
	t.Parallel()

	l := eventlist.Of([]*int{nil, new(int), nil})

	assert.True(t, l.Contains(nil))
	assert.Equal(t, 0, l.IndexOf(nil))
	assert.Equal(t, 2, l.LastIndexOf(nil))
	assert.Equal(t, -1, l.IndexOf(new(int)))

	removed, err := l.RemoveValue(nil)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, l.IndexOf(nil))
}

func TestList_RemoveMatching(t *testing.T) {
	t.Parallel()

	l, _ := newObserved("apple", "banana", "avocado", "cherry")

	changed, err := l.RemoveMatching(matcher.False[string]())
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = l.RetainMatching(matcher.Func[string](func(s string) bool { return strings.HasPrefix(s, "a") }))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"apple", "avocado"}, l.Slice())
}

func TestList_SortPublishesReorder(t *testing.T) {
	t.Parallel()

	l, r := newObserved("c", "a", "b")

	require.NoError(t, l.SortFunc(strings.Compare))
	assert.Equal(t, []string{"a", "b", "c"}, l.Slice())

	require.Len(t, r.events, 1)
	e := r.events[0]
	require.True(t, e.IsReordering())

	m, err := e.ReorderMap()
	require.NoError(t, err)
	assert.Equal(t, listevent.ReorderMap{1, 2, 0}, m)
}

func TestList_BatchPublishesOnce(t *testing.T) {
	t.Parallel()

	l, r := newObserved("a", "b", "c")

	err := l.Batch(func() error {
		_, err := l.Remove(0)
		if err != nil {
			return err
		}

		return l.Insert(0, "x")
	})
	require.NoError(t, err)

	require.Len(t, r.events, 1)
	assert.Equal(t, []listevent.ChangeBlock{change(listevent.Update, 0, 1)}, r.last(t))
}

func TestList_SortInsideBatchConflicts(t *testing.T) {
	t.Parallel()

	l, _ := newObserved("b", "a")

	err := l.Batch(func() error {
		if err := l.Add("c"); err != nil {
			return err
		}

		return l.SortFunc(strings.Compare)
	})
	require.ErrorIs(t, err, listevent.ErrStateConflict)
	assert.Zero(t, l.Assembler().Depth())
}

func TestList_ListenerReadsUnderLock(t *testing.T) {
	t.Parallel()

	l := eventlist.New[int]()

	var sizes []int

	l.AddListener(listevent.NewFuncListener(func(*listevent.Event) { sizes = append(sizes, l.Len()) }))

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, l.Update(func(l *eventlist.List[int]) error { return l.Add(i) }))
		}()
	}

	wg.Wait()

	l.Read(func(l *eventlist.List[int]) {
		assert.Equal(t, 8, l.Len())
	})
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sizes)
}

func TestList_RefusedChangeLeavesItems(t *testing.T) {
	t.Parallel()

	l, r := newObserved("c", "a", "b")

	err := l.Batch(func() error {
		require.NoError(t, l.SortFunc(strings.Compare))

		addErr := l.Add("z")
		require.ErrorIs(t, addErr, listevent.ErrStateConflict)

		_, setErr := l.Set(0, "z")
		require.ErrorIs(t, setErr, listevent.ErrStateConflict)

		require.ErrorIs(t, l.RemoveRange(0, 1), listevent.ErrStateConflict)

		changed, removeErr := l.RemoveAll("a")
		require.ErrorIs(t, removeErr, listevent.ErrStateConflict)
		assert.False(t, changed)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, l.Slice())

	require.Len(t, r.events, 1)
	require.True(t, r.events[0].IsReordering())

	m, err := r.events[0].ReorderMap()
	require.NoError(t, err)
	assert.Equal(t, listevent.ReorderMap{1, 2, 0}, m)
}

package script_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/internal/script"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventlist"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/persist"
	"github.com/Sumatoshi-tech/listdelta/pkg/persistent"
)

func run(t *testing.T, src string, opts ...script.Option) *script.Result {
	t.Helper()

	s, err := script.Parse([]byte(src))
	require.NoError(t, err)

	res, err := script.NewRunner(opts...).Run(context.Background(), s)
	require.NoError(t, err)

	return res
}

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	s, err := script.ReadFile(filepath.Join("testdata", "playlist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "playlist", s.Name)
	assert.Equal(t, []string{"intro", "verse", "chorus", "outro"}, s.Initial)
	require.Len(t, s.Steps, 6)
	assert.Equal(t, script.OpBatch, s.Steps[3].Op)
	assert.Len(t, s.Steps[3].Steps, 3)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"not yaml", "steps: [", script.ErrInvalidScript},
		{"empty document", "", script.ErrInvalidScript},
		{"missing steps", "name: x\n", script.ErrInvalidScript},
		{"unknown op", "steps:\n  - op: shuffle\n", script.ErrInvalidScript},
		{"unknown field", "steps:\n  - op: clear\n    color: red\n", script.ErrInvalidScript},
		{"insert without index", "steps:\n  - op: insert\n    value: a\n", script.ErrInvalidScript},
		{"insert without values", "steps:\n  - op: insert\n    index: 0\n", script.ErrInvalidScript},
		{"set without value", "steps:\n  - op: set\n    index: 0\n", script.ErrInvalidScript},
		{"negative index", "steps:\n  - op: remove\n    index: -1\n", script.ErrInvalidScript},
		{"non-string value", "steps:\n  - op: add\n    values: [[1]]\n", script.ErrInvalidScript},
		{"nested invalid", "steps:\n  - op: batch\n    steps:\n      - op: remove_range\n        from: 1\n", script.ErrInvalidScript},
		{"load while eager", "steps:\n  - op: load\n", script.ErrLoadNotLazy},
		{"lazy with initial", "lazy: true\ninitial: [a]\nsteps: []\n", script.ErrLazyInitial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := script.Parse([]byte(tt.src))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_Playlist(t *testing.T) {
	t.Parallel()

	s, err := script.ReadFile(filepath.Join("testdata", "playlist.yaml"))
	require.NoError(t, err)

	res, err := script.NewRunner().Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Steps)
	assert.Empty(t, res.Final)
	require.Len(t, res.Records, 6)

	assert.Equal(t, []listevent.ChangeBlock{{Start: 1, Length: 2, Kind: listevent.Insert}}, res.Records[0].Blocks)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 0, Length: 1, Kind: listevent.Update}}, res.Records[1].Blocks)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 5, Length: 1, Kind: listevent.Delete}}, res.Records[2].Blocks)

	// [overture bridge solo verse chorus] -> remove 0..2 -> add encore -> insert prelude.
	assert.Equal(t, []listevent.ChangeBlock{
		{Start: 0, Length: 1, Kind: listevent.Delete},
		{Start: 0, Length: 1, Kind: listevent.Update},
		{Start: 4, Length: 1, Kind: listevent.Insert},
	}, res.Records[3].Blocks)

	assert.True(t, res.Records[4].IsReordering())
	assert.Equal(t, []listevent.ChangeBlock{{Start: 0, Length: 5, Kind: listevent.Delete}}, res.Records[5].Blocks)
}

func TestRun_NoOpStepsPublishNothing(t *testing.T) {
	t.Parallel()

	res := run(t, "steps:\n  - op: clear\n  - op: sort\n  - op: add\n    values: []\n")

	assert.Empty(t, res.Records)
	assert.Empty(t, res.Final)
}

func TestRun_SortDescending(t *testing.T) {
	t.Parallel()

	res := run(t, "initial: [b, c, a]\nsteps:\n  - op: sort\n    order: desc\n")

	assert.Equal(t, []string{"c", "b", "a"}, res.Final)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []int{1, 0, 2}, res.Records[0].Reorder)
}

func TestRun_StepErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"index out of range", "steps:\n  - op: remove\n    index: 0\n", eventlist.ErrIndexOutOfRange},
		{"sort after change", "initial: [b, a]\nsteps:\n  - op: batch\n    steps:\n      - op: add\n        value: c\n      - op: sort\n", listevent.ErrStateConflict},
		{"lazy before load", "lazy: true\nsteps:\n  - op: add\n    value: a\n", persistent.ErrNotInitialized},
		{"load twice", "lazy: true\nsteps:\n  - op: load\n  - op: load\n", persistent.ErrAlreadyInitialized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := script.Parse([]byte(tt.src))
			require.NoError(t, err)

			_, err = script.NewRunner().Run(context.Background(), s)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_LazyLoadIsOneEvent(t *testing.T) {
	t.Parallel()

	res := run(t, `lazy: true
steps:
  - op: load
    values: [a, b, c, d]
  - op: batch
    steps:
      - op: set
        index: 1
        value: B
      - op: insert
        index: 0
        value: z
  - op: sort
`)

	assert.Equal(t, []string{"B", "a", "c", "d", "z"}, res.Final)
	require.Len(t, res.Records, 3)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 0, Length: 4, Kind: listevent.Insert}}, res.Records[0].Blocks)
	assert.True(t, res.Records[2].IsReordering())
}

func TestRun_LazyStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := persistent.NewStore[string](t.TempDir(), "list", persist.NewJSONCodec())

	first := run(t, "lazy: true\nsteps:\n  - op: load\n  - op: add\n    values: [x, y]\n", script.WithStore(store))
	assert.Equal(t, []string{"x", "y"}, first.Final)

	second := run(t, "lazy: true\nsteps:\n  - op: load\n  - op: remove\n    index: 0\n", script.WithStore(store))
	assert.Equal(t, []string{"y"}, second.Final)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 0, Length: 2, Kind: listevent.Insert}}, second.Records[0].Blocks)
}

func TestRun_TreeStoreWithZeroProbeLimit(t *testing.T) {
	t.Parallel()

	src := "initial: [a, b, c, d, e]\nsteps:\n  - op: batch\n    steps:\n" +
		"      - op: remove\n        index: 3\n" +
		"      - op: insert\n        index: 0\n        value: q\n" +
		"      - op: set\n        index: 2\n        value: B\n"

	linear := run(t, src, script.WithAssemblerOptions(listevent.WithLinearProbeLimit(0)))
	tree := run(t, src)

	assert.Equal(t, linear.Final, tree.Final)
	assert.Equal(t, linear.Records, tree.Records)
	assert.Equal(t, []string{"q", "a", "B", "c", "e"}, tree.Final)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	s, err := script.Parse([]byte("steps:\n  - op: clear\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = script.NewRunner().Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
}

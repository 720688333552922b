package bench_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/internal/bench"
)

func TestRun_AllWorkloads(t *testing.T) {
	t.Parallel()

	results, err := bench.Run(context.Background(), bench.Config{Operations: 250, Seed: 7})
	require.NoError(t, err)
	require.Len(t, results, 6)

	byKey := make(map[string]bench.Result)
	for _, r := range results {
		assert.Equal(t, 250, r.Operations)
		assert.Equal(t, 3, r.Events, "one event per batch of up to 100 operations")

		byKey[r.Workload+"/"+r.Mode] = r
	}

	// Both modes report identical events for the same seeded workload.
	for _, w := range []string{bench.WorkloadAppend, bench.WorkloadFront, bench.WorkloadRandom} {
		assert.Equal(t, byKey[w+"/"+bench.ModeLinear].Blocks, byKey[w+"/"+bench.ModeHybrid].Blocks, w)
	}

	assert.Equal(t, 3, byKey[bench.WorkloadAppend+"/"+bench.ModeLinear].Blocks)
}

func TestRun_NoOperations(t *testing.T) {
	t.Parallel()

	_, err := bench.Run(context.Background(), bench.Config{})
	require.ErrorIs(t, err, bench.ErrNoOperations)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bench.Run(ctx, bench.Config{Operations: 10})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResult_OpsPerSecond(t *testing.T) {
	t.Parallel()

	assert.Zero(t, bench.Result{Operations: 5}.OpsPerSecond())
}

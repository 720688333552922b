package bench //nolint:testpackage // summarize is unexported.

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	samples := []time.Duration{4 * time.Millisecond, 1 * time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond, 5 * time.Millisecond}

	l := summarize(samples)

	assert.Equal(t, 3*time.Millisecond, l.P50)
	assert.InDelta(t, float64(4800*time.Microsecond), float64(l.P95), 1)
	assert.Equal(t, 3*time.Millisecond, l.Mean)
	assert.InDelta(t, float64(1414213*time.Nanosecond), float64(l.StdDev), float64(time.Microsecond))
	assert.Equal(t, 4*time.Millisecond, samples[0], "input is not reordered")
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Latency{}, summarize(nil))
}

func TestSummarize_Single(t *testing.T) {
	t.Parallel()

	l := summarize([]time.Duration{time.Second})

	assert.Equal(t, time.Second, l.P99)
	assert.Equal(t, time.Duration(0), l.StdDev)
}

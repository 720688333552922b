package bench

import (
	"math"
	"slices"
	"time"
)

// Latency summarizes the wall time of the batches of one run.
type Latency struct {
	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stddev"`
}

func summarize(samples []time.Duration) Latency {
	if len(samples) == 0 {
		return Latency{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	mean, stddev := meanStdDev(sorted)

	return Latency{
		P50:    percentile(sorted, 0.50),
		P95:    percentile(sorted, 0.95),
		P99:    percentile(sorted, 0.99),
		Mean:   mean,
		StdDev: stddev,
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := p * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return time.Duration(float64(sorted[lower])*(1-frac) + float64(sorted[upper])*frac)
}

// meanStdDev uses the population deviation.
func meanStdDev(samples []time.Duration) (mean, stddev time.Duration) {
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}

	m := sum / float64(len(samples))

	var sumSq float64

	for _, s := range samples {
		d := float64(s) - m
		sumSq += d * d
	}

	return time.Duration(m), time.Duration(math.Sqrt(sumSq / float64(len(samples))))
}

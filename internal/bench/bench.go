// Package bench measures event assembly on synthetic list workloads.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventlist"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

// Store modes.
const (
	ModeLinear = "linear"
	ModeHybrid = "hybrid"
)

// Workloads.
const (
	WorkloadAppend = "append"
	WorkloadRandom = "random"
	WorkloadFront  = "front"
)

// batchSize is the number of mutations grouped into one transaction.
const batchSize = 100

// ErrNoOperations is returned for a workload of zero operations.
var ErrNoOperations = errors.New("bench needs at least one operation")

// Config sizes a run.
type Config struct {
	Operations int
	Seed       uint64
}

// Result is the measurement of one workload in one store mode.
type Result struct {
	Workload   string        `json:"workload"`
	Mode       string        `json:"mode"`
	Operations int           `json:"operations"`
	Events     int           `json:"events"`
	Blocks     int           `json:"blocks"`
	Duration   time.Duration `json:"duration"`
	// Batch is the latency of one committed transaction.
	Batch Latency `json:"batch"`
}

// OpsPerSecond returns the throughput of the run.
func (r Result) OpsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}

	return float64(r.Operations) / r.Duration.Seconds()
}

type counter struct {
	events, blocks int
}

func (c *counter) ListChanged(e *listevent.Event) {
	c.events++
	c.blocks += e.BlockCount()
}

// Run measures every workload in both store modes.
func Run(ctx context.Context, cfg Config) ([]Result, error) {
	if cfg.Operations <= 0 {
		return nil, ErrNoOperations
	}

	workloads := []string{WorkloadAppend, WorkloadFront, WorkloadRandom}
	modes := []struct {
		name  string
		limit int
	}{
		{ModeLinear, 0},
		{ModeHybrid, listevent.DefaultLinearProbeLimit},
	}

	results := make([]Result, 0, len(workloads)*len(modes))

	for _, w := range workloads {
		for _, m := range modes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			res, err := runOne(cfg, w, m.name, m.limit)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", w, m.name, err)
			}

			results = append(results, res)
		}
	}

	return results, nil
}

func runOne(cfg Config, workload, mode string, limit int) (Result, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(len(workload))))
	list := eventlist.New[int](listevent.WithLinearProbeLimit(limit))
	c := &counter{}
	list.AddListener(c)

	samples := make([]time.Duration, 0, cfg.Operations/batchSize+1)
	start := time.Now()

	for done := 0; done < cfg.Operations; done += batchSize {
		n := min(batchSize, cfg.Operations-done)
		batchStart := time.Now()

		err := list.Batch(func() error {
			for i := range n {
				err := mutate(list, rng, workload, done+i)
				if err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return Result{}, err
		}

		samples = append(samples, time.Since(batchStart))
	}

	return Result{
		Workload:   workload,
		Mode:       mode,
		Operations: cfg.Operations,
		Events:     c.events,
		Blocks:     c.blocks,
		Duration:   time.Since(start),
		Batch:      summarize(samples),
	}, nil
}

func mutate(list *eventlist.List[int], rng *rand.Rand, workload string, op int) error {
	switch workload {
	case WorkloadAppend:
		return list.Add(op)
	case WorkloadFront:
		return list.Insert(0, op)
	}

	size := list.Len()

	switch choice := rng.IntN(3); {
	case size == 0 || choice == 0:
		return list.Insert(rng.IntN(size+1), op)
	case choice == 1:
		_, err := list.Remove(rng.IntN(size))

		return err
	default:
		_, err := list.Set(rng.IntN(size), op)

		return err
	}
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/internal/bench"
	"github.com/Sumatoshi-tech/listdelta/internal/report"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
)

const (
	flagOperations = "operations"
	flagSeed       = "seed"
	flagHTML       = "html"
)

// NewBenchCommand creates the bench command.
func NewBenchCommand(app *App) *cobra.Command {
	var (
		operations int
		seed       uint64
		htmlPath   string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare the block list and the tree delta store",
		Long: `Run append, front and random workloads with the linear store only and
with the default hybrid store, and report throughput per combination.`,
		Args: cobra.NoArgs,
	}

	cmd.RunE = app.run(observability.ModeCLI, func(cmd *cobra.Command, _ []string) error {
		cfg := bench.Config{Operations: app.Config.Bench.Operations, Seed: app.Config.Bench.Seed}

		if cmd.Flags().Changed(flagOperations) {
			cfg.Operations = operations
		}

		if cmd.Flags().Changed(flagSeed) {
			cfg.Seed = seed
		}

		results, err := bench.Run(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		if htmlPath != "" {
			err = writeChart(htmlPath, results)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()

		if asJSON {
			return writeJSON(out, results)
		}

		report.Bench(out, results)

		return nil
	})

	cmd.Flags().IntVar(&operations, flagOperations, 0, "operations per workload (default from config)")
	cmd.Flags().Uint64Var(&seed, flagSeed, 0, "random seed (default from config)")
	cmd.Flags().StringVar(&htmlPath, flagHTML, "", "write an HTML chart of the results")
	cmd.Flags().BoolVar(&asJSON, flagJSON, false, "print the results as JSON")

	return cmd
}

func writeChart(path string, results []bench.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close chart: %w", closeErr)
		}
	}()

	return report.BenchChart(f, results)
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/internal/report"
	"github.com/Sumatoshi-tech/listdelta/internal/script"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
	"github.com/Sumatoshi-tech/listdelta/pkg/persist"
	"github.com/Sumatoshi-tech/listdelta/pkg/persistent"
)

const (
	flagSnapshotDir  = "snapshot-dir"
	flagSnapshotName = "snapshot-name"
	flagCodec        = "codec"

	defaultSnapshotName = "list"
)

type replayOptions struct {
	dump         string
	json         bool
	snapshotDir  string
	snapshotName string
	codec        string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(app *App) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Run a mutation script and print the events it publishes",
		Long: `Run a YAML mutation script against an observable list.

Every published event is verified by replaying it onto the list contents
before its step. The events are printed as a table, or as JSON with --json,
and can be written to a binary dump with --dump.

Lazy scripts may load from and save to a snapshot directory:
  listdelta replay --snapshot-dir ./state --codec gob+lz4 lazy.yaml`,
		Args: cobra.ExactArgs(1),
	}

	cmd.RunE = app.run(observability.ModeCLI, func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), cmd, app, opts, args[0])
	})

	cmd.Flags().StringVar(&opts.dump, flagDump, "", "write the events to a binary dump file")
	cmd.Flags().BoolVar(&opts.json, flagJSON, false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.snapshotDir, flagSnapshotDir, "", "snapshot directory for lazy scripts")
	cmd.Flags().StringVar(&opts.snapshotName, flagSnapshotName, defaultSnapshotName, "snapshot base name")
	cmd.Flags().StringVar(&opts.codec, flagCodec, persist.CodecJSON, "snapshot codec: json, gob, gob+lz4, json+lz4")

	return cmd
}

func runReplay(ctx context.Context, cmd *cobra.Command, app *App, opts *replayOptions, path string) error {
	s, err := script.ReadFile(path)
	if err != nil {
		return err
	}

	runnerOpts := []script.Option{
		script.WithLogger(app.Logger()),
		script.WithTracer(app.Providers.Tracer),
		script.WithAssemblerOptions(app.AssemblerOptions()...),
	}

	if opts.snapshotDir != "" {
		codec, codecErr := persist.CodecByName(opts.codec)
		if codecErr != nil {
			return codecErr
		}

		runnerOpts = append(runnerOpts, script.WithStore(persistent.NewStore[string](opts.snapshotDir, opts.snapshotName, codec)))
	}

	res, err := script.NewRunner(runnerOpts...).Run(ctx, s)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if opts.dump != "" {
		err = writeDump(opts.dump, res.Records)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if opts.json {
		return writeJSON(out, res)
	}

	report.Events(out, res.Records)
	report.Summary(out, res.Records)

	return nil
}

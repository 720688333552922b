package commands

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/internal/report"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/listdiff"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(app *App) *cobra.Command {
	var (
		asJSON bool
		dump   string
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Describe the change between two line files as one event",
		Long: `Treat each file as a list of lines and report the transformation from
the old list to the new one as a single change event.`,
		Args: cobra.ExactArgs(2),
	}

	cmd.RunE = app.run(observability.ModeCLI, func(cmd *cobra.Command, args []string) error {
		prev, err := readLines(args[0])
		if err != nil {
			return err
		}

		next, err := readLines(args[1])
		if err != nil {
			return err
		}

		assembler := listevent.NewAssembler(args[1], app.AssemblerOptions()...)

		sink := &eventcodec.Sink{}
		assembler.AddListener(sink)

		changed, err := listdiff.Report(assembler, prev, next)
		if err != nil {
			return err
		}

		replayed, err := listdiff.Apply(prev, assembler.LastEvent(), next)
		if err != nil {
			return err
		}

		if !slices.Equal(replayed, next) {
			return fmt.Errorf("diff %s %s: %w", args[0], args[1], listdiff.ErrMismatch)
		}

		app.Logger().DebugContext(cmd.Context(), "diff reported", "old", len(prev), "new", len(next), "changed", changed)

		if dump != "" {
			err = writeDump(dump, sink.Records)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()

		if asJSON {
			return writeJSON(out, sink.Records)
		}

		report.Events(out, sink.Records)
		report.Summary(out, sink.Records)

		return nil
	})

	cmd.Flags().BoolVar(&asJSON, flagJSON, false, "print the event as JSON")
	cmd.Flags().StringVar(&dump, flagDump, "", "write the event to a binary dump file")

	return cmd
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return listdiff.Lines(string(data)), nil
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/internal/report"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <dump>",
		Short: "Print the contents of an event dump",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = app.run(observability.ModeCLI, func(cmd *cobra.Command, args []string) error {
		path := args[0]

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open dump: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat dump: %w", err)
		}

		records, err := eventcodec.Decode(f)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		out := cmd.OutOrStdout()

		if asJSON {
			return writeJSON(out, records)
		}

		report.DumpInfo(out, path, info.Size(), len(records))
		report.Events(out, records)
		report.Summary(out, records)

		return nil
	})

	cmd.Flags().BoolVar(&asJSON, flagJSON, false, "print the records as JSON")

	return cmd
}

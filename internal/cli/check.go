package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/settler/internal/csvio"
)

// NewCheckCommand creates the check command.
//
// check runs the decoder only: no accounts are mutated and nothing is
// indexed. It surfaces the rows the processing run would silently drop,
// with their line numbers, so bad input can be fixed at the source.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <transactions.csv>",
		Short: "Validate input without processing it",
		Long: `Decode a transaction table and report every row that would be dropped.

The processing run drops undecodable rows silently by design; check makes
them visible. Exits 1 if any row would be dropped, 0 otherwise.

Example:
  settler check transactions.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, inputPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	input, err := os.Open(inputPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer func() {
		if closeErr := input.Close(); closeErr != nil {
			slog.Error("error closing input", "error", closeErr)
		}
	}()

	decoder := csvio.NewDecoder(input)
	decoded := 0
	for {
		_, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "input is not decodable", err)
		}
		decoded++
	}

	out := cmd.OutOrStdout()
	skipped := decoder.Skipped()
	for _, row := range skipped {
		fmt.Fprintf(out, "line %d: %s\n", row.Line, row.Reason)
	}
	fmt.Fprintf(out, "%d records decoded, %d rows dropped\n", decoded, len(skipped))

	if len(skipped) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rows failed to decode", len(skipped)))
	}
	return nil
}

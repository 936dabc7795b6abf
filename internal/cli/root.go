package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/settler/internal/csvio"
	"github.com/roach88/settler/internal/ledger"
	"github.com/roach88/settler/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Index   string // "memory" | "sqlite"
	Output  string // output file path; empty means stdout
}

// ValidIndexBackends defines the allowed transaction index backends.
var ValidIndexBackends = []string{"memory", "sqlite"}

// NewRootCommand creates the root command for the settler CLI.
//
// The root command is the process boundary itself: it takes the path to a
// transaction table, replays it, and writes the final account table to
// stdout. Fatal engine errors abort before any output is written.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "settler <transactions.csv>",
		Short: "Settler - deterministic payments replay",
		Long: `Settler replays an ordered log of financial transactions against
per-client accounts and prints the final account balances as CSV.

Deposits and withdrawals mutate available funds; disputes, resolves and
chargebacks run the dispute lifecycle against prior deposits. Malformed
rows are dropped; corrupt input (reused transaction ids, missing amounts)
aborts the run with no output.

Example:
  settler transactions.csv
  settler --index sqlite --output accounts.csv transactions.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidIndexBackend(opts.Index) {
				return fmt.Errorf("invalid index backend %q: must be one of %v", opts.Index, ValidIndexBackends)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(opts, args[0], cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Index, "index", "memory", "transaction index backend (memory|sqlite)")

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the account table to a file instead of stdout")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// isValidIndexBackend checks if the backend is one of the allowed values.
func isValidIndexBackend(backend string) bool {
	for _, b := range ValidIndexBackends {
		if b == backend {
			return true
		}
	}
	return false
}

// configureLogging installs the process-wide slog handler.
// Diagnostics go to stderr so they never mix with the CSV on stdout.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

func runProcess(opts *RootOptions, inputPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	slog.Info("opening input", "path", inputPath)
	input, err := os.Open(inputPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer func() {
		if closeErr := input.Close(); closeErr != nil {
			slog.Error("error closing input", "error", closeErr)
		}
	}()

	idx, cleanup, err := openIndex(opts.Index)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open transaction index", err)
	}
	defer cleanup()

	decoder := csvio.NewDecoder(input)
	eng := ledger.New(idx)

	accounts, err := eng.Process(decoder)
	if err != nil {
		return WrapExitError(ExitFailure, "processing failed", err)
	}
	if dropped := decoder.Skipped(); len(dropped) > 0 {
		slog.Info("rows dropped during decoding", "count", len(dropped))
	}

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Error("error closing output", "error", closeErr)
			}
		}()
		out = f
	}

	if err := csvio.WriteAccounts(out, accounts); err != nil {
		return WrapExitError(ExitCommandError, "failed to write account table", err)
	}
	return nil
}

// openIndex builds the requested index backend.
//
// The sqlite backend spills records to a scratch database under a temp
// directory; cleanup removes it when the run ends. The database is a
// per-run working file, never persistence across runs.
func openIndex(backend string) (ledger.Index, func(), error) {
	switch backend {
	case "sqlite":
		dir, err := os.MkdirTemp("", "settler-index-")
		if err != nil {
			return nil, nil, fmt.Errorf("create index scratch dir: %w", err)
		}
		idx, err := store.Open(filepath.Join(dir, "index.db"))
		if err != nil {
			os.RemoveAll(dir)
			return nil, nil, err
		}
		cleanup := func() {
			if closeErr := idx.Close(); closeErr != nil {
				slog.Error("error closing index", "error", closeErr)
			}
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				slog.Error("error removing index scratch dir", "error", rmErr)
			}
		}
		return idx, cleanup, nil
	default:
		idx := ledger.NewMemoryIndex()
		return idx, func() {}, nil
	}
}

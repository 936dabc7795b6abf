package harness

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/roach88/settler/internal/csvio"
	"github.com/roach88/settler/internal/ledger"
)

// Result captures the outcome of one scenario run.
type Result struct {
	// Accounts is the final account table, keyed by client id.
	// Nil when the run ended with a fatal error.
	Accounts map[uint16]*ledger.Account

	// FatalCode is the processing error code that aborted the run
	// (e.g. "DUPLICATE_TX"). Empty when the run succeeded.
	FatalCode string

	// Snapshot is the canonical CSV rendering of the final accounts,
	// used for golden comparison. For fatal runs it records the error
	// code instead, since no account table is produced.
	Snapshot []byte
}

// Run executes a scenario through a fresh engine and returns the result.
//
// Each scenario runs against its own in-memory transaction index for
// isolation. The scenario name doubles as the fixed run token, so log
// output and golden files stay deterministic across runs.
//
// Run returns an error only when the scenario itself is unusable
// (invalid step, snapshot rendering failure). Engine-level fatal errors
// are part of the outcome and surface as Result.FatalCode.
func Run(scenario *Scenario) (*Result, error) {
	records, err := scenario.records()
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario input: %w", err)
	}

	eng := ledger.New(
		ledger.NewMemoryIndex(),
		ledger.WithTokenGenerator(ledger.NewFixedGenerator(scenario.Name)),
	)

	accounts, procErr := eng.Process(ledger.NewSliceSource(records...))
	if procErr != nil {
		var perr *ledger.ProcessError
		if !errors.As(procErr, &perr) {
			return nil, fmt.Errorf("unexpected processing failure: %w", procErr)
		}
		return &Result{
			FatalCode: string(perr.Code),
			Snapshot:  fmt.Appendf(nil, "error: %s\n", perr.Code),
		}, nil
	}

	var buf bytes.Buffer
	if err := csvio.WriteAccounts(&buf, accounts); err != nil {
		return nil, fmt.Errorf("failed to render account snapshot: %w", err)
	}

	return &Result{
		Accounts: accounts,
		Snapshot: buf.Bytes(),
	}, nil
}

// Package ledger implements the transaction-processing core: the account
// state machine, the transaction index, and the replay engine.
//
// ARCHITECTURE:
//
// Single-Pass Replay:
// The engine consumes records strictly in input order and processes each
// one to completion before advancing. This ensures:
//   - Predictable account state at every record
//   - Reproducible output for the same input
//   - Simple reasoning about dispute look-back
//
// Record Processing Flow:
//  1. RecordSource yields the next record (CSV decoder or test slice)
//  2. Engine.apply() dispatches on the closed kind set
//  3. Deposit/withdrawal mutate the account, then register in the Index
//  4. Dispute/resolve/chargeback look up the referenced deposit and run
//     the lifecycle state machine (accepted -> disputed -> accepted or
//     charged_back)
//
// Two failure severities exist. OpError is recoverable: the record is
// logged and skipped, the account is untouched. ProcessError is fatal:
// the run aborts and no account map is produced. Duplicate transaction
// ids are fatal because they signal corrupt input, not business state.
//
// All amounts are shopspring decimals; comparisons and arithmetic keep
// full input precision, and values are truncated to four fractional
// digits only at the output boundary.
package ledger

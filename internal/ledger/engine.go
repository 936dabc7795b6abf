package ledger

import (
	"errors"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/roach88/settler/internal/tx"
)

// Engine replays an ordered log of transactions against per-client
// accounts.
//
// The engine consumes records strictly in arrival order and processes each
// one to completion (account mutation + index update) before advancing —
// later records may reference the cumulative state of any client. There is
// no parallelism across clients or records.
//
// ERROR HANDLING: Recoverable failures (OpError) are logged with full
// record context and the record is skipped; the affected account is left
// unchanged. The first fatal failure (ProcessError) aborts the run and no
// account map is returned.
//
// INVARIANTS:
//   - Total == Available + Held for every account after every record
//   - Accounts are created lazily and never destroyed during a run
//   - The engine owns the account map and index exclusively for the run
type Engine struct {
	index    Index
	accounts map[uint16]*Account
	tokens   TokenGenerator
	token    string
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithTokenGenerator overrides the run token generator.
// Tests use a FixedGenerator for deterministic log output.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// New creates an Engine over the given transaction index.
// The index choice (memory cache vs SQLite spill) is the caller's; the
// engine only requires idempotent lookup.
func New(index Index, opts ...Option) *Engine {
	e := &Engine{
		index:    index,
		accounts: make(map[uint16]*Account),
		tokens:   UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Process consumes records from src until io.EOF and returns the final
// account map. On a fatal failure no map is returned.
func (e *Engine) Process(src RecordSource) (map[uint16]*Account, error) {
	e.token = e.tokens.Generate()
	slog.Info("processing started", "run_token", e.token)

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ProcessError{
				Code:    ErrCodeSourceRead,
				Message: "record source failed",
				Err:     err,
			}
		}

		slog.Debug("record received",
			"run_token", e.token,
			"record", rec.String(),
			"line", rec.Line,
		)

		if err := e.apply(rec); err != nil {
			if IsRecoverable(err) {
				// Skipped records keep their source line in the log so a
				// rejected row can be found without reproducing the input.
				slog.Warn("record skipped",
					"run_token", e.token,
					"op", string(rec.Kind),
					"client", rec.Client,
					"tx", rec.Tx,
					"line", rec.Line,
					"error", err,
				)
				continue
			}
			slog.Error("processing aborted",
				"run_token", e.token,
				"op", string(rec.Kind),
				"client", rec.Client,
				"tx", rec.Tx,
				"line", rec.Line,
				"error", err,
			)
			return nil, err
		}
	}

	slog.Info("processing finished", "run_token", e.token, "accounts", len(e.accounts))
	return e.accounts, nil
}

// apply resolves (or lazily creates) the target account, then dispatches
// on the record kind. The kind set is closed, so dispatch is a single
// exhaustive switch rather than open-ended polymorphism.
func (e *Engine) apply(rec tx.Record) error {
	acct := e.account(rec.Client)

	switch rec.Kind {
	case tx.KindDeposit:
		return e.deposit(acct, rec)
	case tx.KindWithdrawal:
		return e.withdrawal(acct, rec)
	case tx.KindDispute:
		return e.dispute(acct, rec)
	case tx.KindResolve:
		return e.resolve(acct, rec)
	case tx.KindChargeback:
		return e.chargeback(acct, rec)
	default:
		return &ProcessError{
			Code:    ErrCodeSourceRead,
			Message: "record with unknown kind reached the engine",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
}

// monetaryAmount extracts the required amount of a deposit/withdrawal.
// A missing amount on an accepted kind is malformed input, which is fatal.
func monetaryAmount(rec tx.Record) (decimal.Decimal, error) {
	if rec.Amount == nil {
		return decimal.Decimal{}, &ProcessError{
			Code:    ErrCodeMissingAmount,
			Message: "amount required for this transaction type",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
	return *rec.Amount, nil
}

func (e *Engine) deposit(acct *Account, rec tx.Record) error {
	amount, err := monetaryAmount(rec)
	if err != nil {
		return err
	}
	if err := acct.Deposit(amount); err != nil {
		return err
	}
	return e.register(rec)
}

func (e *Engine) withdrawal(acct *Account, rec tx.Record) error {
	amount, err := monetaryAmount(rec)
	if err != nil {
		return err
	}
	if err := acct.Withdraw(amount); err != nil {
		return err
	}
	return e.register(rec)
}

// dispute opens a dispute against a prior deposit, moving its amount from
// available to held.
func (e *Engine) dispute(acct *Account, rec tx.Record) error {
	target, status, err := e.resolveTarget(rec)
	if err != nil {
		return err
	}
	if target.Kind != tx.KindDeposit {
		return &OpError{
			Code:    ErrCodeNotDisputable,
			Message: "only deposits can be disputed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      "dispute",
		}
	}
	if status != StatusAccepted {
		return &OpError{
			Code:    ErrCodeAlreadyDisputed,
			Message: "transaction is already disputed or closed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      "dispute",
		}
	}

	amount, err := registeredAmount(target)
	if err != nil {
		return err
	}
	if err := acct.Dispute(amount); err != nil {
		return err
	}
	return e.setStatus(rec, StatusDisputed)
}

// resolve closes an open dispute, releasing the held amount.
// The entry returns to accepted and may legally be disputed again.
func (e *Engine) resolve(acct *Account, rec tx.Record) error {
	target, status, err := e.resolveTarget(rec)
	if err != nil {
		return err
	}
	if status != StatusDisputed {
		return &OpError{
			Code:    ErrCodeNotDisputed,
			Message: "transaction has no open dispute",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      "resolve",
		}
	}

	amount, err := registeredAmount(target)
	if err != nil {
		return err
	}
	if err := acct.Resolve(amount); err != nil {
		return err
	}
	return e.setStatus(rec, StatusAccepted)
}

// chargeback closes an open dispute by reversing the deposit and locking
// the account permanently. The dispute entry closes and may not reopen.
func (e *Engine) chargeback(acct *Account, rec tx.Record) error {
	target, status, err := e.resolveTarget(rec)
	if err != nil {
		return err
	}
	if status != StatusDisputed {
		return &OpError{
			Code:    ErrCodeNotDisputed,
			Message: "transaction has no open dispute",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      "chargeback",
		}
	}

	amount, err := registeredAmount(target)
	if err != nil {
		return err
	}
	if err := acct.Chargeback(amount); err != nil {
		return err
	}
	return e.setStatus(rec, StatusChargedBack)
}

// resolveTarget looks up the transaction a dispute-kind record references
// and runs the checks shared by dispute, resolve and chargeback.
//
// A failed lookup mechanism is fatal: the index accepted this id earlier
// and must be able to produce it again. An unknown id or a client mismatch
// is a recoverable rejection.
func (e *Engine) resolveTarget(rec tx.Record) (tx.Record, DisputeStatus, error) {
	target, status, ok, err := e.index.Lookup(rec.Tx)
	if err != nil {
		return tx.Record{}, "", &ProcessError{
			Code:    ErrCodeLookupFailed,
			Message: "transaction lookup failed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
			Err:     err,
		}
	}
	if !ok {
		return tx.Record{}, "", &OpError{
			Code:    ErrCodeUnknownTx,
			Message: "referenced transaction was never accepted",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
	if target.Client != rec.Client {
		return tx.Record{}, "", &OpError{
			Code:    ErrCodeClientMismatch,
			Message: "referenced transaction belongs to another client",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
	return target, status, nil
}

// setStatus flips the dispute status of a registered entry. The index
// accepted this id earlier, so any failure here is a broken lookup
// mechanism and fatal.
func (e *Engine) setStatus(rec tx.Record, status DisputeStatus) error {
	err := e.index.SetStatus(rec.Tx, status)
	if err == nil {
		return nil
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return err
	}
	return &ProcessError{
		Code:    ErrCodeLookupFailed,
		Message: "dispute status update failed",
		Client:  rec.Client,
		Tx:      rec.Tx,
		Op:      string(rec.Kind),
		Err:     err,
	}
}

// registeredAmount extracts the amount of an indexed record. Registered
// records always carry one; a nil amount here means the index returned a
// record it could not have accepted, which is a lookup mechanism failure.
func registeredAmount(target tx.Record) (decimal.Decimal, error) {
	if target.Amount == nil {
		return decimal.Decimal{}, &ProcessError{
			Code:    ErrCodeLookupFailed,
			Message: "indexed transaction is missing its amount",
			Client:  target.Client,
			Tx:      target.Tx,
			Op:      string(target.Kind),
		}
	}
	return *target.Amount, nil
}

// register records an accepted deposit/withdrawal in the index.
// Registration happens after the balance mutation: a rejected operation
// leaves no index entry, so its id stays unknown to later disputes.
func (e *Engine) register(rec tx.Record) error {
	return e.index.Register(rec)
}

// account resolves or lazily creates the account for a client id.
func (e *Engine) account(client uint16) *Account {
	acct, ok := e.accounts[client]
	if !ok {
		acct = NewAccount(client)
		e.accounts[client] = acct
	}
	return acct
}

// RunToken returns the token of the most recent Process call.
// Used for testing and diagnostics.
func (e *Engine) RunToken() string {
	return e.token
}

package ledger

import (
	"errors"
	"fmt"
)

// OpError represents a recoverable per-record failure.
//
// Recoverable failures include:
//   - Locked account: any operation against a charged-back account
//   - Insufficient funds: withdrawal/dispute beyond available, resolve/chargeback beyond held
//   - Dispute lifecycle violations: unknown tx, client mismatch, wrong status
//
// The engine logs these and skips the record; the affected account is left
// entirely unchanged.
type OpError struct {
	// Code identifies the failure category.
	Code OpErrorCode

	// Message is a human-readable description.
	Message string

	// Client identifies the affected account.
	Client uint16

	// Tx identifies the transaction, when one is known (0 otherwise).
	Tx uint32

	// Op names the operation that was rejected.
	Op string
}

// OpErrorCode categorizes recoverable failures.
type OpErrorCode string

const (
	// ErrCodeAccountLocked indicates the account is frozen after a chargeback.
	ErrCodeAccountLocked OpErrorCode = "ACCOUNT_LOCKED"

	// ErrCodeInsufficientAvailable indicates available/total funds are too low.
	ErrCodeInsufficientAvailable OpErrorCode = "INSUFFICIENT_AVAILABLE"

	// ErrCodeInsufficientHeld indicates held funds are too low.
	ErrCodeInsufficientHeld OpErrorCode = "INSUFFICIENT_HELD"

	// ErrCodeUnknownTx indicates a dispute-kind record referenced an id
	// that was never accepted.
	ErrCodeUnknownTx OpErrorCode = "UNKNOWN_TX"

	// ErrCodeClientMismatch indicates the referencing record's client does
	// not own the referenced transaction.
	ErrCodeClientMismatch OpErrorCode = "CLIENT_MISMATCH"

	// ErrCodeNotDisputable indicates the referenced transaction is not a
	// deposit. Withdrawal disputes are out of policy scope.
	ErrCodeNotDisputable OpErrorCode = "NOT_DISPUTABLE"

	// ErrCodeAlreadyDisputed indicates the transaction is under an open
	// dispute, or its dispute was closed terminally by a chargeback.
	ErrCodeAlreadyDisputed OpErrorCode = "ALREADY_DISPUTED"

	// ErrCodeNotDisputed indicates a resolve/chargeback referenced a
	// transaction with no open dispute.
	ErrCodeNotDisputed OpErrorCode = "NOT_DISPUTED"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Tx != 0 {
		return fmt.Sprintf("%s: %s (client=%d, tx=%d, op=%s)", e.Code, e.Message, e.Client, e.Tx, e.Op)
	}
	return fmt.Sprintf("%s: %s (client=%d, op=%s)", e.Code, e.Message, e.Client, e.Op)
}

// ProcessError represents a fatal failure that aborts the whole run.
//
// Fatal failures signal corrupt input or a broken lookup mechanism, not a
// business condition: duplicate transaction ids, a missing amount on a
// deposit/withdrawal, an index that can no longer resolve an accepted id,
// or an input read failure.
type ProcessError struct {
	// Code identifies the failure category.
	Code ProcessErrorCode

	// Message is a human-readable description.
	Message string

	// Client identifies the account, when one is known.
	Client uint16

	// Tx identifies the transaction, when one is known.
	Tx uint32

	// Op names the operation being processed.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// ProcessErrorCode categorizes fatal failures.
type ProcessErrorCode string

const (
	// ErrCodeDuplicateTx indicates a transaction id was reused. Treated as
	// a data corruption signal, never a recoverable business condition.
	ErrCodeDuplicateTx ProcessErrorCode = "DUPLICATE_TX"

	// ErrCodeMissingAmount indicates a deposit/withdrawal without an amount.
	ErrCodeMissingAmount ProcessErrorCode = "MISSING_AMOUNT"

	// ErrCodeLookupFailed indicates the index could not resolve an id it
	// had previously accepted.
	ErrCodeLookupFailed ProcessErrorCode = "LOOKUP_FAILED"

	// ErrCodeSourceRead indicates the record source failed mid-stream.
	ErrCodeSourceRead ProcessErrorCode = "SOURCE_READ"
)

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Tx != 0 || e.Client != 0 {
		msg = fmt.Sprintf("%s (client=%d, tx=%d, op=%s)", msg, e.Client, e.Tx, e.Op)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether processing may continue past err.
// Only OpError values are recoverable; everything else aborts the run.
// Uses errors.As to handle wrapped errors.
func IsRecoverable(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}

// IsDuplicateTx reports whether err is a duplicate transaction id failure.
// Uses errors.As to handle wrapped errors.
func IsDuplicateTx(err error) bool {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeDuplicateTx
	}
	return false
}

// IsLockedErr reports whether err is an account-locked rejection.
// Uses errors.As to handle wrapped errors.
func IsLockedErr(err error) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeAccountLocked
	}
	return false
}

package tx

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies the five transaction types accepted on the wire.
// The set is closed: dispatch over Kind is always an exhaustive switch.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind validates a raw type column value.
// Input is expected to be already trimmed and lowercase per the wire format.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Monetary returns true for kinds that carry their own amount.
// Dispute, resolve and chargeback reference a prior deposit instead.
func (k Kind) Monetary() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Record is one decoded input event. Records are immutable once built:
// the engine never mutates them, and dispute state lives in the index,
// not on the record.
type Record struct {
	Kind   Kind
	Client uint16
	Tx     uint32

	// Amount is present for deposit/withdrawal, nil for the dispute kinds.
	Amount *decimal.Decimal

	// Line is the 1-based source row this record was decoded from.
	// Diagnostic metadata only; not part of record identity.
	Line int
}

// String renders a record for log output.
func (r Record) String() string {
	if r.Amount != nil {
		return fmt.Sprintf("%s client=%d tx=%d amount=%s", r.Kind, r.Client, r.Tx, r.Amount)
	}
	return fmt.Sprintf("%s client=%d tx=%d", r.Kind, r.Client, r.Tx)
}

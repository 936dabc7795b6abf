// Package testutil provides record builders shared by tests across the
// ledger, store, csvio and harness packages.
package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/settler/internal/tx"
)

// Dec parses a decimal literal, panicking on malformed input.
// Test-only convenience for amounts and expected balances.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Deposit builds a deposit record.
func Deposit(client uint16, id uint32, amount string) tx.Record {
	d := Dec(amount)
	return tx.Record{Kind: tx.KindDeposit, Client: client, Tx: id, Amount: &d}
}

// Withdrawal builds a withdrawal record.
func Withdrawal(client uint16, id uint32, amount string) tx.Record {
	d := Dec(amount)
	return tx.Record{Kind: tx.KindWithdrawal, Client: client, Tx: id, Amount: &d}
}

// Dispute builds a dispute record referencing a prior transaction.
func Dispute(client uint16, id uint32) tx.Record {
	return tx.Record{Kind: tx.KindDispute, Client: client, Tx: id}
}

// Resolve builds a resolve record referencing a prior transaction.
func Resolve(client uint16, id uint32) tx.Record {
	return tx.Record{Kind: tx.KindResolve, Client: client, Tx: id}
}

// Chargeback builds a chargeback record referencing a prior transaction.
func Chargeback(client uint16, id uint32) tx.Record {
	return tx.Record{Kind: tx.KindChargeback, Client: client, Tx: id}
}

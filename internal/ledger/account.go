package ledger

import (
	"github.com/shopspring/decimal"
)

// Account holds one client's balances and lock state.
//
// INVARIANTS:
//   - Total == Available + Held at every observable point
//   - Available, Held, Total never go negative
//   - Locked is set exactly once, by Chargeback, and never cleared
//
// Every mutation updates the two fields whose sum keeps the first invariant,
// and every precondition is checked before any field changes: a rejected
// operation leaves the account untouched.
type Account struct {
	Client    uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// NewAccount creates an account with zero balances and no lock.
// Accounts are created lazily on first reference to a client id.
func NewAccount(client uint16) *Account {
	return &Account{Client: client}
}

// checkLock rejects any operation against a charged-back account.
func (a *Account) checkLock(op string) error {
	if a.Locked {
		return &OpError{
			Code:    ErrCodeAccountLocked,
			Message: "account is locked",
			Client:  a.Client,
			Op:      op,
		}
	}
	return nil
}

// checkReducible verifies that both available and total cover amount.
func (a *Account) checkReducible(amount decimal.Decimal, op string) error {
	if a.Available.LessThan(amount) || a.Total.LessThan(amount) {
		return &OpError{
			Code:    ErrCodeInsufficientAvailable,
			Message: "insufficient available funds",
			Client:  a.Client,
			Op:      op,
		}
	}
	return nil
}

// checkHeld verifies that held funds cover amount.
func (a *Account) checkHeld(amount decimal.Decimal, op string) error {
	if a.Held.LessThan(amount) {
		return &OpError{
			Code:    ErrCodeInsufficientHeld,
			Message: "insufficient held funds",
			Client:  a.Client,
			Op:      op,
		}
	}
	return nil
}

// Deposit credits amount to available funds.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := a.checkLock("deposit"); err != nil {
		return err
	}
	a.Available = a.Available.Add(amount)
	a.Total = a.Total.Add(amount)
	return nil
}

// Withdraw debits amount from available funds.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := a.checkLock("withdrawal"); err != nil {
		return err
	}
	if err := a.checkReducible(amount, "withdrawal"); err != nil {
		return err
	}
	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
	return nil
}

// Dispute moves amount from available to held. Total is unchanged.
func (a *Account) Dispute(amount decimal.Decimal) error {
	if err := a.checkLock("dispute"); err != nil {
		return err
	}
	if err := a.checkReducible(amount, "dispute"); err != nil {
		return err
	}
	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)
	return nil
}

// Resolve releases amount from held back to available. Total is unchanged.
func (a *Account) Resolve(amount decimal.Decimal) error {
	if err := a.checkLock("resolve"); err != nil {
		return err
	}
	if err := a.checkHeld(amount, "resolve"); err != nil {
		return err
	}
	a.Available = a.Available.Add(amount)
	a.Held = a.Held.Sub(amount)
	return nil
}

// Chargeback withdraws amount from held funds and locks the account
// permanently. This is the terminal state of a dispute.
func (a *Account) Chargeback(amount decimal.Decimal) error {
	if err := a.checkLock("chargeback"); err != nil {
		return err
	}
	if err := a.checkHeld(amount, "chargeback"); err != nil {
		return err
	}
	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
	return nil
}

package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/settler/internal/testutil"
)

// assertBalances verifies the account holds the expected balances and that
// the total invariant holds.
func assertBalances(t *testing.T, a *Account, available, held, total string) {
	t.Helper()
	assert.True(t, a.Available.Equal(testutil.Dec(available)),
		"available = %s, want %s", a.Available, available)
	assert.True(t, a.Held.Equal(testutil.Dec(held)),
		"held = %s, want %s", a.Held, held)
	assert.True(t, a.Total.Equal(testutil.Dec(total)),
		"total = %s, want %s", a.Total, total)
	assert.True(t, a.Total.Equal(a.Available.Add(a.Held)),
		"invariant broken: total %s != available %s + held %s", a.Total, a.Available, a.Held)
}

func TestAccount_Deposit(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10.0")))
	assertBalances(t, a, "10", "0", "10")
	assert.False(t, a.Locked)
}

func TestAccount_Withdraw(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Withdraw(testutil.Dec("5")))
	assertBalances(t, a, "5", "0", "5")
}

func TestAccount_Withdraw_Insufficient(t *testing.T) {
	a := NewAccount(1)
	err := a.Withdraw(testutil.Dec("5"))
	require.Error(t, err)

	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ErrCodeInsufficientAvailable, oe.Code)
	assert.Equal(t, uint16(1), oe.Client)

	// Rejected operation leaves the account untouched.
	assertBalances(t, a, "0", "0", "0")
}

func TestAccount_Withdraw_ExactBalance(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("5")))
	require.NoError(t, a.Withdraw(testutil.Dec("5")))
	assertBalances(t, a, "0", "0", "0")
}

func TestAccount_Dispute(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Dispute(testutil.Dec("10")))
	assertBalances(t, a, "0", "10", "10")
}

func TestAccount_Dispute_Insufficient(t *testing.T) {
	// Deposit then withdraw, then dispute the full deposit: available no
	// longer covers the disputed amount.
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Withdraw(testutil.Dec("8")))

	err := a.Dispute(testutil.Dec("10"))
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ErrCodeInsufficientAvailable, oe.Code)
	assertBalances(t, a, "2", "0", "2")
}

func TestAccount_Resolve(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Dispute(testutil.Dec("10")))
	require.NoError(t, a.Resolve(testutil.Dec("10")))
	assertBalances(t, a, "10", "0", "10")
	assert.False(t, a.Locked)
}

func TestAccount_Resolve_InsufficientHeld(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))

	err := a.Resolve(testutil.Dec("10"))
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ErrCodeInsufficientHeld, oe.Code)
	assertBalances(t, a, "10", "0", "10")
}

func TestAccount_Chargeback(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Dispute(testutil.Dec("10")))
	require.NoError(t, a.Chargeback(testutil.Dec("10")))
	assertBalances(t, a, "0", "0", "0")
	assert.True(t, a.Locked)
}

func TestAccount_Locked_RejectsAllOperations(t *testing.T) {
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Dispute(testutil.Dec("10")))
	require.NoError(t, a.Chargeback(testutil.Dec("10")))
	require.True(t, a.Locked)

	ops := map[string]func(decimal.Decimal) error{
		"deposit":    a.Deposit,
		"withdrawal": a.Withdraw,
		"dispute":    a.Dispute,
		"resolve":    a.Resolve,
		"chargeback": a.Chargeback,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op(testutil.Dec("1"))
			require.Error(t, err)
			assert.True(t, IsLockedErr(err))
			assertBalances(t, a, "0", "0", "0")
		})
	}
}

func TestAccount_PartialDispute(t *testing.T) {
	// Two deposits, dispute only the first: held covers just that amount.
	a := NewAccount(1)
	require.NoError(t, a.Deposit(testutil.Dec("10")))
	require.NoError(t, a.Deposit(testutil.Dec("2.5")))
	require.NoError(t, a.Dispute(testutil.Dec("10")))
	assertBalances(t, a, "2.5", "10", "12.5")

	// Withdrawals are limited by what remains available.
	err := a.Withdraw(testutil.Dec("3"))
	require.Error(t, err)
	require.NoError(t, a.Withdraw(testutil.Dec("2.5")))
	assertBalances(t, a, "0", "10", "10")
}

package store

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAccount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.CreateAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, 0.0, first.Balance)

	second, err := s.CreateAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryStore_DepositThenBalance(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Deposit(ctx, acc.ID, 100))

	balance, err := s.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)
}

func TestMemoryStore_WithdrawInsufficientFunds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Deposit(ctx, acc.ID, 50))

	err = s.Withdraw(ctx, acc.ID, 50.01)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// A failed withdrawal must leave the balance untouched
	balance, err := s.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, balance)
}

func TestMemoryStore_InvalidAmounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, s.Deposit(ctx, acc.ID, amount), ErrInvalidAmount, "deposit of %v", amount)
		assert.ErrorIs(t, s.Withdraw(ctx, acc.ID, amount), ErrInvalidAmount, "withdrawal of %v", amount)
	}

	balance, err := s.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestMemoryStore_UnknownAccount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Deposit(ctx, 42, 10), ErrAccountNotFound)
	assert.ErrorIs(t, s.Withdraw(ctx, 42, 10), ErrAccountNotFound)

	_, err := s.GetBalance(ctx, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// Concurrent withdrawals whose sum exceeds the balance: exactly the
// affordable subset succeeds and the balance never goes negative.
func TestMemoryStore_ConcurrentWithdrawals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Deposit(ctx, acc.ID, 100))

	const workers = 50 // 50 x 10 = 500 requested, only 100 available

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, insufficient := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Withdraw(ctx, acc.ID, 10)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			default:
				require.ErrorIs(t, err, ErrInsufficientFunds)
				insufficient++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, insufficient)

	balance, err := s.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestMemoryStore_AccountsAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.CreateAccount(ctx)
	require.NoError(t, err)
	b, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Deposit(ctx, a.ID, 30))
	require.NoError(t, s.Deposit(ctx, b.ID, 70))
	require.NoError(t, s.Withdraw(ctx, b.ID, 70))

	balanceA, err := s.GetBalance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, balanceA)

	balanceB, err := s.GetBalance(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balanceB)
}

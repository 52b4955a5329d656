package service

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultline/ledger/internal/store"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewLedgerService(store.NewMemoryStore(), nil, log, nil)
}

func TestLedgerService_DepositIssuesTransactionID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	txID, err := s.Deposit(ctx, acc.ID, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, txID)

	balance, err := s.GetBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)
}

func TestLedgerService_TransactionIDsAreUnique(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		deposited, err := s.Deposit(ctx, acc.ID, 1)
		require.NoError(t, err)
		withdrawn, err := s.Withdraw(ctx, acc.ID, 1)
		require.NoError(t, err)

		for _, id := range []string{deposited, withdrawn} {
			assert.False(t, seen[id], "transaction id %s issued twice", id)
			seen[id] = true
		}
	}
}

func TestLedgerService_FailedMutationIssuesNoID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx)
	require.NoError(t, err)

	txID, err := s.Withdraw(ctx, acc.ID, 10)
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)
	assert.Empty(t, txID)

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := s.Deposit(ctx, acc.ID, amount)
		assert.ErrorIs(t, err, store.ErrInvalidAmount, "deposit of %v", amount)
	}

	_, err = s.Deposit(ctx, 99, 10)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

package store

import (
	"context"
	"errors"
	"math"

	"github.com/vaultline/ledger/internal/models"
)

// Errors shared by every Store implementation. Callers match them with
// errors.Is to pick the HTTP status.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store owns account identities and balances. It is the only component that
// mutates a balance, and every implementation must keep balances non-negative:
// the insufficiency check and the subtraction of a withdrawal happen as one
// atomic step per account.
type Store interface {
	// CreateAccount allocates the next account id and stores a new account
	// with balance 0.
	CreateAccount(ctx context.Context) (*models.Account, error)

	// Deposit adds amount to the account's balance.
	Deposit(ctx context.Context, accountID int64, amount float64) error

	// Withdraw subtracts amount from the account's balance, failing with
	// ErrInsufficientFunds when amount exceeds it.
	Withdraw(ctx context.Context, accountID int64, amount float64) error

	// GetBalance returns the current balance without side effects.
	GetBalance(ctx context.Context, accountID int64) (float64, error)
}

// validAmount reports whether amount may be applied to a balance.
// NaN fails the comparison; infinities must be ruled out explicitly.
func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0)
}

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vaultline/ledger/internal/models"
)

// MemoryStore keeps accounts in a process-local map. Ids are assigned
// monotonically starting at 1. Each account carries its own mutex so the
// check-and-mutate of a withdrawal is serialized per account while operations
// on different accounts proceed independently; the outer RWMutex only guards
// the map and the id counter.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*memAccount
}

type memAccount struct {
	mu        sync.Mutex
	balance   float64
	createdAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*memAccount),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	acc := &memAccount{createdAt: time.Now()}
	s.accounts[s.nextID] = acc

	return &models.Account{
		ID:        s.nextID,
		Balance:   0,
		CreatedAt: acc.createdAt,
	}, nil
}

// account looks up the entry for id. Accounts are never deleted, so the
// returned pointer stays valid after the map lock is released.
func (s *MemoryStore) account(id int64) (*memAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, ErrAccountNotFound)
	}
	return acc, nil
}

func (s *MemoryStore) Deposit(ctx context.Context, accountID int64, amount float64) error {
	if !validAmount(amount) {
		return fmt.Errorf("deposit of %v: %w", amount, ErrInvalidAmount)
	}

	acc, err := s.account(accountID)
	if err != nil {
		return err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.balance += amount
	return nil
}

func (s *MemoryStore) Withdraw(ctx context.Context, accountID int64, amount float64) error {
	if !validAmount(amount) {
		return fmt.Errorf("withdrawal of %v: %w", amount, ErrInvalidAmount)
	}

	acc, err := s.account(accountID)
	if err != nil {
		return err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	if amount > acc.balance {
		return fmt.Errorf("withdrawal of %v from balance %v: %w", amount, acc.balance, ErrInsufficientFunds)
	}
	acc.balance -= amount
	return nil
}

func (s *MemoryStore) GetBalance(ctx context.Context, accountID int64) (float64, error) {
	acc, err := s.account(accountID)
	if err != nil {
		return 0, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

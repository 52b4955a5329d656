package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vaultline/ledger/internal/metrics"
	"github.com/vaultline/ledger/internal/models"
	"github.com/vaultline/ledger/internal/store"
)

// LedgerService sits between the handlers and the store: it delegates
// validation and mutation to the store and stamps every successful mutation
// with a fresh transaction id for the caller to reconcile against.
type LedgerService struct {
	store   store.Store
	txids   TxIDIssuer
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewLedgerService(st store.Store, txids TxIDIssuer, log *logrus.Logger, m *metrics.Metrics) *LedgerService {
	if txids == nil {
		txids = NewUUIDIssuer()
	}
	return &LedgerService{
		store:   st,
		txids:   txids,
		log:     log,
		metrics: m,
	}
}

// CreateAccount opens a new account with a zero balance.
func (s *LedgerService) CreateAccount(ctx context.Context) (*models.Account, error) {
	account, err := s.store.CreateAccount(ctx)
	if err != nil {
		s.record("create_account", err)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.record("create_account", nil)
	s.log.WithField("account_id", account.ID).Info("account created")
	return account, nil
}

// Deposit adds amount to the account and returns the transaction id.
func (s *LedgerService) Deposit(ctx context.Context, accountID int64, amount float64) (string, error) {
	if err := s.store.Deposit(ctx, accountID, amount); err != nil {
		s.record("deposit", err)
		return "", err
	}

	s.record("deposit", nil)
	txID := s.txids.Next()
	s.log.WithFields(logrus.Fields{
		"account_id":     accountID,
		"amount":         amount,
		"transaction_id": txID,
	}).Info("deposit completed")
	return txID, nil
}

// Withdraw subtracts amount from the account and returns the transaction id.
func (s *LedgerService) Withdraw(ctx context.Context, accountID int64, amount float64) (string, error) {
	if err := s.store.Withdraw(ctx, accountID, amount); err != nil {
		s.record("withdraw", err)
		return "", err
	}

	s.record("withdraw", nil)
	txID := s.txids.Next()
	s.log.WithFields(logrus.Fields{
		"account_id":     accountID,
		"amount":         amount,
		"transaction_id": txID,
	}).Info("withdrawal completed")
	return txID, nil
}

// GetBalance returns the account's current balance.
func (s *LedgerService) GetBalance(ctx context.Context, accountID int64) (float64, error) {
	balance, err := s.store.GetBalance(ctx, accountID)
	if err != nil {
		s.record("get_balance", err)
		return 0, err
	}

	s.record("get_balance", nil)
	return balance, nil
}

func (s *LedgerService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, store.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, store.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "error"
	}
}

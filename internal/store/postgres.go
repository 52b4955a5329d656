package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/vaultline/ledger/internal/models"
)

// PostgresStore implements Store on top of PostgreSQL, giving a deployment
// durable balances without touching call-handling logic. The per-account
// serialization of withdraw comes from a row lock (SELECT ... FOR UPDATE)
// held for the duration of the transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection. Used by tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// closes the database connection
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// initialize the database schema
func (p *PostgresStore) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	_, err := p.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}
	return nil
}

func (p *PostgresStore) CreateAccount(ctx context.Context) (*models.Account, error) {
	query := `
	INSERT INTO accounts (balance)
	VALUES (0)
	RETURNING id, balance, created_at`

	var account models.Account
	err := p.db.QueryRowContext(ctx, query).Scan(
		&account.ID, &account.Balance, &account.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

func (p *PostgresStore) Deposit(ctx context.Context, accountID int64, amount float64) error {
	if !validAmount(amount) {
		return fmt.Errorf("deposit of %v: %w", amount, ErrInvalidAmount)
	}
	return p.updateBalance(ctx, accountID, amount)
}

func (p *PostgresStore) Withdraw(ctx context.Context, accountID int64, amount float64) error {
	if !validAmount(amount) {
		return fmt.Errorf("withdrawal of %v: %w", amount, ErrInvalidAmount)
	}
	return p.updateBalance(ctx, accountID, -amount)
}

func (p *PostgresStore) GetBalance(ctx context.Context, accountID int64) (float64, error) {
	var balance float64
	err := p.db.QueryRowContext(
		ctx,
		"SELECT balance FROM accounts WHERE id = $1",
		accountID,
	).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// updateBalance applies a signed delta under a row lock so the insufficiency
// check and the mutation are one atomic step.
func (p *PostgresStore) updateBalance(ctx context.Context, accountID int64, delta float64) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var currentBalance float64
	err = tx.QueryRowContext(
		ctx,
		"SELECT balance FROM accounts WHERE id = $1 FOR UPDATE",
		accountID,
	).Scan(&currentBalance)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
		}
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	newBalance := currentBalance + delta
	if newBalance < 0 {
		return fmt.Errorf("withdrawal of %v from balance %v: %w", -delta, currentBalance, ErrInsufficientFunds)
	}

	_, err = tx.ExecContext(
		ctx,
		"UPDATE accounts SET balance = $1 WHERE id = $2",
		newBalance, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

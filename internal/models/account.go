package models

import (
	"time"
)

type Account struct {
	ID        int64     `json:"id" db:"id"`
	Balance   float64   `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type AccountResponse struct {
	AccountID int64 `json:"account_id"`
}

type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

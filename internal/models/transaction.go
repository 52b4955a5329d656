package models

// AmountRequest carries the amount for a deposit or withdrawal.
type AmountRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TransactionResponse returns the correlation id issued for a successful
// deposit or withdrawal. The id is not retained server-side; it exists only
// so the caller can reconcile the response, not to look the operation up
// again later.
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

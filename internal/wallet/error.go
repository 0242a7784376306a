package wallet

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrWalletNotFound    = errors.New("wallet not found")
)

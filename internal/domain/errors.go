package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidUsername    = errors.New("username must not be empty")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSelfTransfer       = errors.New("cannot transfer to the same account")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLedgerCorrupt      = errors.New("ledger store is unreadable")
)

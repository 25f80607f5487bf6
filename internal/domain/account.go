package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdraw         TransactionType = "withdraw"
	TransactionTypeTransferSent     TransactionType = "transfer-sent"
	TransactionTypeTransferReceived TransactionType = "transfer-received"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw,
		TransactionTypeTransferSent, TransactionTypeTransferReceived:
		return true
	}
	return false
}

// Signed returns amount with the sign this entry type contributes to a balance.
func (t TransactionType) Signed(amount int64) int64 {
	switch t {
	case TransactionTypeWithdraw, TransactionTypeTransferSent:
		return -amount
	default:
		return amount
	}
}

// Transaction is one append-only ledger entry. Amount is a strictly positive
// count of minor units; the type carries the direction.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	Counterparty string          `json:"counterparty,omitempty"`
}

// Account is one row of the ledger table, keyed by username. Transactions are
// insertion-ordered, oldest first, and never mutated or removed after append.
type Account struct {
	Username     string        `json:"username"`
	PasswordHash string        `json:"password_hash"`
	Balance      int64         `json:"balance"`
	CreatedAt    time.Time     `json:"created_at"`
	Transactions []Transaction `json:"transactions"`
}

// Clone returns a deep copy so callers can never alias persisted state.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}

// Ledger is the whole persisted account table.
type Ledger map[string]*Account

// TotalBalance sums every account balance; invariant across transfers.
func (l Ledger) TotalBalance() int64 {
	var total int64
	for _, acct := range l {
		total += acct.Balance
	}
	return total
}

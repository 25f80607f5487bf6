// Package events publishes ledger activity to interested consumers.
// Publishing is best-effort: a failed publish never fails the operation
// that produced the event.
package events

import (
	"context"
	"time"
)

type EventType string

const (
	EventTypeAccountCreated EventType = "account_created"
	EventTypeDeposit        EventType = "deposit"
	EventTypeWithdraw       EventType = "withdraw"
	EventTypeTransfer       EventType = "transfer"
)

type LedgerEvent struct {
	Type         EventType `json:"type"`
	Username     string    `json:"username"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       int64     `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event LedgerEvent) error { return nil }

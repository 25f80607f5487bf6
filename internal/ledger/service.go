// Package ledger implements the account ledger: registration, authentication,
// and the money-movement operations, each a single load-mutate-save cycle
// against the whole account table.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcward/minibank/internal/auth"
	"github.com/marcward/minibank/internal/domain"
	"github.com/marcward/minibank/internal/events"
	"github.com/marcward/minibank/internal/logging"
)

// DefaultOpeningBalance is the welcome bonus credited on registration,
// in minor units.
const DefaultOpeningBalance int64 = 10000

type ledgerStore interface {
	Load(ctx context.Context) (domain.Ledger, error)
	Save(ctx context.Context, ledger domain.Ledger) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.LedgerEvent) error
}

// Service is the sole entry point for mutating account state. A single mutex
// serializes every load-mutate-save cycle: the store persists the table as one
// blob, so even operations on disjoint accounts rewrite the same unit and
// finer-grained locking would buy nothing. The lock is held across the full
// cycle, not just the I/O calls, so concurrent deposits cannot lose updates.
type Service struct {
	mu             sync.Mutex
	store          ledgerStore
	publisher      eventPublisher
	openingBalance int64
}

func NewService(store ledgerStore, publisher eventPublisher, openingBalance int64) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if openingBalance <= 0 {
		openingBalance = DefaultOpeningBalance
	}
	return &Service{
		store:          store,
		publisher:      publisher,
		openingBalance: openingBalance,
	}
}

// CreateAccount registers a new account seeded with the opening balance and
// one deposit transaction recording it. An existing username fails with
// domain.ErrAccountExists and mutates nothing.
func (s *Service) CreateAccount(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidUsername)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	if _, exists := ledger[username]; exists {
		return nil, fmt.Errorf("CreateAccount: %q: %w", username, domain.ErrAccountExists)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		PasswordHash: hash,
		Balance:      s.openingBalance,
		CreatedAt:    now,
		Transactions: []domain.Transaction{{
			ID:          uuid.New(),
			Type:        domain.TransactionTypeDeposit,
			Amount:      s.openingBalance,
			Timestamp:   now,
			Description: "Initial deposit - Welcome bonus",
		}},
	}
	ledger[username] = account

	if err := s.store.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"username", username,
		"opening_balance", s.openingBalance,
	)
	s.publish(ctx, events.LedgerEvent{
		Type:       events.EventTypeAccountCreated,
		Username:   username,
		Amount:     s.openingBalance,
		OccurredAt: now,
	})

	return account.Clone(), nil
}

// Authenticate verifies the claimed identity. Unknown usernames and wrong
// passwords both yield domain.ErrInvalidCredentials. Side-effect-free.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	account, ok := ledger[username]
	if !ok || !auth.CheckPassword(account.PasswordHash, password) {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
	}
	return account.Clone(), nil
}

// Deposit credits the account and appends a deposit transaction.
func (s *Service) Deposit(ctx context.Context, username string, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Deposit: %w", domain.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	account, ok := ledger[username]
	if !ok {
		return nil, fmt.Errorf("Deposit: %q: %w", username, domain.ErrAccountNotFound)
	}
	if account.Balance > math.MaxInt64-amount {
		return nil, fmt.Errorf("Deposit: balance would overflow: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	account.Balance += amount
	account.Transactions = append(account.Transactions, domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeDeposit,
		Amount:      amount,
		Timestamp:   now,
		Description: fmt.Sprintf("Deposit of %d", amount),
	})

	if err := s.store.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit completed",
		"username", username,
		"amount", amount,
		"balance", account.Balance,
	)
	s.publish(ctx, events.LedgerEvent{
		Type:       events.EventTypeDeposit,
		Username:   username,
		Amount:     amount,
		OccurredAt: now,
	})

	return account.Clone(), nil
}

// Withdraw debits the account; overdrafts fail with ErrInsufficientFunds and
// leave the table untouched.
func (s *Service) Withdraw(ctx context.Context, username string, amount int64) (*domain.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	account, ok := ledger[username]
	if !ok {
		return nil, fmt.Errorf("Withdraw: %q: %w", username, domain.ErrAccountNotFound)
	}
	if account.Balance < amount {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	account.Balance -= amount
	account.Transactions = append(account.Transactions, domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeWithdraw,
		Amount:      amount,
		Timestamp:   now,
		Description: fmt.Sprintf("Withdrawal of %d", amount),
	})

	if err := s.store.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdrawal completed",
		"username", username,
		"amount", amount,
		"balance", account.Balance,
	)
	s.publish(ctx, events.LedgerEvent{
		Type:       events.EventTypeWithdraw,
		Username:   username,
		Amount:     amount,
		OccurredAt: now,
	})

	return account.Clone(), nil
}

// Transfer moves value between two distinct accounts. Debit, credit, and both
// transaction appends happen inside one load-mutate-save cycle; there is never
// an observable state with only one side applied. Self-transfers are rejected
// here, not left to the caller.
func (s *Service) Transfer(ctx context.Context, fromUsername, toUsername string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}
	if fromUsername == toUsername {
		return fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	sender, ok := ledger[fromUsername]
	if !ok {
		return fmt.Errorf("Transfer: sender %q: %w", fromUsername, domain.ErrAccountNotFound)
	}
	recipient, ok := ledger[toUsername]
	if !ok {
		return fmt.Errorf("Transfer: recipient %q: %w", toUsername, domain.ErrAccountNotFound)
	}
	if sender.Balance < amount {
		return fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}
	if recipient.Balance > math.MaxInt64-amount {
		return fmt.Errorf("Transfer: recipient balance would overflow: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	sender.Balance -= amount
	recipient.Balance += amount

	sender.Transactions = append(sender.Transactions, domain.Transaction{
		ID:           uuid.New(),
		Type:         domain.TransactionTypeTransferSent,
		Amount:       amount,
		Timestamp:    now,
		Description:  fmt.Sprintf("Transfer to %s", toUsername),
		Counterparty: toUsername,
	})
	recipient.Transactions = append(recipient.Transactions, domain.Transaction{
		ID:           uuid.New(),
		Type:         domain.TransactionTypeTransferReceived,
		Amount:       amount,
		Timestamp:    now,
		Description:  fmt.Sprintf("Transfer from %s", fromUsername),
		Counterparty: fromUsername,
	})

	if err := s.store.Save(ctx, ledger); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	logging.FromContext(ctx).Info("transfer completed",
		"from", fromUsername,
		"to", toUsername,
		"amount", amount,
	)
	s.publish(ctx, events.LedgerEvent{
		Type:         events.EventTypeTransfer,
		Username:     fromUsername,
		Counterparty: toUsername,
		Amount:       amount,
		OccurredAt:   now,
	})

	return nil
}

// GetAccount returns a read-only copy of the account.
func (s *Service) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	account, ok := ledger[username]
	if !ok {
		return nil, fmt.Errorf("GetAccount: %q: %w", username, domain.ErrAccountNotFound)
	}
	return account.Clone(), nil
}

// AccountExists lets callers pre-check a transfer recipient and tell
// "recipient not found" apart from balance failures.
func (s *Service) AccountExists(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return false, fmt.Errorf("AccountExists: %w", err)
	}

	_, ok := ledger[username]
	return ok, nil
}

// load fetches the table and cross-checks every balance against the signed
// sum of its transaction log. A mismatch means the persisted state was
// altered outside an operation and is reported as corruption, not served.
func (s *Service) load(ctx context.Context) (domain.Ledger, error) {
	ledger, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	for username, account := range ledger {
		var sum int64
		for _, tx := range account.Transactions {
			sum += tx.Type.Signed(tx.Amount)
		}
		if sum != account.Balance {
			return nil, fmt.Errorf("load: %q: balance %d does not match transaction log sum %d: %w",
				username, account.Balance, sum, domain.ErrLedgerCorrupt)
		}
	}
	return ledger, nil
}

// publish is best-effort: the mutation is already durable, so a broker
// failure is logged and dropped.
func (s *Service) publish(ctx context.Context, event events.LedgerEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("failed to publish ledger event",
			"type", event.Type,
			"username", event.Username,
			"error", err,
		)
	}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marcward/minibank/internal/auth"
	"github.com/marcward/minibank/internal/domain"
	"github.com/marcward/minibank/internal/ledger"
	"github.com/marcward/minibank/internal/logging"
)

type accountService interface {
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
	AccountExists(ctx context.Context, username string) (bool, error)
}

type AccountHandler struct {
	ledger accountService
}

func NewAccountHandler(ledger accountService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type accountDTO struct {
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		Username:  a.Username,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

type transactionDTO struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
	Description  string    `json:"description"`
	Counterparty string    `json:"counterparty,omitempty"`
}

func toTransactionDTOs(transactions []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, len(transactions))
	for i, t := range transactions {
		dtos[i] = transactionDTO{
			ID:           t.ID,
			Type:         string(t.Type),
			Amount:       t.Amount,
			Timestamp:    t.Timestamp,
			Description:  t.Description,
			Counterparty: t.Counterparty,
		}
	}
	return dtos
}

// Get returns the authenticated user's account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), username)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

// Transactions returns the user's history, filtered and sorted per query
// parameters: search (free text), type (transaction type), sort (newest|oldest).
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	query, fields := historyQueryFromRequest(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), username)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	filtered := ledger.FilterHistory(account.Transactions, query)
	RespondSuccess(w, http.StatusOK, map[string]any{
		"transactions": toTransactionDTOs(filtered),
		"total":        len(account.Transactions),
	})
}

// Exists lets a sender validate a transfer recipient up front.
func (h *AccountHandler) Exists(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	exists, err := h.ledger.AccountExists(r.Context(), username)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to check account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"username": username,
		"exists":   exists,
	})
}

func historyQueryFromRequest(r *http.Request) (ledger.HistoryQuery, []FieldError) {
	var fields []FieldError
	q := ledger.HistoryQuery{
		Search: r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		t := domain.TransactionType(raw)
		if !t.IsValid() {
			fields = append(fields, FieldError{Field: "type", Message: "unknown transaction type"})
		}
		q.Type = t
	}

	switch raw := r.URL.Query().Get("sort"); raw {
	case "", string(ledger.SortNewest):
		q.Sort = ledger.SortNewest
	case string(ledger.SortOldest):
		q.Sort = ledger.SortOldest
	default:
		fields = append(fields, FieldError{Field: "sort", Message: "must be newest or oldest"})
	}

	return q, fields
}

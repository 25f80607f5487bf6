package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/marcward/minibank/internal/auth"
	"github.com/marcward/minibank/internal/domain"
	"github.com/marcward/minibank/internal/logging"
)

type transactionService interface {
	Deposit(ctx context.Context, username string, amount int64) (*domain.Account, error)
	Withdraw(ctx context.Context, username string, amount int64) (*domain.Account, error)
	Transfer(ctx context.Context, fromUsername, toUsername string, amount int64) error
}

type TransactionHandler struct {
	ledger transactionService
}

func NewTransactionHandler(ledger transactionService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, h.ledger.Deposit)
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, h.ledger.Withdraw)
}

func (h *TransactionHandler) moveMoney(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, username string, amount int64) (*domain.Account, error),
) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	amount, fieldErr := parseAmount(req.Amount)
	if fieldErr != nil {
		RespondValidationError(w, []FieldError{*fieldErr})
		return
	}

	account, err := op(r.Context(), username, amount)
	if err != nil {
		logging.FromContext(r.Context()).Error("money movement failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var fields []FieldError
	if req.To == "" {
		fields = append(fields, FieldError{Field: "to", Message: "required"})
	}
	amount, fieldErr := parseAmount(req.Amount)
	if fieldErr != nil {
		fields = append(fields, *fieldErr)
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.ledger.Transfer(r.Context(), username, req.To, amount); err != nil {
		logging.FromContext(r.Context()).Error("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"from":   username,
		"to":     req.To,
		"amount": formatAmount(amount),
	})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marcward/minibank/internal/auth"
	"github.com/marcward/minibank/internal/domain"
	"github.com/marcward/minibank/internal/logging"
)

type authService interface {
	CreateAccount(ctx context.Context, username, password string) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
}

type AuthHandler struct {
	ledger    authService
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(ledger authService, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		ledger:    ledger,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentialsRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type sessionResponse struct {
	Token   string     `json:"token"`
	Account accountDTO `json:"account"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountExists) {
			logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		}
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(account.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to issue token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusCreated, sessionResponse{
		Token:   token,
		Account: toAccountDTO(account),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.ledger.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		logging.FromContext(r.Context()).Error("failed to authenticate", "error", err)
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(account.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to issue token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, sessionResponse{
		Token:   token,
		Account: toAccountDTO(account),
	})
}

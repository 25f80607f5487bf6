package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcward/minibank/internal/handler"
	"github.com/marcward/minibank/internal/ledger"
	"github.com/marcward/minibank/internal/store"
)

const testJWTSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := ledger.NewService(store.NewMemoryStore(), nil, ledger.DefaultOpeningBalance)
	return NewRouter(svc, Options{
		JWTSecret: testJWTSecret,
		JWTExpiry: time.Hour,
	})
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *handler.APIError `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env),
		"response must be a JSON envelope: %s", rec.Body.String())
	return rec, env
}

func register(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": username, "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func accountBalance(t *testing.T, router http.Handler, token string) int64 {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/account", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var account struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &account))
	return account.Balance
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)

	token := register(t, router, "alice")
	assert.Equal(t, ledger.DefaultOpeningBalance, accountBalance(t, router, token))

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ACCOUNT_ALREADY_EXISTS", env.Error.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{"missing token", "", "MISSING_TOKEN"},
		{"garbage token", "garbage", "INVALID_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantCode)
		})
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "alice")

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", token,
		map[string]string{"amount": "25.00"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ledger.DefaultOpeningBalance+2500, accountBalance(t, router, token))

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/transactions/withdraw", token,
		map[string]string{"amount": "5.00"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ledger.DefaultOpeningBalance+2000, accountBalance(t, router, token))

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/transactions/withdraw", token,
		map[string]string{"amount": "9999999.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_FUNDS", env.Error.Code)

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", token,
		map[string]string{"amount": "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestTransferFlow(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := register(t, router, "alice")
	bobToken := register(t, router, "bob")

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/accounts/bob/exists", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var existsResp struct {
		Exists bool `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &existsResp))
	assert.True(t, existsResp.Exists)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/transactions/transfer", aliceToken,
		map[string]string{"to": "bob", "amount": "25.00"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, ledger.DefaultOpeningBalance-2500, accountBalance(t, router, aliceToken))
	assert.Equal(t, ledger.DefaultOpeningBalance+2500, accountBalance(t, router, bobToken))

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/transactions/transfer", aliceToken,
		map[string]string{"to": "alice", "amount": "1.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SELF_TRANSFER_NOT_ALLOWED", env.Error.Code)

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/transactions/transfer", aliceToken,
		map[string]string{"to": "carol", "amount": "1.00"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", env.Error.Code)
}

func TestTransactionHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "alice")
	register(t, router, "bob")

	_, _ = doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", token,
		map[string]string{"amount": "12.00"})
	_, _ = doJSON(t, router, http.MethodPost, "/api/v1/transactions/transfer", token,
		map[string]string{"to": "bob", "amount": "7.00"})

	type historyResponse struct {
		Transactions []struct {
			Type         string `json:"type"`
			Amount       int64  `json:"amount"`
			Counterparty string `json:"counterparty"`
		} `json:"transactions"`
		Total int `json:"total"`
	}

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/account/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all historyResponse
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Equal(t, 3, all.Total)
	require.Len(t, all.Transactions, 3)

	rec, env = doJSON(t, router, http.MethodGet,
		"/api/v1/account/transactions?type=deposit&sort=oldest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deposits historyResponse
	require.NoError(t, json.Unmarshal(env.Data, &deposits))
	require.Len(t, deposits.Transactions, 2)
	assert.Equal(t, ledger.DefaultOpeningBalance, deposits.Transactions[0].Amount)
	assert.Equal(t, int64(1200), deposits.Transactions[1].Amount)

	rec, env = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/account/transactions?search=%s", "bob"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toBob historyResponse
	require.NoError(t, json.Unmarshal(env.Data, &toBob))
	require.Len(t, toBob.Transactions, 1)
	assert.Equal(t, "transfer-sent", toBob.Transactions[0].Type)
	assert.Equal(t, "bob", toBob.Transactions[0].Counterparty)

	rec, env = doJSON(t, router, http.MethodGet,
		"/api/v1/account/transactions?sort=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

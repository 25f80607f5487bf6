// Package server assembles the HTTP surface over the ledger service.
package server

import (
	"net/http"
	"time"

	"github.com/marcward/minibank/internal/handler"
	"github.com/marcward/minibank/internal/ledger"
	"github.com/marcward/minibank/internal/middleware"
)

type Options struct {
	JWTSecret string
	JWTExpiry time.Duration
}

// NewRouter wires every route through the shared middleware chain:
// request-ID assignment, then request logging, then panic recovery;
// account and transaction routes additionally require a bearer token.
func NewRouter(svc *ledger.Service, opts Options) http.Handler {
	authHandler := handler.NewAuthHandler(svc, opts.JWTSecret, opts.JWTExpiry)
	accountHandler := handler.NewAccountHandler(svc)
	txnHandler := handler.NewTransactionHandler(svc)
	healthHandler := handler.NewHealthHandler()

	requireAuth := middleware.Auth(opts.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/account", requireAuth(http.HandlerFunc(accountHandler.Get)))
	mux.Handle("GET /api/v1/account/transactions", requireAuth(http.HandlerFunc(accountHandler.Transactions)))
	mux.Handle("GET /api/v1/accounts/{username}/exists", requireAuth(http.HandlerFunc(accountHandler.Exists)))

	mux.Handle("POST /api/v1/transactions/deposit", requireAuth(http.HandlerFunc(txnHandler.Deposit)))
	mux.Handle("POST /api/v1/transactions/withdraw", requireAuth(http.HandlerFunc(txnHandler.Withdraw)))
	mux.Handle("POST /api/v1/transactions/transfer", requireAuth(http.HandlerFunc(txnHandler.Transfer)))

	return middleware.RequestID(middleware.Logging(middleware.Recovery(mux)))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcward/minibank/internal/config"
	"github.com/marcward/minibank/internal/events"
	"github.com/marcward/minibank/internal/events/kafka"
	"github.com/marcward/minibank/internal/ledger"
	"github.com/marcward/minibank/internal/logging"
	"github.com/marcward/minibank/internal/server"
	"github.com/marcward/minibank/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("minibank-api", cfg.LogLevel, cfg.AppEnv)

	ledgerStore, cleanup, err := buildStore(cfg)
	if err != nil {
		slog.Error("failed to initialize ledger store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		slog.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers)
	}

	svc := ledger.NewService(ledgerStore, publisher, cfg.OpeningBalance)

	router := server.NewRouter(svc, server.Options{
		JWTSecret: cfg.JWTSecret,
		JWTExpiry: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func buildStore(cfg *config.Config) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case "file":
		return store.NewFileStore(cfg.StorePath), noop, nil

	case "memory":
		return store.NewMemoryStore(), noop, nil

	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := store.NewPostgresDB(ctx, cfg.DatabaseURL, store.PoolConfig{
			MaxOpenConns:     cfg.DBMaxOpenConns,
			MaxIdleConns:     cfg.DBMaxIdleConns,
			ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("buildStore: %w", err)
		}

		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("buildStore: %w", err)
		}
		return pg, func() { db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("buildStore: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

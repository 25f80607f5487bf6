package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/marcward/minibank/internal/domain"
)

// PostgresStore persists the same versioned snapshot as FileStore, as one
// JSONB row under a fixed key. Same contract: whole table in, whole table out.
type PostgresStore struct {
	db *sql.DB
}

// snapshotKey is the fixed storage key; the table never holds another row.
const snapshotKey = "ledger"

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: ping: %w", err)
	}

	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the snapshot table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS ledger_snapshots (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	)
	if err != nil {
		return fmt.Errorf("PostgresStore.Migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (domain.Ledger, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM ledger_snapshots WHERE key = $1`, snapshotKey,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make(domain.Ledger), nil
		}
		return nil, fmt.Errorf("PostgresStore.Load: %w", err)
	}

	ledger, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("PostgresStore.Load: %w", err)
	}
	return ledger, nil
}

func (s *PostgresStore) Save(ctx context.Context, ledger domain.Ledger) error {
	data, err := encodeSnapshot(ledger)
	if err != nil {
		return fmt.Errorf("PostgresStore.Save: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_snapshots (key, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		snapshotKey, data,
	)
	if err != nil {
		return fmt.Errorf("PostgresStore.Save: %w", err)
	}
	return nil
}

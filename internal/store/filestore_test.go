package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcward/minibank/internal/domain"
)

func sampleLedger() domain.Ledger {
	return domain.Ledger{
		"alice": {
			Username:     "alice",
			PasswordHash: "$2a$10$fakehash",
			Balance:      10000,
			CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Transactions: []domain.Transaction{{
				Type:        domain.TransactionTypeDeposit,
				Amount:      10000,
				Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Description: "Initial deposit - Welcome bonus",
			}},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(ctx, sampleLedger()))

	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "alice")
	assert.Equal(t, int64(10000), loaded["alice"].Balance)
	require.Len(t, loaded["alice"].Transactions, 1)
	assert.Equal(t, domain.TransactionTypeDeposit, loaded["alice"].Transactions[0].Type)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	ledger, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, domain.ErrLedgerCorrupt)
}

func TestFileStoreUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"accounts":{}}`), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, domain.ErrLedgerCorrupt)
}

func TestFileStoreSaveReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(ctx, sampleLedger()))
	require.NoError(t, fs.Save(ctx, domain.Ledger{}))

	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	ledger, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ledger)

	require.NoError(t, mem.Save(ctx, sampleLedger()))
	loaded, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, loaded, "alice")

	mem.Corrupt()
	_, err = mem.Load(ctx)
	require.ErrorIs(t, err, domain.ErrLedgerCorrupt)
}

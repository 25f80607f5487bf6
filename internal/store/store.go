// Package store persists the account table as a single versioned blob.
// Load and Save move the whole table at once; there are no partial writes.
// Serialization of concurrent operations is the ledger service's job, not ours.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcward/minibank/internal/domain"
)

const snapshotVersion = 1

type Store interface {
	// Load returns the current table. A store that has never been written
	// yields an empty table; an unreadable one yields domain.ErrLedgerCorrupt.
	Load(ctx context.Context) (domain.Ledger, error)
	// Save replaces the persisted table wholesale.
	Save(ctx context.Context, ledger domain.Ledger) error
}

// snapshot is the persisted envelope. The version tag exists so a future
// format change can be told apart from corruption.
type snapshot struct {
	Version  int           `json:"version"`
	SavedAt  time.Time     `json:"saved_at"`
	Accounts domain.Ledger `json:"accounts"`
}

func encodeSnapshot(ledger domain.Ledger) ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Version:  snapshotVersion,
		SavedAt:  time.Now().UTC(),
		Accounts: ledger,
	})
	if err != nil {
		return nil, fmt.Errorf("encodeSnapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (domain.Ledger, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decodeSnapshot: %v: %w", err, domain.ErrLedgerCorrupt)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("decodeSnapshot: unknown snapshot version %d: %w",
			snap.Version, domain.ErrLedgerCorrupt)
	}
	if snap.Accounts == nil {
		snap.Accounts = make(domain.Ledger)
	}
	return snap.Accounts, nil
}

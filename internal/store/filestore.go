package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcward/minibank/internal/domain"
)

// FileStore keeps the ledger in one JSON file. Writes go to a temp file in
// the same directory and are renamed over the target, so readers never see a
// half-written snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(domain.Ledger), nil
		}
		return nil, fmt.Errorf("FileStore.Load: %v: %w", err, domain.ErrLedgerCorrupt)
	}

	ledger, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	return ledger, nil
}

func (s *FileStore) Save(ctx context.Context, ledger domain.Ledger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}

	data, err := encodeSnapshot(ledger)
	if err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("FileStore.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("FileStore.Save: close: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("FileStore.Save: rename: %w", err)
	}
	return nil
}

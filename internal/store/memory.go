package store

import (
	"context"
	"sync"

	"github.com/marcward/minibank/internal/domain"
)

// MemoryStore holds the snapshot bytes in memory. Used by tests and for
// ephemeral runs without a data file. Round-tripping through the snapshot
// codec keeps its behavior identical to the durable stores.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return make(domain.Ledger), nil
	}
	return decodeSnapshot(s.data)
}

func (s *MemoryStore) Save(ctx context.Context, ledger domain.Ledger) error {
	data, err := encodeSnapshot(ledger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// Corrupt overwrites the stored bytes with garbage. Test hook.
func (s *MemoryStore) Corrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = []byte("{not json")
}

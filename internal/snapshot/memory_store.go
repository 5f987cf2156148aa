package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/commodex/commodex/errs"
)

// MemoryStore is an in-memory implementation of the snapshot Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]Record
}

// NewMemoryStore creates a memory-backed snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Key]Record)}
}

// Get returns the current snapshot for the provided key.
func (s *MemoryStore) Get(ctx context.Context, key Key) (Record, error) {
	if err := key.Validate(); err != nil {
		return Record{}, err
	}
	if err := contextErr(ctx, "get"); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return Record{}, errs.New("snapshot/memory", errs.CodeNotFound, errs.WithMessage("snapshot not found"))
	}
	return record.Clone(), nil
}

// Put stores a snapshot, replacing any previous record for the same key.
func (s *MemoryStore) Put(ctx context.Context, record Record) (Record, error) {
	if err := record.Key.Validate(); err != nil {
		return Record{}, err
	}
	if err := contextErr(ctx, "put"); err != nil {
		return Record{}, err
	}
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now().UTC()
	}
	s.mu.Lock()
	record.Version = s.records[record.Key].Version + 1
	s.records[record.Key] = record.Clone()
	s.mu.Unlock()
	return record.Clone(), nil
}

// Keys lists every stored key.
func (s *MemoryStore) Keys(ctx context.Context) ([]Key, error) {
	if err := contextErr(ctx, "keys"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]Key, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys, nil
}

// Close releases store resources.
func (s *MemoryStore) Close() error { return nil }

func contextErr(ctx context.Context, op string) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("memory store %s context: %w", op, ctx.Err())
	default:
		return nil
	}
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, id string, definition []byte) (*Record, error) {
	rec := Record{
		ID:         id,
		Definition: append([]byte(nil), definition...),
		UpdatedAt:  m.now().UTC(),
	}
	m.mu.Lock()
	m.records[id] = rec
	m.mu.Unlock()
	return &rec, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	rec.Definition = append([]byte(nil), rec.Definition...)
	return &rec, nil
}

// List returns every record ordered by id.
func (m *MemoryStore) List(context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

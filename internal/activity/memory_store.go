package activity

import (
	"context"
	"slices"
	"strconv"
	"sync"
)

// MemoryStore implements Store using an in-memory slice. When a capacity
// is set the oldest entries are dropped first.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	seq      int64
	capacity int
}

// NewMemoryStore creates a new empty MemoryStore holding at most capacity
// entries; capacity <= 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.seq++
		e.Seq = s.seq
		s.entries = append(s.entries, e)
	}
	if s.capacity > 0 && len(s.entries) > s.capacity {
		s.entries = slices.Clone(s.entries[len(s.entries)-s.capacity:])
	}
	return nil
}

func (s *MemoryStore) QueryByEntity(_ context.Context, entityType, entityID string, opts QueryOptions) ([]Entry, string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var after int64
	if opts.Cursor != "" {
		if n, err := strconv.ParseInt(opts.Cursor, 10, 64); err == nil {
			after = n
		}
	}

	var matched []Entry
	total := 0
	for _, e := range s.entries {
		if e.IndexedEntityType != entityType || e.IndexedEntityID != entityID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		if opts.MinWeight != "" && !IsAtLeastWeight(e.Weight, opts.MinWeight) {
			continue
		}
		total++
		if e.Seq > after {
			matched = append(matched, e)
		}
	}

	var nextCursor string
	if limit := opts.limit(); len(matched) > limit {
		matched = matched[:limit]
		nextCursor = strconv.FormatInt(matched[len(matched)-1].Seq, 10)
	}
	return matched, nextCursor, total, nil
}

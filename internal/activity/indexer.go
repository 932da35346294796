package activity

import (
	"context"

	"github.com/matthewbaird/formvis/internal/event"
)

// indexedTypes are the entity types the journal can be queried by.
var indexedTypes = map[string]bool{
	"session": true,
	"form":    true,
}

// Indexer consumes domain events and writes one journal entry per session
// or form the event affects. It satisfies the event bus handler interface.
type Indexer struct {
	store Store
}

// NewIndexer creates a new journal indexer.
func NewIndexer(store Store) *Indexer {
	return &Indexer{store: store}
}

// HandleEvent indexes a single domain event.
func (idx *Indexer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	var entries []Entry
	seen := make(map[string]bool) // deduplicate by entity_type:entity_id
	for _, ref := range evt.AffectedEntities {
		if !indexedTypes[ref.EntityType] {
			continue
		}
		key := ref.EntityType + ":" + ref.EntityID
		if seen[key] {
			continue
		}
		seen[key] = true

		entries = append(entries, Entry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt,
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        evt.AffectedEntities,
			Summary:           evt.Summary,
			Category:          evt.Category,
			Weight:            evt.Weight,
			Payload:           evt.Payload,
		})
	}

	if len(entries) == 0 {
		return nil
	}
	return idx.store.WriteEntries(ctx, entries)
}

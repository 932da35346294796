package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matthewbaird/formvis/internal/event"
)

// Weights, lowest first.
const (
	WeightInfo  = "info"
	WeightMinor = "minor"
)

var weightOrder = map[string]int{
	WeightInfo:  0,
	WeightMinor: 1,
}

// IsAtLeastWeight reports whether weight is at or above min. Unknown
// weights rank as info.
func IsAtLeastWeight(weight, min string) bool {
	return weightOrder[weight] >= weightOrder[min]
}

// Entry is one event as seen from one indexed entity. An event touching a
// session and a form produces two entries.
type Entry struct {
	Seq               int64             `json:"seq"`
	EventID           string            `json:"event_id"`
	EventType         string            `json:"event_type"`
	OccurredAt        time.Time         `json:"occurred_at"`
	IndexedEntityType string            `json:"indexed_entity_type"` // "session" or "form"
	IndexedEntityID   string            `json:"indexed_entity_id"`
	EntityRole        string            `json:"entity_role"`
	SourceRefs        []event.SourceRef `json:"source_refs"`
	Summary           string            `json:"summary"`
	Category          string            `json:"category"`
	Weight            string            `json:"weight"`
	Payload           json.RawMessage   `json:"payload"`
}

// Store is the interface for reading and writing journal entries.
type Store interface {
	// WriteEntries appends entries (one event, many entries). The store
	// assigns Seq.
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByEntity returns entries for one entity in the order they were
	// written.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []Entry, nextCursor string, totalCount int, err error)
}

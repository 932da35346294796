package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/formvis/internal/engine"
)

// Event types.
const (
	TypeGroupShown      = "group_shown"
	TypeGroupHidden     = "group_hidden"
	TypeFieldCleared    = "field_cleared"
	TypeOptionUnchecked = "option_unchecked"
	TypeFieldShown      = "field_shown"
	TypeFieldHidden     = "field_hidden"
	TypeSessionOpened   = "session_opened"
	TypeSessionClosed   = "session_closed"
)

// Categories.
const (
	CategoryVisibility = "visibility"
	CategorySession    = "session"
)

// SourceRef points at an entity an event is about.
type SourceRef struct {
	EntityType string `json:"entity_type"` // "form", "session", "group", "field"
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "context", "cause"
}

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []SourceRef
	Summary          string
	Category         string // "visibility", "session"
	Weight           string // "minor", "info"
	Payload          json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ── Visibility events ────────────────────────────────────────────────────────

// ChangePayload carries one transition of a patch.
type ChangePayload struct {
	SessionID string `json:"session_id"`
	FormID    string `json:"form_id"`
	Group     string `json:"group,omitempty"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

var changeTypes = map[engine.ChangeKind]string{
	engine.GroupShown:      TypeGroupShown,
	engine.GroupHidden:     TypeGroupHidden,
	engine.FieldCleared:    TypeFieldCleared,
	engine.OptionUnchecked: TypeOptionUnchecked,
	engine.FieldShown:      TypeFieldShown,
	engine.FieldHidden:     TypeFieldHidden,
}

// NewChange builds the event for one patch transition.
func NewChange(sessionID, formID string, c engine.Change) DomainEvent {
	p := ChangePayload{
		SessionID: sessionID,
		FormID:    formID,
		Group:     c.Group,
		Field:     c.Field,
		Value:     c.Value,
		Cause:     c.Cause,
	}
	refs := []SourceRef{
		{EntityType: "session", EntityID: sessionID, Role: "context"},
		{EntityType: "form", EntityID: formID, Role: "context"},
	}
	subject := c.Field
	if c.Group != "" {
		refs = append(refs, SourceRef{EntityType: "group", EntityID: c.Group, Role: "subject"})
		subject = c.Group
	}
	if c.Field != "" {
		refs = append(refs, SourceRef{EntityType: "field", EntityID: c.Field, Role: "subject"})
	}
	if c.Cause != "" {
		refs = append(refs, SourceRef{EntityType: "field", EntityID: c.Cause, Role: "cause"})
	}

	typ := changeTypes[c.Kind]
	if typ == "" {
		typ = string(c.Kind)
	}
	weight := "info"
	if c.Kind == engine.FieldCleared || c.Kind == engine.OptionUnchecked {
		weight = "minor"
	}
	return DomainEvent{
		ID:               newID(),
		EventType:        typ,
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          fmt.Sprintf("%s %s in form %s", typ, subject, formID),
		Category:         CategoryVisibility,
		Weight:           weight,
		Payload:          mustJSON(p),
	}
}

// FromPatch builds one event per transition, in patch order.
func FromPatch(sessionID, formID string, patch *engine.Patch) []DomainEvent {
	if patch.Empty() {
		return nil
	}
	out := make([]DomainEvent, 0, len(patch.Changes))
	for _, c := range patch.Changes {
		out = append(out, NewChange(sessionID, formID, c))
	}
	return out
}

// ── Session events ───────────────────────────────────────────────────────────

// SessionPayload carries event-specific data for session lifecycle events.
type SessionPayload struct {
	SessionID string `json:"session_id"`
	FormID    string `json:"form_id"`
	Reason    string `json:"reason,omitempty"` // "expired", "idle", "closed"
}

func NewSessionOpened(p SessionPayload) DomainEvent {
	return sessionEvent(TypeSessionOpened, "Session %s opened on form %s", p)
}

func NewSessionClosed(p SessionPayload) DomainEvent {
	return sessionEvent(TypeSessionClosed, "Session %s closed on form %s", p)
}

func sessionEvent(typ, summary string, p SessionPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  typ,
		OccurredAt: time.Now(),
		AffectedEntities: []SourceRef{
			{EntityType: "session", EntityID: p.SessionID, Role: "subject"},
			{EntityType: "form", EntityID: p.FormID, Role: "context"},
		},
		Summary:  fmt.Sprintf(summary, shortID(p.SessionID), p.FormID),
		Category: CategorySession,
		Weight:   "info",
		Payload:  mustJSON(p),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPatch(t *testing.T) {
	patch := &engine.Patch{}
	patch.Add(engine.Change{Kind: engine.GroupHidden, Group: "smoking", Cause: "does_smoke"})
	patch.Add(engine.Change{Kind: engine.FieldCleared, Group: "smoking", Field: "cigarettes", Value: "20", Cause: "does_smoke"})

	evts := FromPatch("0f1e2d3c-aaaa-bbbb-cccc-000000000000", "lifestyle", patch)
	require.Len(t, evts, 2)

	assert.Equal(t, TypeGroupHidden, evts[0].EventType)
	assert.Equal(t, CategoryVisibility, evts[0].Category)
	assert.Equal(t, "info", evts[0].Weight)
	assert.Equal(t, "group_hidden smoking in form lifestyle", evts[0].Summary)

	assert.Equal(t, TypeFieldCleared, evts[1].EventType)
	assert.Equal(t, "minor", evts[1].Weight)
	var p ChangePayload
	require.NoError(t, json.Unmarshal(evts[1].Payload, &p))
	assert.Equal(t, ChangePayload{
		SessionID: "0f1e2d3c-aaaa-bbbb-cccc-000000000000",
		FormID:    "lifestyle",
		Group:     "smoking",
		Field:     "cigarettes",
		Value:     "20",
		Cause:     "does_smoke",
	}, p)
	assert.Contains(t, evts[1].AffectedEntities, SourceRef{EntityType: "field", EntityID: "does_smoke", Role: "cause"})
	assert.NotEqual(t, evts[0].ID, evts[1].ID)

	assert.Nil(t, FromPatch("s", "f", nil))
}

func TestSessionEvents(t *testing.T) {
	evt := NewSessionOpened(SessionPayload{SessionID: "0123456789abcdef", FormID: "ibd"})
	assert.Equal(t, TypeSessionOpened, evt.EventType)
	assert.Equal(t, CategorySession, evt.Category)
	assert.Equal(t, "Session 01234567 opened on form ibd", evt.Summary)

	evt = NewSessionClosed(SessionPayload{SessionID: "short", FormID: "ibd", Reason: "idle"})
	assert.Equal(t, "Session short closed on form ibd", evt.Summary)
}

type capture struct{ got []DomainEvent }

func (c *capture) Publish(_ context.Context, evt DomainEvent) { c.got = append(c.got, evt) }

func TestRecorder(t *testing.T) {
	c := &capture{}
	r := NewRecorder(c)

	patch := &engine.Patch{}
	patch.Add(engine.Change{Kind: engine.GroupShown, Group: "quit", Cause: "does_smoke"})
	r.RecordPatch(context.Background(), "s", "lifestyle", patch)
	r.Record(context.Background(), NewSessionOpened(SessionPayload{SessionID: "s", FormID: "lifestyle"}))

	require.Len(t, c.got, 2)
	assert.Equal(t, TypeGroupShown, c.got[0].EventType)

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.RecordPatch(context.Background(), "s", "f", patch) })
}

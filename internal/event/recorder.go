// Package event defines the domain events emitted by live form sessions
// and the recorder that publishes them.
package event

import (
	"context"

	"github.com/matthewbaird/formvis/internal/engine"
)

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// Recorder turns patches and session lifecycle changes into events and
// publishes them. A nil Recorder or one without a publisher drops events.
type Recorder struct {
	bus Publisher
}

// NewRecorder creates a Recorder publishing to bus.
func NewRecorder(bus Publisher) *Recorder {
	return &Recorder{bus: bus}
}

// RecordPatch publishes one event per transition of patch.
func (r *Recorder) RecordPatch(ctx context.Context, sessionID, formID string, patch *engine.Patch) {
	for _, evt := range FromPatch(sessionID, formID, patch) {
		r.Record(ctx, evt)
	}
}

// Record publishes a single event.
func (r *Recorder) Record(ctx context.Context, evt DomainEvent) {
	if r == nil || r.bus == nil {
		return
	}
	r.bus.Publish(ctx, evt)
}

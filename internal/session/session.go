// Package session manages live form sessions: a private copy of a form
// definition driven by change notifications from HTTP or WebSocket clients.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/formvis/internal/binder"
	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/event"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/widgets"
)

// Session holds one live form. All access to the form goes through the
// session mutex, so REST and WebSocket clients can share a session.
type Session struct {
	ID        string    `json:"id"`
	FormID    string    `json:"form_id"`
	CreatedAt time.Time `json:"created_at"`

	mu           sync.Mutex
	doc          *document.Document
	lastActiveAt time.Time
	now          func() time.Time
	recorder     *event.Recorder
}

// Info is a point-in-time description of a session.
type Info struct {
	ID           string     `json:"id"`
	FormID       string     `json:"form_id"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	State        form.State `json:"state"`
	// Dates lists the split date fields that accept shortcuts.
	Dates []widgets.DateField `json:"dates,omitempty"`
}

func newSession(formID string, doc *document.Document, now func() time.Time, rec *event.Recorder) *Session {
	t := now()
	return &Session{
		ID:           uuid.New().String(),
		FormID:       formID,
		CreatedAt:    t,
		doc:          doc,
		lastActiveAt: t,
		now:          now,
		recorder:     rec,
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = s.now()
	s.mu.Unlock()
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return s.now().Sub(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastActiveAt) > timeout
}

// Dispatch applies a change notification and publishes the resulting
// transitions.
func (s *Session) Dispatch(ctx context.Context, ch binder.Change) (*engine.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = s.now()

	patch, err := s.doc.Dispatch(ch)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordPatch(ctx, s.ID, s.FormID, patch)
	return patch, nil
}

// Load replaces every value of the form and re-initialises it.
func (s *Session) Load(ctx context.Context, values map[string][]string) (*engine.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = s.now()

	patch, err := s.doc.Load(values)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordPatch(ctx, s.ID, s.FormID, patch)
	return patch, nil
}

// FillDate runs a "today" or "now" shortcut on a split date field. The
// parts that were dispatched before an error are still published.
func (s *Session) FillDate(ctx context.Context, field, action string) (*engine.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = s.now()

	patch, err := s.doc.FillDate(field, action)
	if patch != nil {
		s.recorder.RecordPatch(ctx, s.ID, s.FormID, patch)
	}
	if err != nil {
		return nil, err
	}
	return patch, nil
}

// Snapshot returns the current form state.
func (s *Session) Snapshot() form.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Form().Snapshot()
}

// Info describes the session and its current state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.ID,
		FormID:       s.FormID,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.lastActiveAt,
		State:        s.doc.Form().Snapshot(),
		Dates:        s.doc.Dates().Dates(),
	}
}

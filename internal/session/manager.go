package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/event"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/metrics"
)

// Close reasons.
const (
	ReasonClosed  = "closed"
	ReasonExpired = "expired"
	ReasonIdle    = "idle"
)

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration

	engine   *engine.Engine
	recorder *event.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithEngine sets the engine shared by every session.
func WithEngine(e *engine.Engine) Option {
	return func(m *Manager) {
		if e != nil {
			m.engine = e
		}
	}
}

// WithRecorder sets where session events are published.
func WithRecorder(r *event.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithMetrics reports the live session count.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		engine:      engine.New(),
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session on a private copy of frm. When values is non-nil
// they are loaded before the initial resolution pass. The returned patch
// holds the transitions of that pass.
func (m *Manager) Create(ctx context.Context, frm *form.Form, values map[string][]string) (*Session, *engine.Patch, error) {
	doc := document.New(m.engine, frm.Clone(), document.WithClock(m.now), document.WithLogger(m.logger))

	var (
		patch *engine.Patch
		err   error
	)
	if values != nil {
		patch, err = doc.Load(values)
	} else {
		patch, err = doc.Init(nil)
	}
	if err != nil {
		return nil, nil, err
	}

	s := newSession(frm.ID, doc, m.now, m.recorder)
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.recorder.Record(ctx, event.NewSessionOpened(event.SessionPayload{SessionID: s.ID, FormID: s.FormID}))
	m.recorder.RecordPatch(ctx, s.ID, s.FormID, patch)
	m.logger.Info("session opened", "session", s.ID, "form", s.FormID, "changes", len(patch.Changes))
	return s, patch, nil
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if reason, dead := m.dead(s); dead {
		m.remove(ctx, id, reason)
		return nil
	}
	return s
}

// Remove closes a session.
func (m *Manager) Remove(ctx context.Context, id string) bool {
	return m.remove(ctx, id, ReasonClosed)
}

func (m *Manager) remove(ctx context.Context, id, reason string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.metrics.SetActiveSessions(n)
	m.recorder.Record(ctx, event.NewSessionClosed(event.SessionPayload{SessionID: id, FormID: s.FormID, Reason: reason}))
	m.logger.Info("session closed", "session", id, "form", s.FormID, "reason", reason)
	return true
}

func (m *Manager) dead(s *Session) (string, bool) {
	if s.IsExpired(m.maxAge) {
		return ReasonExpired, true
	}
	if s.IsIdle(m.idleTimeout) {
		return ReasonIdle, true
	}
	return "", false
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and returns how many were
// removed.
func (m *Manager) Cleanup(ctx context.Context) int {
	m.mu.RLock()
	var all []*Session
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	removed := 0
	for _, s := range all {
		if reason, dead := m.dead(s); dead && m.remove(ctx, s.ID, reason) {
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := m.Cleanup(ctx); n > 0 {
				m.logger.Info("removed stale sessions", "count", n)
			}
		}
	}
}

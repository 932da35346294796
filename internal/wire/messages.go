// Package wire defines the WebSocket protocol for live form sessions.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "change", "toggle", "load", "date", "snapshot", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// ChangeData is the payload for "change" messages: a new select or text
// value.
type ChangeData struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ToggleData is the payload for "toggle" messages: one checkbox option
// checked or unchecked.
type ToggleData struct {
	Field   string `json:"field"`
	Option  string `json:"option"`
	Checked bool   `json:"checked"`
}

// LoadData is the payload for "load" messages: a complete set of values
// replacing the form's current ones.
type LoadData struct {
	Values map[string][]string `json:"values"`
}

// DateData is the payload for "date" messages: a shortcut on a split date
// field. Action is "today" or "now".
type DateData struct {
	Field  string `json:"field"`
	Action string `json:"action"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "patch", "snapshot", "pong", "error"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData is sent once after the connection opens.
type SessionData struct {
	SessionID string        `json:"session_id"`
	FormID    string        `json:"form_id"`
	State     form.State    `json:"state"`
	Patch     *engine.Patch `json:"patch,omitempty"` // transitions of the initial pass
}

// PatchData carries the transitions of one change.
type PatchData struct {
	Changes []engine.Change `json:"changes"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

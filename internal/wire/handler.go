package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/formvis/internal/binder"
	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/session"
	"github.com/matthewbaird/formvis/internal/store"
	"github.com/matthewbaird/formvis/internal/widgets"
)

// FormSource resolves a form id to its compiled form. Unknown ids wrap
// store.ErrNotFound.
type FormSource interface {
	Form(ctx context.Context, id string) (*form.Form, error)
}

// Handler manages WebSocket connections for live sessions. It expects the
// form id as the chi URL parameter "id"; a "session" query parameter
// attaches to an existing session instead of opening a new one.
type Handler struct {
	sessions *session.Manager
	forms    FormSource
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, forms FormSource) *Handler {
	return &Handler{sessions: sessions, forms: forms}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	formID := chi.URLParam(r, "id")

	sess, initial, err := h.open(ctx, formID, r.URL.Query().Get("session"))
	if err != nil {
		h.sendError(ctx, conn, "", errorCode(err), err.Error())
		conn.Close(websocket.StatusPolicyViolation, "no session")
		return
	}

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{
			SessionID: sess.ID,
			FormID:    sess.FormID,
			State:     sess.Snapshot(),
			Patch:     initial,
		},
	})

	// Message loop
	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case "change":
			h.handleChange(ctx, conn, sess, msg)
		case "toggle":
			h.handleToggle(ctx, conn, sess, msg)
		case "load":
			h.handleLoad(ctx, conn, sess, msg)
		case "date":
			h.handleDate(ctx, conn, sess, msg)
		case "snapshot":
			sess.Touch()
			h.send(ctx, conn, ServerMessage{Type: "snapshot", RequestID: msg.ID, Data: sess.Snapshot()})
		case "ping":
			sess.Touch()
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

var errSessionNotFound = errors.New("session not found")

func (h *Handler) open(ctx context.Context, formID, sessionID string) (*session.Session, *engine.Patch, error) {
	if sessionID != "" {
		sess := h.sessions.Get(ctx, sessionID)
		if sess == nil || sess.FormID != formID {
			return nil, nil, fmt.Errorf("%w: %q", errSessionNotFound, sessionID)
		}
		return sess, nil, nil
	}
	frm, err := h.forms.Form(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	return h.sessions.Create(ctx, frm, nil)
}

func (h *Handler) handleChange(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data ChangeData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Field == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid change data")
		return
	}
	h.dispatch(ctx, conn, sess, msg.ID, binder.Change{Field: data.Field, Value: data.Value})
}

func (h *Handler) handleToggle(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data ToggleData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Field == "" || data.Option == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid toggle data")
		return
	}
	h.dispatch(ctx, conn, sess, msg.ID, binder.Change{Field: data.Field, Option: data.Option, Checked: data.Checked})
}

func (h *Handler) handleLoad(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data LoadData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid load data")
		return
	}
	patch, err := sess.Load(ctx, data.Values)
	h.reply(ctx, conn, msg.ID, patch, err)
}

func (h *Handler) handleDate(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data DateData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Field == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid date data")
		return
	}
	patch, err := sess.FillDate(ctx, data.Field, data.Action)
	h.reply(ctx, conn, msg.ID, patch, err)
}

func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, sess *session.Session, requestID string, ch binder.Change) {
	patch, err := sess.Dispatch(ctx, ch)
	h.reply(ctx, conn, requestID, patch, err)
}

func (h *Handler) reply(ctx context.Context, conn *websocket.Conn, requestID string, patch *engine.Patch, err error) {
	if err != nil {
		h.sendError(ctx, conn, requestID, errorCode(err), err.Error())
		return
	}
	changes := patch.Changes
	if changes == nil {
		changes = []engine.Change{}
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "patch",
		RequestID: requestID,
		Data:      PatchData{Changes: changes},
	})
}

// errorCode maps dispatch and lookup errors onto protocol error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, form.ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, form.ErrUnknownOption):
		return "unknown_option"
	case errors.Is(err, form.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, engine.ErrRecursionLimit):
		return "recursion_limit"
	case errors.Is(err, widgets.ErrUnknownDate):
		return "unknown_date"
	case errors.Is(err, widgets.ErrNoTodayShortcut):
		return "no_today_shortcut"
	case errors.Is(err, document.ErrUnknownDateAction):
		return "invalid_data"
	case errors.Is(err, errSessionNotFound), errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}

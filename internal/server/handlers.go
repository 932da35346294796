package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/formvis/internal/binder"
	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/formdef"
	"github.com/matthewbaird/formvis/internal/registry"
	"github.com/matthewbaird/formvis/internal/session"
)

const maxDefinitionBytes = 1 << 20

// FormHandler serves the definition registry and stateless resolution.
type FormHandler struct {
	forms  *registry.Registry
	engine *engine.Engine
}

// NewFormHandler creates a FormHandler.
func NewFormHandler(forms *registry.Registry, eng *engine.Engine) *FormHandler {
	return &FormHandler{forms: forms, engine: eng}
}

type formSummary struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	recs, err := h.forms.List(r.Context())
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	out := make([]formSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, formSummary{ID: rec.ID, UpdatedAt: rec.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	rec, err := h.forms.Definition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", rec.UpdatedAt.Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Definition)
}

// PutForm stores a definition sent as JSON, CUE (application/cue) or an
// HTML page (text/html).
func (h *FormHandler) PutForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDefinitionBytes+1))
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if len(body) > maxDefinitionBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "definition exceeds 1 MiB")
		return
	}

	def, err := decodeDefinition(r.Header.Get("Content-Type"), id, body)
	if err != nil {
		var unsupported unsupportedTypeError
		switch {
		case errors.As(err, &unsupported):
			writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error())
		case errors.Is(err, errIDMismatch):
			writeError(w, http.StatusBadRequest, "ID_MISMATCH", err.Error())
		default:
			errorToHTTP(w, err)
		}
		return
	}

	rec, err := h.forms.Put(r.Context(), def)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formSummary{ID: rec.ID, UpdatedAt: rec.UpdatedAt})
}

var errIDMismatch = errors.New("definition id does not match the URL")

type unsupportedTypeError string

func (e unsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q", string(e))
}

func decodeDefinition(contentType, id string, body []byte) (*formdef.Definition, error) {
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, unsupportedTypeError(contentType)
		}
		mediaType = mt
	}

	var def *formdef.Definition
	switch mediaType {
	case "application/json":
		d, err := formdef.DecodeJSON(body)
		if err != nil {
			return nil, err
		}
		def = d
	case "application/cue", "text/x-cue":
		d, err := formdef.LoadCUE(id+".cue", body)
		if err != nil {
			return nil, err
		}
		def = d
	case "text/html":
		defs, err := formdef.FromHTML(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if d.ID == id {
				return d, nil
			}
		}
		if len(defs) != 1 {
			return nil, fmt.Errorf("%w: page has no form %q", formdef.ErrInvalidDefinition, id)
		}
		def = defs[0]
		def.ID = id
	default:
		return nil, unsupportedTypeError(mediaType)
	}

	if def.ID != id {
		return nil, fmt.Errorf("%w: %q != %q", errIDMismatch, def.ID, id)
	}
	return def, nil
}

func (h *FormHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		errorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type valuesRequest struct {
	Values map[string][]string `json:"values"`
}

type resolveResponse struct {
	State   form.State      `json:"state"`
	Changes []engine.Change `json:"changes"`
}

// Resolve runs the initial resolution pass over submitted values without
// opening a session. Values inside hidden groups come back purged.
func (h *FormHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	frm, err := h.forms.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, err)
		return
	}

	doc := document.New(h.engine, frm.Clone())
	patch, err := doc.Load(req.Values)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{State: doc.Form().Snapshot(), Changes: changesOf(patch)})
}

func changesOf(p *engine.Patch) []engine.Change {
	if p == nil || p.Changes == nil {
		return []engine.Change{}
	}
	return p.Changes
}

// SessionHandler serves live sessions over REST.
type SessionHandler struct {
	forms    *registry.Registry
	sessions *session.Manager
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(forms *registry.Registry, sessions *session.Manager) *SessionHandler {
	return &SessionHandler{forms: forms, sessions: sessions}
}

type sessionResponse struct {
	session.Info
	Changes []engine.Change `json:"changes"`
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	frm, err := h.forms.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	sess, patch, err := h.sessions.Create(r.Context(), frm, req.Values)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{Info: sess.Info(), Changes: changesOf(patch)})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sid := chi.URLParam(r, "sid")
	sess := h.sessions.Get(r.Context(), sid)
	if sess == nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found: "+sid)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Touch()
	writeJSON(w, http.StatusOK, sess.Info())
}

func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Remove(r.Context(), chi.URLParam(r, "sid")) {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostChange applies one change notification to a session.
func (h *SessionHandler) PostChange(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var ch binder.Change
	if err := decodeJSON(r, &ch); err != nil || ch.Field == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "change needs a field")
		return
	}
	patch, err := sess.Dispatch(r.Context(), ch)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changesOf(patch)})
}

// PutValues replaces every value of a session and re-initialises it. A
// rejected body leaves the session as it was.
func (h *SessionHandler) PutValues(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	patch, err := sess.Load(r.Context(), req.Values)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changesOf(patch)})
}

type dateRequest struct {
	Field  string `json:"field"`
	Action string `json:"action"`
}

// PostDate runs a "today" or "now" shortcut on a split date field.
func (h *SessionHandler) PostDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil || req.Field == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "date shortcut needs a field")
		return
	}
	patch, err := sess.FillDate(r.Context(), req.Field, req.Action)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changesOf(patch)})
}

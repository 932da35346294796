package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/formvis/internal/activity"
)

// ActivityHandler serves the event journal of sessions and forms.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

type activityResponse struct {
	Entries    []activity.Entry `json:"entries"`
	NextCursor string           `json:"next_cursor,omitempty"`
	TotalCount int              `json:"total_count"`
}

func (h *ActivityHandler) SessionActivity(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, "session", chi.URLParam(r, "sid"))
}

func (h *ActivityHandler) FormActivity(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, "form", chi.URLParam(r, "id"))
}

func (h *ActivityHandler) query(w http.ResponseWriter, r *http.Request, entityType, entityID string) {
	opts, err := parseQueryOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	entries, next, total, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Entries: entries, NextCursor: next, TotalCount: total})
}

func parseQueryOptions(r *http.Request) (activity.QueryOptions, error) {
	q := r.URL.Query()
	opts := activity.DefaultQueryOptions()
	if v := q.Get("category"); v != "" {
		opts.Categories = strings.Split(v, ",")
	}
	if v := q.Get("min_weight"); v != "" {
		opts.MinWeight = v
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, err
		}
		opts.Limit = n
	}
	opts.Cursor = q.Get("cursor")
	return opts, nil
}

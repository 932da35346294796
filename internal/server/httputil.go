package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/formdef"
	"github.com/matthewbaird/formvis/internal/store"
	"github.com/matthewbaird/formvis/internal/widgets"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// errorToHTTP maps domain errors to appropriate HTTP responses.
func errorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, formdef.ErrInvalidDefinition):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_DEFINITION", err.Error())
	case errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrUnknownOption),
		errors.Is(err, form.ErrInvalidField):
		writeError(w, http.StatusBadRequest, "INVALID_CHANGE", err.Error())
	case errors.Is(err, engine.ErrRecursionLimit):
		writeError(w, http.StatusUnprocessableEntity, "RECURSION_LIMIT", err.Error())
	case errors.Is(err, widgets.ErrUnknownDate):
		writeError(w, http.StatusNotFound, "UNKNOWN_DATE", err.Error())
	case errors.Is(err, widgets.ErrNoTodayShortcut),
		errors.Is(err, document.ErrUnknownDateAction):
		writeError(w, http.StatusBadRequest, "INVALID_DATE_ACTION", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

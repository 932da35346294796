// Package registry serves compiled forms from the definition store. Each
// definition is compiled once per stored version and shared; callers that
// mutate a form must clone it first.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/formdef"
	"github.com/matthewbaird/formvis/internal/metrics"
	"github.com/matthewbaird/formvis/internal/store"
)

// Registry compiles, validates and caches form definitions.
type Registry struct {
	store   store.Store
	metrics *metrics.Metrics

	mu    sync.Mutex
	cache map[string]compiled
}

type compiled struct {
	updatedAt time.Time
	form      *form.Form
}

// New creates a registry over s. m may be nil.
func New(s store.Store, m *metrics.Metrics) *Registry {
	return &Registry{store: s, metrics: m, cache: make(map[string]compiled)}
}

// Put compiles def and, if it is free of authoring defects, stores its
// canonical JSON.
func (r *Registry) Put(ctx context.Context, def *formdef.Definition) (*store.Record, error) {
	frm, err := def.Compile()
	if err != nil {
		r.metrics.IncDefinitionError()
		return nil, err
	}
	data, err := def.Canonical()
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", def.ID, err)
	}
	rec, err := r.store.Put(ctx, def.ID, data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[def.ID] = compiled{updatedAt: rec.UpdatedAt, form: frm}
	r.mu.Unlock()
	return rec, nil
}

// Form returns the compiled form stored under id.
func (r *Registry) Form(ctx context.Context, id string) (*form.Form, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	c, ok := r.cache[id]
	r.mu.Unlock()
	if ok && c.updatedAt.Equal(rec.UpdatedAt) {
		return c.form, nil
	}

	def, err := formdef.DecodeJSON(rec.Definition)
	if err != nil {
		return nil, fmt.Errorf("stored definition %q: %w", id, err)
	}
	frm, err := def.Compile()
	if err != nil {
		return nil, fmt.Errorf("stored definition %q: %w", id, err)
	}

	r.mu.Lock()
	r.cache[id] = compiled{updatedAt: rec.UpdatedAt, form: frm}
	r.mu.Unlock()
	return frm, nil
}

// Definition returns the stored record for id.
func (r *Registry) Definition(ctx context.Context, id string) (*store.Record, error) {
	return r.store.Get(ctx, id)
}

// List returns every stored record ordered by id.
func (r *Registry) List(ctx context.Context) ([]store.Record, error) {
	return r.store.List(ctx)
}

// Delete removes a definition. Live sessions keep their private copies.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	return nil
}

// Seed stores every definition, attempting all of them.
func (r *Registry) Seed(ctx context.Context, defs []*formdef.Definition) (int, []error) {
	var errs []error
	n := 0
	for _, def := range defs {
		if _, err := r.Put(ctx, def); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

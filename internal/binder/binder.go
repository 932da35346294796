// Package binder attaches control fields to the visibility engine and runs
// the initial resolution pass for a subtree.
//
// Binding is idempotent: Init may be called again for content inserted
// later, even when the new subtree overlaps one bound before, and no field
// is ever bound twice.
package binder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// ErrForeignRoot is returned when Init is given a group of another form.
var ErrForeignRoot = errors.New("subtree root does not belong to the bound form")

// Change is one user interaction: a new value for a select or text field,
// or a new check state for one option of a checkbox field.
type Change struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Option  string `json:"option,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// Report describes one Init call.
type Report struct {
	Bound        []string      `json:"bound"`
	AlreadyBound []string      `json:"already_bound,omitempty"`
	Patch        *engine.Patch `json:"patch"`
}

// Binder routes changes of bound control fields to the engine.
type Binder struct {
	engine *engine.Engine
	form   *form.Form
	logger *slog.Logger

	bound map[string]bool
	order []string
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger for bind events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Binder for frm. Nothing is bound until Init.
func New(eng *engine.Engine, frm *form.Form, opts ...Option) *Binder {
	b := &Binder{
		engine: eng,
		form:   frm,
		logger: slog.New(slog.DiscardHandler),
		bound:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Form returns the bound form.
func (b *Binder) Form() *form.Form { return b.form }

// Init binds every control field under root (nil for the whole form) that
// is not bound yet, then runs one initial resolution pass over all control
// fields under root so visibility matches their current values.
func (b *Binder) Init(root *form.Group) (*Report, error) {
	if root == nil {
		root = b.form.Root
	}
	if !b.form.Root.Contains(root) {
		return nil, fmt.Errorf("%w: group %q", ErrForeignRoot, root.ID)
	}

	rep := &Report{Bound: []string{}}
	for _, fd := range b.form.ControlFields(root) {
		if b.bound[fd.Name] {
			rep.AlreadyBound = append(rep.AlreadyBound, fd.Name)
			continue
		}
		b.bound[fd.Name] = true
		b.order = append(b.order, fd.Name)
		rep.Bound = append(rep.Bound, fd.Name)
	}

	patch, err := b.engine.Initialize(b.form, root)
	rep.Patch = patch
	if err != nil {
		return rep, err
	}

	b.logger.Debug("bound subtree",
		"form", b.form.ID,
		"root", root.ID,
		"bound", len(rep.Bound),
		"already_bound", len(rep.AlreadyBound),
		"changes", len(patch.Changes),
	)
	return rep, nil
}

// IsBound reports whether the named field has been bound.
func (b *Binder) IsBound(name string) bool { return b.bound[name] }

// Bound returns the bound field names in bind order.
func (b *Binder) Bound() []string { return append([]string(nil), b.order...) }

// Dispatch writes ch into the form and, when the field is a bound control
// field, resolves and applies it. Changes to other fields only update
// their value.
func (b *Binder) Dispatch(ch Change) (*engine.Patch, error) {
	fd, ok := b.form.Field(ch.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", form.ErrUnknownField, ch.Field)
	}

	var err error
	if fd.Kind == form.KindCheckbox {
		err = b.form.SetChecked(ch.Field, ch.Option, ch.Checked)
	} else {
		err = b.form.SetValue(ch.Field, ch.Value)
	}
	if err != nil {
		return nil, err
	}

	if !b.bound[fd.Name] {
		return &engine.Patch{}, nil
	}
	return b.engine.Apply(b.form, fd, engine.ModeChange)
}

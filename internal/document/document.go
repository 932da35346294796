// Package document composes a form with its visibility binder and the
// widget hooks that initialise alongside it.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matthewbaird/formvis/internal/binder"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/widgets"
)

// Date shortcut actions accepted by FillDate.
const (
	DateToday = "today"
	DateNow   = "now"
)

// ErrUnknownDateAction is returned by FillDate for actions other than
// DateToday and DateNow.
var ErrUnknownDateAction = errors.New("unknown date action")

// Document is one live form: state, bindings and collaborators.
type Document struct {
	form      *form.Form
	binder    *binder.Binder
	dates     *widgets.DateFields
	hooks     []widgets.Hook
	listeners []widgets.ChangeListener
	logger    *slog.Logger

	clock   func() time.Time
	noPaste []string
	extra   []widgets.Hook
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger passed to the binder.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock sets the clock used by the date helpers.
func WithClock(now func() time.Time) Option {
	return func(d *Document) { d.clock = now }
}

// WithNoPaste overrides the fields that refuse paste.
func WithNoPaste(names ...string) Option {
	return func(d *Document) { d.noPaste = names }
}

// WithHooks appends extra hooks, run after the built-in ones.
func WithHooks(hooks ...widgets.Hook) Option {
	return func(d *Document) { d.extra = append(d.extra, hooks...) }
}

// New creates a document over frm. Nothing is bound until Init.
func New(eng *engine.Engine, frm *form.Form, opts ...Option) *Document {
	d := &Document{
		form:   frm,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.binder = binder.New(eng, frm, binder.WithLogger(d.logger))
	d.dates = widgets.NewDateFields(frm, d.clock)
	other := widgets.NewOtherChoice(frm)
	d.hooks = append([]widgets.Hook{
		other,
		d.dates,
		widgets.NewPasteGuard(frm, d.noPaste...),
		widgets.NewAutocompleteOff(frm),
	}, d.extra...)
	for _, h := range d.hooks {
		if l, ok := h.(widgets.ChangeListener); ok {
			d.listeners = append(d.listeners, l)
		}
	}
	return d
}

// Form returns the underlying form.
func (d *Document) Form() *form.Form { return d.form }

// Binder returns the visibility binder.
func (d *Document) Binder() *binder.Binder { return d.binder }

// Dates returns the split-date helper.
func (d *Document) Dates() *widgets.DateFields { return d.dates }

// Init binds and initialises the subtree at root (nil for the whole
// form), then runs every hook over the same subtree.
func (d *Document) Init(root *form.Group) (*engine.Patch, error) {
	rep, err := d.binder.Init(root)
	if err != nil {
		return nil, err
	}
	patch := &engine.Patch{}
	patch.Merge(rep.Patch)
	for _, h := range d.hooks {
		p, err := h.Init(root)
		if err != nil {
			return patch, fmt.Errorf("init hook %T: %w", h, err)
		}
		patch.Merge(p)
	}
	return patch, nil
}

// Dispatch routes a user change through the binder and notifies the
// change listeners.
func (d *Document) Dispatch(ch binder.Change) (*engine.Patch, error) {
	patch, err := d.binder.Dispatch(ch)
	if err != nil {
		return patch, err
	}
	touched := []string{ch.Field}
	for _, c := range patch.Changes {
		if c.Kind == engine.FieldCleared {
			touched = append(touched, c.Field)
		}
	}
	var follow engine.Patch
	for _, name := range touched {
		fd, ok := d.form.Field(name)
		if !ok {
			continue
		}
		for _, l := range d.listeners {
			follow.Merge(l.Changed(fd))
		}
	}
	patch.Merge(&follow)
	return patch, nil
}

// Load replaces the form's values and re-initialises the whole document
// from a fully visible state, as a freshly rendered page would be.
func (d *Document) Load(values map[string][]string) (*engine.Patch, error) {
	if err := d.form.Apply(values); err != nil {
		return nil, err
	}
	for _, g := range d.form.Groups() {
		g.Hidden = false
	}
	for _, fd := range d.form.Fields() {
		fd.Hidden = false
	}
	return d.Init(nil)
}

// FillDate runs a date shortcut on the split date field name. Each part
// is dispatched like a user change, so bindings and listeners see it.
// Every part is checked first; a rejected shortcut writes nothing.
func (d *Document) FillDate(name, action string) (*engine.Patch, error) {
	var (
		parts []widgets.Assignment
		err   error
	)
	switch action {
	case DateToday:
		parts, err = d.dates.Today(name)
	case DateNow:
		parts, err = d.dates.Now(name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDateAction, action)
	}
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if err := d.form.CheckValue(p.Field, p.Value); err != nil {
			return nil, err
		}
	}

	patch := &engine.Patch{}
	for _, p := range parts {
		step, err := d.Dispatch(binder.Change{Field: p.Field, Value: p.Value})
		patch.Merge(step)
		if err != nil {
			return patch, err
		}
	}
	return patch, nil
}

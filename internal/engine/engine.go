package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/metrics"
)

// ErrRecursionLimit is returned when cascading resolution nests deeper than
// the configured limit. Validated forms are acyclic, so hitting it means the
// form was mutated structurally after New.
var ErrRecursionLimit = errors.New("resolution recursion limit exceeded")

// DefaultMaxDepth bounds cascading resolution.
const DefaultMaxDepth = 64

// Mode selects how a resolution is applied.
type Mode int

const (
	// ModeChange applies both sets: hide first, then show.
	ModeChange Mode = iota
	// ModeInit applies only the hide set. Groups start visible, so the
	// initial pass only has to establish which of them are hidden.
	ModeInit
)

func (m Mode) String() string {
	if m == ModeInit {
		return "init"
	}
	return "change"
}

// Engine applies resolutions to forms. It holds no per-form state and can
// be shared between forms and goroutines.
type Engine struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for resolution tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records resolutions and apply latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply resolves fd against its current state and applies the result to
// frm. Non-control fields produce an empty patch.
func (e *Engine) Apply(frm *form.Form, fd *form.Field, mode Mode) (*Patch, error) {
	start := time.Now()
	r := &run{engine: e, form: frm, patch: &Patch{}}
	err := r.apply(fd, mode, 0)
	e.metrics.ObserveApply(time.Since(start))
	return r.patch, err
}

// Change sets a select or text field to value and applies its resolution.
func (e *Engine) Change(frm *form.Form, name, value string) (*Patch, error) {
	if err := frm.SetValue(name, value); err != nil {
		return nil, err
	}
	fd, _ := frm.Field(name)
	return e.Apply(frm, fd, ModeChange)
}

// Toggle checks or unchecks one checkbox option and applies the resolution
// of its checkbox set.
func (e *Engine) Toggle(frm *form.Form, name, option string, checked bool) (*Patch, error) {
	if err := frm.SetChecked(name, option, checked); err != nil {
		return nil, err
	}
	fd, _ := frm.Field(name)
	return e.Apply(frm, fd, ModeChange)
}

// Initialize runs the initial resolution pass over every control field
// inside root (nil for the whole form) in document order, so visibility
// matches the current values without any change having happened.
func (e *Engine) Initialize(frm *form.Form, root *form.Group) (*Patch, error) {
	start := time.Now()
	r := &run{engine: e, form: frm, patch: &Patch{}}
	defer func() { e.metrics.ObserveApply(time.Since(start)) }()
	for _, fd := range frm.ControlFields(root) {
		if err := r.apply(fd, ModeInit, 0); err != nil {
			return r.patch, err
		}
	}
	return r.patch, nil
}

// run carries the state of one top-level application.
type run struct {
	engine *Engine
	form   *form.Form
	patch  *Patch
}

func (r *run) apply(fd *form.Field, mode Mode, depth int) error {
	if depth > r.engine.maxDepth {
		return fmt.Errorf("%w: at field %q (depth %d)", ErrRecursionLimit, fd.Name, depth)
	}
	if !fd.IsControl() {
		return nil
	}

	res := Resolve(fd)
	r.engine.metrics.IncResolution(fd.Kind.String(), mode.String())
	r.engine.logger.Debug("resolved control field",
		"form", r.form.ID,
		"field", fd.Name,
		"mode", mode.String(),
		"depth", depth,
		"show", res.Show,
		"hide", res.Hide,
	)

	// Hide before show: showing re-initialises nested controls, and a
	// later hide pass would clobber that state.
	if err := r.hide(res.Hide, fd.Name, depth); err != nil {
		return err
	}
	if mode == ModeInit {
		return nil
	}
	return r.show(res.Show, fd.Name, depth)
}

func (r *run) hide(ids []string, cause string, depth int) error {
	for _, id := range ids {
		g, ok := r.form.Group(id)
		if !ok {
			return fmt.Errorf("%w: %q named by %q", form.ErrUnknownGroup, id, cause)
		}
		if !g.Hidden {
			g.Hidden = true
			r.patch.Add(Change{Kind: GroupHidden, Group: id, Cause: cause})
		}

		fields := g.DescendantFields()

		// Selects first: clearing one re-triggers its own resolution so
		// whatever it controls collapses too.
		for _, fd := range fields {
			if fd.Kind != form.KindSelect {
				continue
			}
			r.clear(fd, id, cause)
			if err := r.apply(fd, ModeChange, depth+1); err != nil {
				return err
			}
		}
		for _, fd := range fields {
			if fd.Kind == form.KindText {
				r.clear(fd, id, cause)
			}
		}

		// Uncheck every box before resolving any checkbox set so nested
		// resolutions see the final, fully cleared state.
		for _, fd := range fields {
			if fd.Kind != form.KindCheckbox {
				continue
			}
			for i := range fd.Options {
				if fd.Options[i].Checked {
					fd.Options[i].Checked = false
					r.patch.Add(Change{Kind: OptionUnchecked, Group: id, Field: fd.Name, Value: fd.Options[i].Value, Cause: cause})
				}
			}
		}
		for _, fd := range fields {
			if fd.Kind != form.KindCheckbox {
				continue
			}
			if err := r.apply(fd, ModeChange, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) show(ids []string, cause string, depth int) error {
	for _, id := range ids {
		g, ok := r.form.Group(id)
		if !ok {
			return fmt.Errorf("%w: %q named by %q", form.ErrUnknownGroup, id, cause)
		}
		if g.Hidden {
			g.Hidden = false
			r.patch.Add(Change{Kind: GroupShown, Group: id, Cause: cause})
		}

		// A freshly revealed group starts from its default state: nested
		// checkbox sets hide whatever their unchecked options map to.
		for _, fd := range g.DescendantFields() {
			if fd.Kind != form.KindCheckbox {
				continue
			}
			if err := r.apply(fd, ModeInit, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) clear(fd *form.Field, group, cause string) {
	if fd.Value == "" {
		return
	}
	r.patch.Add(Change{Kind: FieldCleared, Group: group, Field: fd.Name, Value: fd.Value, Cause: cause})
	fd.Value = ""
}

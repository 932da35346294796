// Package form is the explicit state tree the visibility engine works on:
// control fields, plain fields and the dependent groups that contain them.
//
// A Form is built once per definition with New, which validates the whole
// dependency structure, and is then mutated in place by the engine. A Form
// is not safe for concurrent use; callers that share one serialise access.
package form

import (
	"fmt"

	"github.com/matthewbaird/formvis/internal/choicemap"
)

// Kind classifies how a field holds its value.
type Kind int

const (
	KindText     Kind = iota // free text, cleared on hide
	KindSelect               // single value from Options
	KindCheckbox             // any subset of Options
)

// String returns the definition-file name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSelect:
		return "select"
	case KindCheckbox:
		return "checkbox"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text", "":
		return KindText, nil
	case "select":
		return KindSelect, nil
	case "checkbox":
		return KindCheckbox, nil
	default:
		return 0, fmt.Errorf("%w: unknown field kind %q", ErrInvalidField, s)
	}
}

// Option is one selectable value of a select or checkbox field.
type Option struct {
	Value   string
	Label   string
	Checked bool // checkbox fields only
}

// Field is a single named input. A field with a Choices map is a control
// field: its value decides which dependent groups are visible.
type Field struct {
	Name    string
	Kind    Kind
	Value   string   // select and text fields
	Options []Option // select and checkbox fields
	Choices *choicemap.Map

	// OtherText names the text field that is shown only while this select
	// holds the value "other".
	OtherText string
	// Hidden is a per-field visibility flag used by collaborators that
	// toggle single fields rather than groups.
	Hidden  bool
	NoPaste bool

	parent *Group
}

// IsControl reports whether the field drives group visibility.
func (f *Field) IsControl() bool {
	return f.Choices != nil && f.Kind != KindText
}

// Parent returns the innermost group containing the field.
func (f *Field) Parent() *Group { return f.parent }

// Option returns the option holding value.
func (f *Field) Option(value string) (*Option, bool) {
	for i := range f.Options {
		if f.Options[i].Value == value {
			return &f.Options[i], true
		}
	}
	return nil, false
}

// CheckedValues returns the values of the checked options in order.
func (f *Field) CheckedValues() []string {
	var out []string
	for _, o := range f.Options {
		if o.Checked {
			out = append(out, o.Value)
		}
	}
	return out
}

// IsEmpty reports whether the field holds its empty/default value.
func (f *Field) IsEmpty() bool {
	if f.Kind == KindCheckbox {
		return len(f.CheckedValues()) == 0
	}
	return f.Value == ""
}

// Group is a dependent group: fields and nested groups shown or hidden as
// a unit. The root group of a form has an empty ID and is never hidden.
type Group struct {
	ID     string
	Hidden bool
	Fields []*Field
	Groups []*Group

	parent *Group
}

// Parent returns the enclosing group, or nil for the root.
func (g *Group) Parent() *Group { return g.parent }

// DescendantFields returns every field inside g, nested groups included.
// A group's own fields precede the fields of its nested groups.
func (g *Group) DescendantFields() []*Field {
	var out []*Field
	g.walk(func(sub *Group) {
		out = append(out, sub.Fields...)
	})
	return out
}

// Contains reports whether other is g or nested anywhere inside g.
func (g *Group) Contains(other *Group) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == g {
			return true
		}
	}
	return false
}

func (g *Group) walk(fn func(*Group)) {
	fn(g)
	for _, sub := range g.Groups {
		sub.walk(fn)
	}
}

// Form is one form's state tree plus name and id indexes.
type Form struct {
	ID              string
	Root            *Group
	AutocompleteOff bool

	fields map[string]*Field
	groups map[string]*Group
	order  []*Field
}

// New indexes root and validates the dependency structure. Every authoring
// defect found is reported, joined into a single error.
func New(id string, root *Group) (*Form, error) {
	if root == nil {
		root = &Group{}
	}
	f := &Form{ID: id, Root: root}
	if err := f.index(); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("form %q: %w", id, err)
	}
	return f, nil
}

// index links parents and builds the lookup tables. Duplicate names and ids
// are reported here because the indexes cannot be built without them.
func (f *Form) index() error {
	f.fields = make(map[string]*Field)
	f.groups = make(map[string]*Group)
	f.order = nil

	var errs []error
	var link func(g *Group)
	link = func(g *Group) {
		for _, fd := range g.Fields {
			fd.parent = g
			if _, dup := f.fields[fd.Name]; dup {
				errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateField, fd.Name))
				continue
			}
			f.fields[fd.Name] = fd
			f.order = append(f.order, fd)
		}
		for _, sub := range g.Groups {
			sub.parent = g
			if _, dup := f.groups[sub.ID]; dup {
				errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateGroup, sub.ID))
			} else {
				f.groups[sub.ID] = sub
			}
			link(sub)
		}
	}
	f.Root.parent = nil
	link(f.Root)
	return joinErrors(errs)
}

// Field looks a field up by name.
func (f *Form) Field(name string) (*Field, bool) {
	fd, ok := f.fields[name]
	return fd, ok
}

// Group looks a dependent group up by id.
func (f *Form) Group(id string) (*Group, bool) {
	g, ok := f.groups[id]
	return g, ok
}

// Fields returns every field in document order.
func (f *Form) Fields() []*Field {
	return append([]*Field(nil), f.order...)
}

// Groups returns every dependent group in document order.
func (f *Form) Groups() []*Group {
	var out []*Group
	f.Root.walk(func(g *Group) {
		if g != f.Root {
			out = append(out, g)
		}
	})
	return out
}

// ControlFields returns the control fields inside root in document order.
// A nil root means the whole form.
func (f *Form) ControlFields(root *Group) []*Field {
	if root == nil {
		root = f.Root
	}
	var out []*Field
	for _, fd := range root.DescendantFields() {
		if fd.IsControl() {
			out = append(out, fd)
		}
	}
	return out
}

// Visible reports whether group id is effectively visible, i.e. neither it
// nor any enclosing group is hidden.
func (f *Form) Visible(id string) bool {
	g, ok := f.groups[id]
	if !ok {
		return false
	}
	for cur := g; cur != nil; cur = cur.parent {
		if cur.Hidden {
			return false
		}
	}
	return true
}

// SetValue writes the value of a select or text field. A select accepts
// the empty value or one of its option values.
func (f *Form) SetValue(name, value string) error {
	if err := f.CheckValue(name, value); err != nil {
		return err
	}
	f.fields[name].Value = value
	return nil
}

// CheckValue reports the error SetValue would return, without writing.
func (f *Form) CheckValue(name, value string) error {
	fd, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	switch fd.Kind {
	case KindCheckbox:
		return fmt.Errorf("%w: %q is a checkbox field, set options instead", ErrInvalidField, name)
	case KindSelect:
		if value != "" && len(fd.Options) > 0 {
			if _, ok := fd.Option(value); !ok {
				return fmt.Errorf("%w: %q has no option %q", ErrUnknownOption, name, value)
			}
		}
	}
	return nil
}

// SetChecked checks or unchecks one option of a checkbox field.
func (f *Form) SetChecked(name, value string, checked bool) error {
	fd, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if fd.Kind != KindCheckbox {
		return fmt.Errorf("%w: %q is not a checkbox field", ErrInvalidField, name)
	}
	opt, ok := fd.Option(value)
	if !ok {
		return fmt.Errorf("%w: %q has no option %q", ErrUnknownOption, name, value)
	}
	opt.Checked = checked
	return nil
}

// Clone returns a deep copy of the state tree. Choice maps are immutable
// and shared with the original.
func (f *Form) Clone() *Form {
	out := &Form{
		ID:              f.ID,
		Root:            cloneGroup(f.Root),
		AutocompleteOff: f.AutocompleteOff,
	}
	// The original was validated, so indexing the copy cannot fail.
	_ = out.index()
	return out
}

func cloneGroup(g *Group) *Group {
	out := &Group{ID: g.ID, Hidden: g.Hidden}
	for _, fd := range g.Fields {
		cp := *fd
		cp.Options = append([]Option(nil), fd.Options...)
		cp.parent = nil
		out.Fields = append(out.Fields, &cp)
	}
	for _, sub := range g.Groups {
		out.Groups = append(out.Groups, cloneGroup(sub))
	}
	return out
}

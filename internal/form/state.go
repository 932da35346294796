package form

import "fmt"

// State is a serialisable snapshot of a form: effective group visibility,
// hidden single fields and current values.
type State struct {
	Groups       map[string]bool     `json:"groups"`
	HiddenFields []string            `json:"hidden_fields,omitempty"`
	Values       map[string][]string `json:"values"`
}

// Snapshot captures the current state of f.
func (f *Form) Snapshot() State {
	st := State{
		Groups: make(map[string]bool, len(f.groups)),
		Values: f.Values(),
	}
	for id := range f.groups {
		st.Groups[id] = f.Visible(id)
	}
	for _, fd := range f.order {
		if fd.Hidden {
			st.HiddenFields = append(st.HiddenFields, fd.Name)
		}
	}
	return st
}

// Values returns the non-empty field values as a form submission would
// carry them: one entry for selects and text, the checked options for
// checkbox fields.
func (f *Form) Values() map[string][]string {
	out := make(map[string][]string)
	for _, fd := range f.order {
		switch fd.Kind {
		case KindCheckbox:
			if vals := fd.CheckedValues(); len(vals) > 0 {
				out[fd.Name] = vals
			}
		default:
			if fd.Value != "" {
				out[fd.Name] = []string{fd.Value}
			}
		}
	}
	return out
}

// Apply writes submitted values into the form. Fields absent from values
// are reset. Unknown names and options are reported before anything is
// written, so a rejected call leaves the form untouched.
func (f *Form) Apply(values map[string][]string) error {
	for name := range values {
		if _, ok := f.fields[name]; !ok {
			return &UnknownFieldError{Name: name}
		}
	}
	for _, fd := range f.order {
		vals := values[fd.Name]
		if fd.Kind != KindCheckbox {
			if err := f.CheckValue(fd.Name, first(vals)); err != nil {
				return err
			}
			continue
		}
		for _, v := range vals {
			if _, ok := fd.Option(v); !ok {
				return fmt.Errorf("%w: %q has no option %q", ErrUnknownOption, fd.Name, v)
			}
		}
	}

	for _, fd := range f.order {
		vals := values[fd.Name]
		if fd.Kind != KindCheckbox {
			fd.Value = first(vals)
			continue
		}
		for i := range fd.Options {
			fd.Options[i].Checked = false
		}
		for _, v := range vals {
			opt, _ := fd.Option(v)
			opt.Checked = true
		}
	}
	return nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// UnknownFieldError reports a submitted value for a field the form lacks.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string { return "unknown field: " + e.Name }

// Unwrap lets errors.Is match ErrUnknownField.
func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

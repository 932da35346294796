package widgets

import (
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// DefaultNoPaste lists the confirmation fields that must be typed, not pasted.
var DefaultNoPaste = []string{"mobile_number2", "person_email2"}

// PasteGuard marks the named fields as refusing paste.
type PasteGuard struct {
	form  *form.Form
	names map[string]bool
}

// NewPasteGuard guards names, or DefaultNoPaste when none are given.
func NewPasteGuard(frm *form.Form, names ...string) *PasteGuard {
	if len(names) == 0 {
		names = DefaultNoPaste
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &PasteGuard{form: frm, names: set}
}

func (p *PasteGuard) Init(root *form.Group) (*engine.Patch, error) {
	for _, fd := range subtree(p.form, root) {
		if p.names[fd.Name] {
			fd.NoPaste = true
		}
	}
	return &engine.Patch{}, nil
}

// AutocompleteOff disables browser autocomplete on the whole form.
type AutocompleteOff struct {
	form *form.Form
}

func NewAutocompleteOff(frm *form.Form) *AutocompleteOff {
	return &AutocompleteOff{form: frm}
}

func (a *AutocompleteOff) Init(*form.Group) (*engine.Patch, error) {
	a.form.AutocompleteOff = true
	return &engine.Patch{}, nil
}

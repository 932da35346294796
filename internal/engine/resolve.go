// Package engine is the visibility engine: it resolves a control field's
// current value against its Choice Map into disjoint show and hide sets and
// applies them to the form, hiding before showing and recursing into the
// control fields of every group it touches.
package engine

import (
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/matthewbaird/formvis/internal/setops"
)

// Resolution is the reconciled outcome of one control field. Show and Hide
// never share an id: a group requested by both ends up in Show.
type Resolution struct {
	Show []string `json:"show"`
	Hide []string `json:"hide"`
}

// Resolve dispatches on the field kind. Fields without a Choice Map resolve
// to the empty Resolution.
func Resolve(fd *form.Field) Resolution {
	switch {
	case !fd.IsControl():
		return Resolution{Show: []string{}, Hide: []string{}}
	case fd.Kind == form.KindCheckbox:
		return ResolveCheckboxes(fd)
	default:
		return ResolveSelect(fd)
	}
}

// ResolveSelect resolves a single-value control: the groups mapped from
// the current value are shown, the groups of every other value are hidden
// unless the current value also maps to them.
func ResolveSelect(fd *form.Field) Resolution {
	var show, hide []string
	for _, e := range fd.Choices.Entries() {
		if e.Value == fd.Value {
			show = append(show, e.Groups...)
		} else {
			hide = append(hide, e.Groups...)
		}
	}
	return reconcile(show, hide)
}

// ResolveCheckboxes resolves a checkbox set. Every mapped option
// contributes its groups to the show candidates when checked and to the
// hide candidates when not.
func ResolveCheckboxes(fd *form.Field) Resolution {
	var show, hide []string
	for _, e := range fd.Choices.Entries() {
		opt, ok := fd.Option(e.Value)
		if ok && opt.Checked {
			show = append(show, e.Groups...)
		} else {
			hide = append(hide, e.Groups...)
		}
	}
	return reconcile(show, hide)
}

func reconcile(show, hide []string) Resolution {
	show = setops.Dedupe(show)
	hide = setops.Dedupe(hide)
	return Resolution{
		Show: show,
		Hide: setops.RelativeComplement(hide, show),
	}
}

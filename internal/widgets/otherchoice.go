package widgets

import (
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// OtherValue is the select value that reveals the "please specify" field.
const OtherValue = "other"

// OtherChoice shows a select's OtherText field only while the select
// holds OtherValue.
type OtherChoice struct {
	form *form.Form
}

// NewOtherChoice creates the toggle for frm.
func NewOtherChoice(frm *form.Form) *OtherChoice {
	return &OtherChoice{form: frm}
}

// Init applies the toggle to every select under root.
func (o *OtherChoice) Init(root *form.Group) (*engine.Patch, error) {
	patch := &engine.Patch{}
	for _, fd := range subtree(o.form, root) {
		patch.Merge(o.Changed(fd))
	}
	return patch, nil
}

// Changed re-evaluates the toggle after fd changed.
func (o *OtherChoice) Changed(fd *form.Field) *engine.Patch {
	patch := &engine.Patch{}
	if fd.Kind != form.KindSelect || fd.OtherText == "" {
		return patch
	}
	text, ok := o.form.Field(fd.OtherText)
	if !ok {
		return patch
	}
	hidden := fd.Value != OtherValue
	if text.Hidden == hidden {
		return patch
	}
	text.Hidden = hidden
	kind := engine.FieldShown
	if hidden {
		kind = engine.FieldHidden
	}
	patch.Add(engine.Change{Kind: kind, Field: text.Name, Cause: fd.Name})
	return patch
}

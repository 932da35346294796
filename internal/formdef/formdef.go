// Package formdef is the authoring format for forms: a JSON document, or
// CUE validated against an embedded schema, compiled into a form state
// tree.
package formdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matthewbaird/formvis/internal/choicemap"
	"github.com/matthewbaird/formvis/internal/form"
)

// Definition is the serialised shape of a form.
type Definition struct {
	ID              string     `json:"id"`
	Title           string     `json:"title,omitempty"`
	AutocompleteOff bool       `json:"autocomplete_off,omitempty"`
	Fields          []FieldDef `json:"fields,omitempty"`
	Groups          []GroupDef `json:"groups,omitempty"`
}

// GroupDef is a dependent group.
type GroupDef struct {
	ID     string     `json:"id"`
	Fields []FieldDef `json:"fields,omitempty"`
	Groups []GroupDef `json:"groups,omitempty"`
}

// FieldDef is a field. Kind is "text" (default), "select" or "checkbox".
type FieldDef struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind,omitempty"`
	Value     string         `json:"value,omitempty"`
	Options   []OptionDef    `json:"options,omitempty"`
	Choices   *choicemap.Map `json:"choices,omitempty"`
	OtherText string         `json:"other_text,omitempty"`
	NoPaste   bool           `json:"no_paste,omitempty"`
}

// OptionDef is one option of a select or checkbox field.
type OptionDef struct {
	Value   string `json:"value"`
	Label   string `json:"label,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// ErrInvalidDefinition wraps every error a definition fails to compile or
// decode with.
var ErrInvalidDefinition = errors.New("invalid form definition")

// DecodeJSON decodes a definition, rejecting unknown keys.
func DecodeJSON(data []byte) (*Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after definition", ErrInvalidDefinition)
	}
	if def.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}
	return &def, nil
}

// Canonical returns the JSON encoding the store keeps.
func (d *Definition) Canonical() ([]byte, error) {
	return json.Marshal(d)
}

// Compile builds and validates the form state tree. Every authoring
// defect is reported.
func (d *Definition) Compile() (*form.Form, error) {
	var errs []error
	root := &form.Group{
		Fields: compileFields(d.Fields, &errs),
		Groups: compileGroups(d.Groups, &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: form %q: %w", ErrInvalidDefinition, d.ID, err)
	}
	frm, err := form.New(d.ID, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	frm.AutocompleteOff = d.AutocompleteOff
	return frm, nil
}

func compileGroups(defs []GroupDef, errs *[]error) []*form.Group {
	var out []*form.Group
	for _, gd := range defs {
		out = append(out, &form.Group{
			ID:     gd.ID,
			Fields: compileFields(gd.Fields, errs),
			Groups: compileGroups(gd.Groups, errs),
		})
	}
	return out
}

func compileFields(defs []FieldDef, errs *[]error) []*form.Field {
	var out []*form.Field
	for _, fd := range defs {
		kind, err := form.ParseKind(fd.Kind)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("field %q: %w", fd.Name, err))
			continue
		}
		f := &form.Field{
			Name:      fd.Name,
			Kind:      kind,
			Value:     fd.Value,
			Choices:   fd.Choices,
			OtherText: fd.OtherText,
			NoPaste:   fd.NoPaste,
		}
		for _, o := range fd.Options {
			f.Options = append(f.Options, form.Option{Value: o.Value, Label: o.Label, Checked: o.Checked})
		}
		out = append(out, f)
	}
	return out
}

// FromForm captures the current structure and state of frm.
func FromForm(frm *form.Form) *Definition {
	return &Definition{
		ID:              frm.ID,
		AutocompleteOff: frm.AutocompleteOff,
		Fields:          fieldDefs(frm.Root.Fields),
		Groups:          groupDefs(frm.Root.Groups),
	}
}

func groupDefs(groups []*form.Group) []GroupDef {
	var out []GroupDef
	for _, g := range groups {
		out = append(out, GroupDef{
			ID:     g.ID,
			Fields: fieldDefs(g.Fields),
			Groups: groupDefs(g.Groups),
		})
	}
	return out
}

func fieldDefs(fields []*form.Field) []FieldDef {
	var out []FieldDef
	for _, f := range fields {
		fd := FieldDef{
			Name:      f.Name,
			Kind:      f.Kind.String(),
			Value:     f.Value,
			Choices:   f.Choices,
			OtherText: f.OtherText,
			NoPaste:   f.NoPaste,
		}
		for _, o := range f.Options {
			fd.Options = append(fd.Options, OptionDef{Value: o.Value, Label: o.Label, Checked: o.Checked})
		}
		out = append(out, fd)
	}
	return out
}

package htmlform

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/formvis/internal/form"
)

const noPasteHandler = "return false;"

// Sync writes the form state back into its markup: group and field
// visibility as the hidden attribute, current values, and the paste and
// autocomplete flags.
func (f *Form) Sync() {
	for id, nodes := range f.groups {
		g, _ := f.Form.Group(id)
		for _, n := range nodes {
			toggleAttr(n, "hidden", g.Hidden)
		}
	}
	if f.Form.AutocompleteOff && f.node.DataAtom == atom.Form {
		setAttr(f.node, "autocomplete", "off")
	}

	for _, fd := range f.Form.Fields() {
		nodes := f.fields[fd.Name]
		switch fd.Kind {
		case form.KindSelect:
			for _, n := range nodes {
				syncSelect(n, fd.Value)
			}
		case form.KindCheckbox:
			for _, n := range nodes {
				value, ok := attr(n, "value")
				if !ok {
					value = "on"
				}
				opt, _ := fd.Option(value)
				toggleAttr(n, "checked", opt != nil && opt.Checked)
			}
		case form.KindText:
			for _, n := range nodes {
				if n.DataAtom == atom.Textarea {
					setText(n, fd.Value)
				} else {
					setAttr(n, "value", fd.Value)
				}
			}
		}
		for _, n := range nodes {
			toggleAttr(n, "hidden", fd.Hidden)
			if fd.NoPaste {
				setAttr(n, "onpaste", noPasteHandler)
			}
		}
	}
}

func syncSelect(n *html.Node, value string) {
	for _, opt := range findAll(n, func(c *html.Node) bool { return c.DataAtom == atom.Option }) {
		v, ok := attr(opt, "value")
		if !ok {
			v = strings.TrimSpace(textContent(opt))
		}
		toggleAttr(opt, "selected", v == value)
	}
}

// Sync writes the state of every form back into the markup.
func (d *Document) Sync() {
	for _, f := range d.forms {
		f.Sync()
	}
}

// Render syncs every form and writes the page to w.
func (d *Document) Render(w io.Writer) error {
	d.Sync()
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

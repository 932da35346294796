// Package htmlform reads visibility-driven forms out of HTML markup and
// writes resolved state back into the same node tree.
//
// Dependent groups are elements carrying the class "hi-light"; the group
// id is their data-group attribute or, failing that, their first other
// class. Elements sharing an id form a single group. Control fields carry
// their Choice Map in a choices (or data-choices) attribute. A select with
// the class other-choice-select is paired with the next text field
// carrying other-choice-text.
package htmlform

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/formvis/internal/choicemap"
	"github.com/matthewbaird/formvis/internal/form"
)

const (
	groupClass       = "hi-light"
	otherSelectClass = "other-choice-select"
	otherTextClass   = "other-choice-text"
)

// Document is a parsed HTML page holding one or more forms.
type Document struct {
	root  *html.Node
	forms []*Form
}

// Form pairs a form state tree with the markup it was read from.
type Form struct {
	Form *form.Form

	node   *html.Node
	fields map[string][]*html.Node
	groups map[string][]*html.Node
}

// Forms returns the forms in document order.
func (d *Document) Forms() []*Form { return d.forms }

// Form returns the form with the given id.
func (d *Document) Form(id string) (*Form, bool) {
	for _, f := range d.forms {
		if f.Form.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Parse reads a page and builds one form per <form> element, or a single
// form over <body> when the page has none. Authoring defects of every
// form are joined into the returned error.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{root: root}
	nodes := findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Form })
	if len(nodes) == 0 {
		body := findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
		if len(body) == 0 {
			return nil, errors.New("parse html: no <form> or <body> element")
		}
		nodes = body[:1]
	}

	var errs []error
	for i, n := range nodes {
		f, err := parseForm(n, formID(n, i))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		doc.forms = append(doc.forms, f)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc, nil
}

func formID(n *html.Node, i int) string {
	for _, key := range []string{"id", "name"} {
		if v, ok := attr(n, key); ok && v != "" {
			return v
		}
	}
	return "form-" + strconv.Itoa(i+1)
}

type parser struct {
	out       *Form
	errs      []error
	boxes     map[string]*form.Field
	groups    map[string]*form.Group // elements sharing an id form one group
	pendingOT []*form.Field // other-choice selects waiting for their text field
}

func parseForm(n *html.Node, id string) (*Form, error) {
	p := &parser{
		out: &Form{
			node:   n,
			fields: make(map[string][]*html.Node),
			groups: make(map[string][]*html.Node),
		},
		boxes:  make(map[string]*form.Field),
		groups: make(map[string]*form.Group),
	}
	root := &form.Group{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, root)
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("form %q: %w", id, err)
	}

	frm, err := form.New(id, root)
	if err != nil {
		return nil, err
	}
	p.out.Form = frm
	return p.out, nil
}

func (p *parser) walk(n *html.Node, g *form.Group) {
	if n.Type != html.ElementNode {
		return
	}
	if n.DataAtom == atom.Form {
		// nested forms are invalid markup; the parser already split them
		return
	}

	if hasClass(n, groupClass) {
		id := groupID(n)
		if id == "" {
			p.errs = append(p.errs, fmt.Errorf("%w: %s element has no group id", form.ErrInvalidGroup, groupClass))
		} else {
			sub, ok := p.groups[id]
			if !ok {
				sub = &form.Group{ID: id}
				g.Groups = append(g.Groups, sub)
				p.groups[id] = sub
			}
			p.out.groups[id] = append(p.out.groups[id], n)
			g = sub
		}
	}

	switch n.DataAtom {
	case atom.Select:
		p.selectField(n, g)
		return
	case atom.Textarea:
		p.textField(n, g, textContent(n))
		return
	case atom.Input:
		p.input(n, g)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, g)
	}
}

func groupID(n *html.Node) string {
	if v, ok := attr(n, "data-group"); ok {
		return strings.TrimSpace(v)
	}
	for _, c := range classes(n) {
		if c != groupClass {
			return c
		}
	}
	return ""
}

func (p *parser) selectField(n *html.Node, g *form.Group) {
	name, ok := attr(n, "name")
	if !ok || name == "" {
		return
	}
	fd := &form.Field{Name: name, Kind: form.KindSelect}
	hasSelected := false
	for _, opt := range findAll(n, func(c *html.Node) bool { return c.DataAtom == atom.Option }) {
		label := strings.TrimSpace(textContent(opt))
		value, ok := attr(opt, "value")
		if !ok {
			value = label
		}
		fd.Options = append(fd.Options, form.Option{Value: value, Label: label})
		if _, sel := attr(opt, "selected"); sel {
			fd.Value = value
			hasSelected = true
		}
	}
	if !hasSelected && len(fd.Options) > 0 {
		// a select without a selected option shows its first one
		fd.Value = fd.Options[0].Value
	}
	fd.Choices = p.choices(n, name)
	g.Fields = append(g.Fields, fd)
	p.out.fields[name] = append(p.out.fields[name], n)
	if hasClass(n, otherSelectClass) {
		p.pendingOT = append(p.pendingOT, fd)
	}
}

func (p *parser) input(n *html.Node, g *form.Group) {
	name, ok := attr(n, "name")
	if !ok || name == "" {
		return
	}
	typ, _ := attr(n, "type")
	switch strings.ToLower(typ) {
	case "", "text", "email", "tel", "number", "url", "search", "date", "time":
		value, _ := attr(n, "value")
		p.textField(n, g, value)
	case "checkbox":
		p.checkbox(n, g, name)
	}
}

func (p *parser) textField(n *html.Node, g *form.Group, value string) {
	name, ok := attr(n, "name")
	if !ok || name == "" {
		return
	}
	fd := &form.Field{Name: name, Kind: form.KindText, Value: value}
	g.Fields = append(g.Fields, fd)
	p.out.fields[name] = append(p.out.fields[name], n)
	if hasClass(n, otherTextClass) && len(p.pendingOT) > 0 {
		p.pendingOT[0].OtherText = name
		p.pendingOT = p.pendingOT[1:]
	}
}

// checkbox folds every <input type=checkbox> sharing a name into one
// field; the first input decides which group the field belongs to.
func (p *parser) checkbox(n *html.Node, g *form.Group, name string) {
	fd, ok := p.boxes[name]
	if !ok {
		fd = &form.Field{Name: name, Kind: form.KindCheckbox}
		p.boxes[name] = fd
		g.Fields = append(g.Fields, fd)
	}
	value, ok := attr(n, "value")
	if !ok {
		value = "on"
	}
	_, checked := attr(n, "checked")
	fd.Options = append(fd.Options, form.Option{Value: value, Label: label(n), Checked: checked})
	if fd.Choices == nil {
		fd.Choices = p.choices(n, name)
	}
	p.out.fields[name] = append(p.out.fields[name], n)
}

func (p *parser) choices(n *html.Node, name string) *choicemap.Map {
	raw, ok := attr(n, "choices")
	if !ok {
		raw, ok = attr(n, "data-choices")
	}
	if !ok {
		return nil
	}
	m, err := choicemap.Parse([]byte(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("field %q: %w", name, err))
		return nil
	}
	return m
}

// label returns the text of the <label for=id> wrapping or following n.
func label(n *html.Node) string {
	if n.Parent != nil && n.Parent.DataAtom == atom.Label {
		return strings.TrimSpace(textContent(n.Parent))
	}
	id, ok := attr(n, "id")
	if !ok {
		return ""
	}
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.DataAtom == atom.Label {
			if v, _ := attr(s, "for"); v == id {
				return strings.TrimSpace(textContent(s))
			}
		}
	}
	return ""
}

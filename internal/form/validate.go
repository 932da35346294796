package form

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/formvis/internal/choicemap"
)

func (f *Form) validate() error {
	var errs []error

	for _, g := range f.Groups() {
		if !choicemap.ValidGroupID(g.ID) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidGroup, g.ID))
		}
	}
	for _, fd := range f.order {
		errs = append(errs, f.validateField(fd)...)
	}
	if len(errs) > 0 {
		// Cycle detection needs every referenced group to exist.
		return joinErrors(errs)
	}
	if cycle := f.findCycle(); cycle != nil {
		return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(cycle, " -> "))
	}
	return nil
}

func (f *Form) validateField(fd *Field) []error {
	var errs []error
	if fd.Name == "" {
		errs = append(errs, fmt.Errorf("%w: field without a name", ErrInvalidField))
	}

	seen := make(map[string]bool, len(fd.Options))
	for _, o := range fd.Options {
		if seen[o.Value] {
			errs = append(errs, fmt.Errorf("%w: %q lists option %q twice", ErrInvalidField, fd.Name, o.Value))
		}
		seen[o.Value] = true
	}

	switch fd.Kind {
	case KindText:
		if fd.Choices != nil {
			errs = append(errs, fmt.Errorf("%w: text field %q cannot carry choices", ErrInvalidField, fd.Name))
		}
	case KindSelect:
		if fd.Value != "" && len(fd.Options) > 0 && !seen[fd.Value] {
			errs = append(errs, fmt.Errorf("%w: %q default %q is not an option", ErrUnknownOption, fd.Name, fd.Value))
		}
	}

	if fd.IsControl() {
		for _, v := range fd.Choices.Values() {
			switch {
			case fd.Kind == KindCheckbox && !seen[v]:
				errs = append(errs, fmt.Errorf("%w: %q maps value %q which is not one of its checkboxes", ErrUnknownOption, fd.Name, v))
			case fd.Kind == KindSelect && v != "" && len(fd.Options) > 0 && !seen[v]:
				errs = append(errs, fmt.Errorf("%w: %q maps value %q which is not one of its options", ErrUnknownOption, fd.Name, v))
			}
		}
		for _, id := range fd.Choices.AllGroups() {
			if _, ok := f.groups[id]; !ok {
				errs = append(errs, fmt.Errorf("%w: %q maps to group %q", ErrUnknownGroup, fd.Name, id))
			}
		}
	}

	if fd.OtherText != "" {
		other, ok := f.fields[fd.OtherText]
		switch {
		case fd.Kind != KindSelect:
			errs = append(errs, fmt.Errorf("%w: only select fields take an other-text field, %q is %s", ErrInvalidField, fd.Name, fd.Kind))
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %q names other-text field %q", ErrUnknownField, fd.Name, fd.OtherText))
		case other.Kind != KindText:
			errs = append(errs, fmt.Errorf("%w: other-text field %q of %q must be text", ErrInvalidField, fd.OtherText, fd.Name))
		}
	}
	return errs
}

// findCycle looks for a cycle in the group dependency graph, where group g
// depends on group h when a control field inside g maps to h. Resolution
// recurses along exactly these edges, so an acyclic graph bounds it.
func (f *Form) findCycle() []string {
	edges := make(map[*Group][]*Group)
	nodes := append([]*Group{f.Root}, f.Groups()...)
	for _, g := range nodes {
		for _, fd := range f.ControlFields(g) {
			for _, id := range fd.Choices.AllGroups() {
				edges[g] = append(edges[g], f.groups[id])
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[*Group]int, len(nodes))
	var stack []*Group
	var cycle []string

	var visit func(g *Group) bool
	visit = func(g *Group) bool {
		color[g] = grey
		stack = append(stack, g)
		for _, next := range edges[g] {
			switch color[next] {
			case grey:
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				for _, s := range stack[start:] {
					cycle = append(cycle, groupLabel(s))
				}
				cycle = append(cycle, groupLabel(next))
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[g] = black
		return false
	}

	for _, g := range nodes {
		if color[g] == white && visit(g) {
			return cycle
		}
	}
	return nil
}

func groupLabel(g *Group) string {
	if g.ID == "" {
		return "(form)"
	}
	return g.ID
}

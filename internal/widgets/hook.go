// Package widgets holds the simple collaborators that sit next to the
// visibility engine: one-way behaviours with no cross-field coupling, each
// exposing an Init hook over a subtree.
package widgets

import (
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/form"
)

// Hook is the initialisation hook of a collaborator. root is the subtree
// being initialised; nil means the whole form.
type Hook interface {
	Init(root *form.Group) (*engine.Patch, error)
}

// ChangeListener is implemented by hooks that also react to field changes.
type ChangeListener interface {
	Changed(fd *form.Field) *engine.Patch
}

func subtree(frm *form.Form, root *form.Group) []*form.Field {
	if root == nil {
		root = frm.Root
	}
	return root.DescendantFields()
}

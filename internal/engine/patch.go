package engine

// ChangeKind names one kind of state transition.
type ChangeKind string

const (
	GroupShown      ChangeKind = "group_shown"
	GroupHidden     ChangeKind = "group_hidden"
	FieldCleared    ChangeKind = "field_cleared"
	OptionUnchecked ChangeKind = "option_unchecked"
	FieldShown      ChangeKind = "field_shown"
	FieldHidden     ChangeKind = "field_hidden"
)

// Change is one applied transition. Cause names the control field whose
// resolution produced it.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Group string     `json:"group,omitempty"`
	Field string     `json:"field,omitempty"`
	Value string     `json:"value,omitempty"` // previous value of a cleared field or the unchecked option
	Cause string     `json:"cause,omitempty"`
}

// Patch is the ordered list of transitions one application produced. Only
// real transitions are recorded, so applying an unchanged value yields an
// empty patch.
type Patch struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the patch changed nothing.
func (p *Patch) Empty() bool {
	return p == nil || len(p.Changes) == 0
}

// Add appends a change.
func (p *Patch) Add(c Change) {
	p.Changes = append(p.Changes, c)
}

// Merge appends every change of other.
func (p *Patch) Merge(other *Patch) {
	if other != nil {
		p.Changes = append(p.Changes, other.Changes...)
	}
}

// Groups returns the ids of groups that ended in a transition of kind k,
// in the order they occurred.
func (p *Patch) Groups(k ChangeKind) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, c := range p.Changes {
		if c.Kind == k {
			out = append(out, c.Group)
		}
	}
	return out
}

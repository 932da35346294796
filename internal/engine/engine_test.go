package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/matthewbaird/formvis/internal/choicemap"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cm(entries ...choicemap.Entry) *choicemap.Map {
	return choicemap.MustNew(entries...)
}

func entry(value string, groups ...string) choicemap.Entry {
	return choicemap.Entry{Value: value, Groups: groups}
}

func opts(values ...string) []form.Option {
	out := make([]form.Option, len(values))
	for i, v := range values {
		out[i] = form.Option{Value: v, Label: v}
	}
	return out
}

func checked(o []form.Option, values ...string) []form.Option {
	for i := range o {
		for _, v := range values {
			if o[i].Value == v {
				o[i].Checked = true
			}
		}
	}
	return o
}

func textGroup(id, field string) *form.Group {
	return &form.Group{ID: id, Fields: []*form.Field{{Name: field, Kind: form.KindText}}}
}

func mustForm(t *testing.T, root *form.Group) *form.Form {
	t.Helper()
	f, err := form.New("test", root)
	require.NoError(t, err)
	return f
}

func field(t *testing.T, f *form.Form, name string) *form.Field {
	t.Helper()
	fd, ok := f.Field(name)
	require.True(t, ok, "field %q", name)
	return fd
}

// ── Resolution ──────────────────────────────────────────────────────────────

func TestResolveSelect_ScenarioA(t *testing.T) {
	fd := &form.Field{
		Name:    "choice",
		Kind:    form.KindSelect,
		Value:   "A",
		Choices: cm(entry("A", "g1"), entry("B", "g1", "g2")),
	}
	res := ResolveSelect(fd)
	assert.Equal(t, []string{"g1"}, res.Show)
	assert.Equal(t, []string{"g2"}, res.Hide)
}

func TestResolveSelect_UnmappedValueHidesEverything(t *testing.T) {
	fd := &form.Field{
		Kind:    form.KindSelect,
		Value:   "",
		Choices: cm(entry("A", "g1", "g2"), entry("B", "g2", "g3")),
	}
	res := ResolveSelect(fd)
	assert.Empty(t, res.Show)
	assert.Equal(t, []string{"g1", "g2", "g3"}, res.Hide)
}

func TestResolveCheckboxes_ScenarioB(t *testing.T) {
	fd := &form.Field{
		Name:    "c",
		Kind:    form.KindCheckbox,
		Options: checked(opts("x", "y"), "x"),
		Choices: cm(entry("x", "g1"), entry("y", "g1", "g2")),
	}
	res := ResolveCheckboxes(fd)
	assert.Equal(t, []string{"g1"}, res.Show)
	assert.Equal(t, []string{"g2"}, res.Hide)
}

func TestResolveCheckboxes_OnlyMappedOptionsContribute(t *testing.T) {
	fd := &form.Field{
		Kind:    form.KindCheckbox,
		Options: checked(opts("x", "y", "z"), "z"),
		Choices: cm(entry("x", "g1")),
	}
	res := ResolveCheckboxes(fd)
	assert.Empty(t, res.Show)
	assert.Equal(t, []string{"g1"}, res.Hide)
}

func TestResolve_NonControlIsEmpty(t *testing.T) {
	res := Resolve(&form.Field{Kind: form.KindSelect, Value: "A"})
	assert.Empty(t, res.Show)
	assert.Empty(t, res.Hide)
}

func TestResolve_DeterministicAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	groups := []string{"g1", "g2", "g3", "g4", "g5"}
	values := []string{"a", "b", "c", "d"}

	for i := 0; i < 200; i++ {
		var entries []choicemap.Entry
		for _, v := range values {
			var gs []string
			for n := rng.IntN(4); n > 0; n-- {
				gs = append(gs, groups[rng.IntN(len(groups))])
			}
			entries = append(entries, entry(v, gs...))
		}
		m := cm(entries...)

		sel := &form.Field{Kind: form.KindSelect, Value: values[rng.IntN(len(values))], Choices: m}
		box := &form.Field{Kind: form.KindCheckbox, Options: opts(values...), Choices: m}
		for j := range box.Options {
			box.Options[j].Checked = rng.IntN(2) == 0
		}

		for _, fd := range []*form.Field{sel, box} {
			first := Resolve(fd)
			assert.Equal(t, first, Resolve(fd), "resolution must be deterministic")
			for _, s := range first.Show {
				assert.NotContains(t, first.Hide, s, "show and hide must be disjoint")
			}
		}
	}
}

// ── Application ─────────────────────────────────────────────────────────────

func smokingForm(t *testing.T) *form.Form {
	return mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "does_smoke",
			Kind:    form.KindSelect,
			Options: opts("", "yes", "no"),
			Choices: cm(entry("yes", "smoking"), entry("no", "quit")),
		}},
		Groups: []*form.Group{
			textGroup("smoking", "per_day"),
			textGroup("quit", "quit_year"),
		},
	})
}

func TestEngine_ChangeHidesBeforeShowing(t *testing.T) {
	f := smokingForm(t)
	e := New()

	_, err := e.Initialize(f, nil)
	require.NoError(t, err)
	assert.False(t, f.Visible("smoking"))
	assert.False(t, f.Visible("quit"))

	patch, err := e.Change(f, "does_smoke", "yes")
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: GroupShown, Group: "smoking", Cause: "does_smoke"}}, patch.Changes)

	require.NoError(t, f.SetValue("per_day", "10"))

	patch, err = e.Change(f, "does_smoke", "no")
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Kind: GroupHidden, Group: "smoking", Cause: "does_smoke"},
		{Kind: FieldCleared, Group: "smoking", Field: "per_day", Value: "10", Cause: "does_smoke"},
		{Kind: GroupShown, Group: "quit", Cause: "does_smoke"},
	}, patch.Changes)
	assert.Empty(t, field(t, f, "per_day").Value)
}

func TestEngine_Idempotent(t *testing.T) {
	f := smokingForm(t)
	e := New()

	_, err := e.Change(f, "does_smoke", "yes")
	require.NoError(t, err)
	before := f.Snapshot()

	patch, err := e.Change(f, "does_smoke", "yes")
	require.NoError(t, err)
	assert.True(t, patch.Empty())
	assert.Equal(t, before, f.Snapshot())

	_, err = e.Initialize(f, nil)
	require.NoError(t, err)
	assert.Equal(t, before, f.Snapshot())
}

func TestEngine_ShowWinsOnOverlap(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "c",
			Kind:    form.KindCheckbox,
			Options: opts("x", "y"),
			Choices: cm(entry("x", "shared"), entry("y", "shared", "only_y")),
		}},
		Groups: []*form.Group{
			textGroup("shared", "s"),
			textGroup("only_y", "o"),
		},
	})
	e := New()

	patch, err := e.Toggle(f, "c", "x", true)
	require.NoError(t, err)
	assert.True(t, f.Visible("shared"))
	assert.False(t, f.Visible("only_y"))
	assert.Equal(t, []string{"only_y"}, patch.Groups(GroupHidden))
}

func TestEngine_DataHygiene(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "has_pouch",
			Kind:    form.KindSelect,
			Options: opts("", "yes", "no"),
			Value:   "yes",
			Choices: cm(entry("yes", "pouch")),
		}},
		Groups: []*form.Group{{
			ID: "pouch",
			Fields: []*form.Field{
				{Name: "pouch_problems", Kind: form.KindSelect, Options: opts("", "yes", "no"), Value: "no"},
				{Name: "pouch_notes", Kind: form.KindText, Value: "sore"},
				{Name: "symptoms", Kind: form.KindCheckbox, Options: checked(opts("pain", "leak"), "pain", "leak")},
			},
			Groups: []*form.Group{{
				ID:     "pouch_detail",
				Fields: []*form.Field{{Name: "detail", Kind: form.KindText, Value: "deep"}},
			}},
		}},
	})
	e := New()

	patch, err := e.Change(f, "has_pouch", "no")
	require.NoError(t, err)

	pouch, _ := f.Group("pouch")
	for _, fd := range pouch.DescendantFields() {
		assert.True(t, fd.IsEmpty(), "field %q must be empty after hide", fd.Name)
	}
	assert.False(t, f.Visible("pouch_detail"), "nested group is hidden with its parent")
	assert.Len(t, patch.Changes, 1+3+2, "hide, three cleared fields, two unchecked options")
}

func TestEngine_ScenarioC_CascadeThroughNestedCheckbox(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "outer",
			Kind:    form.KindSelect,
			Options: opts("", "yes", "no"),
			Value:   "yes",
			Choices: cm(entry("yes", "g1")),
		}},
		Groups: []*form.Group{
			{
				ID: "g1",
				Fields: []*form.Field{{
					Name:    "c3",
					Kind:    form.KindCheckbox,
					Options: checked(opts("z"), "z"),
					Choices: cm(entry("z", "g3")),
				}},
			},
			{ID: "g3", Fields: []*form.Field{{Name: "note", Kind: form.KindText, Value: "kept?"}}},
		},
	})
	e := New()
	require.True(t, f.Visible("g3"))

	patch, err := e.Change(f, "outer", "no")
	require.NoError(t, err)

	assert.False(t, f.Visible("g1"))
	assert.False(t, f.Visible("g3"), "g3 collapses although the outer map never names it")
	assert.Empty(t, field(t, f, "note").Value)
	assert.Empty(t, field(t, f, "c3").CheckedValues())
	assert.Equal(t, []string{"g1", "g3"}, patch.Groups(GroupHidden))
}

func TestEngine_CascadeThroughNestedSelect(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "outer",
			Kind:    form.KindSelect,
			Options: opts("", "yes"),
			Value:   "yes",
			Choices: cm(entry("yes", "g1")),
		}},
		Groups: []*form.Group{
			{
				ID: "g1",
				Fields: []*form.Field{{
					Name:    "inner",
					Kind:    form.KindSelect,
					Options: opts("", "a"),
					Value:   "a",
					Choices: cm(entry("a", "g2")),
				}},
			},
			textGroup("g2", "g2_text"),
		},
	})
	e := New()

	_, err := e.Change(f, "outer", "")
	require.NoError(t, err)
	assert.False(t, f.Visible("g2"))
	assert.Empty(t, field(t, f, "inner").Value)
}

func TestEngine_ShowReinitialisesNestedCheckboxes(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name:    "outer",
			Kind:    form.KindSelect,
			Options: opts("", "yes"),
			Choices: cm(entry("yes", "g1")),
		}},
		Groups: []*form.Group{
			{
				ID: "g1",
				Fields: []*form.Field{{
					Name:    "nested",
					Kind:    form.KindCheckbox,
					Options: opts("other"),
					Choices: cm(entry("other", "nested_other")),
				}},
				Groups: []*form.Group{textGroup("nested_other", "specify")},
			},
		},
	})
	e := New()

	// Without an initial pass nothing is hidden yet.
	require.True(t, f.Visible("nested_other"))

	patch, err := e.Change(f, "outer", "yes")
	require.NoError(t, err)
	assert.True(t, f.Visible("g1"))
	assert.False(t, f.Visible("nested_other"), "freshly shown group hides dependents of unchecked options")
	assert.Equal(t, []string{"nested_other"}, patch.Groups(GroupHidden))

	patch, err = e.Toggle(f, "nested", "other", true)
	require.NoError(t, err)
	assert.True(t, f.Visible("nested_other"))
	assert.Equal(t, []string{"nested_other"}, patch.Groups(GroupShown))
}

func TestEngine_InitializeOnlyHides(t *testing.T) {
	f := smokingForm(t)
	g, _ := f.Group("smoking")
	g.Hidden = true
	require.NoError(t, f.SetValue("does_smoke", "yes"))

	patch, err := New().Initialize(f, nil)
	require.NoError(t, err)
	assert.False(t, f.Visible("smoking"), "init mode never shows")
	assert.Equal(t, []string{"quit"}, patch.Groups(GroupHidden))
}

func TestEngine_InitializeSubtree(t *testing.T) {
	f := mustForm(t, &form.Group{
		Fields: []*form.Field{{
			Name: "top", Kind: form.KindSelect, Options: opts("", "a"),
			Choices: cm(entry("a", "top_dep")),
		}},
		Groups: []*form.Group{
			textGroup("top_dep", "x"),
			{
				ID: "section",
				Fields: []*form.Field{{
					Name: "inner", Kind: form.KindSelect, Options: opts("", "a"),
					Choices: cm(entry("a", "inner_dep")),
				}},
				Groups: []*form.Group{textGroup("inner_dep", "y")},
			},
		},
	})
	section, _ := f.Group("section")

	_, err := New().Initialize(f, section)
	require.NoError(t, err)
	assert.False(t, f.Visible("inner_dep"))
	assert.True(t, f.Visible("top_dep"), "controls outside the subtree are untouched")
}

func TestEngine_UnknownField(t *testing.T) {
	_, err := New().Change(smokingForm(t), "ghost", "x")
	assert.ErrorIs(t, err, form.ErrUnknownField)
}

func TestEngine_RecursionLimit(t *testing.T) {
	f := mustForm(t, &form.Group{
		Groups: []*form.Group{{
			ID: "g1",
			Fields: []*form.Field{{
				Name: "s", Kind: form.KindSelect, Options: opts("a", "b"), Value: "a",
			}},
		}},
	})
	// Introduce a self-reference after validation.
	field(t, f, "s").Choices = cm(entry("b", "g1"))

	_, err := New(WithMaxDepth(8)).Initialize(f, nil)
	assert.ErrorIs(t, err, ErrRecursionLimit)
}

package formdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matthewbaird/formvis/internal/choicemap"
	"github.com/matthewbaird/formvis/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smokingJSON = `{
  "id": "smoking",
  "title": "Lifestyle",
  "fields": [
    {
      "name": "does_smoke",
      "kind": "select",
      "options": [{"value": ""}, {"value": "yes"}, {"value": "no"}],
      "choices": {"yes": ["smoking"], "no": ["quit"]}
    }
  ],
  "groups": [
    {"id": "smoking", "fields": [{"name": "cigarettes"}]},
    {"id": "quit", "fields": [{"name": "quit_year"}]}
  ]
}`

const smokingCUE = `
id: "smoking"
fields: [{
	name: "does_smoke"
	kind: "select"
	options: [{value: ""}, {value: "yes"}, {value: "no"}]
	choices: {yes: ["smoking"], no: ["quit"]}
}]
groups: [
	{id: "smoking", fields: [{name: "cigarettes"}]},
	{id: "quit", fields: [{name: "quit_year"}]},
]
`

func TestDecodeJSON_Compile(t *testing.T) {
	def, err := DecodeJSON([]byte(smokingJSON))
	require.NoError(t, err)
	assert.Equal(t, "Lifestyle", def.Title)

	frm, err := def.Compile()
	require.NoError(t, err)
	fd, ok := frm.Field("does_smoke")
	require.True(t, ok)
	assert.True(t, fd.IsControl())
	assert.Equal(t, []string{"yes", "no"}, fd.Choices.Values())

	text, _ := frm.Field("cigarettes")
	assert.Equal(t, form.KindText, text.Kind)
	assert.Equal(t, "smoking", text.Parent().ID)
}

func TestDecodeJSON_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   `{"id": "x", "colour": "red"}`,
		"missing id":    `{"fields": []}`,
		"trailing data": `{"id": "x"} {"id": "y"}`,
		"bad choices":   `{"id": "x", "fields": [{"name": "a", "choices": {"yes": "g"}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(body))
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestCompile_ReportsEveryDefect(t *testing.T) {
	def := &Definition{
		ID: "broken",
		Fields: []FieldDef{
			{Name: "a", Kind: "radio"},
			{Name: "b", Kind: "select", Options: []OptionDef{{Value: "yes"}}, Choices: choicemap.MustNew(
				choicemap.Entry{Value: "yes", Groups: []string{"nowhere"}},
			)},
		},
	}
	_, err := def.Compile()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.ErrorIs(t, err, form.ErrInvalidField)

	def.Fields = def.Fields[1:]
	_, err = def.Compile()
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.ErrorIs(t, err, form.ErrUnknownGroup)
}

func TestCanonicalRoundTrip(t *testing.T) {
	def, err := DecodeJSON([]byte(smokingJSON))
	require.NoError(t, err)
	frm, err := def.Compile()
	require.NoError(t, err)

	data, err := FromForm(frm).Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"choices":{"yes":["smoking"],"no":["quit"]}`)

	again, err := DecodeJSON(data)
	require.NoError(t, err)
	_, err = again.Compile()
	require.NoError(t, err)
}

func TestLoadCUE(t *testing.T) {
	def, err := LoadCUE("smoking.cue", []byte(smokingCUE))
	require.NoError(t, err)
	assert.Equal(t, "smoking", def.ID)
	require.Len(t, def.Fields, 1)
	assert.Equal(t, []string{"yes", "no"}, def.Fields[0].Choices.Values())
	assert.Equal(t, "text", def.Groups[0].Fields[0].Kind)

	_, err = def.Compile()
	require.NoError(t, err)
}

func TestLoadCUE_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"bad kind":      `id: "x", fields: [{name: "a", kind: "radio"}]`,
		"unknown field": `id: "x", colour: "red"`,
		"bad group id":  `id: "x", groups: [{id: "9lives"}]`,
		"syntax":        `id: "x`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCUE("bad.cue", []byte(src))
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestFromHTML(t *testing.T) {
	page := `<form id="hb"><select name="hb_known" choices="[{'yes': ['hb']}]">
<option value="">-</option><option value="yes">yes</option></select>
<div class="hi-light hb"><input name="hb_value"></div></form>`
	defs, err := FromHTML(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "hb", defs[0].ID)
	require.Len(t, defs[0].Groups, 1)
	assert.Equal(t, "hb_value", defs[0].Groups[0].Fields[0].Name)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("a.json", smokingJSON)
	write("b.cue", strings.Replace(smokingCUE, `id: "smoking"`, `id: "smoking2"`, 1))
	write("c.html", `<form id="page"><input name="q"></form>`)
	write("notes.txt", "ignored")
	write("z.json", `{"id": "broken", "fields": [{"name": "a", "kind": "radio"}], "extra": 1}`)

	defs, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "z.json")

	var ids []string
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"smoking", "smoking2", "page"}, ids)
}

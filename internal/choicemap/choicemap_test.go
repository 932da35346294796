package choicemap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Object(t *testing.T) {
	m, err := Parse([]byte(`{"B": ["g1", "g2"], "A": ["g1"]}`))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"B", "A"}, m.Values(), "declaration order is preserved")

	groups, ok := m.Groups("B")
	require.True(t, ok)
	assert.Equal(t, []string{"g1", "g2"}, groups)

	_, ok = m.Groups("C")
	assert.False(t, ok)
}

func TestParse_LegacyShapes(t *testing.T) {
	inputs := []string{
		`[{"yes": ["has_pouch"]}]`,
		`[{'yes': ['has_pouch']}]`,
		`{'yes': ['has_pouch']}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			m, err := Parse([]byte(in))
			require.NoError(t, err)
			groups, ok := m.Groups("yes")
			require.True(t, ok)
			assert.Equal(t, []string{"has_pouch"}, groups)
		})
	}
}

func TestParse_EmptyIsAbsent(t *testing.T) {
	m, err := Parse([]byte("   "))
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Values())
	assert.Nil(t, m.AllGroups())
	_, ok := m.Groups("yes")
	assert.False(t, ok)
}

func TestParse_EmptyObjectIsValid(t *testing.T) {
	m, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestParse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"not json":          `choices`,
		"string value":      `{"yes": "g1"}`,
		"number group":      `{"yes": [1]}`,
		"nested list":       `{"yes": [["g1"]]}`,
		"empty group id":    `{"yes": [""]}`,
		"whitespace in id":  `{"yes": ["g 1"]}`,
		"duplicate key":     `{"yes": ["g1"], "yes": ["g2"]}`,
		"two mappings":      `[{"a": ["g1"]}, {"b": ["g2"]}]`,
		"empty list":        `[]`,
		"trailing data":     `{"a": ["g1"]} {}`,
		"truncated":         `{"a": ["g1"`,
		"scalar":            `42`,
		"id starting digit": `{"a": ["1g"]}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestMap_AllGroups(t *testing.T) {
	m := MustNew(
		Entry{Value: "A", Groups: []string{"g1"}},
		Entry{Value: "B", Groups: []string{"g2", "g1", "g3"}},
	)
	assert.Equal(t, []string{"g1", "g2", "g3"}, m.AllGroups())
}

func TestMap_AccessorsReturnCopies(t *testing.T) {
	m := MustNew(Entry{Value: "A", Groups: []string{"g1"}})

	groups, _ := m.Groups("A")
	groups[0] = "mutated"
	entries := m.Entries()
	entries[0].Groups[0] = "mutated"

	again, _ := m.Groups("A")
	assert.Equal(t, []string{"g1"}, again)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(Entry{Value: "A"}, Entry{Value: "A"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMap_JSONRoundTripKeepsOrder(t *testing.T) {
	type holder struct {
		Choices *Map `json:"choices"`
	}
	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"choices": {"z": ["g3"], "a": []}}`), &h))
	require.NotNil(t, h.Choices)
	assert.Equal(t, []string{"z", "a"}, h.Choices.Values())

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"choices": {"z": ["g3"], "a": []}}`, string(out))
	assert.Contains(t, string(out), `{"z":["g3"],"a":[]}`)
}

func TestMap_UnmarshalRejectsMalformed(t *testing.T) {
	var h struct {
		Choices *Map `json:"choices"`
	}
	err := json.Unmarshal([]byte(`{"choices": {"a": "g1"}}`), &h)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidGroupID(t *testing.T) {
	assert.True(t, ValidGroupID("has_pouch"))
	assert.True(t, ValidGroupID("_x-1"))
	assert.False(t, ValidGroupID(""))
	assert.False(t, ValidGroupID("a.b"))
	assert.False(t, ValidGroupID("-a"))
}

// Package choicemap holds the declarative value → dependent-group mapping
// attached to a control field.
//
// A Map is parsed once, when the field is bound, and is immutable
// afterwards. The zero *Map (nil) is valid and describes a field without
// conditional dependents: every accessor returns an empty result.
package choicemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is wrapped by every parse and validation failure. A malformed
// map is an authoring defect in the form definition.
var ErrMalformed = errors.New("malformed choice map")

// Entry maps one candidate value to the ordered ids of the groups it shows.
type Entry struct {
	Value  string
	Groups []string
}

// Map is an ordered, read-only Choice Map.
type Map struct {
	entries []Entry
	index   map[string]int
}

// New builds a Map from entries, validating keys and group ids.
func New(entries ...Entry) (*Map, error) {
	m := &Map{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if err := m.add(e.Value, e.Groups); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New for statically known maps; it panics on invalid input.
func MustNew(entries ...Entry) *Map {
	m, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) add(value string, groups []string) error {
	if _, dup := m.index[value]; dup {
		return fmt.Errorf("%w: duplicate value %q", ErrMalformed, value)
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if !ValidGroupID(g) {
			return fmt.Errorf("%w: value %q: invalid group id %q", ErrMalformed, value, g)
		}
		ids = append(ids, g)
	}
	m.index[value] = len(m.entries)
	m.entries = append(m.entries, Entry{Value: value, Groups: ids})
	return nil
}

// Len returns the number of candidate values.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Values returns the candidate values in declaration order.
func (m *Map) Values() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Value
	}
	return out
}

// Groups returns the group ids mapped from value.
func (m *Map) Groups(value string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[value]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m.entries[i].Groups...), true
}

// Entries returns a copy of the entries in declaration order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = Entry{Value: e.Value, Groups: append([]string(nil), e.Groups...)}
	}
	return out
}

// AllGroups returns every group id the map can name, first occurrence first.
func (m *Map) AllGroups() []string {
	if m == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, e := range m.entries {
		for _, g := range e.Groups {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// ValidGroupID reports whether id can name a dependent group. Ids double
// as class names in rendered markup, so they are restricted to letters,
// digits, '_' and '-', starting with a letter or '_'.
func ValidGroupID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

// Parse reads a Choice Map from its serialized configuration.
//
// Accepted shapes are a JSON object ({"yes": ["g1"]}), the same object
// wrapped in a one-element list ([{"yes": ["g1"]}]), and either of those
// spelled with single quotes. Empty input means "no configuration" and
// yields a nil Map without error.
func Parse(data []byte) (*Map, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if bytes.IndexByte(data, '"') < 0 && bytes.IndexByte(data, '\'') >= 0 {
		data = bytes.ReplaceAll(data, []byte{'\''}, []byte{'"'})
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, syntaxErr(dec, err)
	}

	m := &Map{index: make(map[string]int)}
	switch tok {
	case json.Delim('{'):
		if err := m.readObject(dec); err != nil {
			return nil, err
		}
	case json.Delim('['):
		if !dec.More() {
			return nil, fmt.Errorf("%w: empty list", ErrMalformed)
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		if err := m.readObject(dec); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, fmt.Errorf("%w: list holds more than one mapping", ErrMalformed)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: expected object or list, got %v", ErrMalformed, tok)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrMalformed, dec.InputOffset())
	}
	return m, nil
}

// readObject consumes the members of an object whose opening brace has
// already been read, including the closing brace.
func (m *Map) readObject(dec *json.Decoder) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return syntaxErr(dec, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected value key at offset %d", ErrMalformed, dec.InputOffset())
		}
		groups, err := readGroupList(dec, key)
		if err != nil {
			return err
		}
		if err := m.add(key, groups); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func readGroupList(dec *json.Decoder, key string) ([]string, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, fmt.Errorf("value %q: %w", key, err)
	}
	var groups []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, syntaxErr(dec, err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: value %q: group ids must be strings, got %v", ErrMalformed, key, tok)
		}
		groups = append(groups, id)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return groups, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return syntaxErr(dec, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q at offset %d, got %v", ErrMalformed, want, dec.InputOffset(), tok)
	}
	return nil
}

func syntaxErr(dec *json.Decoder, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: offset %d: %v", ErrMalformed, dec.InputOffset(), err)
}

// MarshalJSON writes the map as an object, keeping declaration order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		groups := e.Groups
		if groups == nil {
			groups = []string{}
		}
		v, err := json.Marshal(groups)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts every shape Parse accepts.
func (m *Map) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	if parsed == nil {
		*m = Map{index: map[string]int{}}
		return nil
	}
	*m = *parsed
	return nil
}

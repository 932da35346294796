package setops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeComplement(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"disjoint", []string{"g1", "g2"}, []string{"g3"}, []string{"g1", "g2"}},
		{"overlap keeps order of a", []string{"g3", "g1", "g2"}, []string{"g1"}, []string{"g3", "g2"}},
		{"all removed", []string{"g1", "g1"}, []string{"g1"}, []string{}},
		{"empty b", []string{"g2", "g1"}, nil, []string{"g2", "g1"}},
		{"empty a", nil, []string{"g1"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeComplement(tt.a, tt.b))
		})
	}
}

func TestRelativeComplement_DoesNotAliasInput(t *testing.T) {
	a := []string{"g1", "g2"}
	out := RelativeComplement(a, nil)
	out[0] = "changed"
	assert.Equal(t, "g1", a[0])
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"first occurrence kept", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.in))
		})
	}
}

func TestDedupe_Ints(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Dedupe([]int{3, 1, 3, 2, 1}))
}

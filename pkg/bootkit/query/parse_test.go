package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
		exp   map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"leading question mark", "?a=b", map[string]any{"a": "b"}},
		{"key without value", "a", map[string]any{"a": ""}},
		{"repeated keys collect", "a=b&a=c", map[string]any{"a": []any{"b", "c"}}},
		{"nested object", "a[b][c]=d", map[string]any{"a": map[string]any{"b": map[string]any{"c": "d"}}}},
		{"push notation", "a[]=b&a[]=c", map[string]any{"a": []any{"b", "c"}}},
		{"indices out of order", "a[1]=c&a[0]=b", map[string]any{"a": []any{"b", "c"}}},
		{"sparse indices compacted", "a[1]=b&a[15]=c", map[string]any{"a": []any{"b", "c"}}},
		{"index over limit is a key", "a[21]=b", map[string]any{"a": map[string]any{"21": "b"}}},
		{"leading zero is a key", "a[01]=b", map[string]any{"a": map[string]any{"01": "b"}}},
		{"array turned object", "a[0]=b&a[c]=d", map[string]any{"a": map[string]any{"0": "b", "c": "d"}}},
		{"array of objects", "a[0][b]=c&a[1][b]=d",
			map[string]any{"a": []any{map[string]any{"b": "c"}, map[string]any{"b": "d"}}}},
		{"depth limit keeps remainder", "a[b][c][d][e][f][g][h]=i",
			map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": map[string]any{
				"e": map[string]any{"f": map[string]any{"[g][h]": "i"}}}}}}}},
		{"plus and percent decoding", "a=b+c&d=%C3%A9t%C3%A9", map[string]any{"a": "b c", "d": "été"}},
		{"encoded brackets", "a%5Bb%5D=c", map[string]any{"a": map[string]any{"b": "c"}}},
		{"empty parts and keys skipped", "a=1&&=2&b=3", map[string]any{"a": "1", "b": "3"}},
		{"unbalanced bracket is literal", "a[b=c", map[string]any{"a[b": "c"}},
		{"value with equals", "a=b=c", map[string]any{"a": "b=c"}},
		{"invalid escape kept", "a=%zz", map[string]any{"a": "%zz"}},
		{"plain then nested", "a=b&a[c]=d", map[string]any{"a": []any{"b", map[string]any{"c": "d"}}}},
	}

	for i, tc := range testCases {
		assert.Equal(t, tc.exp, Parse(tc.input), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestParse_ParameterLimit(t *testing.T) {
	raw := ""
	for i := 0; i < ParameterLimit+10; i++ {
		raw += "a[]=x&"
	}

	list, ok := Parse(raw)["a"].([]any)

	assert.True(t, ok)
	assert.Len(t, list, ParameterLimit)
}

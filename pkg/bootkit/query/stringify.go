package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Stringify encodes params with indexed bracket notation. Keys are sorted so
// the output is deterministic; empty maps and slices produce nothing and nil
// values encode as "key=".
func Stringify(params map[string]any) string {
	var pairs []string

	for _, k := range sortedKeys(params) {
		pairs = appendValue(pairs, k, params[k])
	}

	return strings.Join(pairs, "&")
}

func appendValue(pairs []string, prefix string, v any) []string {
	switch t := v.(type) {
	case nil:
		return append(pairs, encode(prefix)+"=")
	case string:
		return append(pairs, encode(prefix)+"="+encode(t))
	case []byte:
		return append(pairs, encode(prefix)+"="+encode(string(t)))
	case map[string]any:
		for _, k := range sortedKeys(t) {
			pairs = appendValue(pairs, prefix+"["+k+"]", t[k])
		}

		return pairs
	case []any:
		for i, item := range t {
			pairs = appendValue(pairs, prefix+"["+strconv.Itoa(i)+"]", item)
		}

		return pairs
	case fmt.Stringer:
		return append(pairs, encode(prefix)+"="+encode(t.String()))
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return append(pairs, encode(prefix)+"=")
		}

		return appendValue(pairs, prefix, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendValue(pairs, prefix+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		}

		return pairs
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value().Interface()
		}

		sort.Strings(keys)

		for _, k := range keys {
			pairs = appendValue(pairs, prefix+"["+k+"]", values[k])
		}

		return pairs
	default:
		return append(pairs, encode(prefix)+"="+encode(fmt.Sprint(v)))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

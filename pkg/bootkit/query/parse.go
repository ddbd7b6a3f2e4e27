package query

import (
	"sort"
	"strconv"
	"strings"
)

type segmentKind int

const (
	segKey segmentKind = iota
	segIndex
	segPush
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// sparse holds an array while it is being built; indices may arrive out of
// order or with gaps and are compacted by finalize.
type sparse map[int]any

// Parse decodes a query string, with or without its leading '?'.
// Repeated plain keys collect into a list, "a[]" appends, "a[N]" sets index N.
func Parse(raw string) map[string]any {
	raw = strings.TrimPrefix(raw, "?")
	result := make(map[string]any)

	if raw == "" {
		return result
	}

	parts := strings.SplitN(raw, "&", ParameterLimit+1)
	if len(parts) > ParameterLimit {
		parts = parts[:ParameterLimit]
	}

	for _, part := range parts {
		if part == "" {
			continue
		}

		key, val := splitPair(part)
		if key == "" {
			continue
		}

		segs := splitKey(key)

		root := segs[0].key
		if root == "" {
			continue
		}

		result[root] = assign(result[root], segs[1:], val)
	}

	for k, v := range result {
		result[k] = finalize(v)
	}

	return result
}

func splitPair(part string) (key, val string) {
	pos := strings.Index(part, "]=")
	if pos == -1 {
		pos = strings.Index(part, "=")
	} else {
		pos++
	}

	if pos == -1 {
		return decode(part), ""
	}

	return decode(part[:pos]), decode(part[pos+1:])
}

// splitKey returns the root key followed by at most Depth bracket segments.
// Whatever cannot be split any further becomes one literal key segment.
func splitKey(key string) []segment {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		if open == 0 && strings.HasSuffix(key, "]") && strings.Count(key, "[") == 1 {
			return []segment{{kind: segKey, key: key[1 : len(key)-1]}}
		}

		return []segment{{kind: segKey, key: key}}
	}

	segs := []segment{{kind: segKey, key: key[:open]}}
	rest := key[open:]

	for depth := 0; rest != "" && depth < Depth; depth++ {
		end := strings.IndexAny(rest[1:], "[]")
		if rest[0] != '[' || end == -1 || rest[1+end] != ']' {
			break
		}

		segs = append(segs, classify(rest[1:1+end]))
		rest = rest[2+end:]
	}

	if len(segs) == 1 {
		return []segment{{kind: segKey, key: key}}
	}

	if rest != "" {
		segs = append(segs, segment{kind: segKey, key: rest})
	}

	return segs
}

func classify(inner string) segment {
	if inner == "" {
		return segment{kind: segPush}
	}

	i, err := strconv.Atoi(inner)
	if err == nil && i >= 0 && i <= ArrayLimit && strconv.Itoa(i) == inner {
		return segment{kind: segIndex, index: i}
	}

	return segment{kind: segKey, key: inner}
}

func assign(cur any, segs []segment, val string) any {
	if len(segs) == 0 {
		if cur == nil {
			return val
		}

		return combine(cur, val)
	}

	seg, rest := segs[0], segs[1:]

	switch seg.kind {
	case segPush:
		if m, ok := cur.(map[string]any); ok {
			m[strconv.Itoa(len(m))] = assign(nil, rest, val)

			return m
		}

		arr := toSparse(cur)
		arr[nextIndex(arr)] = assign(nil, rest, val)

		return arr
	case segIndex:
		if m, ok := cur.(map[string]any); ok {
			k := strconv.Itoa(seg.index)
			m[k] = assign(m[k], rest, val)

			return m
		}

		arr := toSparse(cur)
		arr[seg.index] = assign(arr[seg.index], rest, val)

		return arr
	default:
		switch c := cur.(type) {
		case nil:
			return map[string]any{seg.key: assign(nil, rest, val)}
		case map[string]any:
			c[seg.key] = assign(c[seg.key], rest, val)

			return c
		case sparse:
			m := make(map[string]any, len(c)+1)
			for i, v := range c {
				m[strconv.Itoa(i)] = v
			}

			m[seg.key] = assign(m[seg.key], rest, val)

			return m
		default:
			// a plain value followed by a nested one: keep both, in order
			return combine(cur, map[string]any{seg.key: assign(nil, rest, val)})
		}
	}
}

func combine(cur, next any) any {
	if arr, ok := cur.(sparse); ok {
		arr[nextIndex(arr)] = next

		return arr
	}

	return sparse{0: cur, 1: next}
}

func toSparse(cur any) sparse {
	switch c := cur.(type) {
	case nil:
		return sparse{}
	case sparse:
		return c
	default:
		return sparse{0: c}
	}
}

func nextIndex(arr sparse) int {
	next := 0

	for i := range arr {
		if i >= next {
			next = i + 1
		}
	}

	return next
}

func finalize(v any) any {
	switch c := v.(type) {
	case sparse:
		indices := make([]int, 0, len(c))
		for i := range c {
			indices = append(indices, i)
		}

		sort.Ints(indices)

		list := make([]any, 0, len(indices))
		for _, i := range indices {
			list = append(list, finalize(c[i]))
		}

		return list
	case map[string]any:
		for k, child := range c {
			c[k] = finalize(child)
		}

		return c
	default:
		return v
	}
}

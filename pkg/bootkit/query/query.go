// Package query encodes and decodes nested query strings using bracket
// notation, compatible with the format produced by the qs library:
//
//	a[b]=c&list[0]=x&list[1]=y
//
// decodes to {"a": {"b": "c"}, "list": ["x", "y"]}.
package query

import (
	"net/url"
	"strings"
)

const (
	// Depth is the maximum number of bracket segments that are expanded
	// into nested values. Deeper segments are kept as a single literal key.
	Depth = 5
	// ArrayLimit is the highest index that is treated as an array index.
	// Larger indices become object keys.
	ArrayLimit = 20
	// ParameterLimit caps the number of pairs read from a query string.
	ParameterLimit = 1000
)

func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func decode(s string) string {
	d, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}

	return d
}

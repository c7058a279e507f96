// Package records defines the loosely-typed record shape shared by the parser
// and the flattening stage.
//
// A Record is a decoded JSON object (map[string]any) as produced by
// encoding/json with UseNumber enabled: numbers arrive as json.Number, nested
// objects as map[string]any and arrays as []any. Records are treated as
// immutable once decoded.
package records

import "strings"

// Record is one raw, semi-structured source entry.
type Record map[string]any

// Lookup resolves a dotted path such as "data.platforms.mac" and reports
// whether a non-null value exists at that path.
//
// Lookup is total: a missing key, a JSON null, or an intermediate value that is
// not an object all yield (nil, false). It never panics.
func (r Record) Lookup(path string) (any, bool) {
	if r == nil || path == "" {
		return nil, false
	}
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Has reports whether path resolves to a non-null value.
func (r Record) Has(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}

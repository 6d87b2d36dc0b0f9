package domain

import (
	"sort"
	"strings"
)

// PathSeparator separates the segments of a nested attribute path,
// e.g. "address.city".
const PathSeparator = "."

// Attributes is the nested attribute tree of a record. Values follow the
// encoding/json model: string, float64, bool, nil, []any and nested objects.
type Attributes map[string]any

// SplitPath splits a dotted path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// JoinPath joins path segments with PathSeparator, skipping empty segments.
func JoinPath(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, PathSeparator)
}

// AsMap returns v as a map when it is a JSON object.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Attributes:
		return m, true
	default:
		return nil, false
	}
}

// Get resolves a dotted path through nested objects.
func (a Attributes) Get(path string) (any, bool) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	var current map[string]any = a
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := AsMap(v)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Set stores v at a dotted path, creating intermediate objects as needed.
// A non-object value on the way is replaced by an object.
func (a Attributes) Set(path string, v any) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return
	}

	var current map[string]any = a
	for _, part := range parts[:len(parts)-1] {
		next, ok := AsMap(current[part])
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = v
}

// Delete removes the value at path and prunes parent objects left empty.
// It reports whether anything was removed.
func (a Attributes) Delete(path string) bool {
	return deletePath(a, SplitPath(path))
}

func deletePath(m map[string]any, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	if len(parts) == 1 {
		if _, ok := m[parts[0]]; !ok {
			return false
		}
		delete(m, parts[0])
		return true
	}

	child, ok := AsMap(m[parts[0]])
	if !ok {
		return false
	}
	removed := deletePath(child, parts[1:])
	if removed && len(child) == 0 {
		delete(m, parts[0])
	}
	return removed
}

// Leaves calls fn for every leaf of the tree in sorted path order.
// Objects are descended into; scalars, arrays and empty objects are leaves.
func (a Attributes) Leaves(fn func(path string, v any)) {
	walkLeaves("", a, fn)
}

func walkLeaves(prefix string, m map[string]any, fn func(string, any)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := JoinPath(prefix, k)
		v := m[k]
		if child, ok := AsMap(v); ok && len(child) > 0 {
			walkLeaves(path, child, fn)
			continue
		}
		fn(path, v)
	}
}

// Merge returns a copy of a with every leaf of patch written over it.
// Fields not present in patch keep their previous values. An empty object in
// patch names no fields, so it only creates the field when it is absent.
func (a Attributes) Merge(patch Attributes) Attributes {
	merged := a.Clone()
	if merged == nil {
		merged = Attributes{}
	}
	patch.Leaves(func(path string, v any) {
		if m, ok := AsMap(v); ok && len(m) == 0 {
			if _, exists := merged.Get(path); exists {
				return
			}
		}
		merged.Set(path, cloneValue(v))
	})
	return merged
}

// Clone returns a deep copy of the tree.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return Attributes(cloneMap(a))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Attributes:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Package sanitize escapes markup in update payloads before they are
// persisted, according to each resource type's sanitization settings.
package sanitize

import (
	"strings"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
)

// escaper only rewrites "<". Output never contains "<", so running it again
// leaves already escaped input (including "&lt;") untouched.
var escaper = strings.NewReplacer("<", "&lt;")

// Escape neutralizes opening angle brackets in s. It is idempotent.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Sanitizer applies one resource type's sanitization settings.
type Sanitizer struct {
	active bool
	fields *resource.FieldMap
	// declared holds the internal paths of the sanitizable fields
	declared map[string]struct{}
}

// New builds a Sanitizer for t. Declared fields are normalized to internal
// paths with the type's field map, so "first-name" also covers a payload
// that spells the same field as {"name": {"first": ...}}.
func New(t *resource.Type) *Sanitizer {
	s := &Sanitizer{
		active:   t.Sanitize.Active,
		fields:   t.Fields,
		declared: make(map[string]struct{}, len(t.Sanitize.Fields)),
	}
	for _, f := range t.Sanitize.Fields {
		s.declared[t.Fields.InternalPath(f)] = struct{}{}
	}
	return s
}

// Active reports whether the sanitizer rewrites anything.
func (s *Sanitizer) Active() bool {
	return s.active
}

// Apply returns a deep copy of the external payload attrs with every
// declared string field escaped. Undeclared fields, non-string values and
// all fields of inactive types are returned verbatim.
func (s *Sanitizer) Apply(attrs map[string]any) map[string]any {
	out := domain.Attributes(attrs).Clone()
	if out == nil || !s.active || len(s.declared) == 0 {
		return out
	}

	s.walk("", out)
	return out
}

// walk escapes declared leaves in place in the map that holds them. A key
// containing the path separator is matched by its joined path, so
// {"name.first": ...} is treated like {"name": {"first": ...}}.
func (s *Sanitizer) walk(prefix string, m map[string]any) {
	for k, v := range m {
		path := domain.JoinPath(prefix, k)
		if child, ok := domain.AsMap(v); ok && len(child) > 0 {
			s.walk(path, child)
			continue
		}
		if _, ok := s.declared[s.fields.InternalPath(path)]; !ok {
			continue
		}
		if escaped, changed := escapeValue(v); changed {
			m[k] = escaped
		}
	}
}

func escapeValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return Escape(t), true
	case []any:
		items := make([]any, len(t))
		changed := false
		for i, item := range t {
			if str, ok := item.(string); ok {
				items[i] = Escape(str)
				changed = true
				continue
			}
			items[i] = item
		}
		return items, changed
	default:
		return v, false
	}
}

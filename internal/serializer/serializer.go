// Package serializer maps records between their internal nested attribute
// shape and the external API shape of a resource type. It is the single
// translation point used by both the list and the update path.
package serializer

import (
	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
)

// IDField is the key carrying the record id in serialized output.
const IDField = "id"

// Serializer converts records of one resource type.
type Serializer struct {
	t *resource.Type
}

// New returns a Serializer for t.
func New(t *resource.Type) *Serializer {
	return &Serializer{t: t}
}

// ToExternal renders rec in the type's external shape. The id is written
// under IDField; unmapped attributes pass through by name.
func (s *Serializer) ToExternal(rec *domain.Record) map[string]any {
	if rec == nil {
		return nil
	}

	out := rec.Attributes.Clone()
	if out == nil {
		out = domain.Attributes{}
	}

	if s.t.Shape == resource.ShapeFlat {
		for _, m := range s.t.Fields.Mappings() {
			v, ok := out.Get(m.Internal)
			if !ok {
				continue
			}
			out.Delete(m.Internal)
			out.Set(m.External, v)
		}
	}

	out[IDField] = rec.ID
	return map[string]any(out)
}

// ToInternal translates an external attribute payload into an internal
// attribute tree. Each leaf path is translated through the field map, so
// both {"first-name": "Ada"} and {"name": {"first": "Ada"}} land on
// name.first. Unknown fields pass through unchanged; the id key is dropped.
func (s *Serializer) ToInternal(attrs map[string]any) domain.Attributes {
	internal := domain.Attributes{}
	domain.Attributes(attrs).Leaves(func(path string, v any) {
		if path == IDField {
			return
		}
		internal.Set(s.t.Fields.InternalPath(path), v)
	})
	return internal
}

// ToExternalList renders a slice of records in order.
func (s *Serializer) ToExternalList(records []*domain.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, s.ToExternal(rec))
	}
	return out
}

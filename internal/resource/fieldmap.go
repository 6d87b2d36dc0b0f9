package resource

import (
	"sort"
	"strings"

	"github.com/phrazzld/resource-api/internal/domain"
)

// FieldMapping pairs an external (hyphenated, API facing) path with the
// internal dotted path it is stored under.
type FieldMapping struct {
	External string
	Internal string
}

// FieldMap is the static translation table between external and internal
// attribute paths of a resource type. It is total: paths without a mapping
// translate to themselves.
type FieldMap struct {
	mappings   []FieldMapping
	toInternal map[string]string
	toExternal map[string]string
	// prefixes ordered longest first for prefix matching
	externalKeys []string
	internalKeys []string
}

// NewFieldMap builds a FieldMap from mappings. Later duplicates win.
func NewFieldMap(mappings ...FieldMapping) *FieldMap {
	fm := &FieldMap{
		mappings:   append([]FieldMapping(nil), mappings...),
		toInternal: make(map[string]string, len(mappings)),
		toExternal: make(map[string]string, len(mappings)),
	}
	for _, m := range mappings {
		fm.toInternal[m.External] = m.Internal
		fm.toExternal[m.Internal] = m.External
	}
	fm.externalKeys = sortedByLength(fm.toInternal)
	fm.internalKeys = sortedByLength(fm.toExternal)
	return fm
}

func sortedByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Mappings returns a copy of the table.
func (fm *FieldMap) Mappings() []FieldMapping {
	if fm == nil {
		return nil
	}
	return append([]FieldMapping(nil), fm.mappings...)
}

// InternalPath translates an external path ("first-name", "address.city")
// into its internal path ("name.first", "address.city"). The longest mapped
// prefix wins; unmapped paths pass through unchanged.
func (fm *FieldMap) InternalPath(external string) string {
	if fm == nil {
		return external
	}
	return translate(external, fm.externalKeys, fm.toInternal)
}

// ExternalPath is the inverse of InternalPath.
func (fm *FieldMap) ExternalPath(internal string) string {
	if fm == nil {
		return internal
	}
	return translate(internal, fm.internalKeys, fm.toExternal)
}

func translate(path string, keys []string, table map[string]string) string {
	if mapped, ok := table[path]; ok {
		return mapped
	}
	for _, prefix := range keys {
		if strings.HasPrefix(path, prefix+domain.PathSeparator) {
			return table[prefix] + path[len(prefix):]
		}
	}
	return path
}

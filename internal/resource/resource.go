// Package resource declares the resource types exposed by the API and their
// per-type configuration: field-name tables, searchable and sanitizable
// fields, output shape and relationships.
package resource

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned when a route names a resource type that is not
// registered.
var ErrUnknownType = errors.New("unknown resource type")

// Shape selects how a type's attributes are laid out in API output.
type Shape int

const (
	// ShapeNested renders the internal attribute tree as is
	// ({"name": {"first": "Ada"}}).
	ShapeNested Shape = iota
	// ShapeFlat lifts every mapped field to its external name
	// ({"first-name": "Ada"}).
	ShapeFlat
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// SanitizeConfig controls HTML escaping of update payloads.
// Fields are external paths; nested paths such as "address.state" are allowed.
type SanitizeConfig struct {
	Active bool
	Fields []string
}

// Relationship declares that Field holds a reference to a record of Type.
type Relationship struct {
	Field string
	Type  string
}

// Type is the configuration of a single resource type.
type Type struct {
	// Name is the route segment, e.g. "users".
	Name string
	// Collection is the store collection backing the type. Several types may
	// share a collection (managers are a view over admins).
	Collection string
	Shape      Shape
	Fields     *FieldMap
	// Searchable lists internal paths matched by free text search.
	// A type without searchable fields never matches a search.
	Searchable    []string
	Sanitize      SanitizeConfig
	Relationships []Relationship
}

// Validate checks the type is internally consistent.
func (t *Type) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("resource type name is required")
	}
	if t.Collection == "" {
		return fmt.Errorf("resource type %q: collection is required", t.Name)
	}
	for _, rel := range t.Relationships {
		if rel.Field == "" || rel.Type == "" {
			return fmt.Errorf("resource type %q: relationship needs field and type", t.Name)
		}
	}
	return nil
}

// Registry holds the configured resource types by name.
type Registry struct {
	types map[string]*Type
}

// NewRegistry creates a registry from types. It fails on invalid or
// duplicate types and on relationships to unregistered types.
func NewRegistry(types ...*Type) (*Registry, error) {
	r := &Registry{types: make(map[string]*Type, len(types))}
	for _, t := range types {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.types[t.Name]; exists {
			return nil, fmt.Errorf("resource type %q registered twice", t.Name)
		}
		if t.Fields == nil {
			t.Fields = NewFieldMap()
		}
		r.types[t.Name] = t
	}

	for _, t := range r.types {
		for _, rel := range t.Relationships {
			if _, ok := r.types[rel.Type]; !ok {
				return nil, fmt.Errorf(
					"resource type %q: relationship %q targets unknown type %q",
					t.Name, rel.Field, rel.Type,
				)
			}
		}
	}
	return r, nil
}

// Get returns the type registered under name.
func (r *Registry) Get(name string) (*Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collections returns the distinct collections backing the registered types.
func (r *Registry) Collections() []string {
	seen := make(map[string]struct{}, len(r.types))
	var collections []string
	for _, t := range r.types {
		if _, ok := seen[t.Collection]; ok {
			continue
		}
		seen[t.Collection] = struct{}{}
		collections = append(collections, t.Collection)
	}
	sort.Strings(collections)
	return collections
}

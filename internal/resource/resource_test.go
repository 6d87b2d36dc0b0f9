package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapTranslation(t *testing.T) {
	fm := NewFieldMap(
		FieldMapping{External: "first-name", Internal: "name.first"},
		FieldMapping{External: "home", Internal: "address"},
		FieldMapping{External: "home.zip-code", Internal: "address.zip"},
	)

	tests := []struct {
		external string
		internal string
	}{
		{"first-name", "name.first"},
		{"home", "address"},
		{"home.city", "address.city"},
		{"home.zip-code", "address.zip"},
		{"username", "username"},
		{"address.city", "address.city"},
		{"first-name-extra", "first-name-extra"},
	}

	for _, tc := range tests {
		t.Run(tc.external, func(t *testing.T) {
			assert.Equal(t, tc.internal, fm.InternalPath(tc.external))
		})
	}

	assert.Equal(t, "first-name", fm.ExternalPath("name.first"))
	assert.Equal(t, "home.city", fm.ExternalPath("address.city"))
	assert.Equal(t, "home.zip-code", fm.ExternalPath("address.zip"))
	assert.Equal(t, "name.last", fm.ExternalPath("name.last"))
}

func TestNilFieldMapPassesThrough(t *testing.T) {
	var fm *FieldMap
	assert.Equal(t, "first-name", fm.InternalPath("first-name"))
	assert.Equal(t, "name.first", fm.ExternalPath("name.first"))
	assert.Nil(t, fm.Mappings())
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{Admins, Companies, Managers, Users}, r.Names())
	assert.Equal(t, []string{Admins, Companies, Users}, r.Collections())

	users, err := r.Get(Users)
	require.NoError(t, err)
	assert.Equal(t, ShapeNested, users.Shape)
	assert.Equal(t, "name.last", users.Fields.InternalPath("last-name"))
	require.Len(t, users.Relationships, 1)
	assert.Equal(t, Companies, users.Relationships[0].Type)

	managers, err := r.Get(Managers)
	require.NoError(t, err)
	assert.Equal(t, Admins, managers.Collection)
	assert.False(t, managers.Sanitize.Active)

	_, err = r.Get("widgets")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNewRegistryRejectsInvalidTypes(t *testing.T) {
	tests := []struct {
		name  string
		types []*Type
	}{
		{
			name:  "missing name",
			types: []*Type{{Collection: "x"}},
		},
		{
			name:  "missing collection",
			types: []*Type{{Name: "x"}},
		},
		{
			name:  "duplicate",
			types: []*Type{{Name: "x", Collection: "x"}, {Name: "x", Collection: "y"}},
		},
		{
			name: "relationship to unknown type",
			types: []*Type{{
				Name:          "x",
				Collection:    "x",
				Relationships: []Relationship{{Field: "owner", Type: "people"}},
			}},
		},
		{
			name: "incomplete relationship",
			types: []*Type{{
				Name:          "x",
				Collection:    "x",
				Relationships: []Relationship{{Field: "owner"}},
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.types...)
			assert.Error(t, err)
		})
	}
}

func TestNewRegistryDefaultsFieldMap(t *testing.T) {
	r, err := NewRegistry(&Type{Name: "things", Collection: "things"})
	require.NoError(t, err)

	things, err := r.Get("things")
	require.NoError(t, err)
	require.NotNil(t, things.Fields)
	assert.Equal(t, "a.b", things.Fields.InternalPath("a.b"))
	assert.Equal(t, "flat", ShapeFlat.String())
}

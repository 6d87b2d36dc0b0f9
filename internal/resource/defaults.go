package resource

// Type and collection names of the built-in resources.
const (
	Users     = "users"
	Admins    = "admins"
	Managers  = "managers"
	Companies = "companies"
)

func personFields() *FieldMap {
	return NewFieldMap(
		FieldMapping{External: "first-name", Internal: "name.first"},
		FieldMapping{External: "last-name", Internal: "name.last"},
	)
}

// DefaultTypes returns fresh copies of the built-in resource types.
func DefaultTypes() []*Type {
	adminSanitize := []string{"first-name", "last-name", "address.state"}

	return []*Type{
		{
			Name:       Users,
			Collection: Users,
			Shape:      ShapeNested,
			Fields:     personFields(),
			Searchable: []string{"name.first", "address.city"},
			Sanitize: SanitizeConfig{
				Active: true,
				Fields: []string{"first-name"},
			},
			Relationships: []Relationship{
				{Field: "company", Type: Companies},
			},
		},
		{
			Name:       Admins,
			Collection: Admins,
			Shape:      ShapeFlat,
			Fields:     personFields(),
			Searchable: []string{"name.first", "name.last"},
			Sanitize: SanitizeConfig{
				Active: true,
				Fields: adminSanitize,
			},
		},
		{
			Name:       Managers,
			Collection: Admins,
			Shape:      ShapeFlat,
			Fields:     personFields(),
			Searchable: []string{"name.first", "name.last"},
			Sanitize: SanitizeConfig{
				Active: false,
				Fields: adminSanitize,
			},
		},
		{
			Name:       Companies,
			Collection: Companies,
			Shape:      ShapeFlat,
			Fields: NewFieldMap(
				FieldMapping{External: "legal-name", Internal: "legalName"},
			),
			Searchable: []string{"name", "legalName"},
			Sanitize: SanitizeConfig{
				Active: true,
				Fields: []string{"name", "legal-name"},
			},
		},
	}
}

// DefaultRegistry returns a registry of the built-in resource types.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultTypes()...)
	if err != nil {
		// ALLOW-PANIC: the built-in table is static and covered by tests
		panic(err)
	}
	return r
}

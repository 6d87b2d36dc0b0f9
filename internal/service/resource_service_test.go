package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"testing"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/events"
	"github.com/phrazzld/resource-api/internal/fixtures"
	"github.com/phrazzld/resource-api/internal/mocks"
	"github.com/phrazzld/resource-api/internal/platform/memory"
	"github.com/phrazzld/resource-api/internal/query"
	"github.com/phrazzld/resource-api/internal/resource"
	"github.com/phrazzld/resource-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	elonID   = "562d8ac45e5d77d80c478061"
	sergeyID = "562d8ac45e5d77d80c478065"
	adaID    = "562d8ac45e5d77d80c478067"
	adminID  = "562d8ac45e5d77d80c478071"
	googleID = "5630743e2446a0672a4ee703"
	teslaID  = "5630743e2446a0672a4ee701"
)

func seededStore(t *testing.T) *memory.RecordStore {
	t.Helper()
	ctx := context.Background()
	s := memory.NewRecordStore(nil)
	require.NoError(t, s.Connect(ctx))

	set, err := fixtures.Default()
	require.NoError(t, err)
	require.NoError(t, fixtures.Load(ctx, s, set))
	return s
}

func newService(t *testing.T, s store.RecordStore) ResourceService {
	t.Helper()
	svc, err := NewResourceService(s, resource.DefaultRegistry(), query.DefaultOptions(), slog.Default())
	require.NoError(t, err)
	return svc
}

func list(t *testing.T, svc ResourceService, typeName, rawQuery string) *ListResult {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	res, err := svc.List(context.Background(), typeName, values)
	require.NoError(t, err)
	return res
}

func nested(t *testing.T, m map[string]any, path string) any {
	t.Helper()
	v, ok := domain.Attributes(m).Get(path)
	require.True(t, ok, "missing %s in %v", path, m)
	return v
}

func envelope(id string, attrs map[string]any) *UpdateEnvelope {
	return &UpdateEnvelope{Data: &UpdateData{ID: id, Attributes: attrs}}
}

func TestNewResourceService_NilDependencies(t *testing.T) {
	s := memory.NewRecordStore(nil)
	reg := resource.DefaultRegistry()

	_, err := NewResourceService(nil, reg, query.DefaultOptions(), slog.Default())
	assert.Error(t, err)
	_, err = NewResourceService(s, nil, query.DefaultOptions(), slog.Default())
	assert.Error(t, err)
	_, err = NewResourceService(s, reg, query.DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestList_AllUsers(t *testing.T) {
	svc := newService(t, seededStore(t))

	res := list(t, svc, resource.Users, "")
	assert.Len(t, res.Data, 5)
	assert.Equal(t, query.PageMeta{Limit: query.DefaultLimit, Offset: 0, Total: 5, Count: 5}, res.Page)
	assert.Equal(t, elonID, res.Data[0]["id"])
}

func TestList_AdminsAreFlat(t *testing.T) {
	svc := newService(t, seededStore(t))

	res := list(t, svc, resource.Admins, "")
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Elon", res.Data[0]["first-name"])
	assert.Equal(t, "Musk", res.Data[0]["last-name"])
	assert.NotContains(t, res.Data[0], "name")
}

func TestList_ManagersViewAdmins(t *testing.T) {
	svc := newService(t, seededStore(t))

	res := list(t, svc, resource.Managers, "")
	require.Len(t, res.Data, 1)
	assert.Equal(t, adminID, res.Data[0]["id"])
}

func TestList_PopulatesCompany(t *testing.T) {
	svc := newService(t, seededStore(t))

	res := list(t, svc, resource.Users, "")
	var sergey map[string]any
	for _, u := range res.Data {
		if u["id"] == sergeyID {
			sergey = u
		}
	}
	require.NotNil(t, sergey)
	assert.Equal(t, "Sergey", nested(t, sergey, "name.first"))
	assert.Equal(t, "Brin", nested(t, sergey, "name.last"))

	company, ok := sergey["company"].(map[string]any)
	require.True(t, ok, "company should be populated, got %T", sergey["company"])
	assert.Equal(t, googleID, company["id"])
	assert.Equal(t, "Google", company["name"])
	assert.Equal(t, "Alphabet Inc.", company["legal-name"])

	for _, u := range res.Data {
		if u["id"] == adaID {
			assert.NotContains(t, u, "company")
		}
	}
}

func TestList_QueryScenarios(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string // first names in order
	}{
		{name: "filter single field", query: "filter[username]=elonmusk", want: []string{"Elon"}},
		{
			name:  "filter multiple values",
			query: "filter[username]=elonmusk,markzuckerberg&sort=first-name",
			want:  []string{"Elon", "Mark"},
		},
		{
			name:  "filter multiple fields",
			query: "filter[first-name]=Elon&filter[last-name]=Musk",
			want:  []string{"Elon"},
		},
		{
			name:  "filter multiple fields without match",
			query: "filter[first-name]=Elon&filter[last-name]=Not",
			want:  []string{},
		},
		{
			name:  "sort ascending by last name",
			query: "sort=last-name",
			want:  []string{"Neil", "Sergey", "Ada", "Elon", "Mark"},
		},
		{
			name:  "sort descending by first name",
			query: "sort=-first-name",
			want:  []string{"Sergey", "Neil", "Mark", "Elon", "Ada"},
		},
		{
			name:  "sort by nested path",
			query: "sort=address.city",
			want:  []string{"Ada", "Sergey", "Elon", "Mark", "Neil"},
		},
		{name: "search full match", query: "q=Elon", want: []string{"Elon"}},
		{name: "search partial case insensitive", query: "q=elo", want: []string{"Elon"}},
		{name: "search terms across fields", query: "q=elon+pretoria", want: []string{"Elon"}},
		{name: "search requires every term", query: "q=elon+musk", want: []string{}},
		{name: "search ignores undeclared fields", query: "q=Musk", want: []string{}},
		{
			name:  "sort and paginate",
			query: "sort=first-name&page[limit]=1&page[offset]=3",
			want:  []string{"Neil"},
		},
		{name: "offset past end", query: "page[offset]=10", want: []string{}},
	}

	svc := newService(t, seededStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := list(t, svc, resource.Users, tt.query)
			got := make([]string, 0, len(res.Data))
			for _, u := range res.Data {
				got = append(got, nested(t, u, "name.first").(string))
			}
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, res.Data)
		})
	}
}

func TestList_PageMeta(t *testing.T) {
	svc := newService(t, seededStore(t))

	res := list(t, svc, resource.Users, "sort=first-name&page[limit]=2&page[offset]=1")
	assert.Equal(t, query.PageMeta{Limit: 2, Offset: 1, Total: 5, Count: 2}, res.Page)
}

func TestList_Errors(t *testing.T) {
	svc := newService(t, seededStore(t))

	_, err := svc.List(context.Background(), "widgets", url.Values{})
	assert.ErrorIs(t, err, resource.ErrUnknownType)

	_, err = svc.List(context.Background(), resource.Users, url.Values{"page[limit]": {"ten"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestList_StoreFailure(t *testing.T) {
	cause := store.NewStoreError("users", "find", "connection reset", errors.New("eof"))
	m := mocks.NewMockRecordStore(seededStore(t))
	m.FindFn = func(context.Context, string) ([]*domain.Record, error) { return nil, cause }
	svc := newService(t, m)

	_, err := svc.List(context.Background(), resource.Users, url.Values{})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "list", svcErr.Operation)
	assert.ErrorIs(t, err, cause)
}

func TestUpdate_ExistingUser(t *testing.T) {
	s := seededStore(t)
	svc := newService(t, s)

	out, err := svc.Update(context.Background(), resource.Users, adaID,
		envelope(adaID, map[string]any{"last-name": "Lovegood"}))
	require.NoError(t, err)
	assert.Equal(t, adaID, out["id"])
	assert.Equal(t, "Lovegood", nested(t, out, "name.last"))
	assert.Equal(t, "Ada", nested(t, out, "name.first"))
	assert.Equal(t, "Bath", nested(t, out, "address.city"))

	stored, err := s.FindByID(context.Background(), resource.Users, adaID)
	require.NoError(t, err)
	last, _ := stored.Attributes.Get("name.last")
	assert.Equal(t, "Lovegood", last)
	_, hasAlias := stored.Attributes.Get("last-name")
	assert.False(t, hasAlias)
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		id       string
		env      *UpdateEnvelope
		target   error
	}{
		{
			name:     "missing record",
			typeName: resource.Users,
			id:       "5630743e2446a0672a4ee793",
			env:      envelope("5630743e2446a0672a4ee793", map[string]any{"last-name": "this should fail"}),
			target:   domain.ErrNotFound,
		},
		{
			name:     "missing attributes",
			typeName: resource.Users,
			id:       elonID,
			env:      &UpdateEnvelope{Data: &UpdateData{ID: elonID, Meta: map[string]any{"stuff": "x"}}},
			target:   domain.ErrValidation,
		},
		{
			name:     "missing id",
			typeName: resource.Users,
			id:       elonID,
			env:      &UpdateEnvelope{Data: &UpdateData{Meta: map[string]any{"stuff": "x"}}},
			target:   domain.ErrValidation,
		},
		{
			name:     "missing data",
			typeName: resource.Users,
			id:       elonID,
			env:      &UpdateEnvelope{},
			target:   domain.ErrValidation,
		},
		{
			name:     "nil envelope",
			typeName: resource.Users,
			id:       elonID,
			env:      nil,
			target:   domain.ErrValidation,
		},
		{
			name:     "id mismatch",
			typeName: resource.Users,
			id:       elonID,
			env:      envelope(adaID, map[string]any{}),
			target:   domain.ErrValidation,
		},
		{
			name:     "type mismatch",
			typeName: resource.Users,
			id:       elonID,
			env:      &UpdateEnvelope{Data: &UpdateData{ID: elonID, Type: "companies", Attributes: map[string]any{}}},
			target:   domain.ErrValidation,
		},
		{
			name:     "unknown type",
			typeName: "widgets",
			id:       elonID,
			env:      envelope(elonID, map[string]any{}),
			target:   resource.ErrUnknownType,
		},
		{
			name:     "undeclared relationship",
			typeName: resource.Users,
			id:       elonID,
			env: &UpdateEnvelope{Data: &UpdateData{
				ID:            elonID,
				Attributes:    map[string]any{},
				Relationships: map[string]Relationship{"employer": {Data: &ResourceIdentifier{ID: teslaID}}},
			}},
			target: domain.ErrValidation,
		},
	}

	svc := newService(t, seededStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Update(context.Background(), tt.typeName, tt.id, tt.env)
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, out)
		})
	}
}

func TestUpdate_ValidationNamesField(t *testing.T) {
	svc := newService(t, seededStore(t))

	_, err := svc.Update(context.Background(), resource.Users, elonID,
		&UpdateEnvelope{Data: &UpdateData{ID: elonID}})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "data.attributes", vErr.Field)
}

func TestUpdate_Sanitization(t *testing.T) {
	const (
		watermelon = "<script>Watermelon</script>"
		xss        = `<script>alert("xss")</script>`
		escapedW   = "&lt;script>Watermelon&lt;/script>"
		escapedX   = `&lt;script>alert("xss")&lt;/script>`
	)

	t.Run("all declared fields", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Admins, adminID,
			envelope(adminID, map[string]any{"first-name": watermelon, "last-name": xss}))
		require.NoError(t, err)
		assert.Equal(t, escapedW, out["first-name"])
		assert.Equal(t, escapedX, out["last-name"])
	})

	t.Run("nested fields", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Admins, adminID,
			envelope(adminID, map[string]any{
				"first-name": watermelon,
				"last-name":  xss,
				"address":    map[string]any{"state": xss, "city": "Atlantic"},
			}))
		require.NoError(t, err)
		assert.Equal(t, escapedW, out["first-name"])
		assert.Equal(t, escapedX, out["last-name"])
		assert.Equal(t, escapedX, nested(t, out, "address.state"))
		assert.Equal(t, "Atlantic", nested(t, out, "address.city"))
	})

	t.Run("selected fields only", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Users, elonID,
			envelope(elonID, map[string]any{"first-name": watermelon, "last-name": xss}))
		require.NoError(t, err)
		assert.Equal(t, escapedW, nested(t, out, "name.first"))
		assert.Equal(t, xss, nested(t, out, "name.last"))
	})

	t.Run("inactive sanitizer", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Managers, adminID,
			envelope(adminID, map[string]any{"first-name": watermelon, "last-name": xss}))
		require.NoError(t, err)
		assert.Equal(t, watermelon, out["first-name"])
		assert.Equal(t, xss, out["last-name"])
	})

	t.Run("repeated update does not double escape", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		_, err := svc.Update(context.Background(), resource.Admins, adminID,
			envelope(adminID, map[string]any{"first-name": watermelon}))
		require.NoError(t, err)
		out, err := svc.Update(context.Background(), resource.Admins, adminID,
			envelope(adminID, map[string]any{"first-name": escapedW}))
		require.NoError(t, err)
		assert.Equal(t, escapedW, out["first-name"])
	})

	t.Run("dotted key on nested user field", func(t *testing.T) {
		s := seededStore(t)
		svc := newService(t, s)
		out, err := svc.Update(context.Background(), resource.Users, adaID,
			envelope(adaID, map[string]any{"name.first": watermelon}))
		require.NoError(t, err)
		assert.Equal(t, escapedW, nested(t, out, "name.first"))

		stored, err := s.FindByID(context.Background(), resource.Users, adaID)
		require.NoError(t, err)
		first, _ := stored.Attributes.Get("name.first")
		assert.Equal(t, escapedW, first)
	})

	t.Run("dotted key on nested admin field", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Admins, adminID,
			envelope(adminID, map[string]any{"address.state": xss}))
		require.NoError(t, err)
		assert.Equal(t, escapedX, nested(t, out, "address.state"))
	})

	t.Run("dotted and nested spellings together", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Users, adaID,
			envelope(adaID, map[string]any{
				"name":       map[string]any{"first": "Ada"},
				"name.first": watermelon,
			}))
		require.NoError(t, err)
		assert.NotContains(t, nested(t, out, "name.first"), "<")
	})
}

func TestUpdate_Relationships(t *testing.T) {
	t.Run("object reference reduced to id", func(t *testing.T) {
		s := seededStore(t)
		svc := newService(t, s)

		out, err := svc.Update(context.Background(), resource.Users, adaID,
			envelope(adaID, map[string]any{"company": map[string]any{"id": teslaID, "name": "ignored"}}))
		require.NoError(t, err)
		assert.Equal(t, "Tesla", nested(t, out, "company.name"))

		stored, err := s.FindByID(context.Background(), resource.Users, adaID)
		require.NoError(t, err)
		ref, _ := stored.Attributes.Get("company")
		assert.Equal(t, teslaID, ref)
	})

	t.Run("relationship member", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Users, sergeyID, &UpdateEnvelope{Data: &UpdateData{
			ID:         sergeyID,
			Attributes: map[string]any{},
			Relationships: map[string]Relationship{
				"company": {Data: &ResourceIdentifier{Type: resource.Companies, ID: teslaID}},
			},
		}})
		require.NoError(t, err)
		assert.Equal(t, "Tesla", nested(t, out, "company.name"))
	})

	t.Run("unresolved reference is omitted", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Users, elonID,
			envelope(elonID, map[string]any{"company": "000000000000000000000000"}))
		require.NoError(t, err)
		assert.NotContains(t, out, "company")
	})

	t.Run("cleared relationship is omitted", func(t *testing.T) {
		svc := newService(t, seededStore(t))
		out, err := svc.Update(context.Background(), resource.Users, elonID, &UpdateEnvelope{Data: &UpdateData{
			ID:            elonID,
			Attributes:    map[string]any{},
			Relationships: map[string]Relationship{"company": {}},
		}})
		require.NoError(t, err)
		assert.NotContains(t, out, "company")
	})
}

func TestUpdate_StoreFailure(t *testing.T) {
	cause := store.NewStoreError("users", "update", "write failed", errors.New("disk full"))
	m := mocks.NewMockRecordStore(seededStore(t))
	m.UpdateFn = func(context.Context, string, string, domain.Attributes) (*domain.Record, error) {
		return nil, cause
	}
	svc := newService(t, m)

	_, err := svc.Update(context.Background(), resource.Users, adaID,
		envelope(adaID, map[string]any{"last-name": "Lovegood"}))
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "update", svcErr.Operation)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdate_RoundTripKeepsOtherFields(t *testing.T) {
	svc := newService(t, seededStore(t))

	before := list(t, svc, resource.Companies, "filter[name]=Google")
	require.Len(t, before.Data, 1)

	out, err := svc.Update(context.Background(), resource.Companies, googleID,
		envelope(googleID, map[string]any{"legal-name": "Alphabet"}))
	require.NoError(t, err)

	want := before.Data[0]
	want["legal-name"] = "Alphabet"
	assert.Equal(t, want, out)
	t.Run("empty object keeps nested fields", func(t *testing.T) {
		out, err := svc.Update(context.Background(), resource.Users, adaID,
			envelope(adaID, map[string]any{"address": map[string]any{}}))
		require.NoError(t, err)
		assert.Equal(t, "Bath", nested(t, out, "address.city"))
		assert.Equal(t, "Somerset", nested(t, out, "address.state"))
	})
}

func TestNewServiceError(t *testing.T) {
	assert.NoError(t, NewServiceError("op", "msg", nil))

	v := domain.NewValidationError("x", "bad", nil)
	assert.Same(t, v, NewServiceError("op", "msg", v))

	err := NewServiceError("op", "msg", store.ErrRecordNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = NewServiceError("op", "msg", errors.New("boom"))
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "resource service op failed: msg: boom", err.Error())
}

func TestUpdate_EmitsEvent(t *testing.T) {
	emitter := &mocks.MockEventEmitter{}
	svc, err := NewResourceService(seededStore(t), resource.DefaultRegistry(), query.DefaultOptions(),
		slog.Default(), WithEventEmitter(emitter))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), resource.Users, adaID, envelope(adaID, map[string]any{
		"last-name": "Lovegood",
		"address":   map[string]any{"city": "Oxford"},
	}))
	require.NoError(t, err)

	got := emitter.Events()
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeRecordUpdated, got[0].Type)
	assert.Equal(t, resource.Users, got[0].ResourceType)
	assert.Equal(t, adaID, got[0].RecordID)
	assert.Equal(t, []string{"address.city", "last-name"}, got[0].Fields)
}

func TestUpdate_EmitterFailureKeepsUpdate(t *testing.T) {
	emitter := &mocks.MockEventEmitter{Err: errors.New("handler down")}
	s := seededStore(t)
	svc, err := NewResourceService(s, resource.DefaultRegistry(), query.DefaultOptions(),
		slog.Default(), WithEventEmitter(emitter))
	require.NoError(t, err)

	out, err := svc.Update(context.Background(), resource.Users, adaID,
		envelope(adaID, map[string]any{"last-name": "Lovegood"}))
	require.NoError(t, err)
	assert.Equal(t, "Lovegood", nested(t, out, "name.last"))
	assert.Len(t, emitter.Events(), 1)
}

func TestUpdate_RejectedUpdateEmitsNothing(t *testing.T) {
	emitter := &mocks.MockEventEmitter{}
	svc, err := NewResourceService(seededStore(t), resource.DefaultRegistry(), query.DefaultOptions(),
		slog.Default(), WithEventEmitter(emitter))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), resource.Users, "5630743e2446a0672a4ee793",
		envelope("5630743e2446a0672a4ee793", map[string]any{"last-name": "x"}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, emitter.Events())
}

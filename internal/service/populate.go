package service

import (
	"context"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
	"github.com/phrazzld/resource-api/internal/serializer"
	"github.com/phrazzld/resource-api/internal/store"
)

// populator serializes records and replaces relationship references with
// the serialized related record. It lives for one request and loads each
// related collection at most once.
type populator struct {
	store    store.RecordStore
	registry *resource.Registry
	loaded   map[string]map[string]*domain.Record
}

func newPopulator(s store.RecordStore, r *resource.Registry) *populator {
	return &populator{
		store:    s,
		registry: r,
		loaded:   make(map[string]map[string]*domain.Record),
	}
}

// Serialize returns the external form of records with every declared
// relationship resolved. Unresolvable references are removed.
func (p *populator) Serialize(ctx context.Context, t *resource.Type, records []*domain.Record) ([]map[string]any, error) {
	out := serializer.New(t).ToExternalList(records)

	for _, rel := range t.Relationships {
		related, err := p.registry.Get(rel.Type)
		if err != nil {
			return nil, err
		}
		relSer := serializer.New(related)

		for _, item := range out {
			a := domain.Attributes(item)
			ref, ok := a.Get(rel.Field)
			if !ok {
				continue
			}
			id, ok := referenceID(ref)
			if !ok {
				a.Delete(rel.Field)
				continue
			}

			byID, err := p.collection(ctx, related.Collection)
			if err != nil {
				return nil, err
			}
			target, ok := byID[id]
			if !ok {
				a.Delete(rel.Field)
				continue
			}
			a.Set(rel.Field, relSer.ToExternal(target))
		}
	}
	return out, nil
}

func (p *populator) collection(ctx context.Context, name string) (map[string]*domain.Record, error) {
	if byID, ok := p.loaded[name]; ok {
		return byID, nil
	}
	records, err := p.store.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	p.loaded[name] = byID
	return byID, nil
}

// referenceID extracts the related id from a string reference or an object
// carrying an "id" member.
func referenceID(v any) (string, bool) {
	switch ref := v.(type) {
	case string:
		return ref, ref != ""
	default:
		m, ok := domain.AsMap(v)
		if !ok {
			return "", false
		}
		id, ok := m["id"].(string)
		return id, ok && id != ""
	}
}

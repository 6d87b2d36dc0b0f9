package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/events"
	"github.com/phrazzld/resource-api/internal/platform/logger"
	"github.com/phrazzld/resource-api/internal/query"
	"github.com/phrazzld/resource-api/internal/resource"
	"github.com/phrazzld/resource-api/internal/sanitize"
	"github.com/phrazzld/resource-api/internal/serializer"
	"github.com/phrazzld/resource-api/internal/store"
)

// ListResult is one page of serialized records.
type ListResult struct {
	Data []map[string]any
	Page query.PageMeta
}

// ResourceService provides the list and update operations over every
// registered resource type.
type ResourceService interface {
	// List runs the query described by values against the named type.
	List(ctx context.Context, typeName string, values url.Values) (*ListResult, error)

	// Update applies a partial update to the record identified by id and
	// returns its serialized, populated form.
	Update(ctx context.Context, typeName, id string, env *UpdateEnvelope) (map[string]any, error)
}

type resourceServiceImpl struct {
	store    store.RecordStore
	registry *resource.Registry
	opts     query.Options
	logger   *slog.Logger
	emitter  events.EventEmitter
}

// Option configures optional ResourceService collaborators.
type Option func(*resourceServiceImpl)

// WithEventEmitter makes Update emit a record.updated event after each
// committed change.
func WithEventEmitter(e events.EventEmitter) Option {
	return func(s *resourceServiceImpl) {
		s.emitter = e
	}
}

// NewResourceService creates a ResourceService.
// It returns an error if any of the required dependencies are nil.
func NewResourceService(
	recordStore store.RecordStore,
	registry *resource.Registry,
	opts query.Options,
	logger *slog.Logger,
	options ...Option,
) (ResourceService, error) {
	if recordStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "recordStore cannot be nil"}
	}
	if registry == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "registry cannot be nil"}
	}
	if logger == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "logger cannot be nil"}
	}

	svc := &resourceServiceImpl{
		store:    recordStore,
		registry: registry,
		opts:     opts,
		logger:   logger.With(slog.String("component", "resource_service")),
	}
	for _, o := range options {
		o(svc)
	}
	return svc, nil
}

func (s *resourceServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// List implements ResourceService.List.
func (s *resourceServiceImpl) List(
	ctx context.Context,
	typeName string,
	values url.Values,
) (*ListResult, error) {
	log := s.log(ctx).With(slog.String("type", typeName))

	t, err := s.registry.Get(typeName)
	if err != nil {
		return nil, err
	}

	d, err := query.Parse(values, t, s.opts)
	if err != nil {
		log.Debug("rejected list query", slog.String("error", err.Error()))
		return nil, err
	}

	records, err := s.store.Find(ctx, t.Collection)
	if err != nil {
		log.Error("failed to load collection",
			slog.String("collection", t.Collection),
			slog.String("error", err.Error()))
		return nil, NewServiceError("list", "failed to load records", err)
	}

	matched := query.Apply(records, d, t)
	page, meta := query.Paginate(matched, d.Page)

	data, err := newPopulator(s.store, s.registry).Serialize(ctx, t, page)
	if err != nil {
		log.Error("failed to populate relationships", slog.String("error", err.Error()))
		return nil, NewServiceError("list", "failed to populate relationships", err)
	}

	log.Debug("listed records",
		slog.Int("total", meta.Total),
		slog.Int("count", meta.Count))
	return &ListResult{Data: data, Page: meta}, nil
}

// Update implements ResourceService.Update.
func (s *resourceServiceImpl) Update(
	ctx context.Context,
	typeName, id string,
	env *UpdateEnvelope,
) (map[string]any, error) {
	log := s.log(ctx).With(slog.String("type", typeName), slog.String("id", id))

	if err := ValidateEnvelope(env); err != nil {
		log.Debug("rejected update envelope", slog.String("error", err.Error()))
		return nil, err
	}
	if env.Data.ID != id {
		return nil, domain.NewValidationError("data.id", "does not match the resource id in the path", nil)
	}

	t, err := s.registry.Get(typeName)
	if err != nil {
		return nil, err
	}
	if env.Data.Type != "" && env.Data.Type != t.Name && env.Data.Type != t.Collection {
		return nil, domain.NewValidationError("data.type", "does not match the resource type", nil)
	}

	if _, err := s.store.FindByID(ctx, t.Collection, id); err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, typeName, id)
		}
		log.Error("failed to resolve record", slog.String("error", err.Error()))
		return nil, NewServiceError("update", "failed to resolve record", err)
	}

	attrs := sanitize.New(t).Apply(env.Data.Attributes)
	if err := applyRelationships(t, attrs, env.Data.Relationships); err != nil {
		return nil, err
	}
	patch := serializer.New(t).ToInternal(attrs)

	updated, err := s.store.Update(ctx, t.Collection, id, patch)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, typeName, id)
		}
		log.Error("failed to persist update", slog.String("error", err.Error()))
		return nil, NewServiceError("update", "failed to persist update", err)
	}

	out, err := newPopulator(s.store, s.registry).Serialize(ctx, t, []*domain.Record{updated})
	if err != nil {
		log.Error("failed to populate relationships", slog.String("error", err.Error()))
		return nil, NewServiceError("update", "failed to populate relationships", err)
	}

	log.Info("record updated")
	s.emitUpdated(ctx, t, id, attrs)
	return out[0], nil
}

// emitUpdated notifies the emitter of a committed update. The change is
// already durable, so handler failures are only logged.
func (s *resourceServiceImpl) emitUpdated(ctx context.Context, t *resource.Type, id string, attrs map[string]any) {
	if s.emitter == nil {
		return
	}
	var fields []string
	domain.Attributes(attrs).Leaves(func(path string, _ any) {
		fields = append(fields, path)
	})
	sort.Strings(fields)

	event := events.NewRecordUpdatedEvent(t.Name, t.Collection, id, fields)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Warn("record update notification failed",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}

// applyRelationships reduces relationship values in attrs to the bare
// related id and folds JSON:API relationship members into attrs.
func applyRelationships(t *resource.Type, attrs map[string]any, rels map[string]Relationship) error {
	a := domain.Attributes(attrs)
	declared := make(map[string]resource.Relationship, len(t.Relationships))
	for _, rel := range t.Relationships {
		declared[rel.Field] = rel
		if v, ok := a.Get(rel.Field); ok {
			if id, ok := referenceID(v); ok {
				a.Set(rel.Field, id)
			}
		}
	}

	for name, rel := range rels {
		decl, ok := declared[name]
		if !ok {
			return domain.NewValidationError("data.relationships."+name, "is not a relationship of this resource", nil)
		}
		if rel.Data == nil {
			a.Set(name, nil)
			continue
		}
		if rel.Data.Type != "" && rel.Data.Type != decl.Type {
			return domain.NewValidationError("data.relationships."+name+".data.type", "does not match the related resource type", nil)
		}
		a.Set(name, rel.Data.ID)
	}
	return nil
}

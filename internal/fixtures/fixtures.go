// Package fixtures bundles the sample users, admins and companies and loads
// them into any store.RecordStore.
package fixtures

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/platform/logger"
	"github.com/phrazzld/resource-api/internal/store"
	"golang.org/x/sync/errgroup"
)

//go:embed data/*.json
var dataFS embed.FS

// Set maps a collection name to its records in insertion order.
type Set map[string][]*domain.Record

// Collections returns the collection names of the set, sorted.
func (s Set) Collections() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so callers can import the same set repeatedly.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, records := range s {
		cp := make([]*domain.Record, len(records))
		for i, r := range records {
			cp[i] = r.Clone()
		}
		out[name] = cp
	}
	return out
}

// Default returns the embedded sample data. Each data/<collection>.json file
// becomes one collection.
func Default() (Set, error) {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("reading embedded fixtures: %w", err)
	}

	set := make(Set, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := dataFS.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", e.Name(), err)
		}
		records, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing fixture %s: %w", e.Name(), err)
		}
		set[strings.TrimSuffix(e.Name(), ".json")] = records
	}
	return set, nil
}

// Parse decodes a JSON array of documents. The "_id" (or "id") member
// becomes the record id and the remaining members its attributes.
func Parse(raw []byte) ([]*domain.Record, error) {
	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(docs))
	for i, doc := range docs {
		id, err := takeID(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		records = append(records, &domain.Record{ID: id, Attributes: domain.Attributes(doc)})
	}
	return records, nil
}

func takeID(doc map[string]any) (string, error) {
	for _, key := range []string{"_id", "id"} {
		v, ok := doc[key]
		if !ok {
			continue
		}
		delete(doc, key)
		id, ok := v.(string)
		if !ok || id == "" {
			return "", domain.NewValidationError(key, "must be a non-empty string", domain.ErrInvalidID)
		}
		return id, nil
	}
	return "", nil
}

// Load imports every collection of set into s concurrently.
func Load(ctx context.Context, s store.RecordStore, set Set) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, records := range set {
		g.Go(func() error {
			if err := s.Import(gctx, name, records); err != nil {
				return fmt.Errorf("importing %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, slog.Default()).Info("fixtures loaded",
		slog.Any("collections", set.Collections()))
	return nil
}

// RemoveAll empties every collection named in set concurrently.
func RemoveAll(ctx context.Context, s store.RecordStore, set Set) error {
	g, gctx := errgroup.WithContext(ctx)
	for name := range set {
		g.Go(func() error {
			if err := s.RemoveAll(gctx, name); err != nil {
				return fmt.Errorf("clearing %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Reset clears the collections of set and loads it again.
func Reset(ctx context.Context, s store.RecordStore, set Set) error {
	if err := RemoveAll(ctx, s, set); err != nil {
		return err
	}
	return Load(ctx, s, set)
}

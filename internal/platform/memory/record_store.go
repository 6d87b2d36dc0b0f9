package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/platform/logger"
	"github.com/phrazzld/resource-api/internal/store"
)

type collection struct {
	order []string
	byID  map[string]*domain.Record
}

func newCollection() *collection {
	return &collection{byID: make(map[string]*domain.Record)}
}

// RecordStore keeps records in memory. Collections are guarded by a single
// RWMutex; updates to the same record are additionally serialized by a
// per-record mutex so the read-merge-swap sequence is atomic per id while
// different ids proceed independently. Per-record mutexes exist only while
// an update holds or waits for them.
type RecordStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	connected   bool

	locksMu sync.Mutex
	locks   map[string]*recordLock

	logger *slog.Logger
}

// Compile-time check.
var _ store.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates an empty store. A nil logger means slog.Default().
func NewRecordStore(l *slog.Logger) *RecordStore {
	if l == nil {
		l = slog.Default()
	}
	return &RecordStore{
		collections: make(map[string]*collection),
		locks:       make(map[string]*recordLock),
		logger:      l,
	}
}

// Connect marks the store usable.
func (s *RecordStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	logger.FromContextOrDefault(ctx, s.logger).Debug("memory record store connected")
	return nil
}

// Disconnect marks the store unusable. Data is retained so a later Connect
// sees the same records.
func (s *RecordStore) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	logger.FromContextOrDefault(ctx, s.logger).Debug("memory record store disconnected")
	return nil
}

// Import inserts clones of records in order. The batch is validated first
// and applied only if every record is acceptable.
func (s *RecordStore) Import(ctx context.Context, name string, records []*domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return store.NewStoreError(name, "import", "store is not connected", store.ErrNotConnected)
	}

	c, ok := s.collections[name]
	if !ok {
		c = newCollection()
	}

	seen := make(map[string]struct{}, len(records))
	batch := make([]*domain.Record, 0, len(records))
	for _, r := range records {
		if r == nil {
			return store.NewStoreError(name, "import", "nil record", store.ErrInvalidEntity)
		}
		cp := r.Clone()
		if cp.ID == "" {
			cp.ID = domain.NewID()
		}
		if cp.Attributes == nil {
			cp.Attributes = domain.Attributes{}
		}
		if _, dup := c.byID[cp.ID]; dup {
			return store.NewStoreError(name, "import", "id "+cp.ID, store.ErrRecordExists)
		}
		if _, dup := seen[cp.ID]; dup {
			return store.NewStoreError(name, "import", "id "+cp.ID, store.ErrRecordExists)
		}
		seen[cp.ID] = struct{}{}
		batch = append(batch, cp)
	}

	for _, r := range batch {
		c.order = append(c.order, r.ID)
		c.byID[r.ID] = r
	}
	s.collections[name] = c

	logger.FromContextOrDefault(ctx, s.logger).Debug("records imported",
		slog.String("collection", name),
		slog.Int("count", len(batch)))
	return nil
}

// RemoveAll drops every record of the collection.
func (s *RecordStore) RemoveAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return store.NewStoreError(name, "remove_all", "store is not connected", store.ErrNotConnected)
	}
	delete(s.collections, name)
	return nil
}

// Find returns clones of all records in insertion order.
func (s *RecordStore) Find(ctx context.Context, name string) ([]*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, store.NewStoreError(name, "find", "store is not connected", store.ErrNotConnected)
	}

	c, ok := s.collections[name]
	if !ok {
		return []*domain.Record{}, nil
	}
	out := make([]*domain.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Clone())
	}
	return out, nil
}

// FindByID returns a clone of one record.
func (s *RecordStore) FindByID(ctx context.Context, name, id string) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, store.NewStoreError(name, "find_by_id", "store is not connected", store.ErrNotConnected)
	}

	r, err := s.lookup(name, id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// lookup expects s.mu to be held.
func (s *RecordStore) lookup(name, id string) (*domain.Record, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, store.ErrRecordNotFound)
	}
	r, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, store.ErrRecordNotFound)
	}
	return r, nil
}

// recordLock is a per-record mutex shared by the updates waiting on it.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// lockRecord serializes updates of one record. The returned func unlocks
// it; the entry is dropped once no update holds or waits for it.
func (s *RecordStore) lockRecord(name, id string) func() {
	key := name + "/" + id
	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &recordLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}

// Update merges patch into the stored record. The merged record is built on
// a copy and swapped in under the write lock, so readers never observe a
// partially applied patch.
func (s *RecordStore) Update(
	ctx context.Context,
	name, id string,
	patch domain.Attributes,
) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.lockRecord(name, id)
	defer unlock()

	s.mu.RLock()
	if !s.connected {
		s.mu.RUnlock()
		return nil, store.NewStoreError(name, "update", "store is not connected", store.ErrNotConnected)
	}
	current, err := s.lookup(name, id)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	merged := &domain.Record{ID: current.ID, Attributes: current.Attributes.Merge(patch)}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c, ok := s.collections[name]
	if !ok || c.byID[id] == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s/%s: %w", name, id, store.ErrRecordNotFound)
	}
	c.byID[id] = merged
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Debug("record updated",
		slog.String("collection", name),
		slog.String("id", id))
	return merged.Clone(), nil
}

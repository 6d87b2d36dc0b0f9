package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/store"
)

// MockRecordStore implements store.RecordStore for testing.
type MockRecordStore struct {
	// Delegate serves every method whose function field is nil. A nil
	// Delegate makes those methods succeed with zero values.
	Delegate store.RecordStore

	ConnectFn    func(ctx context.Context) error
	DisconnectFn func(ctx context.Context) error
	ImportFn     func(ctx context.Context, collection string, records []*domain.Record) error
	RemoveAllFn  func(ctx context.Context, collection string) error
	FindFn       func(ctx context.Context, collection string) ([]*domain.Record, error)
	FindByIDFn   func(ctx context.Context, collection, id string) (*domain.Record, error)
	UpdateFn     func(ctx context.Context, collection, id string, patch domain.Attributes) (*domain.Record, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ store.RecordStore = (*MockRecordStore)(nil)

// NewMockRecordStore creates a mock that delegates to s.
func NewMockRecordStore(s store.RecordStore) *MockRecordStore {
	return &MockRecordStore{Delegate: s}
}

// Calls returns how many times method was invoked.
func (m *MockRecordStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockRecordStore) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Connect implements store.RecordStore.
func (m *MockRecordStore) Connect(ctx context.Context) error {
	m.record("Connect")
	if m.ConnectFn != nil {
		return m.ConnectFn(ctx)
	}
	if m.Delegate != nil {
		return m.Delegate.Connect(ctx)
	}
	return nil
}

// Disconnect implements store.RecordStore.
func (m *MockRecordStore) Disconnect(ctx context.Context) error {
	m.record("Disconnect")
	if m.DisconnectFn != nil {
		return m.DisconnectFn(ctx)
	}
	if m.Delegate != nil {
		return m.Delegate.Disconnect(ctx)
	}
	return nil
}

// Import implements store.RecordStore.
func (m *MockRecordStore) Import(ctx context.Context, collection string, records []*domain.Record) error {
	m.record("Import")
	if m.ImportFn != nil {
		return m.ImportFn(ctx, collection, records)
	}
	if m.Delegate != nil {
		return m.Delegate.Import(ctx, collection, records)
	}
	return nil
}

// RemoveAll implements store.RecordStore.
func (m *MockRecordStore) RemoveAll(ctx context.Context, collection string) error {
	m.record("RemoveAll")
	if m.RemoveAllFn != nil {
		return m.RemoveAllFn(ctx, collection)
	}
	if m.Delegate != nil {
		return m.Delegate.RemoveAll(ctx, collection)
	}
	return nil
}

// Find implements store.RecordStore.
func (m *MockRecordStore) Find(ctx context.Context, collection string) ([]*domain.Record, error) {
	m.record("Find")
	if m.FindFn != nil {
		return m.FindFn(ctx, collection)
	}
	if m.Delegate != nil {
		return m.Delegate.Find(ctx, collection)
	}
	return []*domain.Record{}, nil
}

// FindByID implements store.RecordStore.
func (m *MockRecordStore) FindByID(ctx context.Context, collection, id string) (*domain.Record, error) {
	m.record("FindByID")
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, collection, id)
	}
	if m.Delegate != nil {
		return m.Delegate.FindByID(ctx, collection, id)
	}
	return nil, store.ErrRecordNotFound
}

// Update implements store.RecordStore.
func (m *MockRecordStore) Update(
	ctx context.Context,
	collection, id string,
	patch domain.Attributes,
) (*domain.Record, error) {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, collection, id, patch)
	}
	if m.Delegate != nil {
		return m.Delegate.Update(ctx, collection, id, patch)
	}
	return nil, store.ErrRecordNotFound
}

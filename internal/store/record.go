package store

import (
	"context"

	"github.com/phrazzld/resource-api/internal/domain"
)

// RecordStore defines the persistence contract for resource records.
// Records are grouped in named collections; each collection preserves
// insertion order, which the list path relies on for stable sorting.
//
// Reads may run concurrently. Update serializes writers per record and
// either applies the whole patch or nothing.
type RecordStore interface {
	// Connect prepares the store for use (e.g. verifies the database is reachable).
	Connect(ctx context.Context) error

	// Disconnect releases the store's resources.
	Disconnect(ctx context.Context) error

	// Import inserts records into collection in the given order.
	// Records without an id get a generated one.
	// Returns ErrRecordExists if an id is already present.
	Import(ctx context.Context, collection string, records []*domain.Record) error

	// RemoveAll deletes every record of collection.
	RemoveAll(ctx context.Context, collection string) error

	// Find returns all records of collection in insertion order.
	// An unknown or empty collection yields an empty slice.
	Find(ctx context.Context, collection string) ([]*domain.Record, error)

	// FindByID retrieves a single record.
	// Returns ErrRecordNotFound if it does not exist.
	FindByID(ctx context.Context, collection, id string) (*domain.Record, error)

	// Update merges patch leaf by leaf into the stored attributes and
	// returns the updated record. Untouched fields keep their values.
	// Returns ErrRecordNotFound if the record does not exist.
	Update(ctx context.Context, collection, id string, patch domain.Attributes) (*domain.Record, error)
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/platform/logger"
	"github.com/phrazzld/resource-api/internal/store"
)

const (
	insertRecordSQL = `INSERT INTO resource_records (collection, id, attributes) VALUES ($1, $2, $3)`

	deleteCollectionSQL = `DELETE FROM resource_records WHERE collection = $1`

	selectCollectionSQL = `SELECT id, attributes FROM resource_records WHERE collection = $1 ORDER BY seq`

	selectRecordSQL = `SELECT id, attributes FROM resource_records WHERE collection = $1 AND id = $2`

	selectRecordForUpdateSQL = selectRecordSQL + ` FOR UPDATE`

	updateRecordSQL = `UPDATE resource_records SET attributes = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
)

// RecordStore implements store.RecordStore on PostgreSQL.
type RecordStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check.
var _ store.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a store over db. The store owns db after this call;
// Disconnect closes it.
func NewRecordStore(db *sql.DB, l *slog.Logger) *RecordStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	return &RecordStore{
		db:     db,
		logger: l.With(slog.String("component", "record_store")),
	}
}

func (s *RecordStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Connect verifies the database is reachable.
func (s *RecordStore) Connect(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.NewStoreError("", "connect", "database ping failed", err)
	}
	s.log(ctx).Debug("postgres record store connected")
	return nil
}

// Disconnect closes the underlying connection pool.
func (s *RecordStore) Disconnect(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return store.NewStoreError("", "disconnect", "closing database failed", err)
	}
	s.log(ctx).Debug("postgres record store disconnected")
	return nil
}

// Import inserts records in order within one transaction, so either the
// whole batch is stored or none of it.
func (s *RecordStore) Import(ctx context.Context, collection string, records []*domain.Record) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, r := range records {
			if r == nil {
				return fmt.Errorf("%w: nil record", store.ErrInvalidEntity)
			}
			id := r.ID
			if id == "" {
				id = domain.NewID()
			}
			doc, err := encodeAttributes(r.Attributes)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, insertRecordSQL, collection, id, doc); err != nil {
				if IsUniqueViolation(err) {
					return fmt.Errorf("record %s: %w", id, MapError(err))
				}
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		level := slog.LevelError
		if store.IsDuplicateError(err) {
			level = slog.LevelWarn
		}
		s.log(ctx).Log(ctx, level, "failed to import records",
			slog.String("collection", collection),
			slog.Int("count", len(records)),
			slog.String("error", err.Error()))
		return store.NewStoreError(collection, "import", "import failed", err)
	}

	s.log(ctx).Debug("records imported",
		slog.String("collection", collection),
		slog.Int("count", len(records)))
	return nil
}

// RemoveAll deletes every record of collection.
func (s *RecordStore) RemoveAll(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, deleteCollectionSQL, collection); err != nil {
		return store.NewStoreError(collection, "remove_all", "delete failed", MapError(err))
	}
	return nil
}

// Find returns all records of collection ordered by insertion.
func (s *RecordStore) Find(ctx context.Context, collection string) ([]*domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectCollectionSQL, collection)
	if err != nil {
		return nil, store.NewStoreError(collection, "find", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records := []*domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, store.NewStoreError(collection, "find", "scan failed", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(collection, "find", "row iteration failed", MapError(err))
	}
	return records, nil
}

// FindByID returns one record or store.ErrRecordNotFound.
func (s *RecordStore) FindByID(ctx context.Context, collection, id string) (*domain.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectRecordSQL, collection, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrRecordNotFound)
		}
		return nil, store.NewStoreError(collection, "find_by_id", "query failed", err)
	}
	return r, nil
}

// Update locks the row, merges patch into its attributes and writes the
// result back in the same transaction.
func (s *RecordStore) Update(
	ctx context.Context,
	collection, id string,
	patch domain.Attributes,
) (*domain.Record, error) {
	var updated *domain.Record

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		current, err := scanRecord(tx.QueryRowContext(ctx, selectRecordForUpdateSQL, collection, id))
		if err != nil {
			return err
		}

		merged := &domain.Record{ID: current.ID, Attributes: current.Attributes.Merge(patch)}
		doc, err := encodeAttributes(merged.Attributes)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, updateRecordSQL, collection, id, doc)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, collection+"/"+id); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrRecordNotFound)
		}
		s.log(ctx).Error("failed to update record",
			slog.String("collection", collection),
			slog.String("id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(collection, "update", "update failed", err)
	}

	s.log(ctx).Debug("record updated",
		slog.String("collection", collection),
		slog.String("id", id))
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		id  string
		doc []byte
	)
	if err := row.Scan(&id, &doc); err != nil {
		return nil, MapError(err)
	}

	attrs := domain.Attributes{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &attrs); err != nil {
			return nil, fmt.Errorf("%w: decoding attributes of %s: %v", store.ErrInvalidEntity, id, err)
		}
	}
	return &domain.Record{ID: id, Attributes: attrs}, nil
}

func encodeAttributes(attrs domain.Attributes) (string, error) {
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("%w: encoding attributes: %v", store.ErrInvalidEntity, err)
	}
	return string(b), nil
}

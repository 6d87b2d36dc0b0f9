package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/resource-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "resource_records",
		ColumnName:     "attributes",
		ConstraintName: "test_constraint",
	}
}

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: sql.ErrNoRows, target: store.ErrRecordNotFound},
		{name: "unique violation", err: newPgError(uniqueViolationCode), target: store.ErrRecordExists},
		{name: "foreign key", err: newPgError(foreignKeyViolationCode), target: store.ErrInvalidEntity},
		{name: "check", err: newPgError(checkViolationCode), target: store.ErrInvalidEntity},
		{name: "not null", err: newPgError(notNullViolationCode), target: store.ErrInvalidEntity},
		{name: "invalid json", err: newPgError(invalidJSONCode), target: store.ErrInvalidEntity},
		{
			name:   "wrapped unique violation",
			err:    fmt.Errorf("insert: %w", newPgError(uniqueViolationCode)),
			target: store.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tt.err), tt.target)
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MapError(nil))

	plain := errors.New("network down")
	assert.Same(t, plain, MapError(plain))

	other := newPgError("40001")
	assert.Equal(t, error(other), MapError(other))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(newPgError(uniqueViolationCode)))
	assert.False(t, IsUniqueViolation(newPgError(notNullViolationCode)))
	assert.False(t, IsUniqueViolation(errors.New("x")))

	assert.True(t, IsUniqueViolation(fmt.Errorf("w: %w", newPgError(uniqueViolationCode))))
	assert.False(t, IsUniqueViolation(nil))

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("w: %w", store.ErrRecordNotFound)))
	assert.False(t, IsNotFoundError(errors.New("x")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(mockResult{rowsAffected: 1}, "users/u1"))

	err := CheckRowsAffected(mockResult{rowsAffected: 0}, "users/u1")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "users/u1")

	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, ""), store.ErrRecordNotFound)

	err = CheckRowsAffected(mockResult{err: errors.New("driver")}, "x")
	assert.ErrorContains(t, err, "failed to get rows affected")

	assert.Error(t, CheckRowsAffected(nil, "x"))
}

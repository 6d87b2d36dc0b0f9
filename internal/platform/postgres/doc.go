// Package postgres provides the PostgreSQL implementation of
// store.RecordStore. Records live in a single resource_records table keyed
// by (collection, id) with their attributes stored as JSONB; a bigserial
// sequence column preserves insertion order. Schema changes are managed by
// goose migrations embedded in the migrations subpackage.
package postgres

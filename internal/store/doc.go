// Package store defines the persistence contract for resource records.
// The interface abstracts the underlying storage mechanism (in-memory or
// PostgreSQL) from the query and update pipelines, which only ever see
// domain records and the sentinel errors declared here.
package store

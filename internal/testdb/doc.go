//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests are skipped unless a database URL is configured:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    collection := testdb.UniqueCollection(t, db, "users")
//	    ...
//	}
//
// GetTestDBWithT applies the embedded migrations before returning the
// connection. Each test works in its own collection so tests can run in
// parallel against the shared resource_records table; the collection is
// emptied on cleanup.
//
// The package uses the following environment variables, in order:
//
//   - DATABASE_URL
//   - RESOURCE_API_TEST_DB_URL
//   - RESOURCE_API_DATABASE_URL
package testdb

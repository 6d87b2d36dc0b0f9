//go:build integration

package testdb

import "os"

// Environment variables checked for a test database URL, in priority order.
const (
	EnvDatabaseURL        = "DATABASE_URL"
	EnvTestDatabaseURL    = "RESOURCE_API_TEST_DB_URL"
	EnvServiceDatabaseURL = "RESOURCE_API_DATABASE_URL"
)

// GetTestDatabaseURL returns the first non-empty database URL from the
// environment, or "" when none is set.
func GetTestDatabaseURL() string {
	for _, name := range []string{EnvDatabaseURL, EnvTestDatabaseURL, EnvServiceDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a database URL is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// ShouldSkipDatabaseTest reports whether database tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}

// isCIEnvironment reports whether the tests run under a CI system, where a
// missing database is a failure rather than a skip.
func isCIEnvironment() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

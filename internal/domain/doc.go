// Package domain contains the core entities of the resource API: persisted
// records, their nested attribute trees, and the errors shared by every
// layer. It is independent of any storage backend or delivery mechanism.
package domain

// Package memory provides an in-process implementation of store.RecordStore.
// It is the default backend and the one used by service and handler tests.
package memory

// Package service implements the resource use cases: the list pipeline
// (parse, filter, search, sort, paginate, populate, serialize) and the update
// pipeline (validate, resolve, sanitize, translate, persist, serialize).
//
// Services depend on the store.RecordStore interface and the resource
// registry, never on a concrete backend.
package service

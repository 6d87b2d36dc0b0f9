// Package events provides in-process notifications about committed record
// changes.
//
// The update path emits a RecordEvent after the store has committed a
// change. Handlers run synchronously on the emitting goroutine; their
// failures are reported to the emitter's caller but do not undo the change.
package events

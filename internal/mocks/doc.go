// Package mocks provides hand-written test doubles for the store and event
// interfaces. Each mock exposes function fields that override individual
// methods; unset methods fall through to an optional delegate.
package mocks

package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/resource-api/internal/events"
)

// MockEventEmitter records emitted events.
type MockEventEmitter struct {
	// Err is returned from every EmitEvent call.
	Err error

	mu     sync.Mutex
	events []*events.RecordEvent
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (m *MockEventEmitter) EmitEvent(_ context.Context, event *events.RecordEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

// Events returns a copy of the emitted events in order.
func (m *MockEventEmitter) Events() []*events.RecordEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*events.RecordEvent, len(m.events))
	copy(out, m.events)
	return out
}

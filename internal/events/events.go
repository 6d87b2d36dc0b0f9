package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeRecordUpdated = "record.updated"
)

// RecordEvent describes a committed change to a single record.
type RecordEvent struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	ResourceType string    `json:"resource_type"`
	Collection   string    `json:"collection"`
	RecordID     string    `json:"record_id"`
	// Fields lists the external field paths present in the update.
	Fields    []string  `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecordUpdatedEvent creates a record.updated event.
func NewRecordUpdatedEvent(resourceType, collection, recordID string, fields []string) *RecordEvent {
	return &RecordEvent{
		ID:           uuid.New(),
		Type:         TypeRecordUpdated,
		ResourceType: resourceType,
		Collection:   collection,
		RecordID:     recordID,
		Fields:       fields,
		CreatedAt:    time.Now().UTC(),
	}
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *RecordEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *RecordEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *RecordEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *RecordEvent) error
}

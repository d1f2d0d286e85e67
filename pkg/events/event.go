package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on the bus.
const (
	STATE_CHANGED     = "STATE_CHANGED"
	DOCUMENTS_CHANGED = "DOCUMENTS_CHANGED"
)

// Event defines the contract for all client events.
type Event interface {
	// EventID is unique per event and used for de-duplication.
	EventID() string

	// EventType returns the unique code for this event (e.g., "DOCUMENTS_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// DocumentsChanged tells other clients to re-fetch the document list. Origin
// identifies the publishing process so it can skip its own events.
func DocumentsChanged(origin, operation, docID string) BaseEvent {
	return New(DOCUMENTS_CHANGED, map[string]interface{}{
		"origin":    origin,
		"operation": operation,
		"doc_id":    docID,
	})
}

// Origin returns the publishing process of e, if recorded.
func Origin(e Event) string {
	origin, _ := e.Payload()["origin"].(string)
	return origin
}

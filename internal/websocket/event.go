package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the verb half of an event name
type EventType string

const (
	EventTypeOpened          EventType = "opened"
	EventTypeClosed          EventType = "closed"
	EventTypeRecorded        EventType = "recorded"
	EventTypeLocationUpdated EventType = "location_updated"
)

// EntityType is the noun half of an event name
type EntityType string

const (
	EntityTypeSession EntityType = "session"
	EntityTypeSale    EntityType = "sale"
	EntityTypeExpense EntityType = "expense"
	EntityTypeCrew    EntityType = "crew"
)

// Event is the message pushed to dashboards.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"` // e.g. "session.closed"
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates an event stamped with the current UTC time
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func SessionOpened(payload interface{}) Event {
	return NewEvent(EventTypeOpened, EntityTypeSession, payload)
}

func SessionClosed(payload interface{}) Event {
	return NewEvent(EventTypeClosed, EntityTypeSession, payload)
}

func SaleRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypeSale, payload)
}

func ExpenseRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypeExpense, payload)
}

// CrewLocationUpdated carries the batch of positions from one poll
func CrewLocationUpdated(payload interface{}) Event {
	return NewEvent(EventTypeLocationUpdated, EntityTypeCrew, payload)
}
